package core

import (
	"context"
	"encoding/json"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// DB owns the task collection. Implementations hand out copies only.
type DB interface {
	Pinger

	NextID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, t Task) (Task, error)
	FindByID(ctx context.Context, id int64) (Task, error)
	FindIndex(ctx context.Context, id int64) (int, error)
	// Update applies fn to a copy of the task and commits it only if fn
	// returns nil.
	Update(ctx context.Context, id int64, fn func(t *Task) error) (Task, error)
	Remove(ctx context.Context, id int64) (bool, error)
	RemoveWhere(ctx context.Context, pred func(t Task) bool) (int, error)
	List(ctx context.Context) ([]Task, error)
	Count(ctx context.Context) (int, error)
}

// Tasks is what the HTTP layer needs from the task service.
type Tasks interface {
	Pinger

	Count(ctx context.Context) (int, error)

	GetTask(ctx context.Context, id int64) (Task, error)
	ListTasks(ctx context.Context, f ListTasksFilter) ([]Task, error)
	SearchTasks(ctx context.Context, keyword string) ([]Task, error)
	OverdueTasks(ctx context.Context) ([]Task, error)
	DueSoonTasks(ctx context.Context, days int) ([]Task, error)

	CreateTask(ctx context.Context, in TaskInput) (Task, error)
	BulkCreate(ctx context.Context, batch []TaskInput) ([]Task, error)
	UpdateTask(ctx context.Context, actor string, id int64, fields map[string]json.RawMessage) (Task, error)
	SetPriority(ctx context.Context, actor string, id int64, priority *string) (Task, error)
	Assign(ctx context.Context, actor string, id int64, assignee *string) (Task, error)
	Unassign(ctx context.Context, actor string, id int64) (Task, error)
	DeleteTask(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context) (int, error)
}
