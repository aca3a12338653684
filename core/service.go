package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Service struct {
	db  DB
	now func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for history timestamps and
// due-date queries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db DB, opts ...Option) *Service {
	s := &Service{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.db.Count(ctx)
}

func (s *Service) record(t *Task, actor string, changes map[string]any) {
	t.History = append(t.History, HistoryEntry{
		Timestamp: s.now(),
		Changes:   changes,
		ChangedBy: actor,
	})
}

// Queries

func (s *Service) GetTask(ctx context.Context, id int64) (Task, error) {
	return s.db.FindByID(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context, f ListTasksFilter) ([]Task, error) {
	tasks, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByFields(tasks, f), nil
}

func (s *Service) SearchTasks(ctx context.Context, keyword string) ([]Task, error) {
	tasks, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	return Search(tasks, keyword), nil
}

func (s *Service) OverdueTasks(ctx context.Context) ([]Task, error) {
	tasks, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	return Overdue(tasks, s.now()), nil
}

func (s *Service) DueSoonTasks(ctx context.Context, days int) ([]Task, error) {
	tasks, err := s.db.List(ctx)
	if err != nil {
		return nil, err
	}
	return DueSoon(tasks, s.now(), days), nil
}

// Mutations

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (Task, error) {
	t := in.task()
	if t.Status == "" {
		t.Status = StatusPending
	}
	return s.db.Insert(ctx, t)
}

// BulkCreate inserts every element with bulk defaults applied. The batch is
// fully decoded by the caller before this runs, so there is no partial batch
// caused by bad input.
func (s *Service) BulkCreate(ctx context.Context, batch []TaskInput) ([]Task, error) {
	out := make([]Task, 0, len(batch))
	for _, in := range batch {
		t := in.task()
		if t.Status == "" {
			t.Status = StatusPending
		}
		if t.Priority == "" {
			t.Priority = DefaultPriority
		}
		if t.Category == "" {
			t.Category = DefaultCategory
		}
		created, err := s.db.Insert(ctx, t)
		if err != nil {
			return out, fmt.Errorf("bulk insert: %w", err)
		}
		out = append(out, created)
	}
	return out, nil
}

var mutableFields = map[string]func(t *Task, raw json.RawMessage) error{
	"title":       func(t *Task, raw json.RawMessage) error { return setField(&t.Title, raw) },
	"description": func(t *Task, raw json.RawMessage) error { return setField(&t.Description, raw) },
	"status":      func(t *Task, raw json.RawMessage) error { return setField(&t.Status, raw) },
	"priority":    func(t *Task, raw json.RawMessage) error { return setField(&t.Priority, raw) },
	"category":    func(t *Task, raw json.RawMessage) error { return setField(&t.Category, raw) },
	"dueDate":     func(t *Task, raw json.RawMessage) error { return setField(&t.DueDate, raw) },
	"completed":   func(t *Task, raw json.RawMessage) error { return setField(&t.Completed, raw) },
	"assignedTo":  func(t *Task, raw json.RawMessage) error { return setField(&t.AssignedTo, raw) },
}

// setField replaces dst with the decoded value; JSON null resets it to zero.
func setField[T any](dst *T, raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// UpdateTask shallow-merges the supplied fields over the stored task. Keys
// that are not mutable task fields (id, history, comments, unknown keys) are
// dropped. The history entry carries exactly the applied delta.
func (s *Service) UpdateTask(ctx context.Context, actor string, id int64, fields map[string]json.RawMessage) (Task, error) {
	changes := make(map[string]any, len(fields))
	for k, raw := range fields {
		if _, ok := mutableFields[k]; !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return Task{}, ErrInvalidJSON
		}
		changes[k] = v
	}

	return s.db.Update(ctx, id, func(t *Task) error {
		s.record(t, actor, changes)
		for k := range changes {
			if err := mutableFields[k](t, fields[k]); err != nil {
				return fmt.Errorf("%w: field %s: %v", ErrInvalidJSON, k, err)
			}
		}
		return nil
	})
}

// SetPriority sets priority; nil clears it.
func (s *Service) SetPriority(ctx context.Context, actor string, id int64, priority *string) (Task, error) {
	return s.db.Update(ctx, id, func(t *Task) error {
		s.record(t, actor, map[string]any{"priority": optional(priority)})
		t.Priority = ""
		if priority != nil {
			t.Priority = *priority
		}
		return nil
	})
}

func (s *Service) Assign(ctx context.Context, actor string, id int64, assignee *string) (Task, error) {
	return s.db.Update(ctx, id, func(t *Task) error {
		s.record(t, actor, map[string]any{"assignedTo": optional(assignee)})
		t.AssignedTo = assignee
		return nil
	})
}

func (s *Service) Unassign(ctx context.Context, actor string, id int64) (Task, error) {
	return s.db.Update(ctx, id, func(t *Task) error {
		if t.History == nil {
			t.History = []HistoryEntry{}
		}
		s.record(t, actor, map[string]any{"assignedTo": nil})
		t.AssignedTo = nil
		return nil
	})
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	removed, err := s.db.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrTaskNotFound
	}
	return nil
}

// DeleteCompleted removes every task with status completed and reports
// ErrNoCompletedTasks when there was nothing to remove.
func (s *Service) DeleteCompleted(ctx context.Context) (int, error) {
	n, err := s.db.RemoveWhere(ctx, func(t Task) bool {
		return t.Status == StatusCompleted
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNoCompletedTasks
	}
	return n, nil
}

func optional(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
