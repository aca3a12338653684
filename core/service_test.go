package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"task-tracker/adapters/memory"
	"task-tracker/core"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newServiceWithStorage() (*memory.Storage, *core.Service) {
	db := memory.New(slog.New(slog.NewTextHandler(io.Discard, nil)), memory.IDMonotonic)
	return db, core.NewService(db, core.WithClock(func() time.Time { return fixedNow }))
}

func mustCreateTask(t *testing.T, svc *core.Service, in core.TaskInput) core.Task {
	t.Helper()

	task, err := svc.CreateTask(context.Background(), in)
	if err != nil {
		t.Fatalf("failed to prepare task: %v", err)
	}
	return task
}

func strPtr(v string) *string {
	return &v
}

func raw(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		t.Fatalf("bad test body %s: %v", body, err)
	}
	return fields
}

func lastChange(t *testing.T, task core.Task) core.HistoryEntry {
	t.Helper()

	if len(task.History) == 0 {
		t.Fatalf("expected history entries, got none")
	}
	return task.History[len(task.History)-1]
}

func TestServiceCreateTask_Defaults(t *testing.T) {
	t.Parallel()

	_, svc := newServiceWithStorage()

	task := mustCreateTask(t, svc, core.TaskInput{Title: "plan sprint"})

	if task.ID != 1 {
		t.Fatalf("expected id 1, got %d", task.ID)
	}
	if task.Status != core.StatusPending {
		t.Fatalf("expected pending status, got %q", task.Status)
	}
	// only bulk create fills priority and category
	if task.Priority != "" || task.Category != "" {
		t.Fatalf("expected empty priority and category, got %q/%q", task.Priority, task.Category)
	}
	if len(task.History) != 0 || len(task.Comments) != 0 {
		t.Fatalf("expected empty history and comments")
	}
}

func TestServiceBulkCreate_AppliesDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()

	created, err := svc.BulkCreate(ctx, []core.TaskInput{
		{Title: "a"},
		{Title: "b", Status: core.StatusInProgress, Priority: "high", Category: "ops", AssignedTo: strPtr("kim")},
	})
	if err != nil {
		t.Fatalf("BulkCreate returned error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(created))
	}

	first := created[0]
	if first.Status != core.StatusPending || first.Priority != core.DefaultPriority ||
		first.Category != core.DefaultCategory || first.AssignedTo != nil {
		t.Fatalf("defaults not applied: %+v", first)
	}

	second := created[1]
	if second.Status != core.StatusInProgress || second.Priority != "high" ||
		second.Category != "ops" || second.AssignedTo == nil || *second.AssignedTo != "kim" {
		t.Fatalf("supplied values overwritten: %+v", second)
	}
	if second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
}

func TestServiceUpdateTask_AppendsHistoryThenMerges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{Title: "old", Description: "keep me", Priority: "low"})

	updated, err := svc.UpdateTask(ctx, "alice", task.ID, raw(t, `{"title":"new","status":"completed"}`))
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}

	if updated.Title != "new" || updated.Status != core.StatusCompleted {
		t.Fatalf("fields not merged: %+v", updated)
	}
	if updated.Description != "keep me" || updated.Priority != "low" {
		t.Fatalf("fields missing from the body did not survive: %+v", updated)
	}
	if len(updated.History) != len(task.History)+1 {
		t.Fatalf("expected history to grow by one, got %d", len(updated.History))
	}

	entry := lastChange(t, updated)
	want := map[string]any{"title": "new", "status": "completed"}
	if !reflect.DeepEqual(entry.Changes, want) {
		t.Fatalf("expected changes %v, got %v", want, entry.Changes)
	}
	if entry.ChangedBy != "alice" {
		t.Fatalf("expected changedBy alice, got %q", entry.ChangedBy)
	}
	if !entry.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected timestamp %v, got %v", fixedNow, entry.Timestamp)
	}
}

func TestServiceUpdateTask_IgnoresProtectedAndUnknownFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{Title: "t"})

	updated, err := svc.UpdateTask(ctx, "bob", task.ID, raw(t, `{"id":99,"history":[],"comments":[1],"color":"red","priority":"high"}`))
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.ID != task.ID {
		t.Fatalf("id changed to %d", updated.ID)
	}
	if len(updated.History) != 1 || len(updated.Comments) != 0 {
		t.Fatalf("history/comments overwritten: %+v", updated)
	}
	want := map[string]any{"priority": "high"}
	if got := lastChange(t, updated).Changes; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected changes %v, got %v", want, got)
	}
}

func TestServiceUpdateTask_NullClearsField(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{Title: "t", AssignedTo: strPtr("kim"), DueDate: core.NewDate(fixedNow)})

	updated, err := svc.UpdateTask(ctx, "bob", task.ID, raw(t, `{"assignedTo":null,"dueDate":null}`))
	if err != nil {
		t.Fatalf("UpdateTask returned error: %v", err)
	}
	if updated.AssignedTo != nil || updated.DueDate != nil {
		t.Fatalf("expected cleared fields, got %+v", updated)
	}
}

func TestServiceUpdateTask_BadFieldLeavesTaskUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{Title: "stay"})

	_, err := svc.UpdateTask(ctx, "bob", task.ID, raw(t, `{"title":"gone","dueDate":"not a date"}`))
	if !errors.Is(err, core.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}

	stored, err := db.FindByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.Title != "stay" || len(stored.History) != 0 {
		t.Fatalf("store changed by a rejected update: %+v", stored)
	}
}

func TestServiceUpdateTask_NotFound(t *testing.T) {
	t.Parallel()

	_, svc := newServiceWithStorage()

	_, err := svc.UpdateTask(context.Background(), "bob", 404, raw(t, `{"title":"x"}`))
	if !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestServiceSingleFieldMutations_RecordExactDelta(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(svc *core.Service, id int64) (core.Task, error)
		want   map[string]any
		check  func(t core.Task) bool
	}{
		{
			name: "priority",
			mutate: func(svc *core.Service, id int64) (core.Task, error) {
				return svc.SetPriority(context.Background(), "eve", id, strPtr("high"))
			},
			want:  map[string]any{"priority": "high"},
			check: func(t core.Task) bool { return t.Priority == "high" },
		},
		{
			name: "priority missing",
			mutate: func(svc *core.Service, id int64) (core.Task, error) {
				return svc.SetPriority(context.Background(), "eve", id, nil)
			},
			want:  map[string]any{"priority": nil},
			check: func(t core.Task) bool { return t.Priority == "" },
		},
		{
			name: "assign",
			mutate: func(svc *core.Service, id int64) (core.Task, error) {
				return svc.Assign(context.Background(), "eve", id, strPtr("sam"))
			},
			want:  map[string]any{"assignedTo": "sam"},
			check: func(t core.Task) bool { return t.AssignedTo != nil && *t.AssignedTo == "sam" },
		},
		{
			name: "unassign",
			mutate: func(svc *core.Service, id int64) (core.Task, error) {
				return svc.Unassign(context.Background(), "eve", id)
			},
			want:  map[string]any{"assignedTo": nil},
			check: func(t core.Task) bool { return t.AssignedTo == nil },
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, svc := newServiceWithStorage()
			task := mustCreateTask(t, svc, core.TaskInput{Title: "t", Priority: "low", AssignedTo: strPtr("kim")})

			updated, err := tc.mutate(svc, task.ID)
			if err != nil {
				t.Fatalf("mutation returned error: %v", err)
			}
			if len(updated.History) != len(task.History)+1 {
				t.Fatalf("expected history to grow by one, got %d", len(updated.History))
			}
			entry := lastChange(t, updated)
			if !reflect.DeepEqual(entry.Changes, tc.want) {
				t.Fatalf("expected changes %v, got %v", tc.want, entry.Changes)
			}
			if entry.ChangedBy != "eve" {
				t.Fatalf("expected changedBy eve, got %q", entry.ChangedBy)
			}
			if !tc.check(updated) {
				t.Fatalf("field not applied: %+v", updated)
			}
		})
	}
}

func TestServiceSingleFieldMutations_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()

	if _, err := svc.SetPriority(ctx, "x", 1, strPtr("high")); !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("SetPriority: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.Assign(ctx, "x", 1, strPtr("a")); !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("Assign: expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.Unassign(ctx, "x", 1); !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("Unassign: expected ErrTaskNotFound, got %v", err)
	}
}

func TestServiceUnassign_InitialisesMissingHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{AssignedTo: strPtr("kim")})

	// simulate a partially built record
	if _, err := db.Update(ctx, task.ID, func(t *core.Task) error {
		t.History = nil
		return nil
	}); err != nil {
		t.Fatalf("failed to prepare task: %v", err)
	}

	updated, err := svc.Unassign(ctx, "eve", task.ID)
	if err != nil {
		t.Fatalf("Unassign returned error: %v", err)
	}
	if len(updated.History) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(updated.History))
	}
	want := map[string]any{"assignedTo": nil}
	if !reflect.DeepEqual(updated.History[0].Changes, want) {
		t.Fatalf("expected changes %v, got %v", want, updated.History[0].Changes)
	}
}

func TestServiceDeleteTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	task := mustCreateTask(t, svc, core.TaskInput{})

	if err := svc.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask returned error: %v", err)
	}
	if _, err := svc.GetTask(ctx, task.ID); !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("expected deleted task to be gone, got %v", err)
	}
	if err := svc.DeleteTask(ctx, task.ID); !errors.Is(err, core.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestServiceDeleteCompleted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	for _, st := range []core.TaskStatus{core.StatusPending, core.StatusCompleted, core.StatusCompleted} {
		mustCreateTask(t, svc, core.TaskInput{Status: st})
	}

	n, err := svc.DeleteCompleted(ctx)
	if err != nil {
		t.Fatalf("DeleteCompleted returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}

	if _, err := svc.DeleteCompleted(ctx); !errors.Is(err, core.ErrNoCompletedTasks) {
		t.Fatalf("expected ErrNoCompletedTasks, got %v", err)
	}

	left, err := svc.ListTasks(ctx, core.ListTasksFilter{})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if len(left) != 1 || left[0].Status != core.StatusPending {
		t.Fatalf("unexpected survivors: %+v", left)
	}
}

func TestServiceQueries_DoNotMutateStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, svc := newServiceWithStorage()
	mustCreateTask(t, svc, core.TaskInput{Title: "a", Status: core.StatusPending, DueDate: core.NewDate(fixedNow.Add(-time.Hour))})
	mustCreateTask(t, svc, core.TaskInput{Title: "b", Status: core.StatusCompleted, DueDate: core.NewDate(fixedNow.Add(time.Hour))})

	before, err := svc.ListTasks(ctx, core.ListTasksFilter{})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}

	completed, err := svc.ListTasks(ctx, core.ListTasksFilter{Status: core.StatusCompleted})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if len(completed) != 1 || completed[0].Title != "b" {
		t.Fatalf("expected only task b, got %+v", completed)
	}

	if got, _ := svc.SearchTasks(ctx, "A"); len(got) != 1 {
		t.Fatalf("expected 1 search hit, got %d", len(got))
	}
	if got, _ := svc.OverdueTasks(ctx); len(got) != 1 || got[0].Title != "a" {
		t.Fatalf("expected task a overdue, got %+v", got)
	}
	if got, _ := svc.DueSoonTasks(ctx, 1); len(got) != 1 || got[0].Title != "b" {
		t.Fatalf("expected task b due soon, got %+v", got)
	}

	after, err := svc.ListTasks(ctx, core.ListTasksFilter{})
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("store changed by queries:\nbefore %+v\nafter  %+v", before, after)
	}
}
