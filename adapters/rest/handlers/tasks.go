package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"task-tracker/adapters/rest"
	"task-tracker/core"
	"task-tracker/pkg/res"
)

// parseID treats an id that is not a positive integer as an unknown task.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrTaskNotFound
	}
	return id, nil
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func NewCreateTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := rest.ReadBody(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		var in core.TaskInput
		if err := rest.DecodeObject(body, &in); err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.CreateTask(ctx, in)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusCreated)
	}
}

// NewBulkCreateHandler acknowledges with the batch exactly as it was sent.
func NewBulkCreateHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := rest.ReadBody(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		batch, err := rest.DecodeBatch(body)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if _, err := svc.BulkCreate(ctx, batch); err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, json.RawMessage(body), http.StatusCreated)
	}
}

func NewGetTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.GetTask(ctx, id)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewListTasksHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := core.ListTasksFilter{
			Status:   core.TaskStatus(q.Get("status")),
			Priority: q.Get("priority"),
			Category: q.Get("category"),
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.ListTasks(ctx, f)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewSearchTasksHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.SearchTasks(ctx, r.URL.Query().Get("q"))
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewOverdueTasksHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.OverdueTasks(ctx)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewDueSoonTasksHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryInt(r, "days", core.DefaultDueSoonDays)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		items, err := svc.DueSoonTasks(ctx, days)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, items, http.StatusOK)
	}
}

func NewUpdateTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		body, err := rest.ReadBody(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		var fields map[string]json.RawMessage
		if err := rest.DecodeObject(body, &fields); err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.UpdateTask(ctx, actor(r), id, fields)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewPatchPriorityHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		body, err := rest.ReadBody(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		var in rest.PriorityIn
		if err := rest.DecodeObject(body, &in); err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.SetPriority(ctx, actor(r), id, in.Priority)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewAssignTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		body, err := rest.ReadBody(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		var in rest.AssignIn
		if err := rest.DecodeObject(body, &in); err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.Assign(ctx, actor(r), id, in.AssignedTo)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

// NewUnassignTaskHandler takes no body.
func NewUnassignTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := svc.Unassign(ctx, actor(r), id)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Json(w, t, http.StatusOK)
	}
}

func NewDeleteTaskHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := svc.DeleteTask(ctx, id); err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		res.Message(w, "Task deleted successfully")
	}
}

func NewDeleteCompletedHandler(log *slog.Logger, svc core.Tasks, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		n, err := svc.DeleteCompleted(ctx)
		if err != nil {
			rest.WriteErr(w, log, err)
			return
		}
		log.Debug("completed tasks deleted", "count", n)
		res.Message(w, "Completed tasks deleted successfully")
	}
}
