package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"task-tracker/adapters/auth"
	"task-tracker/core"
	"task-tracker/pkg/res"
)

type Options struct {
	Timeout time.Duration
	// Strict gates every /tasks route behind authentication.
	Strict bool
	// DefaultActor is recorded as changedBy when a request carries no
	// valid identity.
	DefaultActor string
}

// Route is one dispatch entry. Auth states whether the route refuses
// unauthenticated requests.
type Route struct {
	Pattern string
	Auth    bool
	Handler http.Handler
}

// Routes returns the dispatch table. ServeMux picks the most specific
// matching pattern, so a literal segment beats {id} and a longer path beats
// a shorter one; the table lists specific shapes before generic ones for
// the same method to keep that visible.
func Routes(log *slog.Logger, svc core.Tasks, timeout time.Duration) []Route {
	return []Route{
		{"GET /ping", false, NewPingHandler(log, svc, map[string]core.Pinger{"store": svc}, timeout)},

		{"POST /tasks/bulk", false, NewBulkCreateHandler(log, svc, timeout)},
		{"POST /tasks/{group}/bulk", false, NewBulkCreateHandler(log, svc, timeout)},
		{"POST /tasks", true, NewCreateTaskHandler(log, svc, timeout)},

		{"GET /tasks/search", true, NewSearchTasksHandler(log, svc, timeout)},
		{"GET /tasks/overdue", true, NewOverdueTasksHandler(log, svc, timeout)},
		{"GET /tasks/due-soon", true, NewDueSoonTasksHandler(log, svc, timeout)},
		{"GET /tasks/{id}", false, NewGetTaskHandler(log, svc, timeout)},
		{"GET /tasks", true, NewListTasksHandler(log, svc, timeout)},

		{"PUT /tasks/{id}", false, NewUpdateTaskHandler(log, svc, timeout)},

		{"PATCH /tasks/{id}/priority", false, NewPatchPriorityHandler(log, svc, timeout)},
		{"PATCH /tasks/{id}/assign", false, NewAssignTaskHandler(log, svc, timeout)},
		{"PATCH /tasks/{id}/unassign", false, NewUnassignTaskHandler(log, svc, timeout)},

		{"DELETE /tasks/delete-completed", false, NewDeleteCompletedHandler(log, svc, timeout)},
		{"DELETE /tasks/{id}", false, NewDeleteTaskHandler(log, svc, timeout)},
	}
}

func Register(mux *http.ServeMux, log *slog.Logger, svc core.Tasks, authn auth.Authenticator, opts Options) {
	for _, route := range Routes(log, svc, opts.Timeout) {
		gated := route.Auth || (opts.Strict && isTaskRoute(route.Pattern))
		if gated {
			mux.Handle(route.Pattern, RequireAuth(log, authn, route.Handler))
		} else {
			mux.Handle(route.Pattern, Identify(authn, opts.DefaultActor, route.Handler))
		}
	}

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		res.Error(w, "Route not found", http.StatusNotFound)
	}))
}

func isTaskRoute(pattern string) bool {
	_, path, _ := strings.Cut(pattern, " ")
	return path == "/tasks" || strings.HasPrefix(path, "/tasks/")
}
