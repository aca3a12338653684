package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"task-tracker/adapters/auth"
	"task-tracker/core"
	"task-tracker/pkg/res"
)

const internalError = "Internal Server Error"

func WriteErr(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidJSON):
		res.Error(w, "Invalid JSON", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidDataFormat):
		res.Error(w, "Invalid data format", http.StatusBadRequest)
	case errors.Is(err, core.ErrTaskNotFound):
		res.Error(w, "Task not found", http.StatusNotFound)
	case errors.Is(err, core.ErrNoCompletedTasks):
		res.Error(w, "No completed tasks to delete", http.StatusNotFound)
	case errors.Is(err, auth.ErrNoToken):
		res.Error(w, "No token provided", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidToken):
		res.Error(w, "Invalid token", http.StatusUnauthorized)
	default:
		log.Error("request failed", "error", err)
		res.Error(w, internalError, http.StatusInternalServerError)
	}
}
