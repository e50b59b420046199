package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgat/internal/core"
	"budgat/internal/storage"
)

const handlerTimeout = 7 * time.Second

// inputSentinels are the validation failures that map to 422 instead of 500.
var inputSentinels = []error{
	core.ErrMissingDate,
	core.ErrMissingDescription,
	core.ErrMissingCategory,
	core.ErrMissingAmount,
	core.ErrMissingName,
	core.ErrDescriptionLength,
	core.ErrInvalidAmount,
	core.ErrInvalidKind,
	core.ErrInvalidMonthKey,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case isInputError(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err, "method", r.Method, "path", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func isInputError(err error) bool {
	for _, sentinel := range inputSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func methodGuard(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

// parseMonth reads the ?month=YYYY-MM query parameter, defaulting to the
// current month.
func parseMonth(r *http.Request) (core.MonthKey, error) {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if v == "" {
		return core.CurrentMonth(time.Now()), nil
	}
	return core.ParseMonthKey(v)
}

// pathID extracts the numeric ID trailing the route prefix.
func pathID(r *http.Request, prefix string) (int64, error) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	raw = strings.Trim(raw, "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid id in path")
	}
	return id, nil
}
