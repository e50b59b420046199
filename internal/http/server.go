package http

import (
	"log/slog"
	"net/http"
	"time"

	"budgat/internal/services"
)

type Server struct {
	http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, readTimeout, writeTimeout time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		ledger:  ledger,
		reports: reports,
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleHealth)

	mux.HandleFunc("/api/transactions", s.withRequestLog(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withRequestLog(s.handleTransactionByID))
	mux.HandleFunc("/api/transactions/import", s.withRequestLog(s.handleImport))
	mux.HandleFunc("/api/transactions/export", s.withRequestLog(s.handleExport))
	mux.HandleFunc("/api/categories", s.withRequestLog(s.handleCategories))
	mux.HandleFunc("/api/categories/", s.withRequestLog(s.handleCategoryByID))
	mux.HandleFunc("/api/snapshots", s.withRequestLog(s.handleEditSnapshot))

	mux.HandleFunc("/api/budget", s.withRequestLog(s.handleBudgetView))
	mux.HandleFunc("/api/grid", s.withRequestLog(s.handleGridView))
	mux.HandleFunc("/api/graphs", s.withRequestLog(s.handleGraphsView))
	mux.HandleFunc("/api/flow", s.withRequestLog(s.handleFlowView))

	return s
}

// withRequestLog logs every request with its duration and status.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelError
		} else if rec.status >= 400 {
			level = slog.LevelWarn
		}
		slog.Default().Log(r.Context(), level, "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
