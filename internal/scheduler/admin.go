package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AdminServer exposes the scheduler over a small HTTP surface meant for
// operators and health checks, not end users.
type AdminServer struct {
	sched  *Scheduler
	logger *zap.Logger
	srv    *http.Server
}

// NewAdminServer builds the admin endpoint on addr.
func NewAdminServer(addr string, sched *Scheduler, logger *zap.Logger) *AdminServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &AdminServer{
		sched:  sched,
		logger: logger,
	}

	a.srv = &http.Server{
		Addr:              addr,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a
}

// Routes returns the handler so tests can drive it with httptest.
func (a *AdminServer) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /status", a.handleStatus)
	mux.HandleFunc("POST /scheduler/start", a.handleStart)
	mux.HandleFunc("POST /scheduler/stop", a.handleStop)
	mux.HandleFunc("POST /scheduler/execute", a.handleExecute)

	return mux
}

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// swallowed since it means a clean Shutdown.
func (a *AdminServer) ListenAndServe() error {
	a.logger.Info("admin server listening", zap.String("addr", a.srv.Addr))

	if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown drains in-flight requests.
func (a *AdminServer) Shutdown(ctx context.Context) error {
	return a.srv.Shutdown(ctx)
}

func (a *AdminServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "jobsentinel",
	})
}

func (a *AdminServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, a.sched.Status())
}

func (a *AdminServer) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := a.sched.Start(); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			a.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}

		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"result": "started"})
}

func (a *AdminServer) handleStop(w http.ResponseWriter, _ *http.Request) {
	if err := a.sched.Stop(); err != nil {
		if errors.Is(err, ErrNotRunning) {
			a.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}

		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"result": "stopped"})
}

func (a *AdminServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	if err := a.sched.ExecuteNow(r.Context()); err != nil {
		if errors.Is(err, ErrTickInProgress) {
			a.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}

		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	a.writeJSON(w, http.StatusOK, a.sched.Status())
}

func (a *AdminServer) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("admin response encode failed", zap.Error(err))
	}
}
