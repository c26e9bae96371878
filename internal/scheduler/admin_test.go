package scheduler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestAdmin(t *testing.T) (*AdminServer, *Scheduler) {
	t.Helper()

	s := newTestScheduler(t, Config{CronSpec: "@every 1h"}, &fakeStore{}, &fakeSource{}, nil, &fakeDispatcher{}, nil)
	return NewAdminServer(":0", s, nil), s
}

func doRequest(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestAdminHealth(t *testing.T) {
	admin, _ := newTestAdmin(t)

	rec := doRequest(t, admin.Routes(), http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func TestAdminStartStopLifecycle(t *testing.T) {
	admin, sched := newTestAdmin(t)
	routes := admin.Routes()

	if rec := doRequest(t, routes, http.MethodPost, "/scheduler/start"); rec.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", rec.Code)
	}

	if rec := doRequest(t, routes, http.MethodPost, "/scheduler/start"); rec.Code != http.StatusConflict {
		t.Fatalf("double start: expected 409, got %d", rec.Code)
	}

	rec := doRequest(t, routes, http.MethodGet, "/status")
	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running status after start")
	}

	if rec := doRequest(t, routes, http.MethodPost, "/scheduler/stop"); rec.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", rec.Code)
	}

	if rec := doRequest(t, routes, http.MethodPost, "/scheduler/stop"); rec.Code != http.StatusConflict {
		t.Fatalf("double stop: expected 409, got %d", rec.Code)
	}

	if sched.Status().Running {
		t.Fatal("scheduler must be stopped")
	}
}

func TestAdminExecute(t *testing.T) {
	admin, sched := newTestAdmin(t)

	rec := doRequest(t, admin.Routes(), http.MethodPost, "/scheduler/execute")
	if rec.Code != http.StatusOK {
		t.Fatalf("execute: expected 200, got %d", rec.Code)
	}

	if sched.Status().TotalRuns != 1 {
		t.Fatalf("expected one recorded run, got %d", sched.Status().TotalRuns)
	}
}

func TestAdminMethodNotAllowed(t *testing.T) {
	admin, _ := newTestAdmin(t)

	if rec := doRequest(t, admin.Routes(), http.MethodGet, "/scheduler/execute"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
