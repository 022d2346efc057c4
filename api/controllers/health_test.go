package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmferrer/stockpilot-backend/pkg/config"
	"github.com/dmferrer/stockpilot-backend/pkg/types"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "dev"

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()
	HealthLive(cfg)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("X-Stockpilot-Env"); got != "dev" {
		t.Errorf("env header = %q", got)
	}
}

func TestHealthReadyAllUp(t *testing.T) {
	cfg := &config.Config{}
	pingers := map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{},
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	HealthReady(cfg, nil, pingers)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	checks := body.Data.(map[string]any)["checks"].(map[string]any)
	if checks["db"] != "up" || checks["redis"] != "up" {
		t.Errorf("unexpected checks: %v", checks)
	}
}

func TestHealthReadyDependencyDown(t *testing.T) {
	cfg := &config.Config{}
	pingers := map[string]Pinger{
		"db":    stubPinger{},
		"redis": stubPinger{err: errors.New("connection refused")},
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	HealthReady(cfg, nil, pingers)(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHealthReadySkipsNilPingers(t *testing.T) {
	cfg := &config.Config{}
	pingers := map[string]Pinger{
		"db":     stubPinger{},
		"pubsub": nil,
	}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()
	HealthReady(cfg, nil, pingers)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	checks := body.Data.(map[string]any)["checks"].(map[string]any)
	if checks["pubsub"] != "skipped" {
		t.Errorf("nil pinger must be reported as skipped: %v", checks)
	}
}
