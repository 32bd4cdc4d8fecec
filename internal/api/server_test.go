package api

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/gmsas95/agentcord/internal/config"
	"github.com/gmsas95/agentcord/internal/metrics"
)

func newTestServer() (*Server, *metrics.Metrics) {
	m := metrics.New()
	cfg := config.ServerConfig{Address: "127.0.0.1", Port: 0, ReadTimeout: 5, WriteTimeout: 5}
	return New(cfg, m, zap.NewNop()), m
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer()

	resp, err := s.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestStatusSnapshot(t *testing.T) {
	s, m := newTestServer()
	m.RecordRun(metrics.OutcomeAnswered, 2)
	m.RecordToolCall("fetch_url", true)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/status", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var snap metrics.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if snap.RunsAnswered != 1 {
		t.Errorf("runs_answered = %d, want 1", snap.RunsAnswered)
	}
	if snap.ToolCalls["fetch_url"] != 1 {
		t.Errorf("tool_calls = %v", snap.ToolCalls)
	}
	if snap.Uptime == "" {
		t.Error("expected uptime")
	}
}

func TestMetricsExposition(t *testing.T) {
	s, m := newTestServer()
	m.RecordRun(metrics.OutcomeAborted, 8)

	resp, err := s.app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `agentcord_runs_total{outcome="aborted"} 1`) {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}
