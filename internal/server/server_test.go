package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/collection"
	"github.com/haskel/collswitch/internal/config"
	"github.com/haskel/collswitch/internal/decision/scheduler"
	"github.com/haskel/collswitch/internal/metrics"
)

func TestServer_Integration(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 0 // Let OS assign port

	ac := allocation.DefaultConfig()
	ac.WindowSize = 4
	ac.InitialDelay = 0
	ac.Period = 10 * time.Millisecond

	recorder := metrics.NewRecorder(nil)
	factory := allocation.NewFactory(ac,
		allocation.WithLogger(testLogger()),
		allocation.WithObserver(recorder),
	)
	defer factory.Close()

	recorder.RegisterContexts(factory.OptimizerStats)
	recorder.RegisterScheduler(func() scheduler.Stats {
		if s := factory.Scheduler(); s != nil {
			return s.Stats()
		}
		return scheduler.Stats{}
	})

	listCtx, err := allocation.NewListContext[int](factory, collection.ListLinked, "reads")
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}

	for range 3 {
		l := listCtx.CreateInstance()
		for i := range 100 {
			l.Add(i)
		}
		for i := range 1000 {
			if _, err := l.Get(i % 100); err != nil {
				t.Fatalf("get failed: %v", err)
			}
		}
		allocation.Finish(l)
	}

	deadline := time.Now().Add(2 * time.Second)
	for listCtx.CurrentType() != collection.ListArray {
		if time.Now().After(deadline) {
			t.Fatalf("context did not switch, current type %s", listCtx.CurrentType())
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv := New(cfg, factory, recorder.Registry(), testLogger(), "0.1.0")

	// Create test server
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("GET /health", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("GET /ready", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ready")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("GET /contexts", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/contexts")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var contexts ContextsResponse
		if err := json.NewDecoder(resp.Body).Decode(&contexts); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}

		if contexts.Total != 1 {
			t.Fatalf("expected 1 context, got %d", contexts.Total)
		}

		if contexts.Contexts[0].Current != "array" {
			t.Errorf("expected current 'array', got %s", contexts.Contexts[0].Current)
		}
	})

	t.Run("GET /scheduler", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/scheduler")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		var stats scheduler.Stats
		if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}

		if !stats.Running {
			t.Error("expected scheduler to be running")
		}

		if stats.Tasks != 1 {
			t.Errorf("expected 1 task, got %d", stats.Tasks)
		}
	})

	t.Run("GET /metrics", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}

		for _, name := range []string{
			`collswitch_optimizer_decisions_total{champion="array",domain="list",switched="true"} 1`,
			"collswitch_scheduler_tasks 1",
		} {
			if !strings.Contains(string(body), name) {
				t.Errorf("metrics output missing %q", name)
			}
		}
	})

	// Test 404
	t.Run("GET /unknown", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/unknown")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", resp.StatusCode)
		}
	})
}
