package tui

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func testContexts() *ContextsData {
	return &ContextsData{
		Total: 2,
		Contexts: []ContextData{
			{
				ID:      "workload/list_read_heavy",
				Domain:  "list",
				Current: "array",
				Optimizer: OptimizerData{
					State:     "accumulating",
					Default:   "linked",
					Threshold: 8,
					Window:    WindowData{Capacity: 10, Records: 4, Finished: 4},
					Analyses:  3,
					Switches:  1,
				},
			},
			{
				ID:      "workload/map_lookup",
				Domain:  "map",
				Current: "tree",
				Optimizer: OptimizerData{
					State:     "accumulating",
					Default:   "tree",
					Threshold: 8,
				},
			},
		},
	}
}

func TestUpdate_ContextsMsg(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})

	updated, _ := m.Update(contextsMsg{data: testContexts()})
	m = updated.(Model)

	if m.loading {
		t.Error("expected loading=false")
	}
	if m.contexts == nil || m.contexts.Total != 2 {
		t.Fatalf("expected 2 contexts, got %+v", m.contexts)
	}
}

func TestUpdate_ErrorKeptAcrossSchedulerMsg(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})

	updated, _ := m.Update(contextsMsg{err: errors.New("connection refused")})
	updated, _ = updated.(Model).Update(schedulerMsg{err: errors.New("timeout")})
	m = updated.(Model)

	if m.err == nil || m.err.Error() != "connection refused" {
		t.Errorf("expected first error to be kept, got %v", m.err)
	}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestUpdate_CursorStaysOnRows(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})
	updated, _ := m.Update(contextsMsg{data: testContexts()})
	m = updated.(Model)

	if m = press(m, "down"); m.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.cursor)
	}
	// Cannot move past the last context
	if m = press(m, "down"); m.cursor != 1 {
		t.Errorf("expected cursor 1, got %d", m.cursor)
	}
	if m = press(m, "up", "up"); m.cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.cursor)
	}
	if m = press(m, "G"); m.cursor != 1 {
		t.Errorf("expected cursor on last row, got %d", m.cursor)
	}
}

func TestUpdate_OffsetFollowsCursor(t *testing.T) {
	data := &ContextsData{}
	for i := range 30 {
		data.Contexts = append(data.Contexts, ContextData{ID: fmt.Sprintf("ctx-%02d", i), Domain: "list"})
	}
	data.Total = len(data.Contexts)

	m := NewModel(Config{RefreshInterval: time.Second})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	updated, _ = updated.(Model).Update(contextsMsg{data: data})
	m = updated.(Model)

	for range 15 {
		m = press(m, "j")
	}
	if m.cursor != 15 || m.offset != 15-maxVisible+1 {
		t.Errorf("expected cursor 15 at the bottom of the window, got cursor %d offset %d", m.cursor, m.offset)
	}
	if !strings.Contains(m.View(), "ctx-15") || strings.Contains(m.View(), "ctx-05") {
		t.Error("expected the window to scroll with the cursor")
	}

	m = press(m, "g")
	if m.cursor != 0 || m.offset != 0 {
		t.Errorf("expected top, got cursor %d offset %d", m.cursor, m.offset)
	}
}

func TestUpdate_DomainFilter(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	updated, _ = updated.(Model).Update(contextsMsg{data: testContexts()})
	m = press(updated.(Model), "down")

	m = press(m, "d")
	if m.domain != "list" || m.cursor != 0 {
		t.Fatalf("expected list filter with cursor reset, got %q cursor %d", m.domain, m.cursor)
	}
	if rows := m.visible(); len(rows) != 1 || rows[0].ID != "workload/list_read_heavy" {
		t.Errorf("unexpected rows: %+v", rows)
	}

	m = press(m, "d")
	if m.domain != "set" || len(m.visible()) != 0 {
		t.Errorf("expected empty set filter, got %q with %d rows", m.domain, len(m.visible()))
	}
	if !strings.Contains(m.View(), "no set contexts") {
		t.Error("expected empty filter message")
	}

	m = press(m, "d", "d")
	if m.domain != "" || len(m.visible()) != 2 {
		t.Errorf("expected the filter cycle to wrap to all contexts, got %q", m.domain)
	}
}

func TestUpdate_Detail(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	updated, _ = updated.(Model).Update(contextsMsg{data: testContexts()})
	m = press(updated.(Model), "enter")

	if !m.detail {
		t.Fatal("expected detail panel open")
	}
	view := m.View()
	for _, want := range []string{"type      array (default linked)", "threshold 8", "switches 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail missing %q", want)
		}
	}

	if m = press(m, "esc"); m.detail {
		t.Error("expected esc to close the detail panel")
	}

	// Nothing to show under an empty filter
	m = press(m, "d", "d", "enter")
	if m.detail {
		t.Error("expected no detail panel without rows")
	}
}

func TestView(t *testing.T) {
	m := NewModel(Config{RefreshInterval: time.Second})
	if m.View() != "Loading..." {
		t.Errorf("expected loading view before size is known")
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	updated, _ = updated.(Model).Update(contextsMsg{data: testContexts()})
	updated, _ = updated.(Model).Update(schedulerMsg{data: &SchedulerData{Running: true, Workers: 2, Tasks: 2}})
	view := updated.(Model).View()

	for _, want := range []string{
		"COLLSWITCH CONTEXTS",
		"workload/list_read_heavy",
		"array",
		"running",
		"Contexts: 2",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestFetchContexts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contexts" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"contexts":[{"id":"a","domain":"set","current":"hash","optimizer":{"default":"tree"}}],"total":1}`))
	}))
	defer ts.Close()

	msg := fetchContexts(Config{ServerURL: ts.URL})()
	cm, ok := msg.(contextsMsg)
	if !ok {
		t.Fatalf("expected contextsMsg, got %T", msg)
	}
	if cm.err != nil {
		t.Fatalf("unexpected error: %v", cm.err)
	}
	if cm.data.Total != 1 || cm.data.Contexts[0].Optimizer.Default != "tree" {
		t.Errorf("unexpected data: %+v", cm.data)
	}
}

func TestFetchScheduler_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	msg := fetchScheduler(Config{ServerURL: ts.URL})()
	sm, ok := msg.(schedulerMsg)
	if !ok {
		t.Fatalf("expected schedulerMsg, got %T", msg)
	}
	if sm.err == nil {
		t.Error("expected error")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestConfigNormalize(t *testing.T) {
	cfg := Config{ServerURL: "http://localhost:8080/", RefreshInterval: time.Millisecond}.normalize()
	if cfg.ServerURL != "http://localhost:8080" {
		t.Errorf("expected trimmed URL, got %s", cfg.ServerURL)
	}
	if cfg.RefreshInterval != minRefresh {
		t.Errorf("expected refresh clamped to %s, got %s", minRefresh, cfg.RefreshInterval)
	}
}

func TestPing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"degraded"}`))
	}))
	defer ts.Close()

	err := ping(Config{ServerURL: ts.URL})
	if err == nil || !strings.Contains(err.Error(), "degraded") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestRun_UnreachableServer(t *testing.T) {
	err := Run(Config{ServerURL: "http://127.0.0.1:1", RefreshInterval: time.Second})
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
