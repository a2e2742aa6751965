package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const fetchTimeout = 5 * time.Second

var httpClient = &http.Client{Timeout: fetchTimeout}

type contextsMsg struct {
	data *ContextsData
	err  error
}

type schedulerMsg struct {
	data *SchedulerData
	err  error
}

type tickMsg time.Time

type healthData struct {
	Status string `json:"status"`
}

// getJSON fetches path from the server and decodes a 200 body into a T.
func getJSON[T any](ctx context.Context, baseURL, path string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: server returned status %d", path, resp.StatusCode)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &out, nil
}

func ping(cfg Config) error {
	h, err := getJSON[healthData](context.Background(), cfg.ServerURL, "/health")
	if err != nil {
		return err
	}
	if h.Status != "ok" {
		return fmt.Errorf("server reports status %q", h.Status)
	}
	return nil
}

func fetchContexts(cfg Config) tea.Cmd {
	return func() tea.Msg {
		data, err := getJSON[ContextsData](context.Background(), cfg.ServerURL, "/contexts")
		return contextsMsg{data: data, err: err}
	}
}

func fetchScheduler(cfg Config) tea.Cmd {
	return func() tea.Msg {
		data, err := getJSON[SchedulerData](context.Background(), cfg.ServerURL, "/scheduler")
		return schedulerMsg{data: data, err: err}
	}
}

// refresh reloads both panels; with interval > 0 it also schedules the next tick.
func refresh(cfg Config, interval time.Duration) tea.Cmd {
	cmds := []tea.Cmd{fetchContexts(cfg), fetchScheduler(cfg)}
	if interval > 0 {
		cmds = append(cmds, tea.Tick(interval, func(t time.Time) tea.Msg {
			return tickMsg(t)
		}))
	}
	return tea.Batch(cmds...)
}
