package tui

import (
	"time"
)

// Config holds TUI configuration
type Config struct {
	ServerURL       string
	RefreshInterval time.Duration
}

// Model represents the TUI state
type Model struct {
	config Config

	// Data from API
	contexts  *ContextsData
	scheduler *SchedulerData

	// UI state
	width       int
	height      int
	loading     bool
	err         error
	lastUpdated time.Time

	// Selection over the rows that pass the domain filter
	cursor int
	offset int
	domain string
	detail bool
}

// domains is the filter cycle; the empty domain shows every context.
var domains = []string{"", "list", "set", "map"}

// ContextsData is the /contexts response.
type ContextsData struct {
	Contexts []ContextData `json:"contexts"`
	Total    int           `json:"total"`
}

type ContextData struct {
	ID        string        `json:"id"`
	Domain    string        `json:"domain"`
	Current   string        `json:"current"`
	Optimizer OptimizerData `json:"optimizer"`
}

type OptimizerData struct {
	State        string     `json:"state"`
	Default      string     `json:"default"`
	Threshold    int        `json:"threshold"`
	Window       WindowData `json:"window"`
	Ticks        int64      `json:"ticks"`
	Analyses     int64      `json:"analyses"`
	Switches     int64      `json:"switches"`
	Failures     int64      `json:"failures"`
	LastChampion string     `json:"last_champion,omitempty"`
}

type WindowData struct {
	Capacity int `json:"capacity"`
	Records  int `json:"records"`
	Finished int `json:"finished"`
}

// SchedulerData is the /scheduler response.
type SchedulerData struct {
	Running    bool   `json:"running"`
	Workers    int    `json:"workers"`
	Period     string `json:"period"`
	Tasks      int    `json:"tasks"`
	Ticks      int64  `json:"ticks"`
	Dispatched int64  `json:"dispatched"`
	Skipped    int64  `json:"skipped"`
	Panics     int64  `json:"panics"`
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	return Model{
		config:  cfg,
		loading: true,
	}
}
