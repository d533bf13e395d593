package watch

import (
	"time"

	"github.com/aretw0/introspection"
)

// State exposes the watcher for the status command.
type State struct {
	Patterns  []string   `json:"patterns"`
	Active    bool       `json:"active"`
	Runs      int        `json:"runs"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		Patterns:  append([]string(nil), w.patterns...),
		Active:    w.active,
		Runs:      w.runs,
		LastRun:   w.lastRun,
		LastError: w.lastError,
	}
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "watcher"
}

var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)
