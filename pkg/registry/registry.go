// Package registry owns the current rule set and its compiled route
// table as one atomically replaceable snapshot.
//
// Reads are a single atomic pointer load and never block; a request
// captures a snapshot once and uses it for its whole lifetime, so a
// concurrent replace cannot change what an in-flight request observes.
// Writers are serialized and follow a persist-then-publish discipline:
// no request ever sees a table built from rules that were not durably
// persisted first.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mockfwd/mockfwd/internal/routing"
	"github.com/mockfwd/mockfwd/pkg/rule"
	"github.com/mockfwd/mockfwd/pkg/settings"
)

// Snapshot is an immutable (rules, route table) pair.
type Snapshot struct {
	rules []rule.Rule
	table *routing.Table
}

func newSnapshot(rules []rule.Rule) *Snapshot {
	owned := make([]rule.Rule, len(rules))
	copy(owned, rules)
	return &Snapshot{rules: owned, table: routing.Build(owned)}
}

// Lookup resolves a path against this snapshot's table. The returned
// rule points into the snapshot and stays consistent even if the
// registry is replaced mid-request.
func (s *Snapshot) Lookup(path string) (*rule.Rule, map[string]string, bool) {
	idx, params, ok := s.table.Lookup(path)
	if !ok {
		return nil, nil, false
	}
	return &s.rules[idx], params, true
}

// Rules returns a copy of the snapshot's rule list for display.
func (s *Snapshot) Rules() []rule.Rule {
	out := make([]rule.Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Registry holds the current snapshot plus the immutable backend URL.
type Registry struct {
	defaultEndpoint string
	saver           settings.Saver

	// mu serializes Replace calls end to end so two updates cannot
	// interleave their persist and publish steps (lost-update race).
	// Readers never take it.
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// New builds a registry from validated settings. The initial snapshot
// is published immediately; saver is used by later Replace calls.
func New(s *settings.Settings, saver settings.Saver) (*Registry, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		defaultEndpoint: s.DefaultEndpoint,
		saver:           saver,
	}
	r.current.Store(newSnapshot(s.Endpoints))
	return r, nil
}

// Current returns the published snapshot. Callers must capture it once
// per request rather than re-reading it mid-flight.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// DefaultEndpoint returns the backend base URL configured at startup.
func (r *Registry) DefaultEndpoint() string {
	return r.defaultEndpoint
}

// Replace validates newRules, persists the full settings file (backend
// URL unchanged) and only then publishes the new snapshot. On any
// failure the previous snapshot remains current and is returned to
// every subsequent reader; the update is all-or-nothing.
//
// Validation errors are *rule.ValidationError values so callers can
// distinguish a rejected payload from a persistence failure.
func (r *Registry) Replace(ctx context.Context, newRules []rule.Rule) error {
	for i := range newRules {
		if err := settings.ValidateRule(&newRules[i]); err != nil {
			return fmt.Errorf("rules[%d]: %w", i, err)
		}
	}

	// Build the table before taking the writer lock; only persistence
	// and the publish step need to be serialized.
	snap := newSnapshot(newRules)

	r.mu.Lock()
	defer r.mu.Unlock()

	persisted := &settings.Settings{
		DefaultEndpoint: r.defaultEndpoint,
		Endpoints:       snap.rules,
	}
	if err := r.saver.Save(ctx, persisted); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	r.current.Store(snap)
	return nil
}
