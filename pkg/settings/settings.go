// Package settings loads and persists the dispatcher's settings file:
// the default backend URL plus the declarative rule list. The file on
// disk is the source of truth at startup and is rewritten in full on
// every successful admin update.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/mockfwd/mockfwd/internal/routing"
	"github.com/mockfwd/mockfwd/pkg/rule"
)

// Settings is the persisted form of the dispatcher configuration.
type Settings struct {
	DefaultEndpoint string      `json:"default_endpoint"`
	Endpoints       []rule.Rule `json:"endpoints"`
}

// Saver persists a full settings snapshot to durable storage. The
// registry calls Save before publishing a new rule set; an error here
// must leave the previous on-disk state intact.
type Saver interface {
	Save(ctx context.Context, s *Settings) error
}

// Load reads and validates the settings file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the backend URL and every rule. Startup and admin
// updates both go through this, so a rule that would break table
// construction or response synthesis never reaches a snapshot.
func (s *Settings) Validate() error {
	if s.DefaultEndpoint == "" {
		return fmt.Errorf("default_endpoint is required")
	}
	u, err := url.Parse(s.DefaultEndpoint)
	if err != nil {
		return fmt.Errorf("default_endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("default_endpoint must be an http or https URL, got %q", s.DefaultEndpoint)
	}
	for i := range s.Endpoints {
		if err := ValidateRule(&s.Endpoints[i]); err != nil {
			return fmt.Errorf("endpoints[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateRule runs the full ingestion-time check for a single rule:
// field invariants plus path pattern syntax.
func ValidateRule(r *rule.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if err := routing.ValidatePattern(r.Path); err != nil {
		return &rule.ValidationError{Field: "path", Message: err.Error()}
	}
	return nil
}
