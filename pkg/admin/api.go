// Package admin serves the rule editor UI and the update endpoint that
// hot-reloads the registry. The surface is unauthenticated by design;
// it is meant for local development use.
package admin

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/mockfwd/mockfwd/pkg/httputil"
	"github.com/mockfwd/mockfwd/pkg/logging"
	"github.com/mockfwd/mockfwd/pkg/registry"
	"github.com/mockfwd/mockfwd/pkg/rule"
	"github.com/mockfwd/mockfwd/pkg/validation"
)

// maxUpdateBytes bounds the update payload size (4MB).
const maxUpdateBytes = 4 << 20

//go:embed editor.html.tmpl
var editorHTML string

var editorTemplate = template.Must(template.New("editor").Parse(editorHTML))

// API exposes the admin HTTP surface.
type API struct {
	reg *registry.Registry
	log *slog.Logger
}

// New creates the admin API over the given registry.
func New(reg *registry.Registry, log *slog.Logger) *API {
	if log == nil {
		log = logging.Nop()
	}
	return &API{reg: reg, log: log}
}

// Register mounts the admin routes. Method-qualified patterns keep
// these from shadowing the dispatcher fallback for other methods.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /mockserver/admin", a.handleEditor)
	mux.HandleFunc("GET /mockserver/admin/rules", a.handleRules)
	mux.HandleFunc("POST /mockserver/admin/update", a.handleUpdate)
}

// handleEditor renders the JSON editor page with the current rule list
// embedded, read from the same snapshot the dispatcher would use.
func (a *API) handleEditor(w http.ResponseWriter, r *http.Request) {
	rules := a.reg.Current().Rules()
	rulesJSON, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		a.log.Error("marshal rules for editor", "error", err)
		httputil.WriteInternalError(w, "internal_error", "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := editorTemplate.Execute(w, map[string]any{
		"RulesJSON": template.JS(rulesJSON),
	}); err != nil {
		a.log.Error("render editor page", "error", err)
	}
}

// handleRules returns the current rule list as JSON.
func (a *API) handleRules(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, a.reg.Current().Rules())
}

// handleUpdate replaces the rule set. The payload is validated against
// the rule schema and per-rule invariants before the swap; a rejected
// payload or a failed persistence leaves the previous rules serving.
func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		httputil.WriteBadRequest(w, "invalid_body", "could not read request body")
		return
	}

	if err := validation.ValidateRulesPayload(body); err != nil {
		httputil.WriteBadRequest(w, "invalid_rules", err.Error())
		return
	}

	var rules []rule.Rule
	if err := json.Unmarshal(body, &rules); err != nil {
		httputil.WriteBadRequest(w, "invalid_rules", "body must be a JSON array of rules")
		return
	}

	if err := a.reg.Replace(r.Context(), rules); err != nil {
		var verr *rule.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteBadRequest(w, "invalid_rules", err.Error())
			return
		}
		a.log.Error("rule update failed", "error", err)
		httputil.WriteInternalError(w, "update_failed", "failed to persist rules")
		return
	}

	a.log.Info("rules updated", "count", len(rules))
	httputil.WriteOK(w, map[string]any{
		"status": "updated",
		"count":  len(rules),
	})
}
