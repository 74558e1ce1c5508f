// Package rule defines the declarative mock rule entity and its
// ingestion-time validation.
package rule

import (
	"encoding/json"
	"strings"
)

// Rule maps an HTTP method and path pattern to a synthesized response.
//
// Path patterns use ":name" segments for parameters, e.g. "/users/:id".
// The payload is kept as raw JSON so arbitrary values (object, array,
// scalar) survive load/update/save cycles byte-for-byte.
type Rule struct {
	Method      string          `json:"method"`
	Path        string          `json:"path"`
	Status      int             `json:"status"`
	ContentType string          `json:"content_type"`
	Payload     json.RawMessage `json:"payload"`
}

// MethodMatches reports whether the rule's method equals the request
// method, ignoring case. A path match with a method mismatch is treated
// by the dispatcher as no match at all.
func (r *Rule) MethodMatches(method string) bool {
	return strings.EqualFold(r.Method, method)
}
