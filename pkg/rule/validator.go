package rule

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError describes why a rule was rejected at ingestion time.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the invariants that must hold before a rule may enter
// a published snapshot. Invalid status codes and malformed patterns are
// configuration errors caught here, never at synthesis time.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Method) == "" {
		return &ValidationError{Field: "method", Message: "method is required"}
	}
	if r.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required"}
	}
	if !strings.HasPrefix(r.Path, "/") {
		return &ValidationError{Field: "path", Message: "path must start with /"}
	}
	if r.Status < 100 || r.Status > 599 {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status must be between 100 and 599, got %d", r.Status),
		}
	}
	if r.ContentType == "" {
		return &ValidationError{Field: "content_type", Message: "content_type is required"}
	}
	if len(r.Payload) == 0 || !json.Valid(r.Payload) {
		return &ValidationError{Field: "payload", Message: "payload must be a valid JSON value"}
	}
	return nil
}
