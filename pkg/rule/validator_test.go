package rule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRule() Rule {
	return Rule{
		Method:      "GET",
		Path:        "/users/:id",
		Status:      200,
		ContentType: "application/json",
		Payload:     json.RawMessage(`{"name":"alice"}`),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Rule)
		wantField string
	}{
		{
			name:   "valid rule",
			mutate: func(r *Rule) {},
		},
		{
			name:      "missing method",
			mutate:    func(r *Rule) { r.Method = "  " },
			wantField: "method",
		},
		{
			name:      "missing path",
			mutate:    func(r *Rule) { r.Path = "" },
			wantField: "path",
		},
		{
			name:      "relative path",
			mutate:    func(r *Rule) { r.Path = "users/42" },
			wantField: "path",
		},
		{
			name:      "status too low",
			mutate:    func(r *Rule) { r.Status = 99 },
			wantField: "status",
		},
		{
			name:      "status too high",
			mutate:    func(r *Rule) { r.Status = 600 },
			wantField: "status",
		},
		{
			name:      "missing content type",
			mutate:    func(r *Rule) { r.ContentType = "" },
			wantField: "content_type",
		},
		{
			name:      "empty payload",
			mutate:    func(r *Rule) { r.Payload = nil },
			wantField: "payload",
		},
		{
			name:      "malformed payload",
			mutate:    func(r *Rule) { r.Payload = json.RawMessage(`{"x":`) },
			wantField: "payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRule()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestStatusBoundaries(t *testing.T) {
	for _, status := range []int{100, 599} {
		r := validRule()
		r.Status = status
		assert.NoError(t, r.Validate())
	}
}

func TestMethodMatches(t *testing.T) {
	r := validRule()
	assert.True(t, r.MethodMatches("GET"))
	assert.True(t, r.MethodMatches("get"))
	assert.False(t, r.MethodMatches("POST"))
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "status", Message: "out of range"}
	assert.Equal(t, "status: out of range", err.Error())

	err = &ValidationError{Message: "bad rule"}
	assert.Equal(t, "bad rule", err.Error())
}
