// Package synth builds mock responses from a matched rule and the path
// parameters extracted during routing.
package synth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mockfwd/mockfwd/pkg/rule"
)

// ContentTypeJSON selects JSON parameter injection instead of literal
// placeholder substitution.
const ContentTypeJSON = "application/json"

// Synthesize renders the response for a matched rule.
//
// For "application/json" rules whose payload is a JSON object, each
// path parameter is inserted as a string field on a shallow copy of the
// object, overwriting any same-named field. Non-object JSON payloads
// are returned serialized as-is with parameters ignored.
//
// For every other content type the payload is treated as a string (a
// JSON string contributes its value, anything else its serialized text)
// and each "{{name}}" occurrence is replaced with the parameter value.
// Placeholders with no matching parameter stay literal.
//
// Status is the rule's status verbatim; it was validated at ingestion.
// A non-nil error is an internal fault the dispatcher maps to a 500.
func Synthesize(r *rule.Rule, params map[string]string) (status int, contentType string, body []byte, err error) {
	body, err = renderBody(r, params)
	if err != nil {
		return 0, "", nil, err
	}
	return r.Status, r.ContentType, body, nil
}

func renderBody(r *rule.Rule, params map[string]string) ([]byte, error) {
	if r.ContentType == ContentTypeJSON {
		return renderJSON(r.Payload, params)
	}
	text := payloadText(r.Payload)
	for name, value := range params {
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return []byte(text), nil
}

func renderJSON(payload json.RawMessage, params map[string]string) ([]byte, error) {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err != nil || obj == nil {
		// Arrays, scalars and null pass through untouched.
		return append([]byte(nil), payload...), nil
	}
	merged := make(map[string]any, len(obj)+len(params))
	for k, v := range obj {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return out, nil
}

// payloadText returns a JSON string payload's value, or the serialized
// JSON text for any other payload shape.
func payloadText(payload json.RawMessage) string {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		return s
	}
	return string(payload)
}
