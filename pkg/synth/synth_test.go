package synth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockfwd/mockfwd/pkg/rule"
)

func jsonRule(payload string) *rule.Rule {
	return &rule.Rule{
		Method:      "GET",
		Path:        "/users/:id",
		Status:      200,
		ContentType: ContentTypeJSON,
		Payload:     json.RawMessage(payload),
	}
}

func textRule(contentType, payload string) *rule.Rule {
	return &rule.Rule{
		Method:      "GET",
		Path:        "/greet/:name",
		Status:      200,
		ContentType: contentType,
		Payload:     json.RawMessage(payload),
	}
}

func TestSynthesizeJSONObjectInjectsParams(t *testing.T) {
	status, contentType, body, err := Synthesize(jsonRule(`{"name":"alice","active":true}`), map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, ContentTypeJSON, contentType)
	assert.JSONEq(t, `{"name":"alice","active":true,"id":"42"}`, string(body))
}

func TestSynthesizeJSONParamOverwritesField(t *testing.T) {
	_, _, body, err := Synthesize(jsonRule(`{"id":7}`), map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42"}`, string(body))
}

func TestSynthesizeJSONNonObjectPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"array", `[1,2,3]`},
		{"string", `"hello"`},
		{"number", `42`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, body, err := Synthesize(jsonRule(tt.payload), map[string]string{"id": "42"})
			require.NoError(t, err)
			assert.Equal(t, tt.payload, string(body))
		})
	}
}

func TestSynthesizeJSONObjectNoParams(t *testing.T) {
	_, _, body, err := Synthesize(jsonRule(`{"name":"alice"}`), nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"alice"}`, string(body))
}

func TestSynthesizeTextSubstitution(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		params  map[string]string
		want    string
	}{
		{
			name:    "single placeholder",
			payload: `"hello {{name}}"`,
			params:  map[string]string{"name": "bob"},
			want:    "hello bob",
		},
		{
			name:    "repeated placeholder",
			payload: `"{{name}} and {{name}}"`,
			params:  map[string]string{"name": "bob"},
			want:    "bob and bob",
		},
		{
			name:    "unresolved placeholder stays literal",
			payload: `"hello {{name}}, bye {{other}}"`,
			params:  map[string]string{"name": "bob"},
			want:    "hello bob, bye {{other}}",
		},
		{
			name:    "no params",
			payload: `"hello {{name}}"`,
			params:  nil,
			want:    "hello {{name}}",
		},
		{
			name:    "non-string payload uses serialized text",
			payload: `{"msg":"hi {{name}}"}`,
			params:  map[string]string{"name": "bob"},
			want:    `{"msg":"hi bob"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, contentType, body, err := Synthesize(textRule("text/plain", tt.payload), tt.params)
			require.NoError(t, err)
			assert.Equal(t, 200, status)
			assert.Equal(t, "text/plain", contentType)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

// Substitution is selected by content type, not payload shape: a JSON
// object under text/html still gets literal replacement, and a string
// payload under application/json gets none.
func TestContentTypeSelectsRendering(t *testing.T) {
	_, _, body, err := Synthesize(textRule("text/html", `"<b>{{name}}</b>"`), map[string]string{"name": "bob"})
	require.NoError(t, err)
	assert.Equal(t, "<b>bob</b>", string(body))

	_, _, body, err = Synthesize(jsonRule(`"hello {{id}}"`), map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, `"hello {{id}}"`, string(body))
}

func TestSynthesizeStatusVerbatim(t *testing.T) {
	r := jsonRule(`{}`)
	r.Status = 418
	status, _, _, err := Synthesize(r, nil)
	require.NoError(t, err)
	assert.Equal(t, 418, status)
}
