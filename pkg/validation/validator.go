// Package validation checks admin update payloads against the rule
// schema before they reach the registry, so shape errors produce a 400
// with a field path instead of a failed swap.
package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed rules_schema.json
var rulesSchema string

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// schema compiles the embedded rule schema on first use.
func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("rules_schema.json", strings.NewReader(rulesSchema)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile("rules_schema.json")
	})
	return compiled, compileErr
}

// ValidateRulesPayload checks that data is a JSON array of rule objects
// with the required fields and a status inside [100,599]. The returned
// error message is safe to echo to the admin caller.
func ValidateRulesPayload(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("compile rule schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("rule payload rejected: %s", flatten(ve))
		}
		return fmt.Errorf("rule payload rejected: %w", err)
	}
	return nil
}

// flatten picks the deepest cause of a validation error for a message
// that names the offending location.
func flatten(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s: %s", loc, ve.Message)
}
