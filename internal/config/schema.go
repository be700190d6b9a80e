package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "roadmap://config.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

type schemaProp struct {
	Type       string                `json:"type"`
	Enum       []any                 `json:"enum"`
	Properties map[string]schemaProp `json:"properties"`
}

var (
	propsOnce sync.Once
	props     schemaProp
)

// DeclaredType returns the schema type of a dotted key, or "" when the schema does not
// describe it. An enum of strings counts as "string".
func DeclaredType(key string) string {
	propsOnce.Do(func() { _ = json.Unmarshal(schemaJSON, &props) })
	p := props
	for _, part := range strings.Split(key, ".") {
		next, ok := p.Properties[part]
		if !ok {
			return ""
		}
		p = next
	}
	if p.Type == "" && len(p.Enum) > 0 {
		if _, ok := p.Enum[0].(string); ok {
			return "string"
		}
	}
	return p.Type
}

// SchemaError lists every problem found in an effective configuration.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Check validates an effective configuration mapping against the embedded schema.
// Unknown keys are allowed.
func Check(effective map[string]any) error {
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	// round-trip through JSON so the validator sees plain JSON types
	data, err := json.Marshal(effective)
	if err != nil {
		return fmt.Errorf("encode config for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode config for validation: %w", err)
	}

	err = s.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	out := &SchemaError{}
	collectProblems(out, ve)
	return out
}

func collectProblems(out *SchemaError, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		out.Problems = append(out.Problems, fmt.Sprintf("%s: %s", pointerToKey(ve.InstanceLocation), ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectProblems(out, cause)
	}
}

// pointerToKey turns a JSON pointer like /progress/velocity_window_days into a dotted key.
func pointerToKey(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return "(root)"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
