// Package analysis holds the skin analysis returned by the remote analyzer
// and its text, JSON and YAML renderings.
package analysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/oukeidos/skinscan/internal/apperrors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed payload.schema.json
var payloadSchema []byte

// StandardScores are the metrics analyzers are asked to report.
var StandardScores = []string{"hydration", "oiliness", "redness", "texture", "pores"}

// Product is one step of the recommended routine.
type Product struct {
	Step   string `json:"step" yaml:"step"`
	Name   string `json:"name" yaml:"name"`
	Brand  string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Payload is the analysis handed to the result screen.
type Payload struct {
	ScanID    string         `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	SessionID string         `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	SkinType  string         `json:"skin_type" yaml:"skin_type"`
	Scores    map[string]int `json:"scores" yaml:"scores"`
	Concerns  []string       `json:"concerns,omitempty" yaml:"concerns,omitempty"`
	Summary   string         `json:"summary" yaml:"summary"`
	Routine   []Product      `json:"routine" yaml:"routine"`
}

// ScoreNames returns the score keys in stable order.
func (p *Payload) ScoreNames() []string {
	names := make([]string, 0, len(p.Scores))
	for k := range p.Scores {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(payloadSchema))
	})
	return compiledSchema, compileErr
}

// Validate checks raw JSON against the payload schema and returns the
// violations, if any.
func Validate(data []byte) ([]string, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling payload schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validating payload: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}

// Parse validates and decodes an analysis payload.
func Parse(data []byte) (*Payload, error) {
	violations, err := Validate(data)
	if err != nil {
		return nil, apperrors.Validation(err)
	}
	if len(violations) > 0 {
		return nil, apperrors.Validation(fmt.Errorf("analysis payload failed schema validation: %s", strings.Join(violations, "; ")))
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.Validation(fmt.Errorf("failed to decode analysis payload: %w", err))
	}
	return &p, nil
}
