// Package schemaval validates inbound ingest envelopes against an embedded
// JSON Schema before they are decoded. The reading schema is static for this
// engine, so the schema ships with the binary instead of living in a remote
// registry.
package schemaval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed telemetry-envelope.schema.json
var schemaJSON []byte

const schemaRef = "urfmp://telemetry-envelope.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat = true
		if err := c.AddResource(schemaRef, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = c.Compile(schemaRef)
	})
	return compiled, compileErr
}

// ValidateEnvelope checks a raw intake payload against the envelope schema.
func ValidateEnvelope(raw []byte) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("envelope schema broken: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("payload failed schema validation: %w", err)
	}
	return nil
}
