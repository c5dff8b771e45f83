// Package schema validates configuration documents against the embedded
// JSON Schema. Validation is advisory: findings are returned as warnings for
// the loader to log, never as load-aborting errors.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed document.schema.json
var documentSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled, compileErr = compiler.Compile(documentSchema)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile document schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateDocument checks value (any JSON-marshalable document shape)
// against the document schema and returns findings as warning strings.
func ValidateDocument(value any) ([]string, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	result := schema.ValidateJSON(encoded)
	if result.IsValid() {
		return nil, nil
	}
	warnings := make([]string, 0, len(result.Errors))
	for keyword, validationError := range result.Errors {
		warnings = append(warnings, fmt.Sprintf("%s: %s", keyword, validationError.Message))
	}
	return warnings, nil
}
