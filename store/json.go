package store

import (
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
	"github.com/oarkflow/json"

	"github.com/pachpandenikhil/HMM/nlp/hmm"
)

var modelSchema = []byte(`{
    "type": "object",
    "description": "hmm model",
    "required": ["start_probability", "transition_probability", "emission_probability"],
    "properties": {
        "start_probability": {
            "type": "object",
            "additionalProperties": {"type": "number"}
        },
        "transition_probability": {
            "type": "object",
            "additionalProperties": {
                "type": "object",
                "additionalProperties": {"type": "number"}
            }
        },
        "emission_probability": {
            "type": "object",
            "additionalProperties": {
                "type": "object",
                "additionalProperties": {"type": "number"}
            }
        }
    }
}`)

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		schema, schemaErr = compiler.Compile(modelSchema)
	})
	return schema, schemaErr
}

// EncodeJSON renders m as a model document.
func EncodeJSON(m *hmm.Model) ([]byte, error) {
	return json.Marshal(m)
}

// DecodeJSON parses and validates a model document.
func DecodeJSON(data []byte) (*hmm.Model, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if result := s.Validate(doc); !result.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrFormat, result.Errors)
	}
	var m hmm.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := checkFields(&m); err != nil {
		return nil, err
	}
	return &m, nil
}
