package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"docparse/internal/entity"
)

// templateSchema guards decoding of persisted template payloads: a corrupt
// or foreign blob under a template key is detected before it reaches the
// merge logic.
const templateSchema = `{
  "type": "object",
  "required": ["regions"],
  "additionalProperties": false,
  "properties": {
    "regions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["field", "box", "confidence", "sample_count"],
        "additionalProperties": false,
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "box": {
            "type": "object",
            "required": ["x", "y", "w", "h"],
            "additionalProperties": false,
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"},
              "w": {"type": "number", "minimum": 0},
              "h": {"type": "number", "minimum": 0}
            }
          },
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "sample_count": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.json", bytes.NewReader([]byte(templateSchema))); err != nil {
		panic(err)
	}
	return compiler.MustCompile("template.json")
}

// encodeTemplate serializes a template with regions in a stable order so
// that equal templates produce identical payloads.
func encodeTemplate(t *entity.Template) ([]byte, error) {
	c := t.Clone()
	sort.Slice(c.Regions, func(i, j int) bool {
		return c.Regions[i].Field < c.Regions[j].Field
	})
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return b, nil
}

func decodeTemplate(data []byte) (*entity.Template, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("template payload does not match schema: %w", err)
	}
	var t entity.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return &t, nil
}
