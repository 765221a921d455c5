package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rendis/flowkit/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const graphSchemaURL = "https://flowkit.dev/schemas/graph.json"

// graphSchemaJSON is the JSON Schema for graph documents.
// Embedded as a constant to avoid filesystem dependencies.
const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowkit.dev/schemas/graph.json",
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    },
    "edges": {
      "type": "array",
      "items": { "$ref": "#/$defs/edge" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "kind": { "type": "string" },
        "label": { "type": "string" },
        "position": {
          "type": "object",
          "required": ["x", "y"],
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" }
          },
          "additionalProperties": false
        },
        "detail": { "type": ["object", "null"] }
      },
      "additionalProperties": false
    },
    "edge": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "source": { "type": "string", "minLength": 1 },
        "target": { "type": "string", "minLength": 1 },
        "kind": {
          "type": "string",
          "enum": ["sequential", "conditional", "parallel"]
        },
        "label": { "type": "string" }
      },
      "additionalProperties": false
    }
  }
}`

// DocumentValidator checks graph documents against the graph JSON Schema
// (Draft 2020-12). It is safe for concurrent use.
type DocumentValidator struct {
	graphSchema *jsonschema.Schema
}

// NewDocumentValidator creates a DocumentValidator with the graph schema pre-compiled.
func NewDocumentValidator() (*DocumentValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph schema: %w", err)
	}
	if err := c.AddResource(graphSchemaURL, schemaDoc); err != nil {
		return nil, fmt.Errorf("add graph schema resource: %w", err)
	}

	compiled, err := c.Compile(graphSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}

	return &DocumentValidator{graphSchema: compiled}, nil
}

// ValidateDocument checks raw JSON against the graph schema.
func (v *DocumentValidator) ValidateDocument(data []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return schema.NewError(schema.ErrCodeParse, "graph document is not valid JSON").WithCause(err)
	}
	if err := v.graphSchema.Validate(doc); err != nil {
		return toFlowkitError(err)
	}
	return nil
}

// DecodeGraph validates data and decodes it into a Graph with unique ids.
func (v *DocumentValidator) DecodeGraph(data []byte) (schema.Graph, error) {
	if err := v.ValidateDocument(data); err != nil {
		return schema.Graph{}, err
	}

	var g schema.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return schema.Graph{}, schema.NewError(schema.ErrCodeParse, "decode graph document").WithCause(err)
	}
	if g.Edges == nil {
		g.Edges = []schema.Edge{}
	}
	if err := g.CheckIDs(); err != nil {
		return schema.Graph{}, err
	}
	return g, nil
}

// toFlowkitError converts a jsonschema.ValidationError into a FlowkitError
// listing every leaf violation with its instance location.
func toFlowkitError(err error) *schema.FlowkitError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages prefixed with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
