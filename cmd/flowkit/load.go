package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/flowkit/internal/diagram"
	"github.com/rendis/flowkit/internal/validation"
	"github.com/rendis/flowkit/pkg/schema"
)

// loadGraph reads a graph file. JSON and YAML documents are checked
// against the graph schema; .mmd files are imported from Mermaid.
func loadGraph(docs *validation.DocumentValidator, path string) (schema.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Graph{}, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return docs.DecodeGraph(data)
	case ".yaml", ".yml":
		jsonData, err := yamlToJSON(data)
		if err != nil {
			return schema.Graph{}, err
		}
		return docs.DecodeGraph(jsonData)
	case ".mmd", ".mermaid":
		return diagram.ParseMermaid(string(data))
	default:
		return schema.Graph{}, fmt.Errorf("unsupported graph file %q: use .json, .yaml, .yml or .mmd", path)
	}
}

// yamlToJSON re-encodes a YAML document as JSON so it can go through the
// same schema check as JSON input.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "graph document is not valid YAML").WithCause(err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeParse, "graph document cannot be represented as JSON").WithCause(err)
	}
	return out, nil
}

// writeGraph encodes g as JSON or YAML.
func writeGraph(g schema.Graph, format string) ([]byte, error) {
	switch format {
	case "yaml", "yml":
		// Through JSON so node details keep their wire names.
		raw, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	case "json", "":
		return json.MarshalIndent(g, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported output format %q: use json or yaml", format)
	}
}
