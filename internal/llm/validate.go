package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var compiledSchemas sync.Map // name -> *jsonschema.Schema

// cleanJSON strips a markdown code fence and any prose around the outermost
// JSON object.
func cleanJSON(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// checkSchema cleans raw and validates it against schema. Free-text replies
// (nil schema) are only trimmed.
func checkSchema(schema *Schema, raw string) (string, error) {
	if schema == nil {
		return strings.TrimSpace(raw), nil
	}
	content := cleanJSON(raw)

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return "", &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("parse json: %w", err)}
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return "", &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := compiled.Validate(doc); err != nil {
		return "", &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema %s: %w", schema.Name, err)}
	}
	return content, nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := compiledSchemas.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps with typed slices.
	encoded, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", schema.Name, err)
	}
	var def any
	if err := json.Unmarshal(encoded, &def); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", schema.Name, err)
	}

	c := jsonschema.NewCompiler()
	url := "mem://" + schema.Name + ".json"
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", schema.Name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}

	compiledSchemas.Store(schema.Name, compiled)
	return compiled, nil
}
