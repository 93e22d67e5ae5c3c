package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://isocity.dev/schemas/"

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func loadSchemas() {
	schemas = map[string]*jsonschema.Schema{}
	c := jsonschema.NewCompiler()
	names := map[string]string{
		TypeHello:   "hello.schema.json",
		TypeCommand: "command.schema.json",
	}
	for _, file := range names {
		raw, err := schemaFS.ReadFile("schemas/" + file)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(schemaBase+file, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("schema %s: %w", file, err)
			return
		}
	}
	for typ, file := range names {
		s, err := c.Compile(schemaBase + file)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", file, err)
			return
		}
		schemas[typ] = s
	}
}

// Validate checks a raw client message against the schema for its type.
// Types without a schema pass.
func Validate(msgType string, raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	s, ok := schemas[msgType]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
