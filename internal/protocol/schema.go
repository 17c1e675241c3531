package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// schemaFiles maps a client message type to its embedded schema.
var schemaFiles = map[string]string{
	TypeInput:     "input.schema.json",
	TypePickup:    "pickup.schema.json",
	TypeUseItem:   "use_item.schema.json",
	TypePlaceTrap: "place_trap.schema.json",
	TypeShoot:     "shoot.schema.json",
}

// Validator checks inbound client frames against the embedded JSON schemas.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range schemaFiles {
		raw, err := schemaFS.ReadFile(path.Join("schemas", name))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := c.AddResource(schemaURL(name), bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(schemaFiles))}
	for typ, name := range schemaFiles {
		s, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[typ] = s
	}
	return v, nil
}

// MustValidator is NewValidator for package-level initialisation in tests and tools.
func MustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw JSON b against the schema registered for typ.
func (v *Validator) Validate(typ string, b []byte) error {
	s, ok := v.schemas[typ]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func schemaURL(name string) string {
	return "mem://heist.gg/schemas/" + name
}
