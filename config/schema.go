package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschemago "github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/swaggest/jsonschema-go"
)

var ErrSchema = errors.New("setup file does not match the schema")

// Schema returns the JSON schema of a setup file. It only describes the shape
// of the file, value rules are enforced when disks and partitions are built.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{}
	generatedSchema, err := reflector.Reflect(Setup{}, jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(generatedSchema, "", "  ")
}

// Validate checks decoded YAML values against Schema.
func Validate(values Values) error {
	schemaJSON, err := Schema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}
	sch, err := jsonschemago.CompileString("setup.schema.json", string(schemaJSON))
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	// The validator only understands what encoding/json produces.
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSchema, err)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %s", ErrSchema, err)
	}

	if err := sch.Validate(v); err != nil {
		var verr *jsonschemago.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w:\n%s", ErrSchema, strings.TrimSpace(fmt.Sprintf("%#v", verr)))
		}
		return fmt.Errorf("%w: %s", ErrSchema, err)
	}
	return nil
}
