package strategy

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToJSONSchema describes t as the YAML document it is loaded from: property names come
// from the yaml tags and nested structs are inlined.
func ToJSONSchema[T any](t T) (string, error) {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "yaml",
	}

	jsonSchemaBytes, err := json.Marshal(r.Reflect(t))
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
