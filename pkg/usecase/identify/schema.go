package identify

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

var careInfoFields = []string{
	"commonName",
	"scientificName",
	"description",
	"watering",
	"light",
	"soil",
	"temperature",
	"humidity",
}

// careInfoSchema describes the JSON object the gateway must return
func careInfoSchema() *jsonschema.Schema {
	minLength := 1
	minItems := 1

	props := make(map[string]*jsonschema.Schema, len(careInfoFields)+1)
	for _, name := range careInfoFields {
		props[name] = &jsonschema.Schema{Type: "string", MinLength: &minLength}
	}
	props["potentialProblems"] = &jsonschema.Schema{
		Type:     "array",
		MinItems: &minItems,
		Items:    &jsonschema.Schema{Type: "string", MinLength: &minLength},
	}

	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   append(append([]string{}, careInfoFields...), "potentialProblems"),
	}
}

// convertJSONSchemaToGenai converts JSON Schema to Gemini genai.Schema
func convertJSONSchemaToGenai(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	genaiSchema := &genai.Schema{}

	switch schema.Type {
	case "object":
		genaiSchema.Type = genai.TypeObject
	case "string":
		genaiSchema.Type = genai.TypeString
	case "number", "integer":
		genaiSchema.Type = genai.TypeNumber
	case "boolean":
		genaiSchema.Type = genai.TypeBoolean
	case "array":
		genaiSchema.Type = genai.TypeArray
	default:
		if schema.Type != "" {
			return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
		}
	}

	if schema.Description != "" {
		genaiSchema.Description = schema.Description
	}

	if len(schema.Properties) > 0 {
		genaiSchema.Properties = make(map[string]*genai.Schema)
		for name, propSchema := range schema.Properties {
			converted, err := convertJSONSchemaToGenai(propSchema)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema",
					goerr.V("property", name))
			}
			genaiSchema.Properties[name] = converted
		}
	}

	if len(schema.Required) > 0 {
		genaiSchema.Required = schema.Required
	}

	if schema.MinItems != nil {
		minItems := int64(*schema.MinItems)
		genaiSchema.MinItems = &minItems
	}

	if schema.Items != nil {
		converted, err := convertJSONSchemaToGenai(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		genaiSchema.Items = converted
	}

	return genaiSchema, nil
}
