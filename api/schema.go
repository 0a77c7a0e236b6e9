package api

import "github.com/xeipuuv/gojsonschema"

// SubmitMetadataSchemaDefinition validates the optional JSON "metadata" part
// of a multipart submission. It only carries a filename override, for
// clients whose multipart encoder doesn't set a usable Content-Disposition
// filename.
const SubmitMetadataSchemaDefinition = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"filename": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

var inputSchemas = map[string]string{
	"SubmitMetadata": SubmitMetadataSchemaDefinition,
}

func compileJSONSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(inputSchemas))
	for name, text := range inputSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(text))
		if err != nil {
			panic(err) // fix schema text
		}
		compiled[name] = schema
	}
	return compiled
}

var inputSchemasCompiled = compileJSONSchemas()
