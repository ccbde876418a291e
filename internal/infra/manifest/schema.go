package manifest

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

const manifestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["platforms"],
  "properties": {
    "platforms": {
      "type": "object",
      "additionalProperties": { "$ref": "#/$defs/platform" }
    }
  },
  "$defs": {
    "platform": {
      "type": "object",
      "properties": {
        "clients": {
          "type": "array",
          "items": { "$ref": "#/$defs/client" }
        }
      }
    },
    "client": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "config_paths": {
          "type": "array",
          "items": { "type": "string" }
        }
      }
    }
  }
}`

var (
	resolvedSchemaOnce sync.Once
	resolvedSchema     *jsonschema.Resolved
	resolvedSchemaErr  error
)

func manifestSchemaResolved() (*jsonschema.Resolved, error) {
	resolvedSchemaOnce.Do(func() {
		var schema jsonschema.Schema
		if err := json.Unmarshal([]byte(manifestSchema), &schema); err != nil {
			resolvedSchemaErr = fmt.Errorf("decode manifest schema: %w", err)
			return
		}
		resolvedSchema, resolvedSchemaErr = schema.Resolve(nil)
	})
	return resolvedSchema, resolvedSchemaErr
}

func validateManifestSchema(data []byte) error {
	resolved, err := manifestSchemaResolved()
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if err := resolved.Validate(decoded); err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}
	return nil
}
