package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// fileSchema describes a catalog file: a JSON array of subsidies.
const fileSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name", "category", "amount"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "description": {"type": "string"},
      "category": {"type": "string", "minLength": 1},
      "amount": {"type": "number", "minimum": 0},
      "documents": {"type": "array", "items": {"type": "string"}},
      "applicationUrl": {"type": "string"},
      "translations": {
        "type": "object",
        "additionalProperties": {
          "type": "object",
          "properties": {
            "name": {"type": "string"},
            "description": {"type": "string"}
          }
        }
      },
      "eligibility": {
        "type": "object",
        "properties": {
          "minLandSize": {"type": "number", "minimum": 0},
          "maxLandSize": {"type": ["number", "null"], "minimum": 0},
          "farmerType": {"$ref": "#/definitions/restriction"},
          "crops": {"$ref": "#/definitions/restriction"},
          "district": {"$ref": "#/definitions/restriction"}
        }
      }
    }
  },
  "definitions": {
    "restriction": {
      "oneOf": [
        {"type": "null"},
        {"type": "string", "pattern": "^(?i)\\s*all\\s*$"},
        {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
      ]
    }
  }
}`

var fileSchemaLoader = gojsonschema.NewStringLoader(fileSchema)

// Parse validates data against the catalog file schema and builds a
// Catalog from it.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(fileSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to validate catalog: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("catalog does not match schema: %s", strings.Join(msgs, "; "))
	}

	var subsidies []Subsidy
	if err := json.Unmarshal(data, &subsidies); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(subsidies)
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}
