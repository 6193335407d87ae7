package catalog

import (
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	dErrors "schemefinder/pkg/domain-errors"
)

// documentSchema describes the catalog file shape. Semantic invariants that
// span fields (min <= max, unique ids) are checked again by New.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schemes"],
  "properties": {
    "schemes": {
      "type": "array",
      "items": {"$ref": "#/definitions/scheme"}
    },
    "locations": {
      "type": "object",
      "properties": {
        "states": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["name"],
            "properties": {
              "name": {"type": "string", "minLength": 1},
              "districts": {"type": "array", "items": {"type": "string"}}
            }
          }
        }
      }
    },
    "translations": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": {"type": "string"}
      }
    }
  },
  "definitions": {
    "localized": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "values": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "bound": {"type": "number", "minimum": 0},
    "scheme": {
      "type": "object",
      "required": ["id", "name", "eligibility"],
      "properties": {
        "id": {"type": "integer", "minimum": 1},
        "name": {"allOf": [{"$ref": "#/definitions/localized"}], "required": ["english"]},
        "description": {"$ref": "#/definitions/localized"},
        "link": {"type": "string"},
        "applicationProcess": {"$ref": "#/definitions/localized"},
        "documents": {"type": "array", "items": {"type": "string"}},
        "eligibility": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "age": {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "min": {"$ref": "#/definitions/bound"},
                "max": {"$ref": "#/definitions/bound"}
              }
            },
            "income": {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "max": {"$ref": "#/definitions/bound"}
              }
            },
            "occupation": {"$ref": "#/definitions/values"},
            "gender": {"$ref": "#/definitions/values"},
            "caste": {"$ref": "#/definitions/values"},
            "states": {"$ref": "#/definitions/values"}
          }
        }
      }
    }
  }
}`

var (
	compiledOnce   sync.Once
	compiledSchema *gojsonschema.Schema
	compileErr     error
)

func documentValidator() (*gojsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	})
	return compiledSchema, compileErr
}

// ValidateDocument checks raw catalog JSON against the document schema and
// reports every violation in one error.
func ValidateDocument(raw []byte) error {
	schema, err := documentValidator()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "compile catalog schema")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "catalog is not valid JSON")
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return dErrors.New(dErrors.CodeInvariantViolation, "catalog schema violations: "+strings.Join(msgs, "; "))
}
