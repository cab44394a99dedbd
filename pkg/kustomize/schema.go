package kustomize

import (
	"fmt"
	"strings"

	jsonyaml "github.com/ghodss/yaml"
	"github.com/xeipuuv/gojsonschema"

	konferr "github.com/kombineproject/kombine/pkg/errors"
)

// JSON schema for the configuration file. Unknown fields are
// rejected, so that misspelled transformations fail loudly rather
// than silently doing nothing.
const configSchema = `
{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "apiVersion": {"type": "string"},
    "kind": {"type": "string"},
    "resources": {"type": "array", "items": {"type": "string"}},
    "bases": {"type": "array", "items": {"type": "string"}},
    "namePrefix": {"type": "string"},
    "nameSuffix": {"type": "string"},
    "namespace": {"type": "string"},
    "commonLabels": {"$ref": "#/definitions/stringMap"},
    "commonAnnotations": {"$ref": "#/definitions/stringMap"},
    "patchesStrategicMerge": {"type": "array", "items": {"type": "string"}},
    "patchesJson6902": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["target"],
        "properties": {
          "target": {
            "type": "object",
            "additionalProperties": false,
            "required": ["kind", "name"],
            "properties": {
              "group": {"type": "string"},
              "version": {"type": "string"},
              "kind": {"type": "string"},
              "name": {"type": "string"},
              "namespace": {"type": "string"}
            }
          },
          "path": {"type": "string"},
          "patch": {"type": "string"}
        }
      }
    },
    "images": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "newName": {"type": "string"},
          "newTag": {"type": "string"},
          "digest": {"type": "string"}
        }
      }
    },
    "replicas": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "count"],
        "properties": {
          "name": {"type": "string"},
          "count": {"type": "integer"}
        }
      }
    },
    "configMapGenerator": {
      "type": "array",
      "items": {"$ref": "#/definitions/generatorArgs"}
    },
    "secretGenerator": {
      "type": "array",
      "items": {"$ref": "#/definitions/secretGeneratorArgs"}
    },
    "generatorOptions": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "labels": {"$ref": "#/definitions/stringMap"},
        "annotations": {"$ref": "#/definitions/stringMap"},
        "disableNameSuffixHash": {"type": "boolean"}
      }
    }
  },
  "definitions": {
    "stringMap": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "generatorArgs": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "namespace": {"type": "string"},
        "behavior": {"type": "string"},
        "literals": {"type": "array", "items": {"type": "string"}},
        "files": {"type": "array", "items": {"type": "string"}},
        "envs": {"type": "array", "items": {"type": "string"}}
      }
    },
    "secretGeneratorArgs": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "namespace": {"type": "string"},
        "behavior": {"type": "string"},
        "type": {"type": "string"},
        "literals": {"type": "array", "items": {"type": "string"}},
        "files": {"type": "array", "items": {"type": "string"}},
        "envs": {"type": "array", "items": {"type": "string"}}
      }
    }
  }
}
`

// Validate checks raw configuration file content against the schema,
// returning a user error listing each violation.
func Validate(fileBytes []byte, path string) error {
	jsonBytes, err := jsonyaml.YAMLToJSON(fileBytes)
	if err != nil {
		return konferr.UserError(
			fmt.Sprintf("could not parse %q; this likely means it is malformed YAML.", path),
			fmt.Errorf("cannot parse %q: %s", path, err))
	}
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(configSchema), gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return fmt.Errorf("cannot validate %q: %s", path, err)
	}
	if result.Valid() {
		return nil
	}
	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, "  - "+desc.String())
	}
	return konferr.UserError(
		fmt.Sprintf("%q is not a valid configuration file:\n%s", path, strings.Join(problems, "\n")),
		fmt.Errorf("%q failed schema validation", path))
}
