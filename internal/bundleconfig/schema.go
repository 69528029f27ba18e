package bundleconfig

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// mergedConfigSchema sanity-checks the shape handed to the external
// bundler. Violations are reported as warnings, not errors: the bundler is
// the final authority on its own configuration.
const mergedConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "serializer": {
      "type": "object",
      "properties": {
        "processModuleFilter": {"type": "string"},
        "createModuleIdFactory": {"type": "string"},
        "getModulesRunBeforeMainModule": {
          "type": "array",
          "items": {"type": "string"}
        }
      }
    },
    "output": {
      "type": "object",
      "properties": {
        "publicPath": {"type": "string"},
        "chunkDir": {"type": "string"},
        "chunkHashLength": {"type": "integer", "minimum": 0},
        "chunkLoadTimeout": {"type": "integer", "minimum": 1}
      }
    },
    "transformer": {"type": "object"}
  }
}`

// ValidateShape returns one warning per schema violation in the merged
// configuration.
func ValidateShape(cfg Config) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(mergedConfigSchema),
		gojsonschema.NewGoLoader(map[string]any(cfg)),
	)
	if err != nil {
		return nil, fmt.Errorf("validate merged config: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	warnings := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		warnings = append(warnings, violation.String())
	}
	return warnings, nil
}
