package debias

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema pins down only the fields the pipeline depends on. Extra
// fields are allowed everywhere: they ride along in the raw artifact.
const responseSchema = `{
  "type": "object",
  "required": ["results"],
  "properties": {
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["literal", "tags"],
        "properties": {
          "literal": {"type": "string"},
          "tags": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "literal": {"type": "string"},
                "issue": {"type": "string"},
                "source": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledResponseSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("debias-response.json", strings.NewReader(responseSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("debias-response.json")
}

// ValidateResponse checks a raw response body against the response schema.
func ValidateResponse(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode annotation response: %w", err)
	}
	if err := compiledResponseSchema.Validate(v); err != nil {
		return fmt.Errorf("annotation response does not match schema: %w", err)
	}
	return nil
}
