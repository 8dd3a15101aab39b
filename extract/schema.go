package extract

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// responseSchema is deliberately permissive about value shapes the
// extraction service is known to vary on (amounts as numbers or strings)
// while rejecting responses that are structurally wrong.
const responseSchema = `{
	"type": "object",
	"properties": {
		"rent":        {"type": ["number", "string"]},
		"deposit":     {"type": ["number", "string"]},
		"type":        {"type": "string"},
		"area":        {"type": "string"},
		"gender":      {"type": "string"},
		"furnishing":  {"type": "string"},
		"contact":     {"type": "string"},
		"description": {"type": "string"},
		"amenities":   {"type": "array"}
	}
}`

var compiledSchema = jsonschema.MustCompileString("extraction.json", responseSchema)

// validateResponse checks an extracted JSON span against the response
// schema. A failure here routes the caller to the regex fallback.
func validateResponse(span string) error {
	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return err
	}
	return nil
}
