package provider

import (
	"encoding/json"
	"fmt"

	"github.com/deepagent-go/deepagent/internal/util"
)

// ParseStructuredOutput recovers a JSON object from a model's final
// free-form text using util.ExtractJSON's fence-stripping/cleanup/extraction
// passes (spec §6 "output"). It checks only that the result is a JSON
// object; it does not validate the object against Options.OutputSchema.
func ParseStructuredOutput(text string) (map[string]any, error) {
	result := util.ExtractJSON(text)
	if !result.Success {
		return nil, fmt.Errorf("structured output did not parse as JSON: %s", result.Error)
	}
	var out map[string]any
	if err := json.Unmarshal(result.Data, &out); err != nil {
		return nil, fmt.Errorf("structured output was valid JSON but not an object: %w", err)
	}
	return out, nil
}
