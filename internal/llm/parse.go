package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ExtractJSON pulls a JSON document out of a model reply and unmarshals it
// into v. Models frequently wrap JSON in markdown code fences or emit
// slightly malformed output (trailing commas, unquoted keys), so parsing is
// layered: strip fences, try strict unmarshal, then attempt repair.
func ExtractJSON(content string, v any) error {
	stripped := StripCodeFences(content)

	if err := json.Unmarshal([]byte(stripped), v); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(stripped)
	if err != nil {
		return fmt.Errorf("JSON repair failed: %w", err)
	}

	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("unmarshal repaired JSON: %w", err)
	}
	return nil
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(content string) string {
	if strings.Contains(content, "```json") {
		parts := strings.SplitN(content, "```json", 2)
		content = parts[1]
		if idx := strings.Index(content, "```"); idx >= 0 {
			content = content[:idx]
		}
	} else if strings.Contains(content, "```") {
		parts := strings.SplitN(content, "```", 3)
		if len(parts) >= 2 {
			content = parts[1]
		}
	}
	return strings.TrimSpace(content)
}
