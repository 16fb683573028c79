package util

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Pre-compiled regex patterns, following the teacher's practice of
// compiling once at package init rather than per-call (~15x faster on hot
// paths like structured-output parsing on every final assistant message).
var (
	codeFenceStartRegex = regexp.MustCompile(`(?s)^` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}\s*$`)
	codeFenceAnyRegex   = regexp.MustCompile(`(?s)` + "`" + `{3}(?:json|javascript|js)?\s*\n?([\s\S]*?)\n?` + "`" + `{3}`)

	trailingCommaRegex     = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	singleLineCommentRegex = regexp.MustCompile(`(?m)//.*$`)
	multiLineCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	objectRegex = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
)

// JSONParseResult is the outcome of an attempt to extract structured JSON
// from free-form model text.
type JSONParseResult struct {
	Success      bool
	Data         json.RawMessage
	Error        string
	OriginalText string
}

// ExtractJSON recovers a JSON value from model output that may be wrapped
// in markdown code fences, contain trailing commas or unquoted keys, or be
// interleaved with prose. provider.ParseStructuredOutput uses it to parse
// the final assistant message when a caller supplies an `output` schema
// (spec §6).
//
// Strategy, applied in order until one parses cleanly:
//  1. direct parse
//  2. strip code fences, parse
//  3. fix trailing commas / unquoted keys / comments, parse
//  4. extract the first top-level object or array from mixed content, parse
func ExtractJSON(text string) JSONParseResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return JSONParseResult{Error: "empty input", OriginalText: text}
	}

	if raw, err := tryParse(trimmed); err == nil {
		return JSONParseResult{Success: true, Data: raw, OriginalText: text}
	}

	withoutFences := removeCodeFences(trimmed)
	if withoutFences != trimmed {
		if raw, err := tryParse(withoutFences); err == nil {
			return JSONParseResult{Success: true, Data: raw, OriginalText: text}
		}
	}

	cleaned := cleanupJSON(withoutFences)
	if raw, err := tryParse(cleaned); err == nil {
		return JSONParseResult{Success: true, Data: raw, OriginalText: text}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if raw, err := tryParse(extracted); err == nil {
			return JSONParseResult{Success: true, Data: raw, OriginalText: text}
		}
	}

	slog.Debug("structured output parse failed after all recovery strategies", "preview", truncate(text, 200))
	return JSONParseResult{Error: "all JSON parsing strategies failed", OriginalText: text}
}

// DecodeJSON is ExtractJSON followed by Unmarshal into T, for callers that
// know the concrete schema type at compile time.
func DecodeJSON[T any](text string) (T, error) {
	var zero T
	result := ExtractJSON(text)
	if !result.Success {
		return zero, fmt.Errorf("extract structured output: %s", result.Error)
	}
	var out T
	if err := json.Unmarshal(result.Data, &out); err != nil {
		return zero, fmt.Errorf("decode structured output: %w", err)
	}
	return out, nil
}

func tryParse(text string) (json.RawMessage, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

func removeCodeFences(text string) string {
	cleaned := codeFenceStartRegex.ReplaceAllString(text, "$1")
	if cleaned == text {
		cleaned = codeFenceAnyRegex.ReplaceAllString(text, "$1")
	}
	if strings.HasPrefix(cleaned, "`") && strings.HasSuffix(cleaned, "`") {
		cleaned = strings.TrimPrefix(cleaned, "`")
		cleaned = strings.TrimSuffix(cleaned, "`")
	}
	return strings.TrimSpace(cleaned)
}

func cleanupJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = trailingCommaRegex.ReplaceAllString(cleaned, "$1")
	cleaned = unquotedKeyRegex.ReplaceAllString(cleaned, `$1"$2":`)
	cleaned = singleLineCommentRegex.ReplaceAllString(cleaned, "")
	cleaned = multiLineCommentRegex.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '[':
			if match := arrayRegex.FindString(text); match != "" {
				return match
			}
		case '{':
			if match := objectRegex.FindString(text); match != "" {
				return match
			}
		}
	}
	if match := objectRegex.FindString(text); match != "" {
		return match
	}
	if match := arrayRegex.FindString(text); match != "" {
		return match
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
