package providers

import (
	"bytes"
	"encoding/json"
	"errors"
)

// errNoContent is returned when a body parses but carries no recognizable content.
var errNoContent = errors.New("could not extract content from response")

var errInvalidJSON = errors.New("failed to parse response: invalid JSON")

// object is a JSON object whose members are decoded on demand.
type object map[string]json.RawMessage

// parseResponse extracts the generated text, model and usage from a body.
// Members with an unexpected JSON type are skipped rather than failing the
// whole body.
func parseResponse(body []byte) (content, model string, usage json.RawMessage, err error) {
	if !json.Valid(body) {
		return "", "", nil, errInvalidJSON
	}

	top, ok := asObject(body)
	if !ok {
		return "", "", nil, errNoContent
	}

	model, _ = asString(top["model"])
	if raw := top["usage"]; len(raw) > 0 && jsonKind(raw) != 'n' {
		usage = raw
	}

	content, err = extractContent(top)
	return content, model, usage, err
}

// extractContent tries the OpenAI shapes first, then Anthropic, then bare fields.
func extractContent(top object) (string, error) {
	if choices, ok := asArray(top["choices"]); ok && len(choices) > 0 {
		if first, ok := asObject(choices[0]); ok {
			if text, ok := memberString(first, "message", "content"); ok {
				return text, nil
			}
			if text, ok := memberString(first, "delta", "content"); ok {
				return text, nil
			}
		}
	}

	if raw, ok := top["content"]; ok {
		if text, ok := asString(raw); ok {
			return text, nil
		}
		if blocks, ok := asArray(raw); ok && len(blocks) > 0 {
			if block, ok := asObject(blocks[0]); ok {
				if text, ok := asString(block["text"]); ok {
					return text, nil
				}
			}
		}
	}

	if text, ok := asString(top["text"]); ok {
		return text, nil
	}
	if text, ok := asString(top["response"]); ok {
		return text, nil
	}

	return "", errNoContent
}

// memberString reads obj[outer][inner] when both levels have the expected type.
func memberString(obj object, outer, inner string) (string, bool) {
	nested, ok := asObject(obj[outer])
	if !ok {
		return "", false
	}
	return asString(nested[inner])
}

// jsonKind returns the first significant byte of raw: '{', '[', '"', 'n'
// for null, or another literal's first byte. Zero means empty.
func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func asString(raw json.RawMessage) (string, bool) {
	if jsonKind(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if jsonKind(raw) != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func asObject(raw []byte) (object, bool) {
	if jsonKind(raw) != '{' {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}
