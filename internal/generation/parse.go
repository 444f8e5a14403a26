package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseFailureMessage is reported when no strategy finds any cards.
const ParseFailureMessage = "Could not parse flashcards from the model response."

var (
	arrayPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)
	fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
)

// ParseReply recovers cards from a model reply. Strategies are tried in
// order until one yields a well-shaped value:
//
//  1. the whole reply as a titled object or a bare card array
//  2. an object substring mentioning both "title" and "cards"
//  3. the widest array-of-objects substring
//  4. the contents of a fenced code block
//  5. every balanced array whose first element has a question and an answer
func ParseReply(text string) Result {
	text = strings.TrimSpace(text)

	if r, ok := parseWhole(text); ok {
		return r
	}
	if r, ok := parseTitledObject(text); ok {
		return r
	}
	if r, ok := parseArraySubstring(text); ok {
		return r
	}
	if r, ok := parseFenced(text); ok {
		return r
	}
	if r, ok := parseBalancedArrays(text); ok {
		return r
	}
	return Failure{Message: ParseFailureMessage}
}

func parseWhole(text string) (Result, bool) {
	v, ok := decode(text)
	if !ok {
		return nil, false
	}
	if r, ok := asTitled(v); ok {
		return r, true
	}
	return asArray(v, cardArray)
}

func parseTitledObject(text string) (Result, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if mentionsTitledKeys(candidate) {
			if v, ok := decode(candidate); ok {
				if r, ok := asTitled(v); ok {
					return r, true
				}
			}
		}
	}

	// The widest span may swallow prose between two objects; fall back
	// to every balanced object.
	for _, candidate := range balanced(text, '{', '}') {
		if !mentionsTitledKeys(candidate) {
			continue
		}
		if v, ok := decode(candidate); ok {
			if r, ok := asTitled(v); ok {
				return r, true
			}
		}
	}
	return nil, false
}

func mentionsTitledKeys(s string) bool {
	return strings.Contains(s, `"title"`) && strings.Contains(s, `"cards"`)
}

func parseArraySubstring(text string) (Result, bool) {
	match := arrayPattern.FindString(text)
	if match == "" {
		return nil, false
	}
	v, ok := decode(match)
	if !ok {
		return nil, false
	}
	return asArray(v, objectArray)
}

func parseFenced(text string) (Result, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		v, ok := decode(strings.TrimSpace(m[1]))
		if !ok {
			continue
		}
		if r, ok := asTitled(v); ok {
			return r, true
		}
		if r, ok := asArray(v, objectArray); ok {
			return r, true
		}
	}
	return nil, false
}

func parseBalancedArrays(text string) (Result, bool) {
	for _, candidate := range balanced(text, '[', ']') {
		v, ok := decode(candidate)
		if !ok {
			continue
		}
		items, ok := v.([]any)
		if !ok || len(items) == 0 {
			continue
		}
		first, ok := items[0].(map[string]any)
		if !ok {
			continue
		}
		_, hasQ := first["question"]
		_, hasA := first["answer"]
		if hasQ && hasA {
			return Success{Cards: toCards(items)}, true
		}
	}
	return nil, false
}

func decode(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}

func asTitled(v any) (Result, bool) {
	if titledReply.Validate(v) != nil {
		return nil, false
	}
	obj := v.(map[string]any)
	return Success{
		Title: strings.TrimSpace(obj["title"].(string)),
		Cards: toCards(obj["cards"].([]any)),
	}, true
}

func asArray(v any, schema *jsonschema.Schema) (Result, bool) {
	if schema.Validate(v) != nil {
		return nil, false
	}
	return Success{Cards: toCards(v.([]any))}, true
}

func toCards(items []any) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		cards = append(cards, Card{
			Question: field(obj["question"]),
			Answer:   field(obj["answer"]),
		})
	}
	return cards
}

func field(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

// balanced returns every substring that starts at an open delimiter and
// ends at its matching close, in order of their start. Delimiters inside
// JSON strings are ignored.
func balanced(text string, openCh, closeCh byte) []string {
	var out []string
	for start := 0; start < len(text); start++ {
		if text[start] != openCh {
			continue
		}
		if end := matchingClose(text, start, openCh, closeCh); end > start {
			out = append(out, text[start:end+1])
		}
	}
	return out
}

func matchingClose(text string, start int, openCh, closeCh byte) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
