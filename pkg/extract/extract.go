// Package extract pulls a workflow JSON object out of free-form generator output.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

var (
	ErrNoJSON      = errors.New("no JSON object found")
	ErrUnbalanced  = errors.New("unbalanced braces")
	ErrInvalidJSON = errors.New("extracted block is not valid JSON")
)

var (
	tagPattern   = regexp.MustCompile(`(?is)<json>\s*(\{.*?\})\s*</json>`)
	fencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// Candidate returns the JSON object embedded in text. A <json>…</json> block wins over a
// fenced ```json block, which wins over the first balanced {…}. Line comments outside
// strings are removed before the result is checked.
func Candidate(text string) ([]byte, error) {
	block, err := locate(text)
	if err != nil {
		return nil, err
	}

	cleaned := []byte(StripLineComments(block))
	if !gjson.ValidBytes(cleaned) {
		return nil, ErrInvalidJSON
	}

	return cleaned, nil
}

func locate(text string) (string, error) {
	if m := tagPattern.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}

	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	depth := 0

	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	return "", ErrUnbalanced
}

// StripLineComments drops "//" comments that start outside JSON strings.
func StripLineComments(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	inString, escaped := false, false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			b.WriteByte(ch)

			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}

			continue
		}

		switch {
		case ch == '"':
			inString = true

			b.WriteByte(ch)
		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			for i < len(s) && s[i] != '\n' && s[i] != '\r' {
				i++
			}

			if i < len(s) {
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}

// CoerceAliases renames a root "Steps" key to "workflowSteps" when the latter is absent.
// Documents without the alias are returned unchanged.
func CoerceAliases(doc []byte) ([]byte, error) {
	if !gjson.GetBytes(doc, "Steps").Exists() || gjson.GetBytes(doc, "workflowSteps").Exists() {
		return doc, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(doc, &root); err != nil {
		return nil, err
	}

	root["workflowSteps"] = root["Steps"]
	delete(root, "Steps")

	return json.Marshal(root)
}

// Canonical renders doc compactly with object keys sorted, for stable comparison and logging.
func Canonical(doc []byte) []byte {
	return pretty.Ugly(pretty.PrettyOptions(doc, &pretty.Options{Width: 80, Indent: "  ", SortKeys: true}))
}

// Preview shortens text for logs.
func Preview(text string, n int) string {
	if len(text) <= n {
		return text
	}

	return string(bytes.ToValidUTF8([]byte(text[:n]), nil))
}
