// Package docsync reconciles markdown planning documents with their paired
// work items. Documents carry a YAML frontmatter header with the tracked
// fields; the body below the header is opaque and never interpreted.
package docsync

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

// ErrMalformedHeader indicates a document header that exists but cannot be
// parsed, or that is missing required keys.
var ErrMalformedHeader = errors.New("malformed document header")

const headerDelim = "---"

// Extract splits a document into its header fields and body. A document
// without a leading "---" frontmatter block yields an empty map and the full
// document as body. Header values are normalized to strings.
func Extract(doc []byte) (map[string]string, []byte, error) {
	fields := map[string]string{}
	if !bytes.HasPrefix(doc, []byte(headerDelim+"\n")) {
		return fields, doc, nil
	}

	rest := doc[len(headerDelim)+1:]
	end := closingDelim(rest)
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter: %w", ErrMalformedHeader)
	}
	raw := rest[:end+1]
	body := rest[end+1+len(headerDelim):]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}

	var parsed map[string]interface{}
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, ErrMalformedHeader)
	}
	for k, v := range parsed {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case int:
			fields[k] = strconv.Itoa(val)
		case bool:
			fields[k] = strconv.FormatBool(val)
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	return fields, body, nil
}

// closingDelim returns the offset of the newline preceding the closing
// delimiter, or -1. The delimiter must occupy a whole line, so a longer
// dash run inside the header does not terminate it.
func closingDelim(rest []byte) int {
	marker := []byte("\n" + headerDelim)
	for off := 0; ; {
		i := bytes.Index(rest[off:], marker)
		if i < 0 {
			return -1
		}
		pos := off + i
		after := pos + len(marker)
		if after == len(rest) || rest[after] == '\n' {
			return pos
		}
		off = pos + 1
	}
}

// validateHeader checks the required keys for a synced document: id, type
// and status always, plus epic for stories.
func validateHeader(fields map[string]string) (types.ItemType, error) {
	for _, key := range []string{"id", "type", "status"} {
		if fields[key] == "" {
			return "", fmt.Errorf("missing required key %q: %w", key, ErrMalformedHeader)
		}
	}
	itemType := types.ItemType(fields["type"])
	if !itemType.IsValid() {
		return "", fmt.Errorf("unknown type %q: %w", fields["type"], ErrMalformedHeader)
	}
	if itemType == types.TypeStory && fields["epic"] == "" {
		return "", fmt.Errorf("missing required key %q: %w", "epic", ErrMalformedHeader)
	}
	return itemType, nil
}

// headerDoc fixes the key order of rendered headers so regeneration is
// byte-stable.
type headerDoc struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	Status string `yaml:"status"`
	Epic   string `yaml:"epic,omitempty"`
	Title  string `yaml:"title,omitempty"`
	Points int    `yaml:"points,omitempty"`
	Owner  string `yaml:"owner,omitempty"`
}

// RenderHeader produces the frontmatter block for an item, trailing newline
// included.
func RenderHeader(item *types.WorkItem) ([]byte, error) {
	doc := headerDoc{
		ID:     item.ID,
		Type:   string(item.ItemType),
		Status: string(item.Status),
		Title:  item.Title,
		Points: item.Points,
		Owner:  item.Owner,
	}
	if item.ItemType == types.TypeStory {
		doc.Epic = item.ParentID
	}
	var buf bytes.Buffer
	buf.WriteString(headerDelim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to render header: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render header: %w", err)
	}
	buf.WriteString(headerDelim + "\n")
	return buf.Bytes(), nil
}
