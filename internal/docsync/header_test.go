package docsync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memyselfmike/gao-agile-dev-sub009/internal/types"
)

func TestExtractHeaderAndBody(t *testing.T) {
	doc := []byte("---\nid: story-1\ntype: story\nstatus: pending\nepic: epic-1\npoints: 3\n---\n\n# Story one\n\nBody text.\n")
	fields, body, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "story-1", fields["id"])
	assert.Equal(t, "story", fields["type"])
	assert.Equal(t, "3", fields["points"])
	assert.Equal(t, "\n# Story one\n\nBody text.\n", string(body))
}

func TestExtractNoHeader(t *testing.T) {
	doc := []byte("# Just a note\n")
	fields, body, err := Extract(doc)
	require.NoError(t, err)
	assert.Empty(t, fields)
	assert.Equal(t, doc, body)
}

func TestExtractUnterminatedHeader(t *testing.T) {
	_, _, err := Extract([]byte("---\nid: x\n"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestExtractUnparseableHeader(t *testing.T) {
	_, _, err := Extract([]byte("---\n: : :\n\t bad\n---\nbody\n"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestExtractDelimiterMustBeFullLine(t *testing.T) {
	// A longer dash run is not a terminator: the scan continues to the real
	// delimiter and the unparseable header is reported as such, instead of
	// stray dashes leaking into the body.
	_, _, err := Extract([]byte("---\nid: x\n---- snip\n---\nbody\n"))
	assert.ErrorIs(t, err, ErrMalformedHeader)

	// Without a real delimiter later the document is unterminated.
	_, _, err = Extract([]byte("---\nid: x\n-----\nmore\n"))
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestExtractDelimiterAtEOF(t *testing.T) {
	fields, body, err := Extract([]byte("---\nid: story-1\ntype: story\nstatus: pending\nepic: epic-1\n---"))
	require.NoError(t, err)
	assert.Equal(t, "story-1", fields["id"])
	assert.Empty(t, body)
}

func TestValidateHeaderRequiredKeys(t *testing.T) {
	cases := []struct {
		name   string
		fields map[string]string
		ok     bool
	}{
		{"complete epic", map[string]string{"id": "e1", "type": "epic", "status": "pending"}, true},
		{"story with epic", map[string]string{"id": "s1", "type": "story", "status": "pending", "epic": "e1"}, true},
		{"story missing epic", map[string]string{"id": "s1", "type": "story", "status": "pending"}, false},
		{"missing id", map[string]string{"type": "epic", "status": "pending"}, false},
		{"missing status", map[string]string{"id": "e1", "type": "epic"}, false},
		{"unknown type", map[string]string{"id": "x", "type": "task", "status": "pending"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validateHeader(tc.fields)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedHeader)
			}
		})
	}
}

func TestRenderHeaderRoundTrip(t *testing.T) {
	item := &types.WorkItem{
		ID:       "story-1",
		ItemType: types.TypeStory,
		Title:    "Ship the thing: part 2",
		Status:   types.StatusInProgress,
		ParentID: "epic-1",
		Points:   5,
		Owner:    "alice",
	}
	header, err := RenderHeader(item)
	require.NoError(t, err)

	fields, body, err := Extract(header)
	require.NoError(t, err)
	assert.Empty(t, body)
	assert.Equal(t, "story-1", fields["id"])
	assert.Equal(t, "in_progress", fields["status"])
	assert.Equal(t, "epic-1", fields["epic"])
	assert.Equal(t, "Ship the thing: part 2", fields["title"])
	assert.Equal(t, "5", fields["points"])

	again, err := RenderHeader(item)
	require.NoError(t, err)
	assert.Equal(t, header, again, "rendering must be byte-stable")
}

func TestFingerprintStability(t *testing.T) {
	doc := []byte("---\nid: x\n---\nbody\n")
	if Fingerprint(doc) != Fingerprint(append([]byte(nil), doc...)) {
		t.Error("equal content must fingerprint equal")
	}
	if Fingerprint(doc) == Fingerprint([]byte("---\nid: x\n---\nbody!\n")) {
		t.Error("different content must fingerprint differently")
	}
	if len(Fingerprint(doc)) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(Fingerprint(doc)))
	}
}

func TestDecideField(t *testing.T) {
	cases := []struct {
		name          string
		db, doc, base string
		hasBase       bool
		want          fieldDecision
	}{
		{"agreement", "a", "a", "x", true, keepDatabase},
		{"doc only changed", "base", "new", "base", true, applyDocument},
		{"db only changed", "new", "base", "base", true, keepDatabase},
		{"both changed", "dbnew", "docnew", "base", true, conflicted},
		{"no baseline disagreement", "a", "b", "", false, conflicted},
		{"no baseline agreement", "a", "a", "", false, keepDatabase},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decideField(tc.db, tc.doc, tc.base, tc.hasBase)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConflictErrorUnwraps(t *testing.T) {
	err := error(&ConflictError{ID: "s1", Conflicts: []FieldConflict{{Field: "status"}}})
	assert.ErrorIs(t, err, ErrUnresolvedConflict)
	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "s1", ce.ID)
}
