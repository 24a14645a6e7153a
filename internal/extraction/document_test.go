package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseRows(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{name: "plain", text: `[{"policy_number":"P1"},{"policy_number":"P2"}]`, want: 2, ok: true},
		{name: "fenced", text: "Here you go:\n```json\n[{\"amount\": 12.5}]\n```", want: 1, ok: true},
		{name: "skips non-object array", text: `see [1] then [{"a":1}]`, want: 1, ok: true},
		{name: "empty array", text: `[]`, want: 0, ok: true},
		{name: "no array", text: `I could not read the document.`, want: 0, ok: false},
		{name: "truncated", text: `[{"a":1},{"b":`, want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, ok := ParseRows(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Len(t, rows, tc.want)
			assert.NotNil(t, rows)
		})
	}
}

func TestParseRowsDropsNullEntries(t *testing.T) {
	rows, ok := ParseRows(`[null, {"a": null}]`)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0], "a")
}

func TestBuildExtractionPrompt(t *testing.T) {
	p := BuildExtractionPrompt(map[string]string{
		"Policy No": "policy_number",
		"Policy #":  "policy_number",
		"Premium":   "amount",
	})
	assert.Contains(t, p.System, `["amount","policy_number"]`)
	assert.Contains(t, p.System, `"Premium":"amount"`)
	assert.NotEmpty(t, p.User)

	assert.Contains(t, BuildExtractionPrompt(nil).System, "[]")
}

type stubDocs struct {
	rows     []map[string]any
	err      error
	deadline bool
	gotHints map[string]string
}

func (s *stubDocs) Extract(ctx context.Context, doc Document, hints map[string]string) ([]map[string]any, error) {
	_, s.deadline = ctx.Deadline()
	s.gotHints = hints
	return s.rows, s.err
}

func TestExtractorDispatch(t *testing.T) {
	docs := &stubDocs{rows: []map[string]any{{"policy_number": "P1"}}}
	e := NewExtractor(docs, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	rows, kind, err := e.Extract(ctx, Source{Filename: "a.PDF", Content: []byte("%PDF"), Mappings: map[string]string{"x": "y"}})
	require.NoError(t, err)
	assert.Equal(t, KindPDF, kind)
	assert.Len(t, rows, 1)
	assert.True(t, docs.deadline)
	assert.Equal(t, map[string]string{"x": "y"}, docs.gotHints)

	rows, kind, err = e.Extract(ctx, Source{Filename: "a.csv", Content: []byte("a,b\n1,2\n")})
	require.NoError(t, err)
	assert.Equal(t, KindCSV, kind)
	assert.Len(t, rows, 1)

	_, _, err = e.Extract(ctx, Source{Filename: "a.docx"})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestExtractorDocumentFailure(t *testing.T) {
	e := NewExtractor(&stubDocs{err: context.DeadlineExceeded}, time.Second, zaptest.NewLogger(t))
	_, _, err := e.Extract(context.Background(), Source{Filename: "a.pdf"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	disabled := NewExtractor(nil, 0, zaptest.NewLogger(t))
	_, _, err = disabled.Extract(context.Background(), Source{Filename: "a.pdf"})
	assert.ErrorIs(t, err, ErrExtractorNotConfigured)
}

func TestKindFromFilename(t *testing.T) {
	for name, want := range map[string]FileKind{
		"a.xlsx": KindExcel, "B.XLS": KindExcel, "c.csv": KindCSV, "d.Pdf": KindPDF,
	} {
		got, err := KindFromFilename(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := KindFromFilename("notes.txt")
	assert.True(t, strings.Contains(err.Error(), ".txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}
