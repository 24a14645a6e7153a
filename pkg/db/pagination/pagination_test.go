package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct{ id string }

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC)
	token := CursorFor("42", at)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)

	parsed, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))
}

func TestTrim(t *testing.T) {
	rows := []*item{{"a"}, {"b"}, {"c"}}
	cursor := func(i *item) string { return i.id }

	page, info := Trim(rows, 2, cursor)
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "b", info.NextPageToken)

	page, info = Trim(rows, 3, cursor)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
