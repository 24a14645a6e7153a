package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDelimited(t *testing.T) {
	content := []byte("\xEF\xBB\xBFPolicy Number, Premium ,Agent\nP1,100,A-1\nP2,,\n\nP3,300\nP4,400,A-4,overflow\n")

	rows, err := ReadDelimited("statement.csv", content)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, map[string]any{"Policy Number": "P1", "Premium": "100", "Agent": "A-1"}, rows[0])
	assert.Equal(t, "", rows[1]["Premium"], "empty cells are empty strings")
	assert.Nil(t, rows[2]["Agent"], "missing trailing cells are nil")
	assert.Len(t, rows[3], 3, "overflow cells are dropped")
}

func TestReadDelimitedEmptyFile(t *testing.T) {
	rows, err := ReadDelimited("empty.csv", nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadDelimitedMalformed(t *testing.T) {
	_, err := ReadDelimited("bad.csv", []byte("a,b\n\xff\xfe,1\n"))
	assert.ErrorIs(t, err, ErrFileFormat)
}
