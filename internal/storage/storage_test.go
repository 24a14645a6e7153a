package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	fsys := afero.NewMemMapFs()
	clk := clock.NewFakeClock(time.Date(2025, 4, 9, 8, 0, 0, 0, time.UTC))
	return New(fsys, clk, zaptest.NewLogger(t)), fsys
}

func TestSaveOpenRemove(t *testing.T) {
	store, fsys := newTestStore(t)
	ctx := context.Background()

	key, err := store.Save(ctx, "Commission Report.XLSX", []byte("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/2025/04/"))
	assert.True(t, strings.HasSuffix(key, ".xlsx"))

	exists, err := afero.Exists(fsys, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Open(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Remove(ctx, key))
	require.NoError(t, store.Remove(ctx, key))
}

func TestSaveKeysAreUnique(t *testing.T) {
	store, _ := newTestStore(t)
	a, err := store.Save(context.Background(), "a.csv", nil)
	require.NoError(t, err)
	b, err := store.Save(context.Background(), "a.csv", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestRejectsTraversal(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Open(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, store.Remove(context.Background(), ""), ErrInvalidKey)
}
