package janitor

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/config"
	obsmetrics "github.com/smallbiznis/revbox/internal/observability/metrics"
	"github.com/smallbiznis/revbox/internal/testutil"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	uploadrepo "github.com/smallbiznis/revbox/internal/upload/repository"
	"github.com/smallbiznis/revbox/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func seedUpload(t *testing.T, db *gorm.DB, node *snowflake.Node, status uploaddomain.Status, updatedAt time.Time) snowflake.ID {
	t.Helper()
	u := &uploaddomain.Upload{
		ID:          node.Generate(),
		Filename:    "march.csv",
		FilePath:    "uploads/march.csv",
		CarrierID:   1,
		CarrierName: "Acme",
		Status:      status,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

func loadUpload(t *testing.T, db *gorm.DB, id snowflake.ID) uploaddomain.Upload {
	t.Helper()
	var u uploaddomain.Upload
	require.NoError(t, db.Where("id = ?", id).Take(&u).Error)
	return u
}

func TestSweepFailsOnlyStaleProcessingUploads(t *testing.T) {
	db := testutil.OpenDB(t, &uploaddomain.Upload{})
	node := testutil.Node(t)
	clk := testutil.Clock()
	locker := lock.NewLocalLocker()

	stale := seedUpload(t, db, node, uploaddomain.StatusProcessing, clk.Now().Add(-time.Hour))
	fresh := seedUpload(t, db, node, uploaddomain.StatusProcessing, clk.Now().Add(-time.Minute))
	done := seedUpload(t, db, node, uploaddomain.StatusCompleted, clk.Now().Add(-time.Hour))

	j := New(Params{
		DB:         db,
		Log:        zaptest.NewLogger(t),
		Clock:      clk,
		Cfg:        config.Config{Janitor: config.JanitorConfig{StaleAfter: 30 * time.Minute}},
		Locker:     locker,
		UploadRepo: uploadrepo.Provide(),
	})

	swept, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	got := loadUpload(t, db, stale)
	assert.Equal(t, uploaddomain.StatusError, got.Status)
	assert.Equal(t, "ingestion abandoned", got.ErrorMessage)
	assert.Equal(t, uploaddomain.StatusProcessing, loadUpload(t, db, fresh).Status)
	assert.Equal(t, uploaddomain.StatusCompleted, loadUpload(t, db, done).Status)

	clk.Advance(time.Hour)
	swept, err = j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)
	assert.Equal(t, uploaddomain.StatusError, loadUpload(t, db, fresh).Status)
}

func TestSweepSkipsWhenLockHeld(t *testing.T) {
	db := testutil.OpenDB(t, &uploaddomain.Upload{})
	locker := lock.NewLocalLocker()
	_, ok, err := locker.TryLock(context.Background(), lockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	j := New(Params{
		DB:         db,
		Log:        zaptest.NewLogger(t),
		Clock:      testutil.Clock(),
		Locker:     locker,
		UploadRepo: uploadrepo.Provide(),
	})

	_, err = j.Sweep(context.Background())
	assert.ErrorIs(t, err, obsmetrics.ErrLockUnavailable)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	j := New(Params{
		DB:         testutil.OpenDB(t),
		Log:        zaptest.NewLogger(t),
		Clock:      testutil.Clock(),
		Cfg:        config.Config{Janitor: config.JanitorConfig{Schedule: "every now and then"}},
		Locker:     lock.NewLocalLocker(),
		UploadRepo: uploadrepo.Provide(),
	})
	assert.ErrorIs(t, j.Start(context.Background()), ErrInvalidSchedule)
}
