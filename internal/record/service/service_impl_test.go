package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	conflictrepo "github.com/smallbiznis/revbox/internal/conflict/repository"
	"github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/internal/record/repository"
	"github.com/smallbiznis/revbox/internal/record/service"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/smallbiznis/revbox/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	svc  domain.Service
	node *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t, &domain.ExtractedRecord{}, &domain.RecordField{}, &conflictdomain.Conflict{})
	return &fixture{
		db:   db,
		node: testutil.Node(t),
		svc: service.New(service.Params{
			DB:           db,
			Log:          zaptest.NewLogger(t),
			Clock:        testutil.Clock(),
			Locker:       lock.NewLocalLocker(),
			Repo:         repository.Provide(),
			ConflictRepo: conflictrepo.Provide(),
		}),
	}
}

func (f *fixture) seed(t *testing.T, uploadID snowflake.ID, status domain.Status, conflicts int) *domain.ExtractedRecord {
	t.Helper()
	now := testutil.Clock().Now()
	r := &domain.ExtractedRecord{
		ID:         f.node.Generate(),
		UploadID:   uploadID,
		CarrierID:  1,
		RawData:    datatypes.JSONMap{},
		MappedData: datatypes.JSONMap{"policy_number": "P-1"},
		Status:     status,
		Conflicts:  datatypes.JSONSlice[domain.ConflictSummary]{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, repository.Provide().Insert(context.Background(), f.db, r))

	items := make([]*conflictdomain.Conflict, 0, conflicts)
	for i := 0; i < conflicts; i++ {
		items = append(items, &conflictdomain.Conflict{
			ID:           f.node.Generate(),
			RecordID:     r.ID,
			UploadID:     uploadID,
			ConflictType: conflictdomain.TypeDuplicate,
			Status:       conflictdomain.StatusPending,
			CreatedAt:    now,
		})
	}
	require.NoError(t, conflictrepo.Provide().Insert(context.Background(), f.db, items))
	return r
}

func (f *fixture) conflictStatuses(t *testing.T, recordID snowflake.ID) []conflictdomain.Conflict {
	t.Helper()
	var out []conflictdomain.Conflict
	require.NoError(t, f.db.Where("record_id = ?", recordID).Find(&out).Error)
	return out
}

func TestValidateClosesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(t, 10, domain.StatusConflict, 2)

	got, err := f.svc.Validate(ctx, r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, got.Status)

	stored, err := f.svc.Get(ctx, r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, stored.Status)

	for _, c := range f.conflictStatuses(t, r.ID) {
		assert.Equal(t, conflictdomain.StatusResolved, c.Status)
		assert.NotNil(t, c.ResolvedAt)
	}
}

func TestRejectOverridesAnyStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.seed(t, 10, domain.StatusValidated, 1)

	got, err := f.svc.Reject(ctx, r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)
	for _, c := range f.conflictStatuses(t, r.ID) {
		assert.Equal(t, conflictdomain.StatusRejected, c.Status)
	}

	got, err = f.svc.Validate(ctx, r.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValidated, got.Status)
}

func TestOverrideUnknownRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Validate(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Reject(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Validate(ctx, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, 10, domain.StatusPending, 0)
	f.seed(t, 10, domain.StatusConflict, 1)
	f.seed(t, 11, domain.StatusPending, 0)

	pending, err := f.svc.List(ctx, domain.ListRecordRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending.Records, 2)

	byUpload, err := f.svc.List(ctx, domain.ListRecordRequest{UploadID: "10"})
	require.NoError(t, err)
	assert.Len(t, byUpload.Records, 2)

	page, err := f.svc.List(ctx, domain.ListRecordRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextPageToken)

	next, err := f.svc.List(ctx, domain.ListRecordRequest{PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	assert.Len(t, next.Records, 1)

	_, err = f.svc.List(ctx, domain.ListRecordRequest{Status: "archived"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
