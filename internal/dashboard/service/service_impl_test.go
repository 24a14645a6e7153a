package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	agentrepo "github.com/smallbiznis/revbox/internal/agent/repository"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	carrierrepo "github.com/smallbiznis/revbox/internal/carrier/repository"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	conflictrepo "github.com/smallbiznis/revbox/internal/conflict/repository"
	"github.com/smallbiznis/revbox/internal/dashboard/domain"
	"github.com/smallbiznis/revbox/internal/dashboard/service"
	payoutdomain "github.com/smallbiznis/revbox/internal/payout/domain"
	payoutrepo "github.com/smallbiznis/revbox/internal/payout/repository"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	recordrepo "github.com/smallbiznis/revbox/internal/record/repository"
	"github.com/smallbiznis/revbox/internal/testutil"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	uploadrepo "github.com/smallbiznis/revbox/internal/upload/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
)

func TestStats(t *testing.T) {
	db := testutil.OpenDB(t,
		&carrierdomain.Carrier{},
		&agentdomain.Agent{},
		&uploaddomain.Upload{},
		&recorddomain.ExtractedRecord{},
		&recorddomain.RecordField{},
		&conflictdomain.Conflict{},
		&payoutdomain.Payout{},
	)
	node := testutil.Node(t)
	base := testutil.Clock().Now()

	require.NoError(t, db.Create(&carrierdomain.Carrier{
		ID: node.Generate(), Name: "Acme", Code: "ACME",
		FieldMappings:    datatypes.NewJSONType(map[string]string{}),
		PrimaryKeyFields: datatypes.JSONSlice[string]{},
		CustomFields:     datatypes.JSONSlice[string]{},
		FileType:         carrierdomain.FileTypeAuto,
		CreatedAt:        base, UpdatedAt: base,
	}).Error)
	require.NoError(t, db.Create(&agentdomain.Agent{
		ID: node.Generate(), AgentCode: "A7", Name: "Dana",
		CreatedAt: base, UpdatedAt: base,
	}).Error)

	for i := 0; i < 7; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&uploaddomain.Upload{
			ID: node.Generate(), Filename: "f.csv", FilePath: "p", CarrierID: 1, CarrierName: "Acme",
			Status: uploaddomain.StatusCompleted, CreatedAt: at, UpdatedAt: at,
		}).Error)
	}

	for _, status := range []recorddomain.Status{
		recorddomain.StatusPending, recorddomain.StatusConflict, recorddomain.StatusValidated, recorddomain.StatusProcessed,
	} {
		require.NoError(t, db.Create(&recorddomain.ExtractedRecord{
			ID: node.Generate(), UploadID: 1, CarrierID: 1,
			RawData: datatypes.JSONMap{}, MappedData: datatypes.JSONMap{}, Status: status,
			Conflicts: datatypes.JSONSlice[recorddomain.ConflictSummary]{},
			CreatedAt: base, UpdatedAt: base,
		}).Error)
	}

	for _, status := range []conflictdomain.Status{conflictdomain.StatusPending, conflictdomain.StatusPending, conflictdomain.StatusResolved} {
		require.NoError(t, db.Create(&conflictdomain.Conflict{
			ID: node.Generate(), RecordID: 1, UploadID: 1, ExistingRecordID: 2,
			ConflictType: conflictdomain.TypeDuplicate, Status: status, CreatedAt: base,
		}).Error)
	}

	for i, amount := range []string{"100.25", "49.75"} {
		require.NoError(t, db.Create(&payoutdomain.Payout{
			ID: node.Generate(), RecordID: node.Generate(), AgentName: "Dana", CarrierID: 1, CarrierName: "Acme",
			Amount: decimal.RequireFromString(amount), Commission: decimal.Zero,
			Status: payoutdomain.StatusPending, PayoutDate: base, MappedData: datatypes.JSONMap{},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	svc := service.New(service.Params{
		DB:           db,
		Log:          zaptest.NewLogger(t),
		CarrierRepo:  carrierrepo.Provide(),
		AgentRepo:    agentrepo.Provide(),
		UploadRepo:   uploadrepo.Provide(),
		RecordRepo:   recordrepo.Provide(),
		ConflictRepo: conflictrepo.Provide(),
		PayoutRepo:   payoutrepo.Provide(),
	})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCarriers)
	assert.Equal(t, int64(1), stats.TotalAgents)
	assert.Equal(t, int64(7), stats.TotalUploads)
	assert.Equal(t, int64(2), stats.PendingReviews)
	assert.Equal(t, int64(2), stats.TotalConflicts)
	assert.True(t, stats.TotalPayouts.Equal(decimal.NewFromInt(150)), "got %s", stats.TotalPayouts)

	require.Len(t, stats.RecentUploads, domain.RecentLimit)
	assert.True(t, stats.RecentUploads[0].CreatedAt.After(stats.RecentUploads[1].CreatedAt))
	assert.Len(t, stats.RecentConflicts, 2)
}
