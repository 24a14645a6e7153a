package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/export/domain"
	"github.com/smallbiznis/revbox/internal/export/service"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	recordrepo "github.com/smallbiznis/revbox/internal/record/repository"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db   *gorm.DB
	node *snowflake.Node
	svc  domain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t, &recorddomain.ExtractedRecord{}, &recorddomain.RecordField{})
	schema := config.NewStaticExportConfigHolder(config.ExportConfig{CRMColumns: []config.ExportColumn{
		{Name: "AC_Account_Number", Sources: []string{"broker_id", "agent_code"}},
		{Name: "Total_WP", Sources: []string{"total_wp", "premium", "amount"}},
		{Name: "Account_Type", Default: "Brokers - Member"},
		{Name: "Import_Date", Sources: []string{config.ImportDateSource}},
	}})
	return &fixture{
		db:   db,
		node: testutil.Node(t),
		svc: service.New(service.Params{
			DB:         db,
			Log:        zaptest.NewLogger(t),
			Clock:      testutil.Clock(),
			Schema:     schema,
			RecordRepo: recordrepo.Provide(),
		}),
	}
}

func (f *fixture) record(t *testing.T, carrierID snowflake.ID, status recorddomain.Status, mapped datatypes.JSONMap) snowflake.ID {
	t.Helper()
	now := testutil.Clock().Now()
	mapped["_raw"] = map[string]any{"Policy": "x"}
	r := &recorddomain.ExtractedRecord{
		ID:         f.node.Generate(),
		UploadID:   1,
		CarrierID:  carrierID,
		RawData:    datatypes.JSONMap{},
		MappedData: mapped,
		Status:     status,
		Conflicts:  datatypes.JSONSlice[recorddomain.ConflictSummary]{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, recordrepo.Provide().Insert(context.Background(), f.db, r))
	return r.ID
}

func TestExportCSVUsesSortedObservedFields(t *testing.T) {
	f := newFixture(t)
	f.record(t, 7, recorddomain.StatusValidated, datatypes.JSONMap{"policy_number": "P-1", "amount": 100.5})
	f.record(t, 7, recorddomain.StatusValidated, datatypes.JSONMap{"policy_number": "P-2", "agent_code": "A7", "note": nil})
	f.record(t, 7, recorddomain.StatusPending, datatypes.JSONMap{"policy_number": "P-3", "extra": "x"})

	out, err := f.svc.Export(context.Background(), domain.ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.FormatCSV, out.Format)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"agent_code", "amount", "note", "policy_number"}, out.Columns)
	assert.Equal(t, "agent_code,amount,note,policy_number\n,100.5,,P-1\nA7,,,P-2\n", out.CSVContent)
}

func TestExportJSONCarriesRecordID(t *testing.T) {
	f := newFixture(t)
	id := f.record(t, 7, recorddomain.StatusValidated, datatypes.JSONMap{"policy_number": "P-1"})
	f.record(t, 8, recorddomain.StatusValidated, datatypes.JSONMap{"policy_number": "P-9"})

	out, err := f.svc.Export(context.Background(), domain.ExportRequest{Format: "JSON", CarrierID: "7"})
	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, []string{"_record_id", "policy_number"}, out.Columns)
	assert.Equal(t, id.String(), out.Data[0]["_record_id"])
	assert.Equal(t, "P-1", out.Data[0]["policy_number"])
	assert.NotContains(t, out.Data[0], "_raw")
}

func TestExportZohoFollowsSchema(t *testing.T) {
	f := newFixture(t)
	f.record(t, 7, recorddomain.StatusValidated, datatypes.JSONMap{"agent_code": "A7", "premium": "", "amount": 42.0})

	out, err := f.svc.Export(context.Background(), domain.ExportRequest{Format: "zoho"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AC_Account_Number", "Total_WP", "Account_Type", "Import_Date"}, out.Columns)
	require.Len(t, out.Data, 1)
	row := out.Data[0]
	assert.Equal(t, "A7", row["AC_Account_Number"])
	assert.Equal(t, json.Number("42"), row["Total_WP"])
	assert.Equal(t, "Brokers - Member", row["Account_Type"])
	assert.Equal(t, "2025-03-01", row["Import_Date"])
}

func TestExportErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Export(ctx, domain.ExportRequest{Format: "xml"})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = f.svc.Export(ctx, domain.ExportRequest{})
	assert.ErrorIs(t, err, domain.ErrNoApprovedData)

	f.record(t, 7, recorddomain.StatusPending, datatypes.JSONMap{"policy_number": "P-1"})
	_, err = f.svc.Export(ctx, domain.ExportRequest{Format: "json"})
	assert.ErrorIs(t, err, domain.ErrNoApprovedData)

	_, err = f.svc.Export(ctx, domain.ExportRequest{CarrierID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}
