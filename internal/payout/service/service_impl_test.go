package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	agentrepo "github.com/smallbiznis/revbox/internal/agent/repository"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	carrierrepo "github.com/smallbiznis/revbox/internal/carrier/repository"
	"github.com/smallbiznis/revbox/internal/payout/domain"
	"github.com/smallbiznis/revbox/internal/payout/repository"
	"github.com/smallbiznis/revbox/internal/payout/service"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	recordrepo "github.com/smallbiznis/revbox/internal/record/repository"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/smallbiznis/revbox/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     domain.Service
	node    *snowflake.Node
	logs    *observer.ObservedLogs
	carrier carrierdomain.Carrier
	agent   agentdomain.Agent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t,
		&carrierdomain.Carrier{},
		&agentdomain.Agent{},
		&recorddomain.ExtractedRecord{},
		&recorddomain.RecordField{},
		&domain.Payout{},
	)
	node := testutil.Node(t)
	clk := testutil.Clock()
	core, logs := observer.New(zapcore.InfoLevel)

	f := &fixture{db: db, node: node, logs: logs}
	f.carrier = carrierdomain.Carrier{
		ID:               node.Generate(),
		Name:             "Acme Life",
		Code:             "ACME",
		FieldMappings:    datatypes.NewJSONType(map[string]string{}),
		PrimaryKeyFields: datatypes.JSONSlice[string]{},
		CustomFields:     datatypes.JSONSlice[string]{},
		FileType:         carrierdomain.FileTypeAuto,
		CreatedAt:        clk.Now(),
		UpdatedAt:        clk.Now(),
	}
	require.NoError(t, db.Create(&f.carrier).Error)

	f.agent = agentdomain.Agent{
		ID:             node.Generate(),
		AgentCode:      "A7",
		Name:           "Dana Reyes",
		CommissionRate: decimal.NewFromInt(10),
		TotalPayouts:   decimal.Zero,
		CreatedAt:      clk.Now(),
		UpdatedAt:      clk.Now(),
	}
	require.NoError(t, db.Create(&f.agent).Error)

	f.svc = service.New(service.Params{
		DB:          db,
		Log:         zap.New(core),
		GenID:       node,
		Clock:       clk,
		Locker:      lock.NewLocalLocker(),
		Repo:        repository.Provide(),
		RecordRepo:  recordrepo.Provide(),
		CarrierRepo: carrierrepo.Provide(),
		AgentRepo:   agentrepo.Provide(),
	})
	return f
}

func (f *fixture) record(t *testing.T, status recorddomain.Status, mapped map[string]any) snowflake.ID {
	t.Helper()
	now := testutil.Clock().Now()
	r := &recorddomain.ExtractedRecord{
		ID:         f.node.Generate(),
		UploadID:   1,
		CarrierID:  f.carrier.ID,
		RawData:    datatypes.JSONMap{},
		MappedData: datatypes.JSONMap(mapped),
		Status:     status,
		Conflicts:  datatypes.JSONSlice[recorddomain.ConflictSummary]{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, recordrepo.Provide().Insert(context.Background(), f.db, r))
	return r.ID
}

func (f *fixture) agentTotal(t *testing.T) decimal.Decimal {
	t.Helper()
	var a agentdomain.Agent
	require.NoError(t, f.db.Where("id = ?", f.agent.ID).Take(&a).Error)
	return a.TotalPayouts
}

func (f *fixture) status(t *testing.T, id snowflake.ID) recorddomain.Status {
	t.Helper()
	var r recorddomain.ExtractedRecord
	require.NoError(t, f.db.Where("id = ?", id).Take(&r).Error)
	return r.Status
}

func TestGenerateCreatesPayoutsForValidatedRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	withAgent := f.record(t, recorddomain.StatusValidated, map[string]any{
		"policy_number": "P-1", "amount": "$1,200.50", "agent_code": "A7",
	})
	withoutAgent := f.record(t, recorddomain.StatusValidated, map[string]any{
		"policy_id": "P-2", "premium": 80.0, "producer_code": "Z9",
	})
	pending := f.record(t, recorddomain.StatusPending, map[string]any{
		"policy_number": "P-3", "amount": "10",
	})

	out, err := f.svc.Generate(ctx, domain.GenerateRequest{RecordIDs: []string{
		withAgent.String(), withoutAgent.String(), pending.String(), "bogus",
	}})
	require.NoError(t, err)
	require.Len(t, out.Created, 2)
	assert.ElementsMatch(t, []string{pending.String(), "bogus"}, out.Skipped)

	first := out.Created[0]
	assert.Equal(t, withAgent, first.RecordID)
	require.NotNil(t, first.AgentID)
	assert.Equal(t, f.agent.ID, *first.AgentID)
	assert.Equal(t, "Dana Reyes", first.AgentName)
	assert.Equal(t, "Acme Life", first.CarrierName)
	assert.Equal(t, "P-1", first.PolicyNumber)
	assert.True(t, first.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.True(t, first.Commission.Equal(decimal.RequireFromString("120.05")))
	assert.Equal(t, domain.StatusPending, first.Status)

	second := out.Created[1]
	assert.Nil(t, second.AgentID)
	assert.Equal(t, domain.UnknownName, second.AgentName)
	assert.Equal(t, "P-2", second.PolicyNumber)
	assert.True(t, second.Amount.Equal(decimal.NewFromInt(80)))
	assert.True(t, second.Commission.IsZero())

	assert.Equal(t, recorddomain.StatusProcessed, f.status(t, withAgent))
	assert.Equal(t, recorddomain.StatusProcessed, f.status(t, withoutAgent))
	assert.Equal(t, recorddomain.StatusPending, f.status(t, pending))
	assert.True(t, f.agentTotal(t).Equal(decimal.RequireFromString("1200.50")))
}

func TestGenerateTwiceYieldsOnePayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.record(t, recorddomain.StatusValidated, map[string]any{"amount": 50.0, "agent_code": "A7"})

	_, err := f.svc.Generate(ctx, domain.GenerateRequest{RecordIDs: []string{id.String()}})
	require.NoError(t, err)
	again, err := f.svc.Generate(ctx, domain.GenerateRequest{RecordIDs: []string{id.String(), id.String()}})
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 2)

	var n int64
	require.NoError(t, f.db.Model(&domain.Payout{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.True(t, f.agentTotal(t).Equal(decimal.NewFromInt(50)))
}

func TestGenerateConcurrentCallsPayOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.record(t, recorddomain.StatusValidated, map[string]any{"amount": 75.0, "agent_code": "A7"})

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan domain.GenerateResponse, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.svc.Generate(ctx, domain.GenerateRequest{RecordIDs: []string{id.String()}})
			errs <- err
			results <- out
		}()
	}
	wg.Wait()
	close(errs)
	close(results)

	for err := range errs {
		require.NoError(t, err)
	}
	created := 0
	for out := range results {
		created += len(out.Created)
	}
	assert.Equal(t, 1, created)

	var n int64
	require.NoError(t, f.db.Model(&domain.Payout{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	assert.True(t, f.agentTotal(t).Equal(decimal.NewFromInt(75)))
	assert.Equal(t, recorddomain.StatusProcessed, f.status(t, id))
}

func TestGenerateUnparsableAmountIsZero(t *testing.T) {
	f := newFixture(t)
	id := f.record(t, recorddomain.StatusValidated, map[string]any{"amount": "TBD", "agent_code": "A7"})

	out, err := f.svc.Generate(context.Background(), domain.GenerateRequest{RecordIDs: []string{id.String()}})
	require.NoError(t, err)
	require.Len(t, out.Created, 1)
	assert.True(t, out.Created[0].Amount.IsZero())
	assert.True(t, out.Created[0].Commission.IsZero())
	assert.Equal(t, 1, f.logs.FilterMessage("unparsable payout amount, using zero").Len())
}

func TestGenerateRequiresIDs(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Generate(context.Background(), domain.GenerateRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyRequest)
}

func TestCompleteAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.record(t, recorddomain.StatusValidated, map[string]any{"amount": 10.0, "agent_code": "A7"})
	b := f.record(t, recorddomain.StatusValidated, map[string]any{"amount": 20.0})

	out, err := f.svc.Generate(ctx, domain.GenerateRequest{RecordIDs: []string{a.String(), b.String()}})
	require.NoError(t, err)
	require.Len(t, out.Created, 2)

	done, err := f.svc.Complete(ctx, out.Created[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	again, err := f.svc.Complete(ctx, out.Created[0].ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, again.Status)

	_, err = f.svc.Complete(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	completed, err := f.svc.List(ctx, domain.ListPayoutRequest{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, completed.Payouts, 1)
	assert.Equal(t, a, completed.Payouts[0].RecordID)

	byAgent, err := f.svc.List(ctx, domain.ListPayoutRequest{AgentID: f.agent.ID.String()})
	require.NoError(t, err)
	require.Len(t, byAgent.Payouts, 1)

	_, err = f.svc.List(ctx, domain.ListPayoutRequest{Status: "paid"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	total, err := repository.Provide().SumAmount(ctx, f.db)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(30)))
}
