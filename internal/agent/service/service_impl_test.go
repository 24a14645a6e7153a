package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/internal/agent/domain"
	"github.com/smallbiznis/revbox/internal/agent/repository"
	"github.com/smallbiznis/revbox/internal/agent/service"
	"github.com/smallbiznis/revbox/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func setup(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t, &domain.Agent{})
	svc := service.New(service.Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: testutil.Node(t),
		Clock: testutil.Clock(),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	created, err := svc.Create(ctx, domain.CreateAgentRequest{
		Name:           "Jane Broker",
		AgentCode:      " A-100 ",
		CommissionRate: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "A-100", created.AgentCode)
	assert.True(t, created.TotalPayouts.IsZero())

	_, err = svc.Create(ctx, domain.CreateAgentRequest{Name: "Dup", AgentCode: "A-100"})
	assert.ErrorIs(t, err, domain.ErrAgentCodeExists)

	updated, err := svc.Update(ctx, created.ID.String(), domain.UpdateAgentRequest{
		Name:           "Jane Q. Broker",
		AgentCode:      "A-100",
		Email:          "jane@example.com",
		CommissionRate: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Broker", updated.Name)

	got, err := svc.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.True(t, got.CommissionRate.Equal(decimal.RequireFromString("12.5")), got.CommissionRate.String())

	require.NoError(t, svc.Delete(ctx, created.ID.String()))
	_, err = svc.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID.String()), domain.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	_, err := svc.Create(ctx, domain.CreateAgentRequest{AgentCode: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	_, err = svc.Create(ctx, domain.CreateAgentRequest{Name: "A"})
	assert.ErrorIs(t, err, domain.ErrInvalidAgentCode)
	_, err = svc.Create(ctx, domain.CreateAgentRequest{Name: "A", AgentCode: "A", CommissionRate: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidCommissionRate)
	_, err = svc.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestIncrementTotalPayoutsIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	repo := repository.Provide()

	created, err := svc.Create(ctx, domain.CreateAgentRequest{Name: "A", AgentCode: "A"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementTotalPayouts(ctx, db, created.ID, decimal.RequireFromString("12.5")))
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, db, created.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalPayouts.Equal(decimal.NewFromInt(100)), got.TotalPayouts.String())
}

func TestListByCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := setup(t)

	for _, code := range []string{"A", "B"} {
		_, err := svc.Create(ctx, domain.CreateAgentRequest{Name: code, AgentCode: code})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, domain.ListAgentRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Agents, 2)

	one, err := svc.List(ctx, domain.ListAgentRequest{AgentCode: "B"})
	require.NoError(t, err)
	require.Len(t, one.Agents, 1)
	assert.Equal(t, "B", one.Agents[0].Name)
}
