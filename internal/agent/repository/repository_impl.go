package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/internal/agent/domain"
	"github.com/smallbiznis/revbox/pkg/db/option"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).Create(agent).Error
}

// Update rewrites the editable attributes; total_payouts is left alone.
func (r *repo) Update(ctx context.Context, db *gorm.DB, agent *domain.Agent) error {
	return db.WithContext(ctx).
		Model(&domain.Agent{}).
		Where("id = ?", agent.ID).
		Updates(map[string]any{
			"agent_code":      agent.AgentCode,
			"name":            agent.Name,
			"email":           agent.Email,
			"phone":           agent.Phone,
			"address":         agent.Address,
			"commission_rate": agent.CommissionRate,
			"updated_at":      agent.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Agent{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Agent, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Agent, error) {
	return first(db.WithContext(ctx).Where("agent_code = ?", code))
}

func first(stmt *gorm.DB) (*domain.Agent, error) {
	var agent domain.Agent
	err := stmt.Take(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListAgentFilter, page pagination.Pagination) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	stmt := db.WithContext(ctx).Model(&domain.Agent{})
	stmt = option.WithEquals("agent_code", filter.AgentCode).Apply(stmt)
	stmt = option.ApplyPagination(page).Apply(stmt)
	if err := stmt.Order("created_at desc, id desc").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Agent{}).Count(&n).Error
	return n, err
}

func (r *repo) IncrementTotalPayouts(ctx context.Context, db *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	return db.WithContext(ctx).
		Model(&domain.Agent{}).
		Where("id = ?", id).
		Update("total_payouts", gorm.Expr("total_payouts + ?", amount)).Error
}
