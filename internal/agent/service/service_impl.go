package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/revbox/internal/agent/domain"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/pkg/db"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var maxCommissionRate = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("agent.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateAgentRequest) (domain.Agent, error) {
	agent, err := build(req)
	if err != nil {
		return domain.Agent{}, err
	}

	existing, err := s.repo.FindByCode(ctx, s.db, agent.AgentCode)
	if err != nil {
		return domain.Agent{}, err
	}
	if existing != nil {
		return domain.Agent{}, domain.ErrAgentCodeExists
	}

	now := s.clock.Now()
	agent.ID = s.genID.Generate()
	agent.TotalPayouts = decimal.Zero
	agent.CreatedAt = now
	agent.UpdatedAt = now
	if err := s.repo.Insert(ctx, s.db, &agent); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Agent{}, domain.ErrAgentCodeExists
		}
		return domain.Agent{}, err
	}
	return agent, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Agent, error) {
	agentID, err := parseID(id)
	if err != nil {
		return domain.Agent{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, agentID)
	if err != nil {
		return domain.Agent{}, err
	}
	if item == nil {
		return domain.Agent{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAgentRequest) (domain.ListAgentResponse, error) {
	items, err := s.repo.List(ctx, s.db, domain.ListAgentFilter{
		AgentCode: strings.TrimSpace(req.AgentCode),
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListAgentResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, req.PageSize, func(a *domain.Agent) string {
		return pagination.CursorFor(a.ID.String(), a.CreatedAt)
	})
	agents := make([]domain.Agent, 0, len(items))
	for _, item := range items {
		agents = append(agents, *item)
	}
	return domain.ListAgentResponse{PageInfo: pageInfo, Agents: agents}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateAgentRequest) (domain.Agent, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return domain.Agent{}, err
	}
	updated, err := build(req)
	if err != nil {
		return domain.Agent{}, err
	}
	if updated.AgentCode != current.AgentCode {
		other, err := s.repo.FindByCode(ctx, s.db, updated.AgentCode)
		if err != nil {
			return domain.Agent{}, err
		}
		if other != nil {
			return domain.Agent{}, domain.ErrAgentCodeExists
		}
	}

	updated.ID = current.ID
	updated.TotalPayouts = current.TotalPayouts
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &updated); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Agent{}, domain.ErrAgentCodeExists
		}
		return domain.Agent{}, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	agentID, err := parseID(id)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, s.db, agentID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func build(req domain.CreateAgentRequest) (domain.Agent, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Agent{}, domain.ErrInvalidName
	}
	code := strings.TrimSpace(req.AgentCode)
	if code == "" {
		return domain.Agent{}, domain.ErrInvalidAgentCode
	}
	if req.CommissionRate.IsNegative() || req.CommissionRate.GreaterThan(maxCommissionRate) {
		return domain.Agent{}, domain.ErrInvalidCommissionRate
	}
	return domain.Agent{
		AgentCode:      code,
		Name:           name,
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		CommissionRate: req.CommissionRate,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
