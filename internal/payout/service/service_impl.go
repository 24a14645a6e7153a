package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/smallbiznis/revbox/internal/observability/metrics"
	"github.com/smallbiznis/revbox/internal/payout/domain"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	agentFields  = []string{"agent_code", "agent_id", "producer_code"}
	amountFields = []string{"amount", "premium", "payout_amount"}
	policyFields = []string{"policy_number", "policy_id"}
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Locker      lock.Locker
	Metrics     *metrics.Metrics `optional:"true"`
	Repo        domain.Repository
	RecordRepo  recorddomain.Repository
	CarrierRepo carrierdomain.Repository
	AgentRepo   agentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	locker   lock.Locker
	metrics  *metrics.Metrics
	repo     domain.Repository
	records  recorddomain.Repository
	carriers carrierdomain.Repository
	agents   agentdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payout.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		locker:   p.Locker,
		metrics:  p.Metrics,
		repo:     p.Repo,
		records:  p.RecordRepo,
		carriers: p.CarrierRepo,
		agents:   p.AgentRepo,
	}
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResponse, error) {
	if len(req.RecordIDs) == 0 {
		return domain.GenerateResponse{}, domain.ErrEmptyRequest
	}

	out := domain.GenerateResponse{Created: []domain.Payout{}, Skipped: []string{}}
	seen := make(map[snowflake.ID]struct{}, len(req.RecordIDs))
	for _, raw := range req.RecordIDs {
		recordID, err := parseID(raw)
		if err != nil {
			out.Skipped = append(out.Skipped, raw)
			continue
		}
		if _, dup := seen[recordID]; dup {
			out.Skipped = append(out.Skipped, raw)
			continue
		}
		seen[recordID] = struct{}{}

		var payout *domain.Payout
		err = lock.Do(ctx, s.locker, recorddomain.LockKey(recordID), recorddomain.LockTTL, func(ctx context.Context) error {
			return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error
				payout, err = s.generate(ctx, tx, recordID)
				return err
			})
		})
		if err != nil {
			return out, err
		}
		if payout == nil {
			s.metrics.RecordPayout(ctx, "skipped")
			out.Skipped = append(out.Skipped, raw)
			continue
		}
		s.metrics.RecordPayout(ctx, "created")
		out.Created = append(out.Created, *payout)
	}

	s.log.Info("payouts generated",
		zap.Int("requested", len(req.RecordIDs)),
		zap.Int("created", len(out.Created)),
		zap.Int("skipped", len(out.Skipped)),
	)
	return out, nil
}

// generate builds the payout for one record, or returns nil when the record
// is not validated or another caller processed it first.
func (s *Service) generate(ctx context.Context, tx *gorm.DB, recordID snowflake.ID) (*domain.Payout, error) {
	record, err := s.records.FindByID(ctx, tx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Status != recorddomain.StatusValidated {
		return nil, nil
	}

	now := s.clock.Now()
	moved, err := s.records.TransitionStatus(ctx, tx, recordID, recorddomain.StatusValidated, recorddomain.StatusProcessed, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, nil
	}

	mapped := map[string]any(record.MappedData)
	payout := &domain.Payout{
		ID:           s.genID.Generate(),
		RecordID:     record.ID,
		AgentName:    domain.UnknownName,
		CarrierID:    record.CarrierID,
		CarrierName:  domain.UnknownName,
		PolicyNumber: firstString(mapped, policyFields...),
		Amount:       s.amount(record.ID, mapped),
		Commission:   decimal.Zero,
		Status:       domain.StatusPending,
		PayoutDate:   now,
		MappedData:   datatypes.JSONMap(mapped),
		CreatedAt:    now,
	}

	carrier, err := s.carriers.FindByID(ctx, tx, record.CarrierID)
	if err != nil {
		return nil, err
	}
	if carrier != nil {
		payout.CarrierName = carrier.Name
	}

	var agent *agentdomain.Agent
	if code := firstString(mapped, agentFields...); code != "" {
		agent, err = s.agents.FindByCode(ctx, tx, code)
		if err != nil {
			return nil, err
		}
	}
	if agent != nil {
		agentID := agent.ID
		payout.AgentID = &agentID
		payout.AgentName = agent.Name
		payout.Commission = domain.Commission(payout.Amount, agent.CommissionRate)
	}

	if err := s.repo.Insert(ctx, tx, payout); err != nil {
		return nil, err
	}
	if agent != nil {
		if err := s.agents.IncrementTotalPayouts(ctx, tx, agent.ID, payout.Amount); err != nil {
			return nil, err
		}
	}
	return payout, nil
}

func (s *Service) amount(recordID snowflake.ID, mapped map[string]any) decimal.Decimal {
	value, field, ok := mapping.FirstTruthy(mapped, amountFields...)
	if !ok {
		return decimal.Zero
	}
	amount, parsed := domain.ParseAmount(value)
	if !parsed {
		s.log.Warn("unparsable payout amount, using zero",
			zap.String("record_id", recordID.String()),
			zap.String("field", field),
			zap.String("value", mapping.Stringify(value)),
		)
		return decimal.Zero
	}
	return amount
}

func (s *Service) Get(ctx context.Context, id string) (domain.Payout, error) {
	payoutID, err := parseID(id)
	if err != nil {
		return domain.Payout{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if item == nil {
		return domain.Payout{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPayoutRequest) (domain.ListPayoutResponse, error) {
	var filter domain.ListPayoutFilter
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListPayoutResponse{}, domain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.AgentID) != "" {
		agentID, err := parseID(req.AgentID)
		if err != nil {
			return domain.ListPayoutResponse{}, err
		}
		filter.AgentID = &agentID
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListPayoutResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, req.PageSize, func(p *domain.Payout) string {
		return pagination.CursorFor(p.ID.String(), p.CreatedAt)
	})

	payouts := make([]domain.Payout, 0, len(items))
	for _, item := range items {
		payouts = append(payouts, *item)
	}
	return domain.ListPayoutResponse{PageInfo: pageInfo, Payouts: payouts}, nil
}

// Complete marks a payout as paid. Completing a completed payout is a no-op.
func (s *Service) Complete(ctx context.Context, id string) (domain.Payout, error) {
	payoutID, err := parseID(id)
	if err != nil {
		return domain.Payout{}, err
	}
	completed, err := s.repo.Complete(ctx, s.db, payoutID, s.clock.Now())
	if err != nil {
		return domain.Payout{}, err
	}
	payout, err := s.repo.FindByID(ctx, s.db, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if payout == nil {
		return domain.Payout{}, domain.ErrNotFound
	}
	if completed {
		s.log.Info("payout completed",
			zap.String("payout_id", payoutID.String()),
			zap.String("amount", payout.Amount.String()),
		)
	}
	return *payout, nil
}

func firstString(mapped map[string]any, fields ...string) string {
	value, _, ok := mapping.FirstTruthy(mapped, fields...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(mapping.Stringify(value))
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
