package service

import (
	"context"

	agentdomain "github.com/smallbiznis/revbox/internal/agent/domain"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/internal/dashboard/domain"
	payoutdomain "github.com/smallbiznis/revbox/internal/payout/domain"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	CarrierRepo  carrierdomain.Repository
	AgentRepo    agentdomain.Repository
	UploadRepo   uploaddomain.Repository
	RecordRepo   recorddomain.Repository
	ConflictRepo conflictdomain.Repository
	PayoutRepo   payoutdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	carriers  carrierdomain.Repository
	agents    agentdomain.Repository
	uploads   uploaddomain.Repository
	records   recorddomain.Repository
	conflicts conflictdomain.Repository
	payouts   payoutdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("dashboard.service"),
		carriers:  p.CarrierRepo,
		agents:    p.AgentRepo,
		uploads:   p.UploadRepo,
		records:   p.RecordRepo,
		conflicts: p.ConflictRepo,
		payouts:   p.PayoutRepo,
	}
}

// Stats runs the independent aggregate queries concurrently.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	recent := pagination.Pagination{PageSize: domain.RecentLimit}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalCarriers, err = s.carriers.Count(ctx, s.db)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalAgents, err = s.agents.Count(ctx, s.db)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUploads, err = s.uploads.Count(ctx, s.db)
		return err
	})
	g.Go(func() (err error) {
		stats.PendingReviews, err = s.records.CountByStatus(ctx, s.db, recorddomain.StatusPending, recorddomain.StatusConflict)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalConflicts, err = s.conflicts.CountByStatus(ctx, s.db, conflictdomain.StatusPending)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalPayouts, err = s.payouts.SumAmount(ctx, s.db)
		return err
	})
	g.Go(func() error {
		items, err := s.uploads.List(ctx, s.db, uploaddomain.ListUploadFilter{}, recent)
		if err != nil {
			return err
		}
		items = head(items, domain.RecentLimit)
		stats.RecentUploads = make([]uploaddomain.Upload, 0, len(items))
		for _, item := range items {
			stats.RecentUploads = append(stats.RecentUploads, *item)
		}
		return nil
	})
	g.Go(func() error {
		items, err := s.conflicts.List(ctx, s.db, conflictdomain.ListConflictFilter{Status: conflictdomain.StatusPending}, recent)
		if err != nil {
			return err
		}
		items = head(items, domain.RecentLimit)
		stats.RecentConflicts = make([]conflictdomain.Conflict, 0, len(items))
		for _, item := range items {
			stats.RecentConflicts = append(stats.RecentConflicts, *item)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Error("failed to load dashboard stats", zap.Error(err))
		return domain.Stats{}, err
	}
	return stats, nil
}

func head[T any](items []*T, n int) []*T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
