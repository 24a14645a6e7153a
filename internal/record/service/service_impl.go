package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/clock"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Locker       lock.Locker
	Repo         domain.Repository
	ConflictRepo conflictdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	locker    lock.Locker
	repo      domain.Repository
	conflicts conflictdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("record.service"),
		clock:     p.Clock,
		locker:    p.Locker,
		repo:      p.Repo,
		conflicts: p.ConflictRepo,
	}
}

func (s *Service) Get(ctx context.Context, id string) (domain.ExtractedRecord, error) {
	recordID, err := ParseID(id)
	if err != nil {
		return domain.ExtractedRecord{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, recordID)
	if err != nil {
		return domain.ExtractedRecord{}, err
	}
	if item == nil {
		return domain.ExtractedRecord{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRecordRequest) (domain.ListRecordResponse, error) {
	filter, err := BuildFilter(req.Status, req.CarrierID, req.UploadID)
	if err != nil {
		return domain.ListRecordResponse{}, err
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListRecordResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, req.PageSize, func(r *domain.ExtractedRecord) string {
		return pagination.CursorFor(r.ID.String(), r.CreatedAt)
	})

	records := make([]domain.ExtractedRecord, 0, len(items))
	for _, item := range items {
		records = append(records, *item)
	}
	return domain.ListRecordResponse{PageInfo: pageInfo, Records: records}, nil
}

func (s *Service) Validate(ctx context.Context, id string) (domain.ExtractedRecord, error) {
	return s.override(ctx, id, domain.StatusValidated, conflictdomain.StatusResolved)
}

func (s *Service) Reject(ctx context.Context, id string) (domain.ExtractedRecord, error) {
	return s.override(ctx, id, domain.StatusRejected, conflictdomain.StatusRejected)
}

// override sets the record status with no guard on the current status and
// carries every conflict of the record along.
func (s *Service) override(ctx context.Context, id string, to domain.Status, conflictStatus conflictdomain.Status) (domain.ExtractedRecord, error) {
	recordID, err := ParseID(id)
	if err != nil {
		return domain.ExtractedRecord{}, err
	}

	var out domain.ExtractedRecord
	err = lock.Do(ctx, s.locker, domain.LockKey(recordID), domain.LockTTL, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			record, err := s.repo.FindByID(ctx, tx, recordID)
			if err != nil {
				return err
			}
			if record == nil {
				return domain.ErrNotFound
			}

			now := s.clock.Now()
			if _, err := s.repo.SetStatus(ctx, tx, recordID, to, now); err != nil {
				return err
			}
			affected, err := s.conflicts.SetStatusByRecord(ctx, tx, recordID, conflictStatus, now)
			if err != nil {
				return err
			}

			s.log.Info("record status overridden",
				zap.String("record_id", recordID.String()),
				zap.String("from", string(record.Status)),
				zap.String("to", string(to)),
				zap.Int64("conflicts", affected),
			)
			record.Status = to
			record.UpdatedAt = now
			out = *record
			return nil
		})
	})
	if err != nil {
		return domain.ExtractedRecord{}, err
	}
	return out, nil
}

// ParseID parses a record id.
func ParseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// BuildFilter validates list query parameters. Empty values are ignored.
func BuildFilter(status, carrierID, uploadID string) (domain.ListRecordFilter, error) {
	var filter domain.ListRecordFilter
	if status = strings.TrimSpace(status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return filter, domain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(carrierID) != "" {
		id, err := ParseID(carrierID)
		if err != nil {
			return filter, err
		}
		filter.CarrierID = &id
	}
	if strings.TrimSpace(uploadID) != "" {
		id, err := ParseID(uploadID)
		if err != nil {
			return filter, err
		}
		filter.UploadID = &id
	}
	return filter, nil
}
