package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	uploaddomain "github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Locker     lock.Locker
	Metrics    *metrics.Metrics `optional:"true"`
	Repo       domain.Repository
	RecordRepo recorddomain.Repository
	UploadRepo uploaddomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	locker  lock.Locker
	metrics *metrics.Metrics
	repo    domain.Repository
	records recorddomain.Repository
	uploads uploaddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("conflict.service"),
		clock:   p.Clock,
		locker:  p.Locker,
		metrics: p.Metrics,
		repo:    p.Repo,
		records: p.RecordRepo,
		uploads: p.UploadRepo,
	}
}

func (s *Service) Resolve(ctx context.Context, id string, req domain.ResolveRequest) (domain.ResolveResponse, error) {
	conflictID, err := parseID(id)
	if err != nil {
		return domain.ResolveResponse{}, err
	}
	resolution := domain.Resolution(strings.ToLower(strings.TrimSpace(req.Resolution)))
	if !resolution.Valid() {
		return domain.ResolveResponse{}, domain.ErrInvalidResolution
	}

	var manual any
	if resolution == domain.ResolutionManual {
		raw := strings.TrimSpace(string(req.ManualValue))
		if raw == "" || raw == "null" {
			return domain.ResolveResponse{}, domain.ErrManualValueMissing
		}
		if err := json.Unmarshal([]byte(raw), &manual); err != nil {
			return domain.ResolveResponse{}, domain.ErrManualValueMissing
		}
	}

	found, err := s.repo.FindByID(ctx, s.db, conflictID)
	if err != nil {
		return domain.ResolveResponse{}, err
	}
	if found == nil {
		return domain.ResolveResponse{}, domain.ErrNotFound
	}

	var out domain.ResolveResponse
	err = lock.Do(ctx, s.locker, recorddomain.LockKey(found.RecordID), recorddomain.LockTTL, func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			out, err = s.resolve(ctx, tx, conflictID, resolution, manual)
			return err
		})
	})
	if err != nil {
		return domain.ResolveResponse{}, err
	}

	s.metrics.RecordResolution(ctx, string(resolution))
	s.log.Info("conflict resolved",
		zap.String("conflict_id", conflictID.String()),
		zap.String("record_id", out.Conflict.RecordID.String()),
		zap.String("resolution", string(resolution)),
		zap.Int64("remaining_pending", out.Remaining),
		zap.String("record_status", string(out.RecordStatus)),
	)
	return out, nil
}

func (s *Service) resolve(ctx context.Context, tx *gorm.DB, conflictID snowflake.ID, resolution domain.Resolution, manual any) (domain.ResolveResponse, error) {
	conflict, err := s.repo.FindByID(ctx, tx, conflictID)
	if err != nil {
		return domain.ResolveResponse{}, err
	}
	if conflict == nil {
		return domain.ResolveResponse{}, domain.ErrNotFound
	}
	record, err := s.records.FindByID(ctx, tx, conflict.RecordID)
	if err != nil {
		return domain.ResolveResponse{}, err
	}
	if record == nil {
		return domain.ResolveResponse{}, domain.ErrRecordNotFound
	}

	now := s.clock.Now()

	var applied datatypes.JSON
	var value any
	overwrite := false
	switch resolution {
	case domain.ResolutionKeepCurrent:
		applied = conflict.CurrentValue
	case domain.ResolutionAcceptNew:
		applied = conflict.NewValue
		value = domain.DecodeValue(conflict.NewValue)
		overwrite = true
	case domain.ResolutionManual:
		applied = domain.EncodeValue(manual)
		value = manual
		overwrite = true
	}

	// Duplicates carry no field, so there is nothing to overwrite.
	if overwrite && conflict.FieldName != "" {
		mapped := make(datatypes.JSONMap, len(record.MappedData)+1)
		for k, v := range record.MappedData {
			mapped[k] = v
		}
		mapped[conflict.FieldName] = value
		record.MappedData = mapped
		if err := s.records.ReplaceMappedData(ctx, tx, record, now); err != nil {
			return domain.ResolveResponse{}, err
		}
	}

	if err := s.repo.MarkResolved(ctx, tx, conflict.ID, resolution, applied, now); err != nil {
		return domain.ResolveResponse{}, err
	}

	remaining, err := s.repo.CountPendingByRecord(ctx, tx, record.ID)
	if err != nil {
		return domain.ResolveResponse{}, err
	}
	status := record.Status
	if remaining == 0 && record.Status == recorddomain.StatusConflict {
		moved, err := s.records.TransitionStatus(ctx, tx, record.ID, recorddomain.StatusConflict, recorddomain.StatusPending, now)
		if err != nil {
			return domain.ResolveResponse{}, err
		}
		if moved {
			status = recorddomain.StatusPending
		}
	}

	res := resolution
	conflict.Status = domain.StatusResolved
	conflict.Resolution = &res
	conflict.ResolvedValue = applied
	conflict.ResolvedAt = &now
	return domain.ResolveResponse{
		Conflict:     *conflict,
		RecordStatus: status,
		Remaining:    remaining,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Conflict, error) {
	conflictID, err := parseID(id)
	if err != nil {
		return domain.Conflict{}, err
	}
	item, err := s.repo.FindByID(ctx, s.db, conflictID)
	if err != nil {
		return domain.Conflict{}, err
	}
	if item == nil {
		return domain.Conflict{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListConflictRequest) (domain.ListConflictResponse, error) {
	var filter domain.ListConflictFilter
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListConflictResponse{}, domain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.RecordID) != "" {
		id, err := parseID(req.RecordID)
		if err != nil {
			return domain.ListConflictResponse{}, err
		}
		filter.RecordID = &id
	}
	if strings.TrimSpace(req.UploadID) != "" {
		id, err := parseID(req.UploadID)
		if err != nil {
			return domain.ListConflictResponse{}, err
		}
		filter.UploadID = &id
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListConflictResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, req.PageSize, func(c *domain.Conflict) string {
		return pagination.CursorFor(c.ID.String(), c.CreatedAt)
	})

	conflicts := make([]domain.Conflict, 0, len(items))
	for _, item := range items {
		conflicts = append(conflicts, *item)
	}
	return domain.ListConflictResponse{PageInfo: pageInfo, Conflicts: conflicts}, nil
}

func (s *Service) Details(ctx context.Context, id string) (domain.Details, error) {
	conflict, err := s.Get(ctx, id)
	if err != nil {
		return domain.Details{}, err
	}

	details := domain.Details{
		Conflict: conflict,
		Reason:   domain.Reason(conflict),
	}

	details.NewRecord, details.NewUpload, err = s.side(ctx, conflict.RecordID)
	if err != nil {
		return domain.Details{}, err
	}
	if conflict.ExistingRecordID != 0 {
		details.ExistingRecord, details.ExistingUpload, err = s.side(ctx, conflict.ExistingRecordID)
		if err != nil {
			return domain.Details{}, err
		}
	}
	return details, nil
}

// side loads a record and a summary of its upload. Either may be missing
// once the owning upload has been deleted.
func (s *Service) side(ctx context.Context, recordID snowflake.ID) (*recorddomain.ExtractedRecord, *domain.UploadSummary, error) {
	record, err := s.records.FindByID(ctx, s.db, recordID)
	if err != nil || record == nil {
		return nil, nil, err
	}
	upload, err := s.uploads.FindByID(ctx, s.db, record.UploadID)
	if err != nil || upload == nil {
		return record, nil, err
	}
	return record, &domain.UploadSummary{
		Filename:    upload.Filename,
		CarrierName: upload.CarrierName,
		CreatedAt:   upload.CreatedAt,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
