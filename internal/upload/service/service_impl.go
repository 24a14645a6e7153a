package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	carrierdomain "github.com/smallbiznis/revbox/internal/carrier/domain"
	"github.com/smallbiznis/revbox/internal/clock"
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/conflict/detector"
	conflictdomain "github.com/smallbiznis/revbox/internal/conflict/domain"
	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/smallbiznis/revbox/internal/mapping"
	"github.com/smallbiznis/revbox/internal/observability/logger"
	"github.com/smallbiznis/revbox/internal/observability/metrics"
	recorddomain "github.com/smallbiznis/revbox/internal/record/domain"
	"github.com/smallbiznis/revbox/internal/storage"
	"github.com/smallbiznis/revbox/internal/upload/domain"
	"github.com/smallbiznis/revbox/internal/usercontext"
	"github.com/smallbiznis/revbox/pkg/db/pagination"
	"github.com/smallbiznis/revbox/pkg/lock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Cfg          config.Config
	Locker       lock.Locker
	Store        storage.FileStore
	Extractor    *extraction.Extractor
	Detector     *detector.Detector
	Metrics      *metrics.Metrics `optional:"true"`
	Repo         domain.Repository
	CarrierRepo  carrierdomain.Repository
	RecordRepo   recorddomain.Repository
	ConflictRepo conflictdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	ingest    config.IngestConfig
	locker    lock.Locker
	store     storage.FileStore
	extractor *extraction.Extractor
	detector  *detector.Detector
	metrics   *metrics.Metrics
	repo      domain.Repository
	carriers  carrierdomain.Repository
	records   recorddomain.Repository
	conflicts conflictdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("upload.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		ingest:    p.Cfg.Ingest,
		locker:    p.Locker,
		store:     p.Store,
		extractor: p.Extractor,
		detector:  p.Detector,
		metrics:   p.Metrics,
		repo:      p.Repo,
		carriers:  p.CarrierRepo,
		records:   p.RecordRepo,
		conflicts: p.ConflictRepo,
	}
}

func (s *Service) Ingest(ctx context.Context, req domain.IngestRequest) (domain.Upload, error) {
	carrierID, err := parseID(req.CarrierID)
	if err != nil {
		return domain.Upload{}, err
	}
	filename := strings.TrimSpace(req.Filename)
	kind, err := extraction.KindFromFilename(filename)
	if err != nil {
		return domain.Upload{}, err
	}
	if len(req.Content) == 0 {
		return domain.Upload{}, domain.ErrEmptyFile
	}

	carrier, err := s.carriers.FindByID(ctx, s.db, carrierID)
	if err != nil {
		return domain.Upload{}, err
	}
	if carrier == nil {
		return domain.Upload{}, domain.ErrCarrierNotFound
	}
	if !compatible(carrier.FileType, kind) {
		return domain.Upload{}, domain.ErrFileTypeMismatch
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID, _ = usercontext.UserIDFromContext(ctx)
	}

	path, err := s.store.Save(ctx, filename, req.Content)
	if err != nil {
		return domain.Upload{}, err
	}

	now := s.clock.Now()
	upload := domain.Upload{
		ID:          s.genID.Generate(),
		Filename:    filename,
		FilePath:    path,
		FileKind:    string(kind),
		CarrierID:   carrier.ID,
		CarrierName: carrier.Name,
		Status:      domain.StatusProcessing,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &upload); err != nil {
		if rmErr := s.store.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
			s.log.Warn("failed to remove stored file", zap.String("path", path), zap.Error(rmErr))
		}
		return domain.Upload{}, err
	}

	log := logger.WithUpload(logger.WithContext(ctx, s.log), upload.ID.String(), carrier.ID.String())
	log.Info("ingestion started",
		zap.String("filename", filename),
		zap.String("file_kind", string(kind)),
	)

	progress, runErr := s.run(ctx, log, &upload, *carrier, req.Content)

	// The run owns the upload until it is terminal, even if the caller went away.
	finishCtx := context.WithoutCancel(ctx)
	status := domain.StatusCompleted
	message := ""
	if runErr != nil {
		status = domain.StatusError
		message = runErr.Error()
	}
	finishedAt := s.clock.Now()
	finished, err := s.repo.Finish(finishCtx, s.db, upload.ID, status, progress, message, finishedAt)
	if err != nil {
		log.Error("failed to finish upload", zap.Error(err))
		return domain.Upload{}, err
	}
	if !finished {
		current, err := s.repo.FindByID(finishCtx, s.db, upload.ID)
		if err != nil {
			return domain.Upload{}, err
		}
		if current == nil {
			return domain.Upload{}, domain.ErrNotFound
		}
		log.Warn("upload finalized before ingestion finished",
			zap.String("status", string(current.Status)),
			zap.String("error_message", current.ErrorMessage),
		)
		s.metrics.RecordUpload(finishCtx, string(kind), string(current.Status))
		return *current, nil
	}

	upload.Status = status
	upload.TotalRecords = progress.TotalRecords
	upload.ProcessedRecords = progress.ProcessedRecords
	upload.ConflictCount = progress.ConflictCount
	upload.ErrorMessage = message
	upload.UpdatedAt = finishedAt

	s.metrics.RecordUpload(finishCtx, string(kind), string(status))
	if runErr != nil {
		log.Warn("ingestion failed",
			zap.Int("total_records", progress.TotalRecords),
			zap.Int("processed_records", progress.ProcessedRecords),
			zap.Error(runErr),
		)
	} else {
		log.Info("ingestion completed",
			zap.Int("total_records", progress.TotalRecords),
			zap.Int("processed_records", progress.ProcessedRecords),
			zap.Int("conflict_count", progress.ConflictCount),
		)
	}
	return upload, nil
}

// run extracts and persists every row in source order. Rows persisted
// before a failure are kept.
func (s *Service) run(ctx context.Context, log *zap.Logger, upload *domain.Upload, carrier carrierdomain.Carrier, content []byte) (domain.Progress, error) {
	var progress domain.Progress

	rows, _, err := s.extractor.Extract(ctx, extraction.Source{
		Filename: upload.Filename,
		Content:  content,
		Options: extraction.Options{
			HeaderRow:    carrier.HeaderRow,
			DataStartRow: carrier.DataStartRow,
		},
		Mappings: carrier.Mappings(),
	})
	if err != nil {
		return progress, err
	}
	progress.TotalRecords = len(rows)
	s.metrics.RecordRowsExtracted(ctx, upload.FileKind, len(rows))

	if err := s.repo.UpdateProgress(ctx, s.db, upload.ID, progress, s.clock.Now()); err != nil {
		return progress, err
	}

	mappings := carrier.Mappings()
	primaryKeys := carrier.PrimaryKeys()
	for i, raw := range rows {
		mapped := mapping.Apply(raw, mappings)
		conflicts, err := s.persistRow(ctx, upload.ID, carrier.ID, raw, mapped, primaryKeys, progress)
		if err != nil {
			log.Warn("row persistence failed", zap.Int("row", i), zap.Error(err))
			return progress, err
		}
		progress.ProcessedRecords++
		progress.ConflictCount += conflicts
	}
	return progress, nil
}

// persistRow detects conflicts for one mapped row and stores the record, its
// conflicts and the updated counters in one transaction.
func (s *Service) persistRow(ctx context.Context, uploadID, carrierID snowflake.ID, raw, mapped map[string]any, primaryKeys []string, progress domain.Progress) (int, error) {
	if s.ingest.SerializeCarrier {
		release, err := lock.Acquire(ctx, s.locker, carrierLockKey(carrierID), s.ingest.LockTTL, 0)
		if err != nil {
			return 0, err
		}
		defer release()
	}

	var raised []*conflictdomain.Conflict
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		record := &recorddomain.ExtractedRecord{
			ID:         s.genID.Generate(),
			UploadID:   uploadID,
			CarrierID:  carrierID,
			RawData:    datatypes.JSONMap(raw),
			MappedData: datatypes.JSONMap(mapped),
			Status:     recorddomain.StatusPending,
			Conflicts:  datatypes.JSONSlice[recorddomain.ConflictSummary]{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		result, err := s.detector.Detect(ctx, tx, carrierID, record.ID, mapped, primaryKeys)
		if err != nil {
			return err
		}

		var conflicts []*conflictdomain.Conflict
		if result.Matched() {
			existingID := result.Existing.ID
			record.Status = recorddomain.StatusConflict
			for _, finding := range result.Findings {
				record.Conflicts = append(record.Conflicts, recorddomain.ConflictSummary{
					Type:             string(finding.Type),
					Field:            finding.Field,
					ExistingValue:    finding.ExistingValue,
					NewValue:         finding.NewValue,
					ExistingRecordID: existingID.String(),
				})
				conflicts = append(conflicts, &conflictdomain.Conflict{
					ID:               s.genID.Generate(),
					RecordID:         record.ID,
					UploadID:         uploadID,
					ExistingRecordID: existingID,
					ConflictType:     finding.Type,
					FieldName:        finding.Field,
					CurrentValue:     conflictdomain.EncodeValue(finding.ExistingValue),
					NewValue:         conflictdomain.EncodeValue(finding.NewValue),
					Status:           conflictdomain.StatusPending,
					CreatedAt:        now,
				})
			}
		}

		if err := s.records.Insert(ctx, tx, record); err != nil {
			return err
		}
		if err := s.conflicts.Insert(ctx, tx, conflicts); err != nil {
			return err
		}

		progress.ProcessedRecords++
		progress.ConflictCount += len(conflicts)
		if err := s.repo.UpdateProgress(ctx, tx, uploadID, progress, now); err != nil {
			return err
		}
		raised = conflicts
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.metrics.RecordRecordPersisted(ctx, statusFor(len(raised)))
	for _, c := range raised {
		s.metrics.RecordConflict(ctx, string(c.ConflictType))
	}
	return len(raised), nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Upload, error) {
	upload, err := s.find(ctx, id)
	if err != nil {
		return domain.Upload{}, err
	}
	return *upload, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUploadRequest) (domain.ListUploadResponse, error) {
	var filter domain.ListUploadFilter
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListUploadResponse{}, domain.ErrInvalidStatus
		}
	}
	if strings.TrimSpace(req.CarrierID) != "" {
		carrierID, err := parseID(req.CarrierID)
		if err != nil {
			return domain.ListUploadResponse{}, err
		}
		filter.CarrierID = &carrierID
	}

	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListUploadResponse{}, err
	}
	items, pageInfo := pagination.Trim(items, req.PageSize, func(u *domain.Upload) string {
		return pagination.CursorFor(u.ID.String(), u.CreatedAt)
	})

	uploads := make([]domain.Upload, 0, len(items))
	for _, item := range items {
		uploads = append(uploads, *item)
	}
	return domain.ListUploadResponse{PageInfo: pageInfo, Uploads: uploads}, nil
}

func (s *Service) Records(ctx context.Context, id string) ([]recorddomain.ExtractedRecord, error) {
	upload, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.records.ListAll(ctx, s.db, recorddomain.ListRecordFilter{UploadID: &upload.ID})
	if err != nil {
		return nil, err
	}
	records := make([]recorddomain.ExtractedRecord, 0, len(items))
	for _, item := range items {
		records = append(records, *item)
	}
	return records, nil
}

// Delete removes an upload with its records, their index rows and conflicts,
// then the stored file. Conflicts of other uploads that point at a deleted
// record keep their dangling existing_record_id.
func (s *Service) Delete(ctx context.Context, id string) (domain.DeleteUploadResponse, error) {
	upload, err := s.find(ctx, id)
	if err != nil {
		return domain.DeleteUploadResponse{}, err
	}

	var out domain.DeleteUploadResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if out.DeletedConflicts, err = s.conflicts.DeleteByUpload(ctx, tx, upload.ID); err != nil {
			return err
		}
		if out.DeletedRecords, err = s.records.DeleteByUpload(ctx, tx, upload.ID); err != nil {
			return err
		}
		deleted, err := s.repo.Delete(ctx, tx, upload.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return domain.DeleteUploadResponse{}, err
	}

	if upload.FilePath != "" {
		if err := s.store.Remove(ctx, upload.FilePath); err != nil {
			s.log.Warn("failed to remove stored file",
				zap.String("upload_id", upload.ID.String()),
				zap.String("path", upload.FilePath),
				zap.Error(err),
			)
		}
	}

	s.log.Info("upload deleted",
		zap.String("upload_id", upload.ID.String()),
		zap.Int64("deleted_records", out.DeletedRecords),
		zap.Int64("deleted_conflicts", out.DeletedConflicts),
	)
	return out, nil
}

// Preview renders the first rows of a spreadsheet so an operator can pick
// the header and data start rows before configuring a carrier.
func (s *Service) Preview(_ context.Context, filename string, content []byte) (extraction.Preview, error) {
	kind, err := extraction.KindFromFilename(filename)
	if err != nil {
		return extraction.Preview{}, err
	}
	if kind != extraction.KindExcel {
		return extraction.Preview{}, domain.ErrPreviewExcelOnly
	}
	if len(content) == 0 {
		return extraction.Preview{}, domain.ErrEmptyFile
	}
	sheet, err := extraction.LoadSpreadsheet(filename, content)
	if err != nil {
		return extraction.Preview{}, err
	}
	return extraction.BuildPreview(filename, sheet), nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Upload, error) {
	uploadID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	upload, err := s.repo.FindByID(ctx, s.db, uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, domain.ErrNotFound
	}
	return upload, nil
}

// compatible reports whether a file of kind may be ingested for a carrier
// declaring fileType. An empty or auto declaration accepts every kind.
func compatible(fileType carrierdomain.FileType, kind extraction.FileKind) bool {
	switch fileType {
	case "", carrierdomain.FileTypeAuto:
		return true
	default:
		return string(fileType) == string(kind)
	}
}

func carrierLockKey(id snowflake.ID) string {
	return "carrier:" + id.String()
}

func statusFor(conflicts int) string {
	if conflicts > 0 {
		return string(recorddomain.StatusConflict)
	}
	return string(recorddomain.StatusPending)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
