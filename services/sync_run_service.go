package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxSyncErrorMessage = 2000

// SyncRunSummary is what the orchestrator records when a run ends.
type SyncRunSummary struct {
	TotalCandidates int
	SyncedCount     int
	ErrorCount      int
	Stats           *CandidateStats
	ErrorMessage    string
}

// SyncRunRecorder persists the lifecycle of one sync invocation.
type SyncRunRecorder interface {
	Start(ctx context.Context, syncType, trigger string) (*models.IntegrationSyncLog, error)
	Checkpoint(ctx context.Context, runID uint, snapshot ProgressSnapshot) error
	Finish(ctx context.Context, runID uint, status string, summary SyncRunSummary) error
	Latest(ctx context.Context) (*models.IntegrationSyncLog, error)
}

type SyncRunService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewSyncRunService(db *gorm.DB) *SyncRunService {
	if db == nil {
		db = config.DB
	}
	return &SyncRunService{db: db, now: time.Now}
}

func (s *SyncRunService) Start(ctx context.Context, syncType, trigger string) (*models.IntegrationSyncLog, error) {
	if trigger == "" {
		trigger = "unknown"
	}
	run := &models.IntegrationSyncLog{
		IntegrationType: models.IntegrationTypeWorkable,
		SyncType:        syncType,
		TriggerSource:   trigger,
		Status:          models.SyncStatusInProgress,
		StartedAt:       s.now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("create sync log: %w", err)
	}
	return run, nil
}

// Checkpoint stores a progress snapshot on a run that is still in progress.
func (s *SyncRunService) Checkpoint(ctx context.Context, runID uint, snapshot ProgressSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.IntegrationSyncLog{}).
		Where("id = ? AND status = ?", runID, models.SyncStatusInProgress).
		Updates(map[string]interface{}{
			"synced_data":      datatypes.JSON(payload),
			"total_candidates": snapshot.TotalCandidates,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrFinished(ctx, runID)
	}
	return nil
}

// Finish moves a run to a terminal status. It succeeds at most once per run.
func (s *SyncRunService) Finish(ctx context.Context, runID uint, status string, summary SyncRunSummary) error {
	updates := map[string]interface{}{
		"status":           status,
		"completed_at":     s.now(),
		"total_candidates": summary.TotalCandidates,
		"synced_count":     summary.SyncedCount,
		"error_count":      summary.ErrorCount,
	}
	if summary.Stats != nil {
		payload, err := json.Marshal(summary.Stats)
		if err != nil {
			return err
		}
		updates["final_stats"] = datatypes.JSON(payload)
	}
	if summary.ErrorMessage != "" {
		updates["error_message"] = ellipsize(summary.ErrorMessage, maxSyncErrorMessage)
	}

	res := s.db.WithContext(ctx).Model(&models.IntegrationSyncLog{}).
		Where("id = ? AND status = ?", runID, models.SyncStatusInProgress).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.missingOrFinished(ctx, runID)
	}
	return nil
}

func (s *SyncRunService) missingOrFinished(ctx context.Context, runID uint) error {
	if _, err := s.GetByID(ctx, runID); err != nil {
		return err
	}
	return ErrSyncRunFinished
}

func (s *SyncRunService) GetByID(ctx context.Context, id uint) (*models.IntegrationSyncLog, error) {
	var run models.IntegrationSyncLog
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSyncRunNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Latest returns the newest Workable run, or nil when none exists.
func (s *SyncRunService) Latest(ctx context.Context) (*models.IntegrationSyncLog, error) {
	var run models.IntegrationSyncLog
	err := s.db.WithContext(ctx).
		Where("integration_type = ?", models.IntegrationTypeWorkable).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (s *SyncRunService) List(ctx context.Context, limit, offset int) ([]models.IntegrationSyncLog, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	base := s.db.WithContext(ctx).Model(&models.IntegrationSyncLog{}).
		Where("integration_type = ?", models.IntegrationTypeWorkable)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.IntegrationSyncLog
	err := base.Order("started_at DESC").
		Offset(offset).
		Limit(limit).
		Omit("synced_data").
		Find(&runs).Error
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// runProgressSink forwards crawler checkpoints to one run.
type runProgressSink struct {
	runs  SyncRunRecorder
	runID uint
}

func (p runProgressSink) OnProgress(ctx context.Context, snapshot ProgressSnapshot) error {
	return p.runs.Checkpoint(ctx, p.runID, snapshot)
}
