package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SyncStatusInProgress     = "in_progress"
	SyncStatusSuccess        = "success"
	SyncStatusPartialSuccess = "partial_success"
	SyncStatusFailed         = "failed"
)

const (
	IntegrationTypeWorkable = "workable"

	SyncTypeLoadAllCandidates = "load_all_candidates"
	SyncTypeSyncCandidates    = "sync_candidates"
)

// IntegrationSyncLog records one sync invocation. The row is written at start,
// updated with progress snapshots while in progress and finalised exactly once.
type IntegrationSyncLog struct {
	ID              uint           `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	IntegrationType string         `json:"integration_type" gorm:"column:integration_type;type:varchar(32);not null;index"`
	SyncType        string         `json:"sync_type" gorm:"column:sync_type;type:varchar(64);not null"`
	TriggerSource   string         `json:"trigger_source" gorm:"column:trigger_source;type:varchar(64);not null"`
	Status          string         `json:"status" gorm:"column:status;type:varchar(32);not null;default:'in_progress'"`
	StartedAt       time.Time      `json:"started_at" gorm:"column:started_at;autoCreateTime"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty" gorm:"column:completed_at"`
	SyncedData      datatypes.JSON `json:"synced_data,omitempty" gorm:"column:synced_data;type:json"`
	FinalStats      datatypes.JSON `json:"final_stats,omitempty" gorm:"column:final_stats;type:json"`
	TotalCandidates int            `json:"total_candidates" gorm:"column:total_candidates;not null;default:0"`
	SyncedCount     int            `json:"synced_count" gorm:"column:synced_count;not null;default:0"`
	ErrorCount      int            `json:"error_count" gorm:"column:error_count;not null;default:0"`
	ErrorMessage    *string        `json:"error_message,omitempty" gorm:"column:error_message;type:text"`
	CreatedAt       time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (IntegrationSyncLog) TableName() string { return "integration_sync_logs" }

// IsTerminal reports whether the run has left in_progress.
func (l *IntegrationSyncLog) IsTerminal() bool {
	return l != nil && l.Status != SyncStatusInProgress
}
