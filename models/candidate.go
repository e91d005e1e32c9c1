package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	InterviewStagePending    = "pending"
	InterviewStageInProgress = "in_progress"
	InterviewStagePassed     = "passed"
	InterviewStageFailed     = "failed"
)

// Candidate is one synced upstream candidate. Rows for a source platform are
// replaced wholesale by every full sync.
type Candidate struct {
	ID                 string         `json:"id" gorm:"column:id;type:char(36);primaryKey"`
	ExternalID         string         `json:"external_id" gorm:"column:external_id;type:varchar(100);not null;uniqueIndex:idx_candidates_source_external"`
	SourcePlatform     string         `json:"source_platform" gorm:"column:source_platform;type:varchar(32);not null;index;uniqueIndex:idx_candidates_source_external"`
	Name               string         `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Email              string         `json:"email" gorm:"column:email;type:varchar(255);not null"`
	HasRealEmail       bool           `json:"has_real_email" gorm:"column:has_real_email;not null;default:false"`
	Phone              *string        `json:"phone,omitempty" gorm:"column:phone;type:varchar(64)"`
	Location           *string        `json:"location,omitempty" gorm:"column:location;type:varchar(255)"`
	CurrentPosition    *string        `json:"current_position,omitempty" gorm:"column:current_position;type:varchar(255)"`
	Company            *string        `json:"company,omitempty" gorm:"column:company;type:varchar(255)"`
	Summary            *string        `json:"summary,omitempty" gorm:"column:summary;type:text"`
	Skills             datatypes.JSON `json:"skills" gorm:"column:skills;type:json"`
	ExperienceYears    *int           `json:"experience_years,omitempty" gorm:"column:experience_years"`
	Education          datatypes.JSON `json:"education" gorm:"column:education;type:json"`
	SocialProfiles     datatypes.JSON `json:"social_profiles" gorm:"column:social_profiles;type:json"`
	LinkedInProfileURL *string        `json:"linkedin_profile_url,omitempty" gorm:"column:linkedin_profile_url;type:text"`
	ProfilePictureURL  *string        `json:"profile_picture_url,omitempty" gorm:"column:profile_picture_url;type:text"`
	ResumeURL          *string        `json:"resume_url,omitempty" gorm:"column:resume_url;type:text"`
	UpstreamState      string         `json:"upstream_state" gorm:"column:upstream_state;type:varchar(64);not null"`
	InterviewStage     string         `json:"interview_stage" gorm:"column:interview_stage;type:varchar(32);not null;index"`
	CompletenessScore  int            `json:"completeness_score" gorm:"column:completeness_score;not null;default:0"`
	LastSyncedAt       time.Time      `json:"last_synced_at" gorm:"column:last_synced_at;not null"`
	CreatedAt          time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Candidate) TableName() string { return "candidates" }
