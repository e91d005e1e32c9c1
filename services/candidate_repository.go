package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var candidateUpsertColumns = []string{
	"name", "email", "has_real_email", "phone", "location", "current_position", "company", "summary",
	"skills", "experience_years", "education", "social_profiles", "linkedin_profile_url",
	"profile_picture_url", "resume_url", "upstream_state", "interview_stage", "completeness_score",
	"last_synced_at", "updated_at",
}

// CandidateRepository is the gorm-backed CandidateStore and the read side of
// the candidates API.
type CandidateRepository struct {
	db    *gorm.DB
	newID func() string
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	if db == nil {
		db = config.DB
	}
	return &CandidateRepository{db: db, newID: uuid.NewString}
}

func (r *CandidateRepository) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res := r.db.WithContext(ctx).Where("source_platform = ?", source).Delete(&models.Candidate{})
	return res.RowsAffected, res.Error
}

func (r *CandidateRepository) InsertBatch(ctx context.Context, candidates []CanonicalCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	rows := r.toModels(candidates)
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *CandidateRepository) UpsertBatch(ctx context.Context, candidates []CanonicalCandidate) error {
	if len(candidates) == 0 {
		return nil
	}
	rows := r.toModels(candidates)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source_platform"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns(candidateUpsertColumns),
	}).Create(&rows).Error
}

func (r *CandidateRepository) CountBySource(ctx context.Context, source string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Candidate{}).Where("source_platform = ?", source).Count(&total).Error
	return total, err
}

// CandidateFilter narrows the candidates listing.
type CandidateFilter struct {
	Source   string
	Stage    string
	State    string
	Skill    string
	Location string
	MinScore int
	Limit    int
	Offset   int
}

// List returns one page of candidates matching f plus the total match count.
func (r *CandidateRepository) List(ctx context.Context, f CandidateFilter) ([]models.Candidate, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := r.filtered(ctx, f)

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Candidate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var candidates []models.Candidate
	err := query.Order("completeness_score DESC").Order("name ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&candidates).Error
	if err != nil {
		return nil, 0, err
	}
	return candidates, total, nil
}

// ListAll returns every candidate matching f, ignoring paging.
func (r *CandidateRepository) ListAll(ctx context.Context, f CandidateFilter) ([]models.Candidate, error) {
	var candidates []models.Candidate
	err := r.filtered(ctx, f).Order("completeness_score DESC").Order("name ASC").Find(&candidates).Error
	return candidates, err
}

func (r *CandidateRepository) filtered(ctx context.Context, f CandidateFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Candidate{})
	if f.Source != "" {
		query = query.Where("source_platform = ?", f.Source)
	}
	if f.Stage != "" {
		query = query.Where("interview_stage = ?", f.Stage)
	}
	if f.State != "" {
		query = query.Where("LOWER(upstream_state) = ?", strings.ToLower(f.State))
	}
	if f.Location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(f.Location)+"%")
	}
	if f.Skill != "" {
		query = query.Where(skillsTextExpr(r.db)+" LIKE ?", "%"+strings.ToLower(f.Skill)+"%")
	}
	if f.MinScore > 0 {
		query = query.Where("completeness_score >= ?", f.MinScore)
	}
	return query
}

func skillsTextExpr(db *gorm.DB) string {
	if config.DialectName(db) == config.DriverPostgres {
		return "LOWER(skills::text)"
	}
	return "LOWER(CAST(skills AS CHAR))"
}

func (r *CandidateRepository) toModels(candidates []CanonicalCandidate) []models.Candidate {
	rows := make([]models.Candidate, 0, len(candidates))
	for i := range candidates {
		rows = append(rows, candidateModel(&candidates[i], r.newID()))
	}
	return rows
}

func candidateModel(c *CanonicalCandidate, id string) models.Candidate {
	return models.Candidate{
		ID:                 id,
		ExternalID:         c.ExternalID,
		SourcePlatform:     c.SourcePlatform,
		Name:               c.Name,
		Email:              c.Email,
		HasRealEmail:       c.HasRealEmail,
		Phone:              c.Phone,
		Location:           c.Location,
		CurrentPosition:    c.CurrentPosition,
		Company:            c.Company,
		Summary:            c.Summary,
		Skills:             jsonColumn(c.Skills),
		ExperienceYears:    c.ExperienceYears,
		Education:          jsonColumn(c.Education),
		SocialProfiles:     jsonColumn(c.SocialProfiles),
		LinkedInProfileURL: c.LinkedInProfileURL,
		ProfilePictureURL:  c.ProfilePictureURL,
		ResumeURL:          c.ResumeURL,
		UpstreamState:      c.UpstreamState,
		InterviewStage:     c.InterviewStage,
		CompletenessScore:  c.CompletenessScore,
		LastSyncedAt:       c.LastSyncedAt,
	}
}

func jsonColumn(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil || string(raw) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
