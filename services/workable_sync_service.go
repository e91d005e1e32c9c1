package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"

	"github.com/kataras/golog"
	"gorm.io/gorm"
)

const (
	// Runs with this many combined page and batch errors, or more, end as partial_success.
	syncErrorThreshold = 5
	maxErrorDetails    = 20
)

// SyncResult is the response body of a sync action.
type SyncResult struct {
	Success          bool            `json:"success"`
	TotalCandidates  int             `json:"totalCandidates"`
	SyncedCandidates int             `json:"syncedCandidates"`
	Errors           int             `json:"errors"`
	Message          string          `json:"message"`
	Stats            *CandidateStats `json:"stats,omitempty"`
	RunID            uint            `json:"runId,omitempty"`
	Status           string          `json:"status,omitempty"`
	ErrorDetails     []string        `json:"errorDetails,omitempty"`
}

// ConnectionResult reports whether the upstream API answered.
type ConnectionResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	SampleCount int    `json:"sampleCount"`
	BaseURL     string `json:"baseUrl"`
}

// SyncStatus is the latest run plus how many candidates are stored.
type SyncStatus struct {
	LatestRun      *models.IntegrationSyncLog `json:"latestRun"`
	CandidateCount int64                      `json:"candidateCount"`
	Running        bool                       `json:"running"`
}

// WorkableSyncDeps are the collaborators of WorkableSyncService.
type WorkableSyncDeps struct {
	Fetcher CandidatePageFetcher
	Store   CandidateStore
	Runs    SyncRunRecorder
	Locker  Locker
	Alerts  SyncAlerter
	Crawl   CrawlerOptions
}

// WorkableSyncService sequences crawl, statistics and reconciliation for one
// sync action and records the run.
type WorkableSyncService struct {
	cfg        config.WorkableConfig
	fetcher    CandidatePageFetcher
	store      CandidateStore
	runs       SyncRunRecorder
	locker     Locker
	alerts     SyncAlerter
	crawlOpts  CrawlerOptions
	reconciler *CandidateReconciler
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewWorkableSyncService(cfg config.WorkableConfig, deps WorkableSyncDeps) *WorkableSyncService {
	if deps.Locker == nil {
		deps.Locker = noopLocker{}
	}
	return &WorkableSyncService{
		cfg:        cfg,
		fetcher:    deps.Fetcher,
		store:      deps.Store,
		runs:       deps.Runs,
		locker:     deps.Locker,
		alerts:     deps.Alerts,
		crawlOpts:  deps.Crawl,
		reconciler: NewCandidateReconciler(deps.Store),
		sleep:      sleepContext,
	}
}

// NewDefaultWorkableSyncService wires the production collaborators on db.
func NewDefaultWorkableSyncService(cfg config.WorkableConfig, db *gorm.DB) (*WorkableSyncService, error) {
	if db == nil {
		db = config.DB
	}
	locker, err := NewLocker(cfg, db)
	if err != nil {
		return nil, err
	}
	var alerts SyncAlerter
	if len(cfg.AlertRecipients) > 0 {
		alerts = NewMailSyncAlerter(cfg.AlertRecipients)
	}
	return NewWorkableSyncService(cfg, WorkableSyncDeps{
		Fetcher: NewWorkableClient(cfg, nil),
		Store:   NewCandidateRepository(db),
		Runs:    NewSyncRunService(db),
		Locker:  locker,
		Alerts:  alerts,
	}), nil
}

func (s *WorkableSyncService) checkConfig() error {
	if missing := s.cfg.Missing(); len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

// LoadAllCandidates crawls every page and replaces all stored Workable
// candidates with the result.
func (s *WorkableSyncService) LoadAllCandidates(ctx context.Context, trigger string) (*SyncResult, error) {
	return s.run(ctx, models.SyncTypeLoadAllCandidates, trigger, s.crawlOpts, func(ctx context.Context, candidates []CanonicalCandidate) (*ReconcileResult, error) {
		return s.reconciler.Replace(ctx, SourcePlatformWorkable, candidates)
	})
}

// SyncCandidates refreshes the first few pages and upserts them without
// deleting anything.
func (s *WorkableSyncService) SyncCandidates(ctx context.Context, trigger string) (*SyncResult, error) {
	opts := s.crawlOpts
	opts.MaxPages = s.cfg.IncrementalPages
	return s.run(ctx, models.SyncTypeSyncCandidates, trigger, opts, s.reconciler.Upsert)
}

type reconcileFunc func(ctx context.Context, candidates []CanonicalCandidate) (*ReconcileResult, error)

func (s *WorkableSyncService) run(ctx context.Context, syncType, trigger string, opts CrawlerOptions, reconcile reconcileFunc) (*SyncResult, error) {
	if err := s.checkConfig(); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, WorkableSyncLockName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			golog.Errorf("release %s lock: %v", WorkableSyncLockName, err)
		}
	}()

	run, err := s.runs.Start(ctx, syncType, trigger)
	if err != nil {
		return nil, err
	}
	golog.Infof("workable %s run #%d started (trigger=%s)", syncType, run.ID, run.TriggerSource)
	started := time.Now()

	crawler := NewCandidateCrawler(s.fetcher, opts)
	crawler.sleep = s.sleep
	crawl, err := crawler.Crawl(ctx, runProgressSink{runs: s.runs, runID: run.ID})
	if err != nil {
		s.finish(ctx, syncType, run.ID, models.SyncStatusFailed, &SyncResult{
			TotalCandidates: len(crawl.Candidates),
			Errors:          len(crawl.PageErrors),
			Message:         fmt.Sprintf("Sync interrupted after %d candidates: %v", len(crawl.Candidates), err),
			RunID:           run.ID,
		}, err)
		return nil, err
	}

	stats := ComputeCandidateStats(crawl.Candidates, DefaultStatsTopN)

	rec, err := reconcile(ctx, crawl.Candidates)
	if err != nil {
		var deleteErr *DeletePhaseError
		result := &SyncResult{
			TotalCandidates: len(crawl.Candidates),
			Errors:          len(crawl.PageErrors) + 1,
			Stats:           stats,
			RunID:           run.ID,
			Status:          models.SyncStatusFailed,
			ErrorDetails:    []string{err.Error()},
		}
		if errors.As(err, &deleteErr) {
			result.Message = fmt.Sprintf("Fetched %d candidates but could not clear existing records; nothing was written", len(crawl.Candidates))
		} else {
			result.SyncedCandidates = rec.Created
			result.Message = fmt.Sprintf("Sync interrupted after writing %d of %d candidates: %v", rec.Created, len(crawl.Candidates), err)
		}
		s.finish(ctx, syncType, run.ID, models.SyncStatusFailed, result, err)
		return result, err
	}

	errorCount := len(crawl.PageErrors) + len(rec.Errors)
	status := models.SyncStatusSuccess
	if errorCount >= syncErrorThreshold || crawl.Aborted {
		status = models.SyncStatusPartialSuccess
	}

	result := &SyncResult{
		Success:          true,
		TotalCandidates:  len(crawl.Candidates),
		SyncedCandidates: rec.Created,
		Errors:           errorCount,
		Stats:            stats,
		RunID:            run.ID,
		Status:           status,
		ErrorDetails:     errorDetails(crawl.PageErrors, rec.Errors),
	}
	result.Message = syncMessage(syncType, result, crawl)
	s.finish(ctx, syncType, run.ID, status, result, nil)

	golog.Infof("workable %s run #%d finished %s in %s: %d fetched, %d written, %d errors",
		syncType, run.ID, status, time.Since(started).Round(time.Millisecond), result.TotalCandidates, result.SyncedCandidates, errorCount)
	return result, nil
}

func (s *WorkableSyncService) finish(ctx context.Context, syncType string, runID uint, status string, result *SyncResult, cause error) {
	summary := SyncRunSummary{
		TotalCandidates: result.TotalCandidates,
		SyncedCount:     result.SyncedCandidates,
		ErrorCount:      result.Errors,
		Stats:           result.Stats,
	}
	if cause != nil {
		summary.ErrorMessage = cause.Error()
	} else if result.Errors > 0 {
		summary.ErrorMessage = result.Message
	}

	finishCtx := DetachedContext(ctx)
	if err := s.runs.Finish(finishCtx, runID, status, summary); err != nil {
		golog.Errorf("finalise sync run #%d: %v", runID, err)
	}
	if s.alerts != nil && status != models.SyncStatusSuccess {
		if err := s.alerts.NotifyRunFinished(finishCtx, syncType, status, result); err != nil {
			golog.Warnf("sync alert for run #%d: %v", runID, err)
		}
	}
}

func syncMessage(syncType string, result *SyncResult, crawl *CrawlResult) string {
	msg := fmt.Sprintf("Loaded %d candidates from Workable, wrote %d", result.TotalCandidates, result.SyncedCandidates)
	if result.Errors > 0 {
		msg += fmt.Sprintf(", completed with %d errors", result.Errors)
	}
	switch {
	case crawl.Aborted:
		msg += " (stopped early after repeated page failures)"
	case crawl.HitCeiling && syncType != models.SyncTypeSyncCandidates:
		msg += " (page limit reached)"
	}
	if crawl.Skipped > 0 {
		msg += fmt.Sprintf("; skipped %d records without an id", crawl.Skipped)
	}
	if crawl.Duplicates > 0 {
		msg += fmt.Sprintf("; dropped %d repeated records", crawl.Duplicates)
	}
	return msg
}

func errorDetails(pageErrors []PageError, batchErrors []*WriteBatchError) []string {
	var out []string
	for _, pe := range pageErrors {
		if len(out) == maxErrorDetails {
			return out
		}
		out = append(out, fmt.Sprintf("page %d (offset %d): %s", pe.Page, pe.Offset, pe.Message))
	}
	for _, be := range batchErrors {
		if len(out) == maxErrorDetails {
			return out
		}
		out = append(out, be.Error())
	}
	return out
}

// TestConnection fetches a single candidate to prove credentials work.
func (s *WorkableSyncService) TestConnection(ctx context.Context) (*ConnectionResult, error) {
	if err := s.checkConfig(); err != nil {
		return nil, err
	}
	result := &ConnectionResult{BaseURL: s.cfg.APIBaseURL()}
	page, err := s.fetcher.ListCandidates(ctx, 1, 0)
	if err != nil {
		result.Message = err.Error()
		return result, nil
	}
	result.Success = true
	result.SampleCount = len(page.Candidates)
	result.Message = "Workable API reachable"
	return result, nil
}

// Status reports the latest run and the stored candidate count.
func (s *WorkableSyncService) Status(ctx context.Context) (*SyncStatus, error) {
	latest, err := s.runs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CountBySource(ctx, SourcePlatformWorkable)
	if err != nil {
		return nil, err
	}
	return &SyncStatus{
		LatestRun:      latest,
		CandidateCount: count,
		Running:        latest != nil && !latest.IsTerminal(),
	}, nil
}
