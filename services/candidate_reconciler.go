package services

import (
	"context"
	"errors"
	"time"

	"github.com/kataras/golog"
	"gorm.io/gorm"
)

const (
	defaultWriteBatchSize  = 25
	defaultWriteBatchDelay = 100 * time.Millisecond
)

// CandidateStore is the relational surface the reconciler writes through.
type CandidateStore interface {
	DeleteBySource(ctx context.Context, source string) (int64, error)
	InsertBatch(ctx context.Context, candidates []CanonicalCandidate) error
	UpsertBatch(ctx context.Context, candidates []CanonicalCandidate) error
	CountBySource(ctx context.Context, source string) (int64, error)
}

// ReconcileResult counts written rows and failed batches.
type ReconcileResult struct {
	Deleted int64              `json:"deleted"`
	Created int                `json:"created"`
	Batches int                `json:"batches"`
	Errors  []*WriteBatchError `json:"-"`
}

// CandidateReconciler writes a crawl snapshot to the store in fixed-size batches.
type CandidateReconciler struct {
	store      CandidateStore
	BatchSize  int
	BatchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewCandidateReconciler(store CandidateStore) *CandidateReconciler {
	return &CandidateReconciler{
		store:      store,
		BatchSize:  defaultWriteBatchSize,
		BatchDelay: defaultWriteBatchDelay,
		sleep:      sleepContext,
	}
}

// Replace deletes every row for source and inserts candidates batch by batch.
// A failed delete aborts with a DeletePhaseError before anything is written;
// failed batches are collected and the remaining batches still run.
func (r *CandidateReconciler) Replace(ctx context.Context, source string, candidates []CanonicalCandidate) (*ReconcileResult, error) {
	deleted, err := r.store.DeleteBySource(ctx, source)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return &ReconcileResult{}, &DeletePhaseError{Source: source, Err: err}
	}
	golog.Infof("removed %d existing %s candidates", deleted, source)

	result, err := r.writeBatches(ctx, candidates, r.store.InsertBatch)
	result.Deleted = deleted
	return result, err
}

// Upsert writes candidates keyed on source and external id without deleting
// anything first.
func (r *CandidateReconciler) Upsert(ctx context.Context, candidates []CanonicalCandidate) (*ReconcileResult, error) {
	return r.writeBatches(ctx, candidates, r.store.UpsertBatch)
}

func (r *CandidateReconciler) writeBatches(ctx context.Context, candidates []CanonicalCandidate, write func(context.Context, []CanonicalCandidate) error) (*ReconcileResult, error) {
	size := r.BatchSize
	if size <= 0 {
		size = defaultWriteBatchSize
	}

	result := &ReconcileResult{}
	for start := 0; start < len(candidates); start += size {
		end := start + size
		if end > len(candidates) {
			end = len(candidates)
		}
		if start > 0 {
			if err := r.sleep(ctx, r.BatchDelay); err != nil {
				return result, err
			}
		}

		result.Batches++
		if err := write(ctx, candidates[start:end]); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			batchErr := &WriteBatchError{Batch: result.Batches, Start: start, End: end, Err: err}
			golog.Warnf("candidate write %v", batchErr)
			result.Errors = append(result.Errors, batchErr)
			continue
		}
		result.Created += end - start
	}
	return result, nil
}
