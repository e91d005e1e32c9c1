package services

import (
	"context"
	"time"

	"github.com/kataras/golog"
)

const (
	defaultCrawlPageSize        = 100
	defaultCrawlMaxPages        = 200
	defaultCheckpointEvery      = 5
	defaultPageDelay            = 200 * time.Millisecond
	defaultMaxConsecutiveErrors = 10
	previewTopN                 = 5
)

type crawlState int

const (
	crawlFetching crawlState = iota
	crawlCheckpointing
	crawlDone
)

// CandidatePageFetcher reads one page of the upstream candidate collection.
type CandidatePageFetcher interface {
	ListCandidates(ctx context.Context, limit, offset int) (*CandidatePage, error)
}

// ProgressSnapshot is written to the sync log while a crawl runs.
type ProgressSnapshot struct {
	CurrentPage     int             `json:"current_page"`
	Offset          int             `json:"offset"`
	TotalCandidates int             `json:"total_candidates"`
	PageErrors      int             `json:"page_errors"`
	Preview         *CandidateStats `json:"preview_stats,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProgressSink receives checkpoints. Errors are logged and ignored.
type ProgressSink interface {
	OnProgress(ctx context.Context, snapshot ProgressSnapshot) error
}

// PageError records one failed page fetch.
type PageError struct {
	Page    int    `json:"page"`
	Offset  int    `json:"offset"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// CrawlResult is everything one crawl accumulated.
type CrawlResult struct {
	Candidates []CanonicalCandidate
	PageErrors []PageError
	Pages      int
	Skipped    int
	Duplicates int
	Aborted    bool
	HitCeiling bool
}

// CrawlerOptions tunes paging. Zero values take the defaults.
type CrawlerOptions struct {
	PageSize             int
	MaxPages             int
	CheckpointEvery      int
	PageDelay            time.Duration
	MaxConsecutiveErrors int
}

func (o CrawlerOptions) withDefaults() CrawlerOptions {
	if o.PageSize <= 0 {
		o.PageSize = defaultCrawlPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = defaultCrawlMaxPages
	}
	if o.CheckpointEvery <= 0 {
		o.CheckpointEvery = defaultCheckpointEvery
	}
	if o.PageDelay < 0 {
		o.PageDelay = 0
	} else if o.PageDelay == 0 {
		o.PageDelay = defaultPageDelay
	}
	if o.MaxConsecutiveErrors <= 0 {
		o.MaxConsecutiveErrors = defaultMaxConsecutiveErrors
	}
	return o
}

// CandidateCrawler walks the candidate collection page by page and normalizes
// every record it sees.
type CandidateCrawler struct {
	fetcher CandidatePageFetcher
	opts    CrawlerOptions
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

func NewCandidateCrawler(fetcher CandidatePageFetcher, opts CrawlerOptions) *CandidateCrawler {
	return &CandidateCrawler{
		fetcher: fetcher,
		opts:    opts.withDefaults(),
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Crawl fetches pages until the collection is exhausted, the page ceiling is
// reached or too many consecutive pages fail. Only context cancellation is
// returned as an error; everything else is reported in the result.
func (c *CandidateCrawler) Crawl(ctx context.Context, sink ProgressSink) (*CrawlResult, error) {
	result := &CrawlResult{}
	syncedAt := c.now()

	state := crawlFetching
	afterCheckpoint := crawlFetching
	page, offset := 1, 0
	consecutiveErrors := 0
	fetched := false
	seen := map[string]int{}

	for state != crawlDone {
		switch state {
		case crawlCheckpointing:
			c.checkpoint(ctx, sink, result, page-1, offset)
			state = afterCheckpoint

		case crawlFetching:
			if fetched {
				if err := c.sleep(ctx, c.opts.PageDelay); err != nil {
					return result, err
				}
			}
			fetched = true

			resp, err := c.fetcher.ListCandidates(ctx, c.opts.PageSize, offset)
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				consecutiveErrors++
				result.PageErrors = append(result.PageErrors, PageError{Page: page, Offset: offset, Message: err.Error(), Err: err})
				golog.Warnf("workable page %d (offset %d) failed (%d consecutive): %v", page, offset, consecutiveErrors, err)
				if consecutiveErrors > c.opts.MaxConsecutiveErrors {
					golog.Errorf("workable crawl aborted after %d consecutive page errors", consecutiveErrors)
					result.Aborted = true
					state = crawlDone
				}
				continue
			}
			consecutiveErrors = 0

			if resp == nil || len(resp.Candidates) == 0 {
				state = crawlDone
				continue
			}

			for _, raw := range resp.Candidates {
				candidate, ok := NormalizeCandidate(raw, syncedAt)
				if !ok {
					result.Skipped++
					continue
				}
				// Offset paging shifts when records arrive mid-crawl; keep the latest copy.
				if i, dup := seen[candidate.ExternalID]; dup {
					result.Candidates[i] = candidate
					result.Duplicates++
					continue
				}
				seen[candidate.ExternalID] = len(result.Candidates)
				result.Candidates = append(result.Candidates, candidate)
			}
			result.Pages++
			golog.Debugf("workable page %d: %d records, %d total", page, len(resp.Candidates), len(result.Candidates))

			more := resp.Next != "" || len(resp.Candidates) >= c.opts.PageSize
			next := crawlFetching
			switch {
			case !more:
				next = crawlDone
			case page >= c.opts.MaxPages:
				golog.Warnf("workable crawl stopped at the %d page ceiling", c.opts.MaxPages)
				result.HitCeiling = true
				next = crawlDone
			}

			offset += c.opts.PageSize
			page++

			if next == crawlFetching && result.Pages%c.opts.CheckpointEvery == 0 {
				afterCheckpoint = next
				state = crawlCheckpointing
			} else {
				state = next
			}
		}
	}

	return result, nil
}

func (c *CandidateCrawler) checkpoint(ctx context.Context, sink ProgressSink, result *CrawlResult, page, offset int) {
	if sink == nil {
		return
	}
	snapshot := ProgressSnapshot{
		CurrentPage:     page,
		Offset:          offset,
		TotalCandidates: len(result.Candidates),
		PageErrors:      len(result.PageErrors),
		Preview:         ComputeCandidateStats(result.Candidates, previewTopN),
		UpdatedAt:       c.now(),
	}
	if err := sink.OnProgress(ctx, snapshot); err != nil {
		golog.Warnf("workable crawl checkpoint at page %d failed: %v", page, err)
	}
}
