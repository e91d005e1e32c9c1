package services

import (
	"math"
	"sort"
	"strings"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
)

const DefaultStatsTopN = 15

// CoverageBreakdown holds either counts or whole-number percentages.
type CoverageBreakdown struct {
	WithEmail        int `json:"with_email"`
	WithPhone        int `json:"with_phone"`
	WithResume       int `json:"with_resume"`
	WithLinkedIn     int `json:"with_linkedin"`
	WithSkills       int `json:"with_skills"`
	ActiveCandidates int `json:"active_candidates"`
}

// CountEntry is one row of a frequency table.
type CountEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CandidateStats summarises one crawl snapshot.
type CandidateStats struct {
	Total           int               `json:"total"`
	Counts          CoverageBreakdown `json:"counts"`
	Percentages     CoverageBreakdown `json:"percentages"`
	TopSkills       []CountEntry      `json:"top_skills"`
	TopLocations    []CountEntry      `json:"top_locations"`
	States          []CountEntry      `json:"states"`
	InterviewStages map[string]int    `json:"interview_stages"`
	AverageScore    float64           `json:"average_completeness_score"`
}

// ComputeCandidateStats aggregates coverage, frequency tables and breakdowns.
// topN <= 0 means DefaultStatsTopN.
func ComputeCandidateStats(candidates []CanonicalCandidate, topN int) *CandidateStats {
	if topN <= 0 {
		topN = DefaultStatsTopN
	}

	stats := &CandidateStats{
		Total: len(candidates),
		InterviewStages: map[string]int{
			models.InterviewStagePending:    0,
			models.InterviewStageInProgress: 0,
			models.InterviewStagePassed:     0,
			models.InterviewStageFailed:     0,
		},
	}

	skills := newFrequencyTable()
	locations := newFrequencyTable()
	states := newFrequencyTable()
	scoreSum := 0

	for i := range candidates {
		c := &candidates[i]
		if c.HasRealEmail {
			stats.Counts.WithEmail++
		}
		if nonEmpty(c.Phone) {
			stats.Counts.WithPhone++
		}
		if nonEmpty(c.ResumeURL) {
			stats.Counts.WithResume++
		}
		if nonEmpty(c.LinkedInProfileURL) {
			stats.Counts.WithLinkedIn++
		}
		if len(c.Skills) > 0 {
			stats.Counts.WithSkills++
		}
		if c.IsActive() {
			stats.Counts.ActiveCandidates++
		}

		for _, skill := range c.Skills {
			skills.add(skill)
		}
		if c.Location != nil {
			locations.add(*c.Location)
		}
		states.add(c.UpstreamState)
		stats.InterviewStages[c.InterviewStage]++
		scoreSum += c.CompletenessScore
	}

	total := len(candidates)
	stats.Percentages = CoverageBreakdown{
		WithEmail:        percentage(stats.Counts.WithEmail, total),
		WithPhone:        percentage(stats.Counts.WithPhone, total),
		WithResume:       percentage(stats.Counts.WithResume, total),
		WithLinkedIn:     percentage(stats.Counts.WithLinkedIn, total),
		WithSkills:       percentage(stats.Counts.WithSkills, total),
		ActiveCandidates: percentage(stats.Counts.ActiveCandidates, total),
	}
	stats.TopSkills = skills.top(topN)
	stats.TopLocations = locations.top(topN)
	stats.States = states.top(0)
	if total > 0 {
		stats.AverageScore = math.Round(float64(scoreSum)/float64(total)*10) / 10
	}
	return stats
}

func percentage(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// frequencyTable counts case-insensitive trimmed keys, keeping the first
// spelling seen for display and first-seen order for ties.
type frequencyTable struct {
	index   map[string]int
	entries []CountEntry
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{index: map[string]int{}}
}

func (t *frequencyTable) add(value string) {
	display := strings.TrimSpace(value)
	if display == "" {
		return
	}
	key := strings.ToLower(display)
	if i, ok := t.index[key]; ok {
		t.entries[i].Count++
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, CountEntry{Name: display, Count: 1})
}

// top returns the n most frequent entries; n <= 0 returns all of them.
func (t *frequencyTable) top(n int) []CountEntry {
	out := make([]CountEntry, len(t.entries))
	copy(out, t.entries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
