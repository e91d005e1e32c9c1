package services

import (
	"context"
	"strings"
	"testing"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
)

func TestMailSyncAlerterSendsOnlyForUnsuccessfulRuns(t *testing.T) {
	var subjects, bodies []string
	alerter := NewMailSyncAlerter([]string{"ops@example.com"})
	alerter.send = func(to []string, subject, html string) error {
		subjects = append(subjects, subject)
		bodies = append(bodies, html)
		return nil
	}

	result := &SyncResult{
		RunID:           4,
		TotalCandidates: 237,
		Errors:          6,
		Message:         "Loaded <237> candidates",
		ErrorDetails:    []string{"batch 3 (candidates 51-75) failed: <boom>"},
	}
	ctx := context.Background()
	if err := alerter.NotifyRunFinished(ctx, models.SyncTypeLoadAllCandidates, models.SyncStatusSuccess, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 0 {
		t.Fatalf("success must not alert")
	}

	if err := alerter.NotifyRunFinished(ctx, models.SyncTypeLoadAllCandidates, models.SyncStatusPartialSuccess, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subjects) != 1 || !strings.Contains(subjects[0], "partial_success") {
		t.Fatalf("unexpected subjects %v", subjects)
	}
	body := bodies[0]
	if !strings.Contains(body, "&lt;boom&gt;") || strings.Contains(body, "<boom>") {
		t.Fatalf("error details must be escaped: %s", body)
	}
	if !strings.Contains(body, "<strong>#4</strong>") {
		t.Fatalf("run id missing: %s", body)
	}
}

func TestMailSyncAlerterWithoutRecipients(t *testing.T) {
	alerter := NewMailSyncAlerter(nil)
	alerter.send = func([]string, string, string) error {
		t.Fatalf("send must not be called")
		return nil
	}
	if err := alerter.NotifyRunFinished(context.Background(), "x", models.SyncStatusFailed, &SyncResult{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
