package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
)

func fixedNow() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }

func TestSyncRunServiceStartInsertsInProgressRow(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `integration_sync_logs`"),
			anyArgs: true,
			result:  scriptedResult{lastInsertID: 7, rowsAffected: 1},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSyncRunService(db)
	svc.now = fixedNow
	run, err := svc.Start(context.Background(), models.SyncTypeLoadAllCandidates, "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if run.ID != 7 || run.Status != models.SyncStatusInProgress {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.TriggerSource != "unknown" || run.IntegrationType != models.IntegrationTypeWorkable {
		t.Fatalf("unexpected provenance %+v", run)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSyncRunServiceFinishTwiceIsRejected(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `integration_sync_logs` SET .*WHERE id = \\? AND status = \\?"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `integration_sync_logs` SET"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 0},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `integration_sync_logs` WHERE id = \\?"),
			anyArgs: true,
			columns: []string{"id", "status"},
			rows:    [][]driver.Value{{int64(3), models.SyncStatusSuccess}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSyncRunService(db)
	svc.now = fixedNow
	summary := SyncRunSummary{TotalCandidates: 10, SyncedCount: 10}
	if err := svc.Finish(context.Background(), 3, models.SyncStatusSuccess, summary); err != nil {
		t.Fatalf("first finish: %v", err)
	}
	err := svc.Finish(context.Background(), 3, models.SyncStatusFailed, summary)
	if !errors.Is(err, ErrSyncRunFinished) {
		t.Fatalf("expected ErrSyncRunFinished, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestSyncRunServiceFinishCutsLongErrorMessageOnRuneBoundary(t *testing.T) {
	update := &queryStep{
		kind:    kindExec,
		pattern: regexp.MustCompile("UPDATE `integration_sync_logs` SET .*WHERE id = \\? AND status = \\?"),
		anyArgs: true,
		result:  scriptedResult{rowsAffected: 1},
	}
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{update})
	defer cleanup()

	svc := NewSyncRunService(db)
	svc.now = fixedNow
	summary := SyncRunSummary{ErrorMessage: strings.Repeat("ß", 2500)}
	if err := svc.Finish(context.Background(), 4, models.SyncStatusFailed, summary); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}

	var stored string
	for _, v := range update.received {
		if s, ok := v.(string); ok && strings.Contains(s, "ß") {
			stored = s
		}
	}
	if !utf8.ValidString(stored) || !strings.HasSuffix(stored, "...") {
		t.Fatalf("error message not cut on a rune boundary: %q", stored)
	}
	if n := utf8.RuneCountInString(stored); n != 2000 {
		t.Fatalf("expected 2000 runes, got %d", n)
	}
}

func TestSyncRunServiceCheckpointUnknownRun(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE `integration_sync_logs` SET .*`synced_data`"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 0},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `integration_sync_logs`"),
			anyArgs: true,
			columns: []string{"id"},
		},
	}
	db, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewSyncRunService(db)
	err := svc.Checkpoint(context.Background(), 99, ProgressSnapshot{CurrentPage: 5, TotalCandidates: 500})
	if !errors.Is(err, ErrSyncRunNotFound) {
		t.Fatalf("expected ErrSyncRunNotFound, got %v", err)
	}
}

func TestSyncRunServiceLatestWithoutRuns(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `integration_sync_logs` WHERE integration_type = \\? ORDER BY started_at DESC"),
			anyArgs: true,
			columns: []string{"id"},
		},
	}
	db, _, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	run, err := NewSyncRunService(db).Latest(context.Background())
	if err != nil || run != nil {
		t.Fatalf("expected no run and no error, got %+v %v", run, err)
	}
}
