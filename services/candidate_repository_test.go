package services

import (
	"context"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
)

func TestCandidateRepositoryDeleteAndCount(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("DELETE FROM `candidates` WHERE source_platform = \\?"),
			args:    []driver.Value{SourcePlatformWorkable},
			result:  scriptedResult{rowsAffected: 12},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `candidates` WHERE source_platform = \\?"),
			args:    []driver.Value{SourcePlatformWorkable},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(3)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	repo := NewCandidateRepository(db)
	deleted, err := repo.DeleteBySource(context.Background(), SourcePlatformWorkable)
	if err != nil || deleted != 12 {
		t.Fatalf("delete: got %d, %v", deleted, err)
	}
	count, err := repo.CountBySource(context.Background(), SourcePlatformWorkable)
	if err != nil || count != 3 {
		t.Fatalf("count: got %d, %v", count, err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCandidateRepositoryWrites(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("^INSERT INTO `candidates` .*VALUES"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 2},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO `candidates` .*ON DUPLICATE KEY UPDATE .*`interview_stage`=VALUES\\(`interview_stage`\\)"),
			anyArgs: true,
			result:  scriptedResult{rowsAffected: 2},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	repo := NewCandidateRepository(db)
	ids := 0
	repo.newID = func() string {
		ids++
		return fmt.Sprintf("id-%d", ids)
	}
	batch := makeCandidates(2)
	if err := repo.InsertBatch(context.Background(), batch); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.UpsertBatch(context.Background(), batch); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.InsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty insert must be a no-op: %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}

func TestCandidateRepositoryListFilters(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM `candidates` WHERE interview_stage = \\? AND LOWER\\(CAST\\(skills AS CHAR\\)\\) LIKE \\? AND completeness_score >= \\?"),
			args:    []driver.Value{"in_progress", "%golang%", int64(40)},
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM `candidates` WHERE .*ORDER BY completeness_score DESC,name ASC LIMIT"),
			anyArgs: true,
			columns: []string{"id", "external_id", "name", "skills"},
			rows:    [][]driver.Value{{"a", "ext-1", "Ada", []byte(`["Golang"]`)}},
		},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	candidates, total, err := NewCandidateRepository(db).List(context.Background(), CandidateFilter{
		Stage:    "in_progress",
		Skill:    "GoLang",
		MinScore: 40,
		Limit:    1000,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(candidates) != 1 || candidates[0].Name != "Ada" {
		t.Fatalf("unexpected page %d %+v", total, candidates)
	}
	if got := decodeSkills(candidates[0].Skills); len(got) != 1 || got[0] != "Golang" {
		t.Fatalf("unexpected skills %v", got)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatal(err)
	}
}
