package services

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"

	"github.com/xuri/excelize/v2"
)

const (
	candidatesSheet = "Candidates"
	statisticsSheet = "Statistics"
)

var candidateColumns = []string{
	"External ID", "Name", "Email", "Phone", "Location", "Current Position", "Company",
	"Skills", "Experience (years)", "LinkedIn", "Resume", "Upstream State", "Interview Stage",
	"Completeness", "Last Synced",
}

// StatsFromRun decodes the final statistics stored on a sync log row.
func StatsFromRun(run *models.IntegrationSyncLog) *CandidateStats {
	if run == nil || len(run.FinalStats) == 0 {
		return nil
	}
	var stats CandidateStats
	if err := json.Unmarshal(run.FinalStats, &stats); err != nil {
		return nil
	}
	return &stats
}

// WriteCandidatesWorkbook renders candidates and optional statistics as xlsx.
func WriteCandidatesWorkbook(w io.Writer, candidates []models.Candidate, stats *CandidateStats) error {
	f, err := buildCandidatesWorkbook(candidates, stats)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// ExportCandidatesToFile writes the workbook to path, adding .xlsx if needed.
func ExportCandidatesToFile(path string, candidates []models.Candidate, stats *CandidateStats) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := buildCandidatesWorkbook(candidates, stats)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

func buildCandidatesWorkbook(candidates []models.Candidate, stats *CandidateStats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", candidatesSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeCandidatesSheet(f, candidates); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create candidates sheet: %w", err)
	}
	if stats != nil {
		if _, err := f.NewSheet(statisticsSheet); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeStatisticsSheet(f, stats); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create statistics sheet: %w", err)
		}
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeCandidatesSheet(f *excelize.File, candidates []models.Candidate) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	for i, title := range candidateColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(candidatesSheet, cell, title); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(candidateColumns), 1)
	if err := f.SetCellStyle(candidatesSheet, "A1", lastHeader, style); err != nil {
		return err
	}
	_ = f.SetColWidth(candidatesSheet, "A", "A", 14)
	_ = f.SetColWidth(candidatesSheet, "B", "C", 30)
	_ = f.SetColWidth(candidatesSheet, "D", "G", 22)
	_ = f.SetColWidth(candidatesSheet, "H", "H", 40)
	_ = f.SetColWidth(candidatesSheet, "J", "K", 36)

	for i, c := range candidates {
		row := i + 2
		values := []interface{}{
			c.ExternalID,
			c.Name,
			exportEmail(c),
			deref(c.Phone),
			deref(c.Location),
			deref(c.CurrentPosition),
			deref(c.Company),
			strings.Join(decodeSkills(c.Skills), ", "),
			exportInt(c.ExperienceYears),
			deref(c.LinkedInProfileURL),
			deref(c.ResumeURL),
			c.UpstreamState,
			c.InterviewStage,
			c.CompletenessScore,
			c.LastSyncedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(candidatesSheet, cell, &values); err != nil {
			return err
		}
	}

	return f.SetPanes(candidatesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeStatisticsSheet(f *excelize.File, stats *CandidateStats) error {
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	_ = f.SetColWidth(statisticsSheet, "A", "A", 28)
	_ = f.SetColWidth(statisticsSheet, "B", "C", 14)

	row := 1
	section := func(title string, columns ...string) {
		f.SetCellValue(statisticsSheet, fmt.Sprintf("A%d", row), title)
		for i, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			f.SetCellValue(statisticsSheet, cell, col)
		}
		f.SetCellStyle(statisticsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), style)
		row++
	}
	line := func(values ...interface{}) {
		cell := fmt.Sprintf("A%d", row)
		f.SetSheetRow(statisticsSheet, cell, &values)
		row++
	}

	section("Coverage", "Count", "Percent")
	line("Total candidates", stats.Total, 100)
	line("With email", stats.Counts.WithEmail, stats.Percentages.WithEmail)
	line("With phone", stats.Counts.WithPhone, stats.Percentages.WithPhone)
	line("With resume", stats.Counts.WithResume, stats.Percentages.WithResume)
	line("With LinkedIn", stats.Counts.WithLinkedIn, stats.Percentages.WithLinkedIn)
	line("With skills", stats.Counts.WithSkills, stats.Percentages.WithSkills)
	line("Active candidates", stats.Counts.ActiveCandidates, stats.Percentages.ActiveCandidates)
	line("Average completeness", stats.AverageScore)
	row++

	tables := []struct {
		title   string
		entries []CountEntry
	}{
		{"Top skills", stats.TopSkills},
		{"Top locations", stats.TopLocations},
		{"Upstream states", stats.States},
	}
	for _, t := range tables {
		section(t.title, "Count")
		for _, e := range t.entries {
			line(e.Name, e.Count)
		}
		row++
	}

	section("Interview stage", "Count")
	for _, stage := range []string{models.InterviewStagePending, models.InterviewStageInProgress, models.InterviewStagePassed, models.InterviewStageFailed} {
		line(stage, stats.InterviewStages[stage])
	}
	return nil
}

func exportEmail(c models.Candidate) string {
	if !c.HasRealEmail {
		return ""
	}
	return c.Email
}

func decodeSkills(raw []byte) []string {
	var skills []string
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &skills); err != nil {
		return nil
	}
	return skills
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func exportInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
