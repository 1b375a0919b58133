package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/scoring"
)

func TestRankingWorkbook(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	job := &domain.Job{ID: "job-1", Position: "Backend Engineer", Company: "Acme", Location: "Berlin, Germany", WorkMode: domain.WorkModeHybrid, Status: domain.JobOpen}
	apps := []domain.Application{
		{ID: "a1", JobID: "job-1", FullName: "Ann Lee", Email: "ann@example.com", Experience: "2 years", Location: "Munich", Status: domain.StatusPending, AppliedAt: now.Add(-72 * time.Hour)},
		{ID: "a2", JobID: "job-1", FullName: "Bob Ray", Email: "bob@example.com", Experience: "9 years", Location: "Berlin", Status: domain.StatusAccepted, AppliedAt: now.Add(-24 * time.Hour)},
	}
	ranking := scoring.Rank(job, apps, 5, now)

	var buf bytes.Buffer
	if err := Ranking(&buf, job, ranking, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != SheetSummary || sheets[1] != SheetRanking {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows(SheetRanking)
	if err != nil {
		t.Fatalf("read ranking rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header and 2 applicants, got %d rows", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][len(rows[0])-1] != "recency" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][1] != "Bob Ray" || rows[2][1] != "Ann Lee" {
		t.Fatalf("expected applicants by descending score, got %q then %q", rows[1][1], rows[2][1])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatalf("read summary rows: %v", err)
	}
	if summary[0][1] != "Backend Engineer" {
		t.Fatalf("unexpected position cell: %v", summary[0])
	}
}

func TestRankingWorkbookWithoutApplicants(t *testing.T) {
	job := &domain.Job{ID: "job-1", Position: "Designer", Company: "Acme"}
	ranking := scoring.Rank(job, nil, 5, time.Now())

	var buf bytes.Buffer
	if err := Ranking(&buf, job, ranking, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetRanking)
	if err != nil {
		t.Fatalf("read ranking rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only the header row, got %d", len(rows))
	}

	summary, _ := f.GetRows(SheetSummary)
	last := summary[len(summary)-1]
	if last[0] != "Note" || last[1] != scoring.NoApplicationsMessage {
		t.Fatalf("expected empty-ranking note, got %v", last)
	}
}
