// Package export writes applicant rankings as Excel workbooks.
package export

import (
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/scoring"
)

const (
	SheetSummary = "Summary"
	SheetRanking = "Ranked Applicants"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	headerColor = "4472C4"
)

var rankingHeaders = []string{"Rank", "Applicant", "Email", "Phone", "Experience", "Location", "Status", "Applied", "Score"}

// Ranking writes a workbook with a summary sheet for job and one row per ranked applicant.
// Per-term points follow the fixed columns, one column per scoring term.
func Ranking(w io.Writer, job *domain.Job, ranking scoring.Ranking, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(err, "rename summary sheet")
	}
	if _, err := f.NewSheet(SheetRanking); err != nil {
		return errors.Wrap(err, "create ranking sheet")
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return errors.Wrap(err, "create header style")
	}

	if err := writeSummary(f, job, ranking, generated); err != nil {
		return errors.Wrap(err, "write summary sheet")
	}
	if err := writeRanking(f, ranking, header); err != nil {
		return errors.Wrap(err, "write ranking sheet")
	}

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeSummary(f *excelize.File, job *domain.Job, ranking scoring.Ranking, generated time.Time) error {
	rows := [][]interface{}{
		{"Position", job.Position},
		{"Company", job.Company},
		{"Location", job.Location},
		{"Work mode", string(job.WorkMode)},
		{"Status", string(job.Status)},
		{"Applications considered", ranking.Considered},
		{"Generated", generated.UTC().Format(time.RFC3339)},
	}
	if ranking.Message != "" {
		rows = append(rows, []interface{}{"Note", ranking.Message})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastLabel, err := excelize.CoordinatesToCellName(1, len(rows))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", lastLabel, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 26); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 50)
}

func writeRanking(f *excelize.File, ranking scoring.Ranking, header int) error {
	headers := append([]string{}, rankingHeaders...)
	if len(ranking.Applicants) > 0 {
		for _, term := range ranking.Applicants[0].Breakdown {
			headers = append(headers, term.Term)
		}
	}
	if err := f.SetSheetRow(SheetRanking, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetRanking, 1, 1, header); err != nil {
		return err
	}

	for i, ranked := range ranking.Applicants {
		app := ranked.Application
		row := []interface{}{
			i + 1,
			app.FullName,
			app.Email,
			app.Phone,
			app.Experience,
			app.Location,
			string(app.Status),
			app.AppliedAt.UTC().Format("2006-01-02"),
			ranked.Score,
		}
		for _, term := range ranked.Breakdown {
			row = append(row, term.Points)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetRanking, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(headers), len(ranking.Applicants)+1)
	if err != nil {
		return err
	}
	if len(ranking.Applicants) > 0 {
		if err := f.AutoFilter(SheetRanking, "A1:"+last, nil); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetRanking, "B", "C", 28); err != nil {
		return err
	}
	return f.SetPanes(SheetRanking, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
