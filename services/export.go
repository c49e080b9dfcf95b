package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"qrtrack/mail"
	"qrtrack/models"
)

var exportHeaders = []string{
	"Report Number", "Employee", "Location", "Date", "Start", "End",
	"Status", "Entries", "Activity", "Photos", "Submitted At",
}

func (s *ReportService) exportRows(ctx context.Context, actor *models.Employee, f ListFilter) ([][]string, error) {
	if !actor.CanReview() {
		return nil, ErrForbidden
	}
	q, err := s.query(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	var reports []models.Report
	if err := q.Order("reports.date asc, reports.id asc").Find(&reports).Error; err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		employee, location := "", ""
		if r.Employee != nil {
			employee = r.Employee.DisplayName()
		}
		if r.Location != nil {
			location = r.Location.Name
		}
		activity := make([]string, 0, len(r.Entries))
		for _, e := range r.Entries {
			activity = append(activity, e.Time+" "+e.Note)
		}
		submitted := ""
		if r.SubmittedAt != nil {
			submitted = r.SubmittedAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			r.ReportNumber,
			employee,
			location,
			r.Date,
			r.StartTime,
			r.EndTime,
			string(r.Status),
			fmt.Sprintf("%d", len(r.Entries)),
			strings.Join(activity, "; "),
			fmt.Sprintf("%d", len(r.Photos)),
			submitted,
		})
	}
	return rows, nil
}

func (s *ReportService) ExportCSV(ctx context.Context, actor *models.Employee, f ListFilter, w io.Writer) error {
	rows, err := s.exportRows(ctx, actor, f)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Write(exportHeaders)
	for _, row := range rows {
		writer.Write(row)
	}
	writer.Flush()
	return writer.Error()
}

func (s *ReportService) ExportXLSX(ctx context.Context, actor *models.Employee, f ListFilter, w io.Writer) error {
	rows, err := s.exportRows(ctx, actor, f)
	if err != nil {
		return err
	}

	x := excelize.NewFile()
	defer x.Close()
	sheet := "Reports"
	if err := x.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	boldStyle, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	for i, h := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := x.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := x.SetCellStyle(sheet, cell, cell, boldStyle); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	colWidths := []float64{16, 20, 20, 12, 8, 8, 10, 8, 60, 8, 16}
	for i, width := range colWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := x.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return x.Write(w)
}

// EmailReport sends the report rendered as HTML tables.
func (s *ReportService) EmailReport(ctx context.Context, actor *models.Employee, id uint, to []string) (*mail.Result, error) {
	report, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	html, err := mail.RenderReportHTML(report)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	subject := fmt.Sprintf("Daily Activity Report %s (%s)", report.ReportNumber, report.Date)
	return s.mailer.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html})
}
