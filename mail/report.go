package mail

import (
	"bytes"
	"html/template"

	"qrtrack/models"
)

var reportTemplate = template.Must(template.New("report").Parse(`<div style="font-family:Arial,sans-serif;font-size:14px">
<h2>Daily Activity Report {{.ReportNumber}}</h2>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse:collapse">
<tr><th align="left">Employee</th><td>{{.EmployeeName}}</td></tr>
<tr><th align="left">Location</th><td>{{.LocationName}}</td></tr>
<tr><th align="left">Date</th><td>{{.Date}}</td></tr>
<tr><th align="left">Shift</th><td>{{.StartTime}} - {{.EndTime}}</td></tr>
<tr><th align="left">Status</th><td>{{.Status}}</td></tr>
</table>
<h3>Activity</h3>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse:collapse">
<tr><th>Time</th><th>Note</th></tr>
{{range .Entries}}<tr><td>{{.Time}}</td><td>{{.Note}}</td></tr>
{{else}}<tr><td colspan="2">No entries</td></tr>
{{end}}</table>
{{if .Photos}}<h3>Photos</h3>
{{range .Photos}}<p><a href="{{.}}">{{.}}</a></p>
{{end}}{{end}}</div>
`))

type reportView struct {
	ReportNumber string
	EmployeeName string
	LocationName string
	Date         string
	StartTime    string
	EndTime      string
	Status       models.ReportStatus
	Entries      []models.ReportEntry
	Photos       []string
}

// RenderReportHTML renders a report as HTML tables for an email body.
// Employee and Location are used when preloaded.
func RenderReportHTML(report *models.Report) (string, error) {
	view := reportView{
		ReportNumber: report.ReportNumber,
		Date:         report.Date,
		StartTime:    report.StartTime,
		EndTime:      report.EndTime,
		Status:       report.Status,
		Entries:      report.Entries,
		Photos:       report.Photos,
	}
	if report.Employee != nil {
		view.EmployeeName = report.Employee.DisplayName()
	}
	if report.Location != nil {
		view.LocationName = report.Location.Name
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}
