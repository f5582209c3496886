package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"jobportal/internal/domain/application"
	"jobportal/internal/domain/job"
	"jobportal/internal/domain/user"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(value string) (Format, bool) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatJSON, true
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, true
	default:
		return "", false
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Table is the flat form of an export, used by the csv and xlsx formats.
// Records keeps the original values for json.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
	Records any
}

func Encode(format Format, t Table) ([]byte, error) {
	switch format {
	case FormatCSV:
		return encodeCSV(t)
	case FormatXLSX:
		return encodeXLSX(t)
	default:
		return json.Marshal(t.Records)
	}
}

func encodeCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeXLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := t.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := setRow(f, sheet, 1, t.Columns); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func UsersTable(users []user.User) Table {
	t := Table{
		Name:    "users",
		Columns: []string{"id", "name", "email", "phone", "role", "location", "skills", "created_at"},
		Records: users,
	}
	for _, u := range users {
		t.Rows = append(t.Rows, []string{
			u.ID.String(), u.Name, u.Email, u.Phone, string(u.Role), u.Location,
			strings.Join(u.Skills, ";"), formatTime(u.CreatedAt),
		})
	}
	return t
}

func JobsTable(jobs []job.Job) Table {
	t := Table{
		Name: "jobs",
		Columns: []string{"id", "title", "company", "location", "type", "category", "status",
			"salary_min", "salary_max", "views", "posted_by", "application_deadline", "created_at"},
		Records: jobs,
	}
	for _, j := range jobs {
		deadline := ""
		if j.ApplicationDeadline != nil {
			deadline = formatTime(*j.ApplicationDeadline)
		}
		t.Rows = append(t.Rows, []string{
			j.ID.String(), j.Title, j.Company, j.Location, j.Type, j.Category, string(j.Status),
			strconv.Itoa(j.Salary.Min), strconv.Itoa(j.Salary.Max), strconv.FormatInt(j.Views, 10),
			j.PostedBy.ID.String(), deadline, formatTime(j.CreatedAt),
		})
	}
	return t
}

func ApplicationsTable(apps []application.Application) Table {
	t := Table{
		Name:    "applications",
		Columns: []string{"id", "job_id", "job_title", "applicant_id", "resume_id", "status", "applied_at", "last_status_update"},
		Records: apps,
	}
	for _, a := range apps {
		title := ""
		if a.Job != nil {
			title = a.Job.Title
		}
		t.Rows = append(t.Rows, []string{
			a.ID.String(), a.JobID.String(), title, a.ApplicantID.String(), a.ResumeID.String(),
			string(a.Status), formatTime(a.AppliedAt), formatTime(a.LastStatusUpdate),
		})
	}
	return t
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
