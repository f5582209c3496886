package job

import (
	"time"

	"jobportal/internal/common"
)

type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
	StatusDraft  Status = "draft"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusClosed, StatusDraft:
		return true
	default:
		return false
	}
}

var Types = []string{"Full-time", "Part-time", "Contract", "Internship", "Remote"}

var Categories = []string{
	"Software Development",
	"Design",
	"Marketing",
	"Sales",
	"Customer Service",
	"Data Science",
	"Project Management",
	"Human Resources",
	"Other",
}

type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Poster struct {
	ID   common.UUID `json:"id"`
	Name string      `json:"name,omitempty"`
}

type Job struct {
	ID                  common.UUID `json:"id"`
	Title               string      `json:"title"`
	Company             string      `json:"company"`
	Location            string      `json:"location"`
	Type                string      `json:"type"`
	Category            string      `json:"category"`
	Description         string      `json:"description"`
	Requirements        []string    `json:"requirements"`
	Responsibilities    []string    `json:"responsibilities"`
	Skills              []string    `json:"skills"`
	Salary              Range       `json:"salary"`
	Experience          Range       `json:"experience"`
	Status              Status      `json:"status"`
	ApplicationDeadline *time.Time  `json:"application_deadline,omitempty"`
	Views               int64       `json:"views"`
	PostedBy            Poster      `json:"posted_by"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	// Version increments on every Update; Update is refused when the caller's
	// copy is behind.
	Version int64 `json:"-"`
}

// AcceptsApplications reports whether a new application may be submitted at now.
func (j Job) AcceptsApplications(now time.Time) bool {
	if j.Status != StatusActive {
		return false
	}
	return !j.DeadlinePassed(now)
}

func (j Job) DeadlinePassed(now time.Time) bool {
	return j.ApplicationDeadline != nil && now.After(*j.ApplicationDeadline)
}

type Filter struct {
	Category string
	Location string
	Type     string
	Search   string
	Status   Status
}

type ListResult struct {
	Jobs        []Job `json:"jobs"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int   `json:"total"`
}

// Patch carries the fields of a partial update. Nil fields are left as they are.
type Patch struct {
	Title               *string
	Company             *string
	Location            *string
	Type                *string
	Category            *string
	Description         *string
	Requirements        *[]string
	Responsibilities    *[]string
	Skills              *[]string
	Salary              *Range
	Experience          *Range
	Status              *Status
	ApplicationDeadline **time.Time
}

func (p Patch) Apply(j *Job) {
	setIf(&j.Title, p.Title)
	setIf(&j.Company, p.Company)
	setIf(&j.Location, p.Location)
	setIf(&j.Type, p.Type)
	setIf(&j.Category, p.Category)
	setIf(&j.Description, p.Description)
	setIf(&j.Requirements, p.Requirements)
	setIf(&j.Responsibilities, p.Responsibilities)
	setIf(&j.Skills, p.Skills)
	setIf(&j.Salary, p.Salary)
	setIf(&j.Experience, p.Experience)
	setIf(&j.Status, p.Status)
	setIf(&j.ApplicationDeadline, p.ApplicationDeadline)
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ErrStale reports an Update based on a copy that another write has since
// replaced.
func ErrStale() error {
	return common.NewError(common.CodeConflict, "Job was modified by another request, retry", nil)
}
