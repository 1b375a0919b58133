package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/spigell/smart-hr/internal/errors"
)

// Any is the filter wildcard accepted wherever an enum filter is.
const Any = "all"

type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full-time"
	EmploymentPartTime EmploymentType = "part-time"
	EmploymentContract EmploymentType = "contract"
)

type WorkMode string

const (
	WorkModeOnsite WorkMode = "onsite"
	WorkModeHybrid WorkMode = "hybrid"
	WorkModeRemote WorkMode = "remote"
)

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ApplicationStatus has no enforced transition graph: any status may follow any other.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

var (
	EmploymentTypes     = []EmploymentType{EmploymentFullTime, EmploymentPartTime, EmploymentContract}
	WorkModes           = []WorkMode{WorkModeOnsite, WorkModeHybrid, WorkModeRemote}
	JobStatuses         = []JobStatus{JobOpen, JobClosed}
	ApplicationStatuses = []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected}
	Genders             = []Gender{GenderMale, GenderFemale}
)

// Job is a posting owned by a single tenant.
type Job struct {
	ID             string         `gorm:"primaryKey;size:36" json:"id"`
	OwnerID        string         `gorm:"size:64;not null;index" json:"ownerId"`
	Position       string         `gorm:"size:255;not null" json:"position"`
	Company        string         `gorm:"size:255;not null" json:"company"`
	Location       string         `gorm:"size:255" json:"location"`
	EmploymentType EmploymentType `gorm:"size:16;not null" json:"employmentType"`
	WorkMode       WorkMode       `gorm:"size:16;not null" json:"workMode"`
	SalaryMin      int            `json:"salaryMin"`
	SalaryMax      int            `json:"salaryMax"`
	Currency       string         `gorm:"size:8" json:"currency"`
	Status         JobStatus      `gorm:"size:16;not null;default:open;index" json:"status"`
	Description    string         `gorm:"type:text" json:"description"`
	Tags           []string       `gorm:"serializer:json" json:"tags"`
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`
}

func (Job) TableName() string {
	return "jobs"
}

// Application is a candidate's submission against a job. Email is unique per job.
type Application struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	JobID        string            `gorm:"size:36;not null;uniqueIndex:idx_application_job_email;index" json:"jobId"`
	Job          *Job              `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
	FullName     string            `gorm:"size:255;not null" json:"fullName"`
	Gender       Gender            `gorm:"size:8" json:"gender"`
	Email        string            `gorm:"size:255;not null;uniqueIndex:idx_application_job_email" json:"email"`
	Phone        string            `gorm:"size:64" json:"phone"`
	CVURL        string            `gorm:"column:cv_url;size:1024" json:"cvUrl,omitempty"`
	ThumbnailURL string            `gorm:"size:1024" json:"thumbnailUrl,omitempty"`
	CoverLetter  string            `gorm:"type:text" json:"coverLetter,omitempty"`
	Experience   string            `gorm:"size:255" json:"experience,omitempty"`
	Location     string            `gorm:"size:255" json:"location,omitempty"`
	Status       ApplicationStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	AppliedAt    time.Time         `gorm:"index" json:"appliedAt"`
}

func (Application) TableName() string {
	return "applications"
}

// Normalize trims free-text fields and fills defaults.
func (j *Job) Normalize() {
	j.Position = strings.TrimSpace(j.Position)
	j.Company = strings.TrimSpace(j.Company)
	j.Location = strings.TrimSpace(j.Location)
	j.Currency = strings.ToUpper(strings.TrimSpace(j.Currency))
	j.EmploymentType = EmploymentType(strings.ToLower(strings.TrimSpace(string(j.EmploymentType))))
	j.WorkMode = WorkMode(strings.ToLower(strings.TrimSpace(string(j.WorkMode))))
	if j.Status == "" {
		j.Status = JobOpen
	}

	tags := make([]string, 0, len(j.Tags))
	for _, tag := range j.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	j.Tags = tags
}

// Validate checks the fields a job must carry before it is persisted.
func (j *Job) Validate() error {
	if j.OwnerID == "" {
		return errors.ErrUnauthenticated
	}
	if j.Position == "" {
		return errors.NewInvalidRequestError("position is required")
	}
	if j.Company == "" {
		return errors.NewInvalidRequestError("company is required")
	}
	if !oneOf(j.EmploymentType, EmploymentTypes) {
		return errors.NewInvalidRequestError("employment type %q is not one of %v", j.EmploymentType, EmploymentTypes)
	}
	if !oneOf(j.WorkMode, WorkModes) {
		return errors.NewInvalidRequestError("work mode %q is not one of %v", j.WorkMode, WorkModes)
	}
	if !oneOf(j.Status, JobStatuses) {
		return errors.NewInvalidRequestError("job status %q is not one of %v", j.Status, JobStatuses)
	}
	if j.SalaryMin < 0 || j.SalaryMin >= j.SalaryMax {
		return errors.NewInvalidRequestError("salary range %d-%d: minimum must be below maximum", j.SalaryMin, j.SalaryMax)
	}
	return nil
}

// Normalize trims free-text fields, lowercases the email and fills defaults.
func (a *Application) Normalize() {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.Phone = strings.TrimSpace(a.Phone)
	a.Experience = strings.TrimSpace(a.Experience)
	a.Location = strings.TrimSpace(a.Location)
	a.Gender = Gender(strings.ToLower(strings.TrimSpace(string(a.Gender))))
	if a.Status == "" {
		a.Status = StatusPending
	}
}

// Validate checks the fields a submitted application must carry.
func (a *Application) Validate() error {
	if a.JobID == "" {
		return errors.NewInvalidRequestError("job id is required")
	}
	if a.FullName == "" {
		return errors.NewInvalidRequestError("full name is required")
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return errors.NewInvalidRequestError("email %q is invalid", a.Email)
	}
	if a.Phone == "" {
		return errors.NewInvalidRequestError("phone is required")
	}
	if !oneOf(a.Gender, Genders) {
		return errors.NewInvalidRequestError("gender %q is not one of %v", a.Gender, Genders)
	}
	if !oneOf(a.Status, ApplicationStatuses) {
		return errors.NewInvalidRequestError("application status %q is not one of %v", a.Status, ApplicationStatuses)
	}
	return nil
}

// ParseJobStatus validates s, accepting the "all" wildcard as an empty filter.
func ParseJobStatus(s string) (JobStatus, error) {
	return parseFilter(s, JobStatuses, "job status")
}

// ParseWorkMode validates s, accepting the "all" wildcard as an empty filter.
func ParseWorkMode(s string) (WorkMode, error) {
	return parseFilter(s, WorkModes, "work mode")
}

// ParseEmploymentType validates s, accepting the "all" wildcard as an empty filter.
func ParseEmploymentType(s string) (EmploymentType, error) {
	return parseFilter(s, EmploymentTypes, "employment type")
}

// ParseApplicationStatus validates s, accepting the "all" wildcard as an empty filter.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	return parseFilter(s, ApplicationStatuses, "application status")
}

func parseFilter[T ~string](s string, allowed []T, what string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == Any {
		return "", nil
	}
	if !oneOf(T(s), allowed) {
		return "", errors.NewInvalidRequestError("%s %q is not one of %v or %q", what, s, allowed, Any)
	}
	return T(s), nil
}

func oneOf[T comparable](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
