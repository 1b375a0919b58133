// Package wire implements the tag micro-format the formatter agent uses to
// embed application and job cards in otherwise free-form text.
package wire

import (
	"strings"
)

const (
	TagApplication = "Application"
	TagJob         = "Job"
)

// ApplicationFields and JobFields are the fixed, ordered child tags of each card.
var (
	ApplicationFields = []string{"FullName", "Email", "Phone", "JobName", "Status", "Experience", "Location", "AppliedAt"}
	JobFields         = []string{"Position", "Company", "Location", "EmploymentType", "WorkMode", "SalaryMin", "SalaryMax", "Status", "Applicants", "PostedAt"}
)

type Kind string

const (
	KindProse       Kind = "prose"
	KindApplication Kind = "application"
	KindJob         Kind = "job"
)

type ApplicationCard struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	JobName    string `json:"jobName"`
	Status     string `json:"status"`
	Experience string `json:"experience"`
	Location   string `json:"location"`
	AppliedAt  string `json:"appliedAt"`
}

type JobCard struct {
	Position       string `json:"position"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	EmploymentType string `json:"employmentType"`
	WorkMode       string `json:"workMode"`
	SalaryMin      string `json:"salaryMin"`
	SalaryMax      string `json:"salaryMax"`
	Status         string `json:"status"`
	Applicants     string `json:"applicants"`
	PostedAt       string `json:"postedAt"`
}

// Segment is one piece of a parsed message, in document order.
type Segment struct {
	Kind        Kind             `json:"type"`
	Text        string           `json:"text,omitempty"`
	Application *ApplicationCard `json:"application,omitempty"`
	Job         *JobCard         `json:"job,omitempty"`
}

func (c ApplicationCard) values() []string {
	return []string{c.FullName, c.Email, c.Phone, c.JobName, c.Status, c.Experience, c.Location, c.AppliedAt}
}

func applicationCard(v []string) *ApplicationCard {
	return &ApplicationCard{
		FullName:   v[0],
		Email:      v[1],
		Phone:      v[2],
		JobName:    v[3],
		Status:     v[4],
		Experience: v[5],
		Location:   v[6],
		AppliedAt:  v[7],
	}
}

func (c JobCard) values() []string {
	return []string{c.Position, c.Company, c.Location, c.EmploymentType, c.WorkMode, c.SalaryMin, c.SalaryMax, c.Status, c.Applicants, c.PostedAt}
}

func jobCard(v []string) *JobCard {
	return &JobCard{
		Position:       v[0],
		Company:        v[1],
		Location:       v[2],
		EmploymentType: v[3],
		WorkMode:       v[4],
		SalaryMin:      v[5],
		SalaryMax:      v[6],
		Status:         v[7],
		Applicants:     v[8],
		PostedAt:       v[9],
	}
}

var valueReplacer = strings.NewReplacer("<", "‹", ">", "›")

func EncodeApplication(c ApplicationCard) string {
	return encode(TagApplication, ApplicationFields, c.values())
}

func EncodeJob(c JobCard) string {
	return encode(TagJob, JobFields, c.values())
}

func encode(tag string, fields, values []string) string {
	var b strings.Builder
	b.WriteString("<" + tag + ">")
	for i, field := range fields {
		b.WriteString("<" + field + ">")
		b.WriteString(valueReplacer.Replace(strings.TrimSpace(values[i])))
		b.WriteString("</" + field + ">")
	}
	b.WriteString("</" + tag + ">")
	return b.String()
}

// Template is the card layout with placeholder values, for prompts.
func Template(tag string) string {
	fields := ApplicationFields
	if tag == TagJob {
		fields = JobFields
	}
	placeholders := make([]string, len(fields))
	for i := range placeholders {
		placeholders[i] = ".."
	}
	return encode(tag, fields, placeholders)
}
