package tools

import (
	"github.com/spigell/smart-hr/internal/domain"
)

type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
)

// Field describes one request argument. Transport adapters build their
// schemas from it, so the model and MCP clients see the same contract.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Enum        []string
}

type Spec struct {
	Name        Name
	Description string
	Fields      []Field
	New         func() Request
}

var specs = []Spec{
	{
		Name:        NameListJobs,
		Description: "List the employer's job postings, newest first, with the number of applicants for each.",
		Fields: []Field{
			{Name: "status", Type: TypeString, Description: "Filter by job status.", Enum: withAny(domain.JobStatuses)},
			{Name: "workMode", Type: TypeString, Description: "Filter by work mode.", Enum: withAny(domain.WorkModes)},
			{Name: "employmentType", Type: TypeString, Description: "Filter by employment type.", Enum: withAny(domain.EmploymentTypes)},
		},
		New: func() Request { return &ListJobs{} },
	},
	{
		Name:        NameGetJob,
		Description: "Get the full details of one job posting, including its description, tags and applicant count.",
		Fields: []Field{
			{Name: "jobId", Type: TypeString, Description: "Job id.", Required: true},
		},
		New: func() Request { return &GetJob{} },
	},
	{
		Name:        NameListApplications,
		Description: "List applications to the employer's jobs, newest first, with the job position and company.",
		Fields: []Field{
			{Name: "jobId", Type: TypeString, Description: "Only applications to this job."},
			{Name: "status", Type: TypeString, Description: "Filter by application status.", Enum: withAny(domain.ApplicationStatuses)},
		},
		New: func() Request { return &ListApplications{} },
	},
	{
		Name:        NameGetApplication,
		Description: "Get the full details of one application, including cover letter and the job applied to.",
		Fields: []Field{
			{Name: "applicationId", Type: TypeString, Description: "Application id.", Required: true},
		},
		New: func() Request { return &GetApplication{} },
	},
	{
		Name:        NameGetStats,
		Description: "Count the employer's jobs and applications by status.",
		New:         func() Request { return &GetStats{} },
	},
	{
		Name: NameGetBestApplications,
		Description: "Rank the applicants of one job by match score (experience, location, status, recency) " +
			"and return the best ones with a per-term score breakdown.",
		Fields: []Field{
			{Name: "jobId", Type: TypeString, Description: "Job id.", Required: true},
			{Name: "limit", Type: TypeInteger, Description: "Maximum number of applicants to return (default 5)."},
		},
		New: func() Request { return &GetBestApplications{} },
	},
}

// Specs returns every capability in a fixed order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

func Lookup(name string) (Spec, bool) {
	for _, spec := range specs {
		if string(spec.Name) == name {
			return spec, true
		}
	}
	return Spec{}, false
}

func withAny[T ~string](values []T) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, domain.Any)
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
