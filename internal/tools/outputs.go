package tools

import (
	"time"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/scoring"
	"github.com/spigell/smart-hr/internal/store"
)

type JobSummary struct {
	ID             string                `json:"id"`
	Position       string                `json:"position"`
	Company        string                `json:"company"`
	Location       string                `json:"location"`
	EmploymentType domain.EmploymentType `json:"employmentType"`
	WorkMode       domain.WorkMode       `json:"workMode"`
	SalaryMin      int                   `json:"salaryMin"`
	SalaryMax      int                   `json:"salaryMax"`
	Currency       string                `json:"currency,omitempty"`
	Status         domain.JobStatus      `json:"status"`
	Applicants     int64                 `json:"applicants"`
	PostedAt       time.Time             `json:"postedAt"`
}

type JobDetail struct {
	JobSummary
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type JobList struct {
	Count int          `json:"count"`
	Jobs  []JobSummary `json:"jobs"`
}

type ApplicationSummary struct {
	ID         string                   `json:"id"`
	JobID      string                   `json:"jobId"`
	JobName    string                   `json:"jobName"`
	Company    string                   `json:"company"`
	FullName   string                   `json:"fullName"`
	Email      string                   `json:"email"`
	Phone      string                   `json:"phone"`
	Status     domain.ApplicationStatus `json:"status"`
	Experience string                   `json:"experience,omitempty"`
	Location   string                   `json:"location,omitempty"`
	AppliedAt  time.Time                `json:"appliedAt"`
}

type ApplicationDetail struct {
	ApplicationSummary
	Gender       domain.Gender `json:"gender"`
	CVURL        string        `json:"cvUrl,omitempty"`
	ThumbnailURL string        `json:"thumbnailUrl,omitempty"`
	CoverLetter  string        `json:"coverLetter,omitempty"`
	Job          *JobContext   `json:"job,omitempty"`
}

// JobContext is the job an application was submitted to.
type JobContext struct {
	ID             string                `json:"id"`
	Position       string                `json:"position"`
	Company        string                `json:"company"`
	Location       string                `json:"location"`
	EmploymentType domain.EmploymentType `json:"employmentType"`
	WorkMode       domain.WorkMode       `json:"workMode"`
	Status         domain.JobStatus      `json:"status"`
}

type ApplicationList struct {
	Count        int                  `json:"count"`
	Applications []ApplicationSummary `json:"applications"`
}

type RankedApplicant struct {
	ApplicationSummary
	Score     int                 `json:"score"`
	Breakdown []scoring.TermScore `json:"breakdown"`
}

type BestApplications struct {
	JobID      string            `json:"jobId"`
	Position   string            `json:"position"`
	Considered int               `json:"considered"`
	Applicants []RankedApplicant `json:"applicants"`
	Message    string            `json:"message,omitempty"`
}

func jobSummary(job *domain.Job, applicants int64) JobSummary {
	return JobSummary{
		ID:             job.ID,
		Position:       job.Position,
		Company:        job.Company,
		Location:       job.Location,
		EmploymentType: job.EmploymentType,
		WorkMode:       job.WorkMode,
		SalaryMin:      job.SalaryMin,
		SalaryMax:      job.SalaryMax,
		Currency:       job.Currency,
		Status:         job.Status,
		Applicants:     applicants,
		PostedAt:       job.CreatedAt,
	}
}

func jobDetail(job *store.JobWithCount) JobDetail {
	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}
	return JobDetail{
		JobSummary:  jobSummary(&job.Job, job.Applicants),
		Description: job.Description,
		Tags:        tags,
	}
}

// applicationSummary uses job for the position and company when app.Job is not loaded.
func applicationSummary(app *domain.Application, job *domain.Job) ApplicationSummary {
	if app.Job != nil {
		job = app.Job
	}
	summary := ApplicationSummary{
		ID:         app.ID,
		JobID:      app.JobID,
		FullName:   app.FullName,
		Email:      app.Email,
		Phone:      app.Phone,
		Status:     app.Status,
		Experience: app.Experience,
		Location:   app.Location,
		AppliedAt:  app.AppliedAt,
	}
	if job != nil {
		summary.JobName = job.Position
		summary.Company = job.Company
	}
	return summary
}

func applicationDetail(app *domain.Application) ApplicationDetail {
	detail := ApplicationDetail{
		ApplicationSummary: applicationSummary(app, nil),
		Gender:             app.Gender,
		CVURL:              app.CVURL,
		ThumbnailURL:       app.ThumbnailURL,
		CoverLetter:        app.CoverLetter,
	}
	if app.Job != nil {
		detail.Job = &JobContext{
			ID:             app.Job.ID,
			Position:       app.Job.Position,
			Company:        app.Job.Company,
			Location:       app.Job.Location,
			EmploymentType: app.Job.EmploymentType,
			WorkMode:       app.Job.WorkMode,
			Status:         app.Job.Status,
		}
	}
	return detail
}

func bestApplications(job *domain.Job, ranking scoring.Ranking) BestApplications {
	out := BestApplications{
		JobID:      ranking.JobID,
		Position:   ranking.Position,
		Considered: ranking.Considered,
		Applicants: make([]RankedApplicant, 0, len(ranking.Applicants)),
		Message:    ranking.Message,
	}
	for i := range ranking.Applicants {
		r := &ranking.Applicants[i]
		out.Applicants = append(out.Applicants, RankedApplicant{
			ApplicationSummary: applicationSummary(&r.Application, job),
			Score:              r.Score,
			Breakdown:          r.Breakdown,
		})
	}
	return out
}
