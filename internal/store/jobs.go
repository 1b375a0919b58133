package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
)

type JobFilter struct {
	Status         domain.JobStatus
	WorkMode       domain.WorkMode
	EmploymentType domain.EmploymentType
}

// JobWithCount is a job plus its live applicant count.
type JobWithCount struct {
	domain.Job
	Applicants int64 `json:"applicants"`
}

// CreateJob validates and inserts a job owned by job.OwnerID.
func (s *Store) CreateJob(ctx context.Context, job *domain.Job) error {
	job.Normalize()
	if err := job.Validate(); err != nil {
		return err
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrapf(err, "create job %q", job.Position)
	}

	s.logger.Debug("job created", zapJob(job)...)
	return nil
}

// ListJobs returns the owner's jobs, newest first.
func (s *Store) ListJobs(ctx context.Context, ownerID string, filter JobFilter) ([]JobWithCount, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.WorkMode != "" {
		q = q.Where("work_mode = ?", filter.WorkMode)
	}
	if filter.EmploymentType != "" {
		q = q.Where("employment_type = ?", filter.EmploymentType)
	}

	var jobs []domain.Job
	if err := q.Order("created_at DESC").Order("id").Find(&jobs).Error; err != nil {
		return nil, errors.Wrapf(err, "list jobs for owner %s", ownerID)
	}

	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}

	counts, err := s.countApplications(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]JobWithCount, 0, len(jobs))
	for _, j := range jobs {
		result = append(result, JobWithCount{Job: j, Applicants: counts[j.ID]})
	}
	return result, nil
}

// GetJob returns one of the owner's jobs. Jobs of other owners are not found.
func (s *Store) GetJob(ctx context.Context, ownerID, jobID string) (*JobWithCount, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", jobID, ownerID).First(&job).Error
	if err != nil {
		return nil, notFoundOr(err, "job %s", jobID)
	}

	counts, err := s.countApplications(ctx, []string{job.ID})
	if err != nil {
		return nil, err
	}

	return &JobWithCount{Job: job, Applicants: counts[job.ID]}, nil
}

// GetOpenJob looks a job up without tenant scoping; used by the public apply flow.
func (s *Store) GetOpenJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	err := s.db.WithContext(ctx).Where("id = ? AND status = ?", jobID, domain.JobOpen).First(&job).Error
	if err != nil {
		return nil, notFoundOr(err, "open job %s", jobID)
	}
	return &job, nil
}

// UpdateJobStatus opens or closes one of the owner's jobs.
func (s *Store) UpdateJobStatus(ctx context.Context, ownerID, jobID string, status domain.JobStatus) error {
	if status != domain.JobOpen && status != domain.JobClosed {
		return errors.NewInvalidRequestError("job status %q is not one of %v", status, domain.JobStatuses)
	}

	job, err := s.GetJob(ctx, ownerID, jobID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&job.Job).Update("status", status).Error; err != nil {
		return errors.Wrapf(err, "update job %s status", jobID)
	}
	return nil
}

// countApplications returns live application counts keyed by job id.
func (s *Store) countApplications(ctx context.Context, jobIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(jobIDs))
	if len(jobIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		JobID string
		Count int64
	}
	err := s.db.WithContext(ctx).
		Model(&domain.Application{}).
		Select("job_id, COUNT(*) AS count").
		Where("job_id IN ?", jobIDs).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count applications")
	}

	for _, row := range rows {
		counts[row.JobID] = row.Count
	}
	return counts, nil
}
