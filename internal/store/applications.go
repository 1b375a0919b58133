package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
)

type ApplicationFilter struct {
	JobID  string
	Status domain.ApplicationStatus
}

// CreateApplication stores a public submission against an open job.
// A second submission with the same email for the same job is a conflict.
func (s *Store) CreateApplication(ctx context.Context, app *domain.Application) error {
	app.Normalize()
	if err := app.Validate(); err != nil {
		return err
	}

	if _, err := s.GetOpenJob(ctx, app.JobID); err != nil {
		return err
	}

	var existing int64
	err := s.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("job_id = ? AND email = ?", app.JobID, app.Email).
		Count(&existing).Error
	if err != nil {
		return errors.Wrapf(err, "check existing application for job %s", app.JobID)
	}
	if existing > 0 {
		return errors.NewConflictError("application from %s for job %s already exists", app.Email, app.JobID)
	}

	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = s.now()
	}

	if err := s.db.WithContext(ctx).Omit("Job").Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.NewConflictError("application from %s for job %s already exists", app.Email, app.JobID)
		}
		return errors.Wrapf(err, "create application for job %s", app.JobID)
	}

	s.logger.Debug("application created", zapApplication(app)...)
	return nil
}

// ListApplications returns applications to the owner's jobs, newest first.
// Each application carries its job.
func (s *Store) ListApplications(ctx context.Context, ownerID string, filter ApplicationFilter) ([]domain.Application, error) {
	q := s.db.WithContext(ctx).
		Preload("Job").
		Where("job_id IN (?)", s.ownedJobIDs(ctx, ownerID))
	if filter.JobID != "" {
		q = q.Where("job_id = ?", filter.JobID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var apps []domain.Application
	if err := q.Order("applied_at DESC").Order("id").Find(&apps).Error; err != nil {
		return nil, errors.Wrapf(err, "list applications for owner %s", ownerID)
	}
	return apps, nil
}

// GetApplication returns one application to one of the owner's jobs, with the job attached.
func (s *Store) GetApplication(ctx context.Context, ownerID, applicationID string) (*domain.Application, error) {
	var app domain.Application
	err := s.db.WithContext(ctx).
		Preload("Job").
		Where("id = ? AND job_id IN (?)", applicationID, s.ownedJobIDs(ctx, ownerID)).
		First(&app).Error
	if err != nil {
		return nil, notFoundOr(err, "application %s", applicationID)
	}
	return &app, nil
}

// ApplicationsForJob returns every application to the owner's job, newest first.
func (s *Store) ApplicationsForJob(ctx context.Context, ownerID, jobID string) (*domain.Job, []domain.Application, error) {
	job, err := s.GetJob(ctx, ownerID, jobID)
	if err != nil {
		return nil, nil, err
	}

	var apps []domain.Application
	err = s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("applied_at DESC").
		Order("id").
		Find(&apps).Error
	if err != nil {
		return nil, nil, errors.Wrapf(err, "list applications for job %s", jobID)
	}
	return &job.Job, apps, nil
}

// UpdateApplicationStatus moves an application to any status.
func (s *Store) UpdateApplicationStatus(ctx context.Context, ownerID, applicationID string, status domain.ApplicationStatus) (*domain.Application, error) {
	parsed, err := domain.ParseApplicationStatus(string(status))
	if err != nil {
		return nil, err
	}
	if parsed == "" {
		return nil, errors.NewInvalidRequestError("application status is required")
	}

	app, err := s.GetApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ?", app.ID).
		Update("status", parsed).Error
	if err != nil {
		return nil, errors.Wrapf(err, "update application %s status", applicationID)
	}

	app.Status = parsed
	return app, nil
}
