package store

import (
	"context"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
)

type JobStats struct {
	Total  int64 `json:"total"`
	Open   int64 `json:"open"`
	Closed int64 `json:"closed"`
}

type ApplicationStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

type Stats struct {
	Jobs         JobStats         `json:"jobs"`
	Applications ApplicationStats `json:"applications"`
}

type statusCount struct {
	Status string
	Count  int64
}

// Stats aggregates the owner's jobs and applications by status.
func (s *Store) Stats(ctx context.Context, ownerID string) (*Stats, error) {
	var jobRows []statusCount
	err := s.db.WithContext(ctx).
		Model(&domain.Job{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&jobRows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "count jobs for owner %s", ownerID)
	}

	var appRows []statusCount
	err = s.db.WithContext(ctx).
		Model(&domain.Application{}).
		Select("status, COUNT(*) AS count").
		Where("job_id IN (?)", s.ownedJobIDs(ctx, ownerID)).
		Group("status").
		Scan(&appRows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "count applications for owner %s", ownerID)
	}

	stats := &Stats{}
	for _, row := range jobRows {
		stats.Jobs.Total += row.Count
		switch domain.JobStatus(row.Status) {
		case domain.JobOpen:
			stats.Jobs.Open = row.Count
		case domain.JobClosed:
			stats.Jobs.Closed = row.Count
		}
	}
	for _, row := range appRows {
		stats.Applications.Total += row.Count
		switch domain.ApplicationStatus(row.Status) {
		case domain.StatusPending:
			stats.Applications.Pending = row.Count
		case domain.StatusAccepted:
			stats.Applications.Accepted = row.Count
		case domain.StatusRejected:
			stats.Applications.Rejected = row.Count
		}
	}
	return stats, nil
}
