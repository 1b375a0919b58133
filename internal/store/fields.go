package store

import (
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/logger"
)

func zapJob(job *domain.Job) []zap.Field {
	return []zap.Field{
		zap.String("job_id", job.ID),
		zap.String(logger.FieldOwner, job.OwnerID),
		zap.String("position", job.Position),
	}
}

func zapApplication(app *domain.Application) []zap.Field {
	return []zap.Field{
		zap.String("application_id", app.ID),
		zap.String("job_id", app.JobID),
	}
}
