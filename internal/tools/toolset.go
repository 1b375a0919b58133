// Package tools is the closed set of tenant-scoped, read-only capabilities
// the assistant and the HTTP and MCP surfaces use to reach stored data.
package tools

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/scoring"
	"github.com/spigell/smart-hr/internal/store"
)

// Store is the read side of the persistence layer.
type Store interface {
	ListJobs(ctx context.Context, ownerID string, filter store.JobFilter) ([]store.JobWithCount, error)
	GetJob(ctx context.Context, ownerID, jobID string) (*store.JobWithCount, error)
	ListApplications(ctx context.Context, ownerID string, filter store.ApplicationFilter) ([]domain.Application, error)
	GetApplication(ctx context.Context, ownerID, applicationID string) (*domain.Application, error)
	ApplicationsForJob(ctx context.Context, ownerID, jobID string) (*domain.Job, []domain.Application, error)
	Stats(ctx context.Context, ownerID string) (*store.Stats, error)
}

// Result is the outcome of one capability call. Exactly one of Output and Err is set.
type Result struct {
	Output any
	Err    error
}

// Map renders the result as {"output": ...} or {"error": message}.
func (r Result) Map() map[string]any {
	if r.Err != nil {
		return map[string]any{"error": ErrorMessage(r.Err)}
	}
	return map[string]any{"output": r.Output}
}

// ErrorMessage is the message a caller of a capability sees for err.
// Ownership mismatches and missing records are indistinguishable.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.IsUnauthenticated(err):
		return errors.ErrUnauthenticated.Error()
	case errors.IsNotFound(err):
		return errors.ErrNotFound.Error()
	default:
		return err.Error()
	}
}

type Toolset struct {
	store  Store
	scorer *scoring.Scorer
	logger *zap.Logger
	now    func() time.Time
}

func New(s Store, log *zap.Logger) *Toolset {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toolset{
		store:  s,
		scorer: scoring.New(),
		logger: log,
		now:    time.Now,
	}
}

// Call decodes args for the named capability and invokes it.
func (t *Toolset) Call(ctx context.Context, caller Caller, name string, args map[string]any) Result {
	if !caller.Authenticated() {
		t.logger.Debug("capability called without caller", zap.String(logger.FieldCapability, name))
		return Result{Err: errors.ErrUnauthenticated}
	}

	req, err := Decode(name, args)
	if err != nil {
		t.logger.Debug("capability arguments rejected",
			zap.String(logger.FieldCapability, name),
			zap.Error(err),
		)
		return Result{Err: err}
	}
	return t.Invoke(ctx, caller, req)
}

// Invoke runs req on behalf of caller. Failures are returned in the Result,
// never as a panic or a separate error.
func (t *Toolset) Invoke(ctx context.Context, caller Caller, req Request) Result {
	log := logger.WithOwner(t.logger, caller.OwnerID).With(zap.String(logger.FieldCapability, string(req.Capability())))

	if !caller.Authenticated() {
		log.Debug("capability called without caller")
		return Result{Err: errors.ErrUnauthenticated}
	}
	if err := req.validate(); err != nil {
		return Result{Err: err}
	}

	started := time.Now()
	output, err := t.dispatch(ctx, caller, req)
	if err != nil {
		log.Debug("capability failed", zap.Error(err), zap.Duration("duration", time.Since(started)))
		return Result{Err: err}
	}

	log.Debug("capability served", zap.Duration("duration", time.Since(started)))
	return Result{Output: output}
}

func (t *Toolset) dispatch(ctx context.Context, caller Caller, req Request) (any, error) {
	switch r := req.(type) {
	case *ListJobs:
		return t.listJobs(ctx, caller, r)
	case *GetJob:
		return t.getJob(ctx, caller, r)
	case *ListApplications:
		return t.listApplications(ctx, caller, r)
	case *GetApplication:
		return t.getApplication(ctx, caller, r)
	case *GetStats:
		return t.store.Stats(ctx, caller.OwnerID)
	case *GetBestApplications:
		return t.bestApplications(ctx, caller, r)
	default:
		return nil, errors.NewInvalidRequestError("unsupported capability %q", req.Capability())
	}
}

func (t *Toolset) listJobs(ctx context.Context, caller Caller, r *ListJobs) (*JobList, error) {
	jobs, err := t.store.ListJobs(ctx, caller.OwnerID, r.filter)
	if err != nil {
		return nil, err
	}

	out := &JobList{Count: len(jobs), Jobs: make([]JobSummary, 0, len(jobs))}
	for i := range jobs {
		out.Jobs = append(out.Jobs, jobSummary(&jobs[i].Job, jobs[i].Applicants))
	}
	return out, nil
}

func (t *Toolset) getJob(ctx context.Context, caller Caller, r *GetJob) (*JobDetail, error) {
	job, err := t.store.GetJob(ctx, caller.OwnerID, r.JobID)
	if err != nil {
		return nil, err
	}
	detail := jobDetail(job)
	return &detail, nil
}

func (t *Toolset) listApplications(ctx context.Context, caller Caller, r *ListApplications) (*ApplicationList, error) {
	apps, err := t.store.ListApplications(ctx, caller.OwnerID, r.filter)
	if err != nil {
		return nil, err
	}

	out := &ApplicationList{Count: len(apps), Applications: make([]ApplicationSummary, 0, len(apps))}
	for i := range apps {
		out.Applications = append(out.Applications, applicationSummary(&apps[i], nil))
	}
	return out, nil
}

func (t *Toolset) getApplication(ctx context.Context, caller Caller, r *GetApplication) (*ApplicationDetail, error) {
	app, err := t.store.GetApplication(ctx, caller.OwnerID, r.ApplicationID)
	if err != nil {
		return nil, err
	}
	detail := applicationDetail(app)
	return &detail, nil
}

func (t *Toolset) bestApplications(ctx context.Context, caller Caller, r *GetBestApplications) (*BestApplications, error) {
	job, apps, err := t.store.ApplicationsForJob(ctx, caller.OwnerID, r.JobID)
	if err != nil {
		return nil, err
	}

	ranking := t.scorer.Rank(job, apps, r.Limit, t.now())
	out := bestApplications(job, ranking)
	return &out, nil
}

// Rank exposes the ranking with full application records, for exports.
func (t *Toolset) Rank(ctx context.Context, caller Caller, jobID string, limit int) (*domain.Job, scoring.Ranking, error) {
	if !caller.Authenticated() {
		return nil, scoring.Ranking{}, errors.ErrUnauthenticated
	}
	job, apps, err := t.store.ApplicationsForJob(ctx, caller.OwnerID, jobID)
	if err != nil {
		return nil, scoring.Ranking{}, err
	}
	return job, t.scorer.Rank(job, apps, limit, t.now()), nil
}
