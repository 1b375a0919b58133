package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/store"
)

type fixture struct {
	tools *Toolset
	job   *domain.Job
	app   *domain.Application
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := store.Open(store.Config{DSN: filepath.Join(t.TempDir(), "tools.db")}, nil)
	require.NoError(t, err)
	s := store.New(db, nil)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	job := &domain.Job{
		OwnerID:        "owner-1",
		Position:       "Backend Engineer",
		Company:        "Acme",
		Location:       "San Francisco, CA",
		EmploymentType: domain.EmploymentFullTime,
		WorkMode:       domain.WorkModeRemote,
		SalaryMin:      100,
		SalaryMax:      200,
		Description:    "Go services",
	}
	require.NoError(t, s.CreateJob(ctx, job))

	app := &domain.Application{
		JobID:      job.ID,
		FullName:   "Ada Obi",
		Gender:     domain.GenderFemale,
		Email:      "ada@example.com",
		Phone:      "+1",
		Experience: "6 years",
		Location:   "Remote",
		AppliedAt:  time.Now().Add(-48 * time.Hour),
	}
	require.NoError(t, s.CreateApplication(ctx, app))

	second := &domain.Application{
		JobID:      job.ID,
		FullName:   "Ben Cole",
		Gender:     domain.GenderMale,
		Email:      "ben@example.com",
		Phone:      "+2",
		Experience: "1 year",
		Location:   "Austin",
		AppliedAt:  time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, s.CreateApplication(ctx, second))

	return fixture{tools: New(s, zaptest.NewLogger(t)), job: job, app: app}
}

var owner = Caller{OwnerID: "owner-1", FirstName: "Jane", Company: "Acme"}

func TestUnauthenticatedCallerIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	for _, spec := range Specs() {
		args := map[string]any{}
		for _, field := range spec.Fields {
			if field.Required {
				args[field.Name] = f.job.ID
			}
		}

		res := f.tools.Call(context.Background(), Caller{}, string(spec.Name), args)
		assert.Equal(t, map[string]any{"error": "not authenticated"}, res.Map(), spec.Name)
	}
}

func TestUnauthenticatedCallerIsRejectedBeforeDecoding(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := map[string]struct {
		name string
		args map[string]any
	}{
		"unknown key":      {name: string(NameGetJob), args: map[string]any{"bogus": 1}},
		"missing required": {name: string(NameGetJob), args: map[string]any{}},
		"bad enum":         {name: string(NameListJobs), args: map[string]any{"status": "archived"}},
		"unknown name":     {name: "nope", args: nil},
	}

	for name, tt := range tests {
		res := f.tools.Call(context.Background(), Caller{}, tt.name, tt.args)
		assert.Equal(t, map[string]any{"error": "not authenticated"}, res.Map(), name)
	}
}

func TestForeignCallerGetsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	stranger := Caller{OwnerID: "owner-2"}

	calls := map[Name]map[string]any{
		NameGetJob:              {"jobId": f.job.ID},
		NameGetApplication:      {"applicationId": f.app.ID},
		NameGetBestApplications: {"jobId": f.job.ID},
	}
	for name, args := range calls {
		res := f.tools.Call(context.Background(), stranger, string(name), args)
		require.Error(t, res.Err, name)
		assert.True(t, errors.IsNotFound(res.Err), "%s: %v", name, res.Err)
		assert.Equal(t, map[string]any{"error": "not found"}, res.Map(), name)
	}

	res := f.tools.Call(context.Background(), stranger, string(NameListApplications), map[string]any{"jobId": f.job.ID})
	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.Output.(*ApplicationList).Count)

	res = f.tools.Call(context.Background(), stranger, string(NameListJobs), nil)
	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.Output.(*JobList).Count)
}

func TestOwnerSeesOwnData(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	res := f.tools.Call(ctx, owner, "list_jobs", map[string]any{"status": "all", "workMode": "remote"})
	require.NoError(t, res.Err)
	jobs := res.Output.(*JobList)
	require.Len(t, jobs.Jobs, 1)
	assert.EqualValues(t, 2, jobs.Jobs[0].Applicants)

	res = f.tools.Call(ctx, owner, "get_job", map[string]any{"jobId": f.job.ID})
	require.NoError(t, res.Err)
	detail := res.Output.(*JobDetail)
	assert.Equal(t, "Go services", detail.Description)
	assert.Equal(t, []string{}, detail.Tags)

	res = f.tools.Call(ctx, owner, "list_applications", map[string]any{"jobId": f.job.ID, "status": "pending"})
	require.NoError(t, res.Err)
	apps := res.Output.(*ApplicationList)
	require.Len(t, apps.Applications, 2)
	assert.Equal(t, "Ben Cole", apps.Applications[0].FullName)
	assert.Equal(t, "Backend Engineer", apps.Applications[0].JobName)

	res = f.tools.Call(ctx, owner, "get_application", map[string]any{"applicationId": f.app.ID})
	require.NoError(t, res.Err)
	app := res.Output.(*ApplicationDetail)
	require.NotNil(t, app.Job)
	assert.Equal(t, "Acme", app.Job.Company)

	res = f.tools.Call(ctx, owner, "get_stats", nil)
	require.NoError(t, res.Err)
	stats := res.Output.(*store.Stats)
	assert.EqualValues(t, 2, stats.Applications.Pending)
	assert.EqualValues(t, 1, stats.Jobs.Open)
}

func TestBestApplications(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res := f.tools.Call(context.Background(), owner, "get_best_applications", map[string]any{"jobId": f.job.ID, "limit": float64(1)})
	require.NoError(t, res.Err)

	best := res.Output.(*BestApplications)
	assert.Equal(t, 2, best.Considered)
	require.Len(t, best.Applicants, 1)
	assert.Equal(t, "Ada Obi", best.Applicants[0].FullName)
	assert.Equal(t, 125, best.Applicants[0].Score)
	assert.Len(t, best.Applicants[0].Breakdown, 4)

	encoded, err := json.Marshal(res.Map())
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"score":125`)
}

func TestDecodeRejectsMalformedArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{name: "unknown capability", tool: "delete_job"},
		{name: "unknown key", tool: "list_jobs", args: map[string]any{"ownerId": "owner-2"}},
		{name: "invalid enum", tool: "list_jobs", args: map[string]any{"status": "archived"}},
		{name: "missing id", tool: "get_job", args: map[string]any{}},
		{name: "blank id", tool: "get_application", args: map[string]any{"applicationId": "  "}},
		{name: "wrong type", tool: "get_best_applications", args: map[string]any{"jobId": "j", "limit": "many"}},
		{name: "negative limit", tool: "get_best_applications", args: map[string]any{"jobId": "j", "limit": -2}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.tool, tt.args)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequest(err), "got %v", err)
		})
	}
}

func TestDecodeAcceptsWildcardsAndLooseTypes(t *testing.T) {
	t.Parallel()

	req, err := Decode("list_jobs", map[string]any{"status": "ALL", "employmentType": "contract"})
	require.NoError(t, err)
	list := req.(*ListJobs)
	assert.Equal(t, domain.JobStatus(""), list.filter.Status)
	assert.Equal(t, domain.EmploymentContract, list.filter.EmploymentType)

	req, err = Decode("get_best_applications", map[string]any{"jobId": " j1 ", "limit": "3"})
	require.NoError(t, err)
	best := req.(*GetBestApplications)
	assert.Equal(t, "j1", best.JobID)
	assert.Equal(t, 3, best.Limit)
}

type failingStore struct {
	Store
}

func (failingStore) Stats(context.Context, string) (*store.Stats, error) {
	return nil, errors.New("database is locked")
}

func TestStoreErrorsBecomeResults(t *testing.T) {
	t.Parallel()

	res := New(failingStore{}, nil).Call(context.Background(), owner, "get_stats", nil)
	assert.Equal(t, map[string]any{"error": "database is locked"}, res.Map())
}

func TestSpecsAreConsistent(t *testing.T) {
	t.Parallel()

	seen := map[Name]bool{}
	for _, spec := range Specs() {
		require.False(t, seen[spec.Name], "duplicate %s", spec.Name)
		seen[spec.Name] = true
		assert.Equal(t, spec.Name, spec.New().Capability())
		assert.NotEmpty(t, spec.Description)
	}
	assert.Len(t, seen, 6)
}
