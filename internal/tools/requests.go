package tools

import (
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/store"
)

type Name string

const (
	NameListJobs            Name = "list_jobs"
	NameGetJob              Name = "get_job"
	NameListApplications    Name = "list_applications"
	NameGetApplication      Name = "get_application"
	NameGetStats            Name = "get_stats"
	NameGetBestApplications Name = "get_best_applications"
)

// Request is one of the closed set of capability requests below.
type Request interface {
	Capability() Name
	validate() error
}

type ListJobs struct {
	Status         string `mapstructure:"status"`
	WorkMode       string `mapstructure:"workMode"`
	EmploymentType string `mapstructure:"employmentType"`

	filter store.JobFilter
}

type GetJob struct {
	JobID string `mapstructure:"jobId"`
}

type ListApplications struct {
	JobID  string `mapstructure:"jobId"`
	Status string `mapstructure:"status"`

	filter store.ApplicationFilter
}

type GetApplication struct {
	ApplicationID string `mapstructure:"applicationId"`
}

type GetStats struct{}

type GetBestApplications struct {
	JobID string `mapstructure:"jobId"`
	Limit int    `mapstructure:"limit"`
}

func (*ListJobs) Capability() Name            { return NameListJobs }
func (*GetJob) Capability() Name              { return NameGetJob }
func (*ListApplications) Capability() Name    { return NameListApplications }
func (*GetApplication) Capability() Name      { return NameGetApplication }
func (*GetStats) Capability() Name            { return NameGetStats }
func (*GetBestApplications) Capability() Name { return NameGetBestApplications }

func (r *ListJobs) validate() error {
	var err error
	if r.filter.Status, err = domain.ParseJobStatus(r.Status); err != nil {
		return err
	}
	if r.filter.WorkMode, err = domain.ParseWorkMode(r.WorkMode); err != nil {
		return err
	}
	if r.filter.EmploymentType, err = domain.ParseEmploymentType(r.EmploymentType); err != nil {
		return err
	}
	return nil
}

func (r *GetJob) validate() error {
	return required("jobId", &r.JobID)
}

func (r *ListApplications) validate() error {
	status, err := domain.ParseApplicationStatus(r.Status)
	if err != nil {
		return err
	}
	r.JobID = strings.TrimSpace(r.JobID)
	if strings.EqualFold(r.JobID, domain.Any) {
		r.JobID = ""
	}
	r.filter = store.ApplicationFilter{JobID: r.JobID, Status: status}
	return nil
}

func (r *GetApplication) validate() error {
	return required("applicationId", &r.ApplicationID)
}

func (*GetStats) validate() error { return nil }

func (r *GetBestApplications) validate() error {
	if r.Limit < 0 {
		return errors.NewInvalidRequestError("limit must not be negative")
	}
	return required("jobId", &r.JobID)
}

func required(field string, value *string) error {
	*value = strings.TrimSpace(*value)
	if *value == "" {
		return errors.NewInvalidRequestError("%s is required", field)
	}
	return nil
}

// Decode builds the request for the named capability from loosely typed
// arguments, as sent by a model or an MCP client. Unknown keys are rejected.
func Decode(name string, args map[string]any) (Request, error) {
	spec, ok := Lookup(name)
	if !ok {
		return nil, errors.NewInvalidRequestError("unknown capability %q", name)
	}

	req := spec.New()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           req,
	})
	if err != nil {
		return nil, errors.Wrap(err, "build argument decoder")
	}

	if args != nil {
		if err := decoder.Decode(args); err != nil {
			return nil, errors.NewInvalidRequestError("%s arguments: %v", name, err)
		}
	}

	if err := req.validate(); err != nil {
		return nil, err
	}
	return req, nil
}
