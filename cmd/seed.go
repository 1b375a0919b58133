package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
)

type seedFile struct {
	Jobs []seedJob `yaml:"jobs"`
}

type seedJob struct {
	Owner          string            `yaml:"owner"`
	Position       string            `yaml:"position"`
	Company        string            `yaml:"company"`
	Location       string            `yaml:"location"`
	EmploymentType string            `yaml:"employment-type"`
	WorkMode       string            `yaml:"work-mode"`
	SalaryMin      int               `yaml:"salary-min"`
	SalaryMax      int               `yaml:"salary-max"`
	Currency       string            `yaml:"currency"`
	Description    string            `yaml:"description"`
	Tags           []string          `yaml:"tags"`
	Status         string            `yaml:"status"`
	PostedDaysAgo  int               `yaml:"posted-days-ago"`
	Applications   []seedApplication `yaml:"applications"`
}

type seedApplication struct {
	FullName       string `yaml:"full-name"`
	Gender         string `yaml:"gender"`
	Email          string `yaml:"email"`
	Phone          string `yaml:"phone"`
	CVURL          string `yaml:"cv-url"`
	CoverLetter    string `yaml:"cover-letter"`
	Experience     string `yaml:"experience"`
	Location       string `yaml:"location"`
	Status         string `yaml:"status"`
	AppliedDaysAgo int    `yaml:"applied-days-ago"`
}

type seedWriter interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJobStatus(ctx context.Context, ownerID, jobID string, status domain.JobStatus) error
	CreateApplication(ctx context.Context, app *domain.Application) error
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load jobs and applications from a YAML file",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := setup()

		path, _ := cmd.Flags().GetString("file")
		f, err := os.Open(path)
		if err != nil {
			logger.Fatal("opening the seed file", zap.Error(err))
		}
		defer f.Close()

		data, err := readSeed(f)
		if err != nil {
			logger.Fatal("reading the seed file", zap.String("file", path), zap.Error(err))
		}

		st, err := openStore(ctx, config, logger, true)
		if err != nil {
			logger.Fatal("opening the database", zap.Error(err))
		}
		defer st.Close()

		jobs, apps, err := seed(ctx, st, data, time.Now())
		if err != nil {
			logger.Fatal("seeding", zap.Error(err))
		}

		logger.Info("seeded", zap.Int("jobs", jobs), zap.Int("applications", apps))
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("file", "f", "", "YAML file with jobs and their applications")
	seedCmd.MarkFlagRequired("file")
}

func readSeed(r io.Reader) (*seedFile, error) {
	var data seedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decode seed yaml")
	}
	return &data, nil
}

// seed creates the jobs with their applications. A job listed as closed is
// closed after its applications are stored.
func seed(ctx context.Context, w seedWriter, data *seedFile, now time.Time) (int, int, error) {
	var jobs, apps int

	for i, sj := range data.Jobs {
		job := &domain.Job{
			OwnerID:        sj.Owner,
			Position:       sj.Position,
			Company:        sj.Company,
			Location:       sj.Location,
			EmploymentType: domain.EmploymentType(sj.EmploymentType),
			WorkMode:       domain.WorkMode(sj.WorkMode),
			SalaryMin:      sj.SalaryMin,
			SalaryMax:      sj.SalaryMax,
			Currency:       sj.Currency,
			Description:    sj.Description,
			Tags:           sj.Tags,
			CreatedAt:      now.Add(-daysAgo(sj.PostedDaysAgo)),
		}
		if err := w.CreateJob(ctx, job); err != nil {
			return jobs, apps, errors.Wrapf(err, "job #%d %q", i+1, sj.Position)
		}
		jobs++

		for _, sa := range sj.Applications {
			app := &domain.Application{
				JobID:       job.ID,
				FullName:    sa.FullName,
				Gender:      domain.Gender(sa.Gender),
				Email:       sa.Email,
				Phone:       sa.Phone,
				CVURL:       sa.CVURL,
				CoverLetter: sa.CoverLetter,
				Experience:  sa.Experience,
				Location:    sa.Location,
				Status:      domain.ApplicationStatus(sa.Status),
				AppliedAt:   now.Add(-daysAgo(sa.AppliedDaysAgo)),
			}
			if err := w.CreateApplication(ctx, app); err != nil {
				return jobs, apps, errors.Wrapf(err, "application %q to %q", sa.Email, sj.Position)
			}
			apps++
		}

		status, err := domain.ParseJobStatus(sj.Status)
		if err != nil {
			return jobs, apps, err
		}
		if status == domain.JobClosed {
			if err := w.UpdateJobStatus(ctx, job.OwnerID, job.ID, status); err != nil {
				return jobs, apps, errors.Wrapf(err, "close job %q", sj.Position)
			}
		}
	}
	return jobs, apps, nil
}

func daysAgo(days int) time.Duration {
	if days < 0 {
		days = 0
	}
	return time.Duration(days) * 24 * time.Hour
}
