package scoring

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/spigell/smart-hr/internal/domain"
)

const (
	pointsPerYear  = 10
	cityMatch      = 50
	remoteAffinity = 30
	acceptedPoints = 100
	pendingPoints  = 20
	recentPoints   = 15
	recentDays     = 7
	// maxYears caps declared experience; longer claims score the same.
	maxYears = 100
)

// Term is one additive component of a match score.
type Term interface {
	Name() string
	Score(job *domain.Job, app *domain.Application, now time.Time) int
}

type experienceTerm struct{}

// NewExperience scores ten points per year of declared experience.
func NewExperience() Term { return experienceTerm{} }

func (experienceTerm) Name() string { return "experience" }

func (experienceTerm) Score(_ *domain.Job, app *domain.Application, _ time.Time) int {
	return ExperienceYears(app.Experience) * pointsPerYear
}

type locationTerm struct{}

// NewLocation scores city affinity and remote affinity; both bonuses may apply.
func NewLocation() Term { return locationTerm{} }

func (locationTerm) Name() string { return "location" }

func (locationTerm) Score(job *domain.Job, app *domain.Application, _ time.Time) int {
	applicant := strings.ToLower(app.Location)
	score := 0

	if city := JobCity(job.Location); city != "" && strings.Contains(applicant, strings.ToLower(city)) {
		score += cityMatch
	}
	if job.WorkMode == domain.WorkModeRemote || strings.Contains(applicant, "remote") {
		score += remoteAffinity
	}
	return score
}

type statusTerm struct{}

func NewStatus() Term { return statusTerm{} }

func (statusTerm) Name() string { return "status" }

func (statusTerm) Score(_ *domain.Job, app *domain.Application, _ time.Time) int {
	switch app.Status {
	case domain.StatusAccepted:
		return acceptedPoints
	case domain.StatusPending:
		return pendingPoints
	default:
		return 0
	}
}

type recencyTerm struct{}

// NewRecency rewards applications submitted within the last week.
func NewRecency() Term { return recencyTerm{} }

func (recencyTerm) Name() string { return "recency" }

func (recencyTerm) Score(_ *domain.Job, app *domain.Application, now time.Time) int {
	if app.AppliedAt.IsZero() {
		return 0
	}
	days := int(now.Sub(app.AppliedAt) / (24 * time.Hour))
	if days <= recentDays {
		return recentPoints
	}
	return 0
}

// ExperienceYears reads the leading integer of a free-text experience value:
// "6 years" is 6, "6+ yrs" is 6. Anything unparseable or negative is 0 and
// values are capped at maxYears.
func ExperienceYears(experience string) int {
	s := strings.TrimLeftFunc(experience, unicode.IsSpace)
	if strings.HasPrefix(s, "-") {
		return 0
	}
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	years, err := strconv.Atoi(s[:end])
	if err != nil || years > maxYears {
		// Only a range error is possible for a run of digits.
		return maxYears
	}
	return years
}

// JobCity is the part of a job location before the first comma, trimmed.
func JobCity(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}
