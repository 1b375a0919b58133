// Package scoring ranks a job's applicants with a deterministic additive heuristic.
package scoring

import (
	"sort"
	"time"

	"github.com/spigell/smart-hr/internal/domain"
)

const (
	DefaultLimit = 5
	// NoApplicationsMessage accompanies an empty ranking.
	NoApplicationsMessage = "No applications found for this job"
)

type TermScore struct {
	Term   string `json:"term"`
	Points int    `json:"points"`
}

type Ranked struct {
	Application domain.Application `json:"application"`
	Score       int                `json:"score"`
	Breakdown   []TermScore        `json:"breakdown"`
}

type Ranking struct {
	JobID      string   `json:"jobId"`
	Position   string   `json:"position"`
	Considered int      `json:"considered"`
	Applicants []Ranked `json:"applicants"`
	Message    string   `json:"message,omitempty"`
}

type Scorer struct {
	terms []Term
}

// New returns a scorer over the given terms, or over the default terms when none are given.
func New(terms ...Term) *Scorer {
	if len(terms) == 0 {
		terms = DefaultTerms()
	}
	return &Scorer{terms: terms}
}

func DefaultTerms() []Term {
	return []Term{NewExperience(), NewLocation(), NewStatus(), NewRecency()}
}

// Score sums every term for one application.
func (s *Scorer) Score(job *domain.Job, app *domain.Application, now time.Time) (int, []TermScore) {
	total := 0
	breakdown := make([]TermScore, 0, len(s.terms))
	for _, term := range s.terms {
		points := term.Score(job, app, now)
		total += points
		breakdown = append(breakdown, TermScore{Term: term.Name(), Points: points})
	}
	return total, breakdown
}

// Rank scores apps against job and returns at most limit entries by descending
// score. Equal scores keep their input order, which callers supply newest first.
func (s *Scorer) Rank(job *domain.Job, apps []domain.Application, limit int, now time.Time) Ranking {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranking := Ranking{
		JobID:      job.ID,
		Position:   job.Position,
		Considered: len(apps),
		Applicants: []Ranked{},
	}
	if len(apps) == 0 {
		ranking.Message = NoApplicationsMessage
		return ranking
	}

	ranked := make([]Ranked, 0, len(apps))
	for i := range apps {
		score, breakdown := s.Score(job, &apps[i], now)
		ranked = append(ranked, Ranked{Application: apps[i], Score: score, Breakdown: breakdown})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	ranking.Applicants = ranked
	return ranking
}

// Rank ranks with the default terms.
func Rank(job *domain.Job, apps []domain.Application, limit int, now time.Time) Ranking {
	return New().Rank(job, apps, limit, now)
}
