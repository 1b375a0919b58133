package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/smart-hr/internal/auth"
	"github.com/spigell/smart-hr/internal/domain"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/export"
	"github.com/spigell/smart-hr/internal/tools"
)

type jobRequest struct {
	Position       string   `json:"position"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	EmploymentType string   `json:"employmentType"`
	WorkMode       string   `json:"workMode"`
	SalaryMin      int      `json:"salaryMin"`
	SalaryMax      int      `json:"salaryMax"`
	Currency       string   `json:"currency"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
}

type applicationRequest struct {
	FullName     string `json:"fullName"`
	Gender       string `json:"gender"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CVURL        string `json:"cvUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	CoverLetter  string `json:"coverLetter"`
	Experience   string `json:"experience"`
	Location     string `json:"location"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// invoke runs a capability for the authenticated caller and writes its output.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, req tools.Request) {
	result := s.tools.Invoke(r.Context(), auth.CallerFrom(r.Context()), req)
	if result.Err != nil {
		s.respondError(w, r, result.Err)
		return
	}
	s.respondJSON(w, http.StatusOK, result.Output)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.invoke(w, r, &tools.ListJobs{
		Status:         q.Get("status"),
		WorkMode:       q.Get("workMode"),
		EmploymentType: q.Get("employmentType"),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, &tools.GetJob{JobID: r.PathValue("id")})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var body jobRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	caller := auth.CallerFrom(r.Context())
	job := &domain.Job{
		OwnerID:        caller.OwnerID,
		Position:       body.Position,
		Company:        body.Company,
		Location:       body.Location,
		EmploymentType: domain.EmploymentType(body.EmploymentType),
		WorkMode:       domain.WorkMode(body.WorkMode),
		SalaryMin:      body.SalaryMin,
		SalaryMax:      body.SalaryMax,
		Currency:       body.Currency,
		Description:    body.Description,
		Tags:           body.Tags,
	}
	if job.Company == "" {
		job.Company = caller.Company
	}

	if err := s.jobs.CreateJob(r.Context(), job); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, job)
}

func (s *Server) handleUpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := domain.ParseJobStatus(body.Status)
	if err == nil && status == "" {
		err = errors.NewInvalidRequestError("status must be one of %v", domain.JobStatuses)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	caller := auth.CallerFrom(r.Context())
	if err := s.jobs.UpdateJobStatus(r.Context(), caller.OwnerID, r.PathValue("id"), status); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invoke(w, r, &tools.GetJob{JobID: r.PathValue("id")})
}

func (s *Server) handleBestApplications(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invoke(w, r, &tools.GetBestApplications{JobID: r.PathValue("id"), Limit: limit})
}

func (s *Server) handleBestApplicationsXLSX(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	job, ranking, err := s.tools.Rank(r.Context(), auth.CallerFrom(r.Context()), r.PathValue("id"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Ranking(&buf, job, ranking, time.Now()); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ranking-"+job.ID+".xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleApply accepts a public submission; no session is required.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var body applicationRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}

	app := &domain.Application{
		JobID:        r.PathValue("id"),
		FullName:     body.FullName,
		Gender:       domain.Gender(body.Gender),
		Email:        body.Email,
		Phone:        body.Phone,
		CVURL:        body.CVURL,
		ThumbnailURL: body.ThumbnailURL,
		CoverLetter:  body.CoverLetter,
		Experience:   body.Experience,
		Location:     body.Location,
	}
	if err := s.jobs.CreateApplication(r.Context(), app); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, app)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.invoke(w, r, &tools.ListApplications{JobID: q.Get("jobId"), Status: q.Get("status")})
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, &tools.GetApplication{ApplicationID: r.PathValue("id")})
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var body statusRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	status, err := domain.ParseApplicationStatus(body.Status)
	if err == nil && status == "" {
		err = errors.NewInvalidRequestError("status must be one of %v", domain.ApplicationStatuses)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	caller := auth.CallerFrom(r.Context())
	if _, err := s.jobs.UpdateApplicationStatus(r.Context(), caller.OwnerID, r.PathValue("id"), status); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.invoke(w, r, &tools.GetApplication{ApplicationID: r.PathValue("id")})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, &tools.GetStats{})
}

func limitParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, errors.NewInvalidRequestError("limit %q must be a non-negative integer", raw)
	}
	return limit, nil
}
