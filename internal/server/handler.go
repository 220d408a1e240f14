package server

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"hybridhunter/internal/common"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/pipeline"
	"hybridhunter/internal/ranking"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const resumeField = "resume"

// searchHandler runs the whole pipeline for one request
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer("hybridhunter.api").Start(r.Context(), "api.search")
	defer span.End()

	req, err := s.parseSearchRequest(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), requestErrorStatus(err))
		return
	}
	if strings.TrimSpace(req.Intent) == "" {
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Missing intent", "intent field is required", http.StatusBadRequest)
		return
	}

	destination := strings.TrimSpace(req.Email)
	criteria := s.criteria(req)
	if err := common.ValidateDestination(destination); err != nil {
		writeErrorResponse(w, "Invalid email", err.Error(), http.StatusBadRequest)
		return
	}
	if err := common.ValidateCriteria(criteria); err != nil {
		writeErrorResponse(w, "Invalid selection", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("request.intent_length", len(req.Intent)),
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.Bool("request.delivery", destination != ""),
	)

	report := s.Pipeline.Run(ctx, pipeline.Request{
		Intent:      req.Intent,
		ResumeText:  req.ResumeText,
		Destination: destination,
		Criteria:    criteria,
	})

	span.SetAttributes(
		attribute.String("run.status", string(report.Status)),
		attribute.Int("run.candidates", report.Candidates),
		attribute.Int("run.results", len(report.Results)),
	)

	writeJSON(w, reportStatus(report), report)
}

// planHandler runs only the planning stage
func (s *Server) planHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer("hybridhunter.api").Start(r.Context(), "api.plan")
	defer span.End()

	var req PlanRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Invalid request body", err.Error(), requestErrorStatus(err))
		return
	}
	if strings.TrimSpace(req.Intent) == "" {
		writeErrorResponse(w, "Missing intent", "intent field is required", http.StatusBadRequest)
		return
	}

	plan, err := s.Pipeline.Plan(ctx, req.Intent, req.ResumeText)
	if err != nil {
		span.RecordError(err)
		s.Logger.LogError(err, "Planning failed", "endpoint", r.URL.Path)
		status := http.StatusBadGateway
		if errors.IsType(err, errors.ErrorTypeValidation) {
			status = http.StatusBadRequest
		}
		writeErrorResponse(w, "Could not plan the search", err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

// parseSearchRequest accepts either a JSON body or a multipart form with an
// optional resume file. An unreadable resume is dropped, not rejected.
func (s *Server) parseSearchRequest(ctx context.Context, r *http.Request) (SearchRequest, error) {
	var req SearchRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := parseJSONRequest(r, &req)
		return req, err
	}

	if err := r.ParseMultipartForm(s.multipartMemory()); err != nil {
		return req, fmt.Errorf("failed to parse multipart form: %w", err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req.Intent = r.FormValue("intent")
	req.Email = r.FormValue("email")
	req.ResumeText = r.FormValue("resume_text")

	var err error
	if req.MinScore, err = optionalInt(r.FormValue("min_score"), "min_score"); err != nil {
		return req, err
	}
	if req.MaxResults, err = optionalInt(r.FormValue("max_results"), "max_results"); err != nil {
		return req, err
	}

	file, header, err := r.FormFile(resumeField)
	switch {
	case err == http.ErrMissingFile:
		return req, nil
	case err != nil:
		return req, fmt.Errorf("failed to read resume upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	text, err := s.Extractor.Document(header.Filename, file, header.Size)
	if err != nil {
		s.Logger.LogError(err, "Could not read uploaded resume, continuing without it",
			"filename", header.Filename,
			"size", header.Size)
		trace.SpanFromContext(ctx).RecordError(err)
		return req, nil
	}
	req.ResumeText = text
	return req, nil
}

func (s *Server) multipartMemory() int64 {
	if s.MaxRequestSize > 0 {
		return s.MaxRequestSize
	}
	return 32 << 20
}

// criteria applies request overrides on top of the configured selection
func (s *Server) criteria(req SearchRequest) *ranking.Criteria {
	if req.MinScore == nil && req.MaxResults == nil {
		return nil
	}
	c := ranking.CriteriaFromConfig(s.AppConfig)
	if req.MinScore != nil {
		c.MinScore = *req.MinScore
	}
	if req.MaxResults != nil {
		c.MaxCount = *req.MaxResults
	}
	return &c
}

func optionalInt(value, field string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", field)
	}
	return &n, nil
}

// reportStatus maps a run outcome to an HTTP status. Only a failed plan is
// an error; every other terminal state is a normal answer.
func reportStatus(report types.SearchReport) int {
	if report.Status != types.StatusPlanningFailed {
		return http.StatusOK
	}
	if errors.IsType(report.Err, errors.ErrorTypeValidation) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}
