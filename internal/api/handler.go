// Package api exposes the benchmark service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/claim-bench/internal/bench"
	"github.com/lueurxax/claim-bench/internal/core/domain"
	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
	"github.com/lueurxax/claim-bench/internal/dataset"
)

const (
	// DefaultUploadMaxBytes bounds dataset uploads when the config leaves it unset.
	DefaultUploadMaxBytes = 32 << 20
	maxBodyBytes          = 1 << 20
	multipartMemory       = 8 << 20

	routeSubmit   = "submit"
	routeList     = "list"
	routeGet      = "get"
	routeResults  = "results"
	routeCurves   = "curves"
	routeCompare  = "compare"
	routeClassify = "classify"

	fieldFile            = "file"
	fieldUseExternalInfo = "use_external_info"
	fieldPromptVariant   = "prompt_variant"
	fieldOutputType      = "output_type"
	fieldIterations      = "iterations"
	fieldRetrievalPolicy = "retrieval_policy"

	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json; charset=utf-8"

	logFieldRoute = "route"
)

var (
	errMissingFile = errors.New("multipart field \"file\" is required")
	errMissingIDs  = errors.New("ids query parameter is required")
)

// BenchmarkService is the part of bench.Service the API drives.
type BenchmarkService interface {
	NewParams(req bench.ParamsRequest) (domain.JobParams, error)
	Submit(ctx context.Context, rows []domain.ClaimRow, params domain.JobParams) (string, error)
	GetJob(ctx context.Context, jobID string) (*domain.BenchmarkJob, error)
	ListJobs(ctx context.Context, limit int) ([]domain.BenchmarkJob, error)
	GetSummary(ctx context.Context, jobID string) (*domain.Summary, error)
	GetRawResults(ctx context.Context, jobID string) ([]domain.RowResult, error)
	ComputeCurves(ctx context.Context, jobID string, opts bench.CurveOptions) (*domain.Curves, error)
	CompareCurves(ctx context.Context, jobIDs []string, opts bench.CurveOptions) ([]domain.Curves, error)
	ClassifyClaim(ctx context.Context, statement string, params domain.JobParams) (*bench.ClaimClassification, error)
}

// Config holds the HTTP-level limits of the API.
type Config struct {
	AuthToken      string
	UploadMaxBytes int64
}

// Handler serves the /api/ routes.
type Handler struct {
	service        BenchmarkService
	authToken      string
	uploadMaxBytes int64
	mux            *http.ServeMux
	logger         *zerolog.Logger
}

// JobView is a job merged with its summary once one exists.
type JobView struct {
	domain.BenchmarkJob
	Summary *domain.Summary `json:"summary,omitempty"`
}

// ClassifyRequest is the body of POST /api/classify.
type ClassifyRequest struct {
	Post            string `json:"post"`
	UseExternalInfo *bool  `json:"use_external_info"`
	PromptVariant   string `json:"prompt_variant"`
	OutputType      string `json:"output_type"`
	Iterations      int    `json:"iterations"`
}

type submitResponse struct {
	JobID  string           `json:"job_id"`
	Status domain.JobStatus `json:"status"`
	Rows   int              `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler creates the API handler.
func NewHandler(service BenchmarkService, cfg Config, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = DefaultUploadMaxBytes
	}

	h := &Handler{
		service:        service,
		authToken:      cfg.AuthToken,
		uploadMaxBytes: cfg.UploadMaxBytes,
		mux:            http.NewServeMux(),
		logger:         logger,
	}

	h.handle("POST /api/benchmarks", routeSubmit, h.handleSubmit)
	h.handle("GET /api/benchmarks", routeList, h.handleList)
	h.handle("GET /api/benchmarks/{id}", routeGet, h.handleGet)
	h.handle("GET /api/benchmarks/{id}/results", routeResults, h.handleResults)
	h.handle("GET /api/benchmarks/{id}/curves", routeCurves, h.handleCurves)
	h.handle("GET /api/curves/compare", routeCompare, h.handleCompare)
	h.handle("POST /api/classify", routeClassify, h.handleClassify)

	return h
}

// ServeHTTP routes requests to the API endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handle(pattern, route string, fn func(http.ResponseWriter, *http.Request) int) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var status int
		if err := h.authorize(r); err != nil {
			status = h.writeError(w, route, err)
		} else {
			status = fn(w, r)
		}

		latencyHistogram.WithLabelValues(route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) int {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return h.writeError(w, routeSubmit, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err))
	}

	req, err := paramsFromForm(r)
	if err != nil {
		return h.writeError(w, routeSubmit, err)
	}

	params, err := h.service.NewParams(req)
	if err != nil {
		return h.writeError(w, routeSubmit, err)
	}

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		return h.writeError(w, routeSubmit, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, errMissingFile))
	}
	defer file.Close()

	rows, err := dataset.Read(file, dataset.FormatFromName(header.Filename))
	if err != nil {
		return h.writeError(w, routeSubmit, err)
	}

	jobID, err := h.service.Submit(r.Context(), rows, params)
	if err != nil {
		return h.writeError(w, routeSubmit, err)
	}

	h.logger.Info().
		Str("job_id", jobID).
		Int("rows", len(rows)).
		Str("file", header.Filename).
		Msg("benchmark submitted")

	return h.writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID, Status: domain.JobPending, Rows: len(rows)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) int {
	jobs, err := h.service.ListJobs(r.Context(), parseLimit(r))
	if err != nil {
		return h.writeError(w, routeList, err)
	}

	return h.writeJSON(w, http.StatusOK, jobs)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) int {
	jobID := r.PathValue("id")

	job, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		return h.writeError(w, routeGet, err)
	}

	view := JobView{BenchmarkJob: *job}

	if job.Status == domain.JobDone {
		summary, err := h.service.GetSummary(r.Context(), jobID)

		switch {
		case err == nil:
			view.Summary = summary
		case !errors.Is(err, apperrors.ErrNotFound):
			return h.writeError(w, routeGet, err)
		}
	}

	return h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) int {
	results, err := h.service.GetRawResults(r.Context(), r.PathValue("id"))
	if err != nil {
		return h.writeError(w, routeResults, err)
	}

	return h.writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleCurves(w http.ResponseWriter, r *http.Request) int {
	curves, err := h.service.ComputeCurves(r.Context(), r.PathValue("id"), curveOptions(r))
	if err != nil {
		return h.writeError(w, routeCurves, err)
	}

	return h.writeJSON(w, http.StatusOK, curves)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) int {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		return h.writeError(w, routeCompare, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, errMissingIDs))
	}

	curves, err := h.service.CompareCurves(r.Context(), ids, curveOptions(r))
	if err != nil {
		return h.writeError(w, routeCompare, err)
	}

	return h.writeJSON(w, http.StatusOK, curves)
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) int {
	var body ClassifyRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return h.writeError(w, routeClassify, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err))
	}

	req := bench.ParamsRequest{
		UseExternalInfo: true,
		PromptVariant:   body.PromptVariant,
		OutputType:      body.OutputType,
		Iterations:      body.Iterations,
	}

	if body.UseExternalInfo != nil {
		req.UseExternalInfo = *body.UseExternalInfo
	}

	if req.OutputType == "" {
		req.OutputType = string(domain.OutputScore)
	}

	if req.Iterations == 0 {
		req.Iterations = 1
	}

	params, err := h.service.NewParams(req)
	if err != nil {
		return h.writeError(w, routeClassify, err)
	}

	result, err := h.service.ClassifyClaim(r.Context(), body.Post, params)
	if err != nil {
		return h.writeError(w, routeClassify, err)
	}

	return h.writeJSON(w, http.StatusOK, result)
}

func paramsFromForm(r *http.Request) (bench.ParamsRequest, error) {
	req := bench.ParamsRequest{
		UseExternalInfo: true,
		PromptVariant:   r.FormValue(fieldPromptVariant),
		OutputType:      r.FormValue(fieldOutputType),
		RetrievalPolicy: r.FormValue(fieldRetrievalPolicy),
		Iterations:      1,
	}

	if raw := strings.TrimSpace(r.FormValue(fieldUseExternalInfo)); raw != "" {
		req.UseExternalInfo = parseBool(raw)
	}

	if raw := strings.TrimSpace(r.FormValue(fieldIterations)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: iterations %q is not an integer", apperrors.ErrInvalidInput, raw)
		}

		req.Iterations = n
	}

	return req, nil
}

func curveOptions(r *http.Request) bench.CurveOptions {
	return bench.CurveOptions{FirstScoreOnly: parseBool(r.URL.Query().Get("first_score_only"))}
}

func splitIDs(raw string) []string {
	var ids []string

	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

func parseLimit(r *http.Request) int {
	val := strings.TrimSpace(r.URL.Query().Get("limit"))
	if val == "" {
		return 0
	}

	num, err := strconv.Atoi(val)
	if err != nil || num <= 0 {
		return 0
	}

	return num
}

func parseBool(val string) bool {
	val = strings.ToLower(strings.TrimSpace(val))
	return val == "true" || val == "1" || val == "yes" || val == "on"
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrInvalidInput), errors.Is(err, apperrors.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrExtraction), errors.Is(err, apperrors.ErrRetrieval),
		errors.Is(err, apperrors.ErrCall), errors.Is(err, apperrors.ErrCircuitBreakerOpen):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) int {
	w.Header().Set(contentTypeHeader, contentTypeJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("write json failed")
	}

	return status
}

func (h *Handler) writeError(w http.ResponseWriter, route string, err error) int {
	status := statusFor(err)

	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}

	event.Str(logFieldRoute, route).Int("status", status).Err(err).Msg("api request failed")

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	return h.writeJSON(w, status, errorResponse{Error: err.Error()})
}
