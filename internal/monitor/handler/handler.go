package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/eventlog"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	"neurowatch/internal/performance"
	"neurowatch/internal/platform/metrics"
	"neurowatch/internal/platform/middleware"
	"neurowatch/internal/report"
	"neurowatch/internal/retrain"
	"neurowatch/internal/snapshot"
	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/httputil"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/requestcontext"
)

const defaultWindowDays = 30

// Service defines the ingest operations the handler exposes.
type Service interface {
	LogPrediction(ctx context.Context, event eventlog.PredictionEvent) (eventlog.PredictionEvent, *activelearning.Query, error)
	AttachLabel(ctx context.Context, eventID domain.EventID, label int) error
	AttachLabelBySubject(ctx context.Context, subjectID domain.SubjectID, label int) (domain.EventID, error)
	Fairness(ctx context.Context, windowDays int) (*fairness.Report, error)
}

// PerformanceSource yields performance metrics for a window.
type PerformanceSource interface {
	Calculate(ctx context.Context, windowDays int) (*performance.Metrics, error)
}

// RetrainSource yields the current retrain recommendation.
type RetrainSource interface {
	Evaluate(ctx context.Context) (retrain.Decision, error)
}

// ReportSource yields the composed monitoring report.
type ReportSource interface {
	Build(ctx context.Context) (*report.Report, error)
}

// Snapshots exports and restores the full monitoring state.
type Snapshots interface {
	Export(ctx context.Context) (*snapshot.Document, error)
	Restore(ctx context.Context, doc *snapshot.Document) error
}

// Handler exposes the monitoring API.
type Handler struct {
	logger    *slog.Logger
	monitor   Service
	perf      PerformanceSource
	retrain   RetrainSource
	report    ReportSource
	versions  modelversion.Store
	snapshots Snapshots
	metrics   *metrics.Metrics
}

func New(
	monitor Service,
	perf PerformanceSource,
	retrainSource RetrainSource,
	reportSource ReportSource,
	versions modelversion.Store,
	snapshots Snapshots,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Handler {
	return &Handler{
		logger:    logger,
		monitor:   monitor,
		perf:      perf,
		retrain:   retrainSource,
		report:    reportSource,
		versions:  versions,
		snapshots: snapshots,
		metrics:   m,
	}
}

// Register mounts the monitoring routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	monitorRouter := chi.NewRouter()
	monitorRouter.Use(middleware.Recovery(h.logger))
	monitorRouter.Use(middleware.RequestID)
	monitorRouter.Use(middleware.Logger(h.logger))
	monitorRouter.Use(middleware.Timeout(30 * time.Second))
	monitorRouter.Use(middleware.ContentTypeJSON)
	monitorRouter.Use(middleware.Latency(h.metrics))

	monitorRouter.Post("/predictions", h.handleLogPrediction)
	monitorRouter.Post("/predictions/{eventID}/label", h.handleAttachLabel)
	monitorRouter.Post("/subjects/{subjectID}/label", h.handleAttachLabelBySubject)
	monitorRouter.Get("/performance", h.handlePerformance)
	monitorRouter.Get("/fairness", h.handleFairness)
	monitorRouter.Get("/retrain/recommendation", h.handleRetrainRecommendation)
	monitorRouter.Get("/report", h.handleReport)
	monitorRouter.Get("/model-versions", h.handleListVersions)
	monitorRouter.Post("/model-versions", h.handleActivateVersion)
	monitorRouter.Get("/snapshot", h.handleExportSnapshot)
	monitorRouter.Post("/snapshot/restore", h.handleRestoreSnapshot)
	monitorRouter.Get("/healthz", h.handleHealth)

	r.Mount("/", monitorRouter)
}

func (h *Handler) handleLogPrediction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[logPredictionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	event, err := req.toEvent()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	logged, query, err := h.monitor.LogPrediction(ctx, event)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to log prediction",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to log prediction"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, logPredictionResponse{
		EventID:   logged.ID.String(),
		Timestamp: logged.Timestamp,
		Queued:    query,
	})
}

func (h *Handler) handleAttachLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[attachLabelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.monitor.AttachLabel(ctx, eventID, *req.Label); err != nil {
		h.writeLabelError(ctx, w, err, requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, attachLabelResponse{
		EventID: eventID.String(),
		Label:   *req.Label,
	})
}

func (h *Handler) handleAttachLabelBySubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[attachLabelRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	eventID, err := h.monitor.AttachLabelBySubject(ctx, subjectID, *req.Label)
	if err != nil {
		h.writeLabelError(ctx, w, err, requestID)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, attachLabelResponse{
		EventID:   eventID.String(),
		SubjectID: string(subjectID),
		Label:     *req.Label,
	})
}

func (h *Handler) writeLabelError(ctx context.Context, w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no matching unlabeled event"))
	case errors.Is(err, sentinel.ErrAlreadyLabeled):
		httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "event is already labeled"))
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		httputil.WriteError(w, err)
	default:
		h.logger.ErrorContext(ctx, "failed to attach label",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to attach label"))
	}
}

func (h *Handler) handlePerformance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	windowDays, err := windowDaysParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.perf.Calculate(ctx, windowDays)
	if err != nil {
		h.writeAnalysisError(ctx, w, err, "failed to calculate performance metrics")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleFairness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	windowDays, err := windowDaysParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.monitor.Fairness(ctx, windowDays)
	if err != nil {
		h.writeAnalysisError(ctx, w, err, "failed to run fairness analysis")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) writeAnalysisError(ctx context.Context, w http.ResponseWriter, err error, internalMsg string) {
	if dErrors.HasCode(err, dErrors.CodeInsufficientData) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		httputil.WriteError(w, err)
		return
	}
	h.logger.ErrorContext(ctx, internalMsg,
		"request_id", requestcontext.RequestID(ctx), "error", err.Error())
	httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, internalMsg))
}

func (h *Handler) handleRetrainRecommendation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decision, err := h.retrain.Evaluate(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to evaluate retrain policy",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to evaluate retrain policy"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.report.Build(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build monitoring report",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to build monitoring report"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.versions.All(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list model versions",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list model versions"))
		return
	}
	if records == nil {
		records = []modelversion.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleActivateVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[activateVersionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record := modelversion.Record{Version: req.Version, ActivatedAt: requestcontext.Now(ctx).UTC()}
	if req.ActivatedAt != nil {
		record.ActivatedAt = req.ActivatedAt.UTC()
	}
	if err := h.versions.Append(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "failed to record model activation",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to record model activation"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, err := h.snapshots.Export(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to export snapshot",
			"request_id", requestcontext.RequestID(ctx), "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to export snapshot"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	doc, ok := httputil.DecodeAndPrepare[snapshot.Document](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.snapshots.Restore(ctx, &doc); err != nil {
		h.logger.ErrorContext(ctx, "failed to restore snapshot",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to restore snapshot"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func windowDaysParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("window_days")
	if raw == "" {
		return defaultWindowDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "window_days must be a positive integer")
	}
	return days, nil
}
