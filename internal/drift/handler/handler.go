package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"neurowatch/internal/drift"
	"neurowatch/internal/platform/metrics"
	"neurowatch/internal/platform/middleware"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/httputil"
	"neurowatch/pkg/platform/sentinel"
	"neurowatch/pkg/requestcontext"
)

const defaultHistoryLimit = 20

// Service defines the drift operations the handler exposes.
type Service interface {
	Detect(ctx context.Context, reference, current map[string][]float64) (*drift.Report, error)
	Latest(ctx context.Context) (drift.Summary, error)
	History(ctx context.Context, limit int) ([]drift.Summary, error)
}

// Handler exposes drift detection over HTTP.
type Handler struct {
	logger  *slog.Logger
	drift   Service
	metrics *metrics.Metrics
}

func New(drift Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		drift:   drift,
		metrics: metrics,
	}
}

// Register mounts the drift routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	driftRouter := chi.NewRouter()
	driftRouter.Use(middleware.Recovery(h.logger))
	driftRouter.Use(middleware.RequestID)
	driftRouter.Use(middleware.Logger(h.logger))
	driftRouter.Use(middleware.Timeout(30 * time.Second))
	driftRouter.Use(middleware.ContentTypeJSON)
	driftRouter.Use(middleware.Latency(h.metrics))
	driftRouter.Post("/detect", h.handleDetect)
	driftRouter.Get("/latest", h.handleLatest)
	driftRouter.Get("/history", h.handleHistory)

	r.Mount("/drift", driftRouter)
}

type detectRequest struct {
	Reference map[string][]float64 `json:"reference"`
	Current   map[string][]float64 `json:"current"`
}

func (r *detectRequest) Validate() error {
	if len(r.Reference) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "reference batch is required")
	}
	if len(r.Current) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "current batch is required")
	}
	return nil
}

func (h *Handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[detectRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.drift.Detect(ctx, req.Reference, req.Current)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "drift detection failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "drift detection failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.drift.Latest(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no drift detection has run yet"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load latest drift summary",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load drift summary"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	summaries, err := h.drift.History(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load drift history",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to load drift history"))
		return
	}
	if summaries == nil {
		summaries = []drift.Summary{}
	}

	httputil.WriteJSON(w, http.StatusOK, summaries)
}
