package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/platform/metrics"
	"neurowatch/internal/platform/middleware"
	"neurowatch/pkg/domain"
	dErrors "neurowatch/pkg/domain-errors"
	"neurowatch/pkg/platform/httputil"
	"neurowatch/pkg/requestcontext"
)

const defaultQueueLimit = 10

// Service defines the queue operations the handler exposes.
type Service interface {
	Recent(ctx context.Context, limit int) ([]activelearning.Query, error)
	Depth(ctx context.Context) (int, error)
	Resolve(ctx context.Context, subjectID domain.SubjectID, res activelearning.Resolution) ([]activelearning.Query, error)
}

// Handler exposes the expert review queue over HTTP.
type Handler struct {
	logger  *slog.Logger
	queue   Service
	metrics *metrics.Metrics
}

func New(queue Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		queue:   queue,
		metrics: metrics,
	}
}

// Register mounts the queue routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	queueRouter := chi.NewRouter()
	queueRouter.Use(middleware.Recovery(h.logger))
	queueRouter.Use(middleware.RequestID)
	queueRouter.Use(middleware.Logger(h.logger))
	queueRouter.Use(middleware.Timeout(15 * time.Second))
	queueRouter.Use(middleware.ContentTypeJSON)
	queueRouter.Use(middleware.Latency(h.metrics))
	queueRouter.Get("/", h.handleList)
	queueRouter.Post("/{subjectID}/resolve", h.handleResolve)

	r.Mount("/review-queue", queueRouter)
}

type listResponse struct {
	Depth   int                    `json:"queue_depth"`
	Queries []activelearning.Query `json:"queries"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit := defaultQueueLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	queries, err := h.queue.Recent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list review queue",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list review queue"))
		return
	}
	depth, err := h.queue.Depth(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read queue depth",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read queue depth"))
		return
	}
	if queries == nil {
		queries = []activelearning.Query{}
	}

	httputil.WriteJSON(w, http.StatusOK, listResponse{Depth: depth, Queries: queries})
}

type resolveRequest struct {
	Label      *int     `json:"label"`
	Confidence *float64 `json:"confidence"`
}

func (r resolveRequest) Validate() error {
	if r.Label == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "label is required")
	}
	if r.Confidence == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "confidence is required")
	}
	return activelearning.Resolution{Label: *r.Label, Confidence: *r.Confidence}.Validate()
}

type resolveResponse struct {
	SubjectID string                 `json:"subject_id"`
	Resolved  []activelearning.Query `json:"resolved_queries"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	subjectID, err := domain.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[resolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res := activelearning.Resolution{Label: *req.Label, Confidence: *req.Confidence}
	removed, err := h.queue.Resolve(ctx, subjectID, res)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to resolve review queries",
			"request_id", requestID, "subject_id", subjectID, "error", err.Error())
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve review queries"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resolveResponse{
		SubjectID: string(subjectID),
		Resolved:  removed,
	})
}
