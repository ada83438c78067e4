package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"neurowatch/internal/activelearning"
	"neurowatch/internal/audit"
	"neurowatch/internal/platform/config"
	"neurowatch/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	svc     *activelearning.Service
	auditor *audit.Publisher
	store   *audit.MemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.DefaultMonitoring()

	s.store = audit.NewMemoryStore()
	s.auditor = audit.NewPublisher(s.store, nil, logger)
	s.svc = activelearning.NewService(activelearning.NewInMemoryStore(), cfg, s.auditor, nil, logger)

	h := New(s.svc, logger, nil)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) enqueue(subjectID domain.SubjectID) {
	query, err := s.svc.Consider(s.T().Context(), subjectID, 0.5, 0.6)
	s.Require().NoError(err)
	s.Require().NotNil(query)
}

func (s *HandlerSuite) TestList() {
	s.enqueue("subject-1")
	s.enqueue("subject-2")

	w := s.do(http.MethodGet, "/review-queue", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(float64(2), resp["queue_depth"])
	s.Len(resp["queries"], 2)
}

func (s *HandlerSuite) TestListBadLimit() {
	w := s.do(http.MethodGet, "/review-queue?limit=zero", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestResolveCarriesLabelIntoAudit() {
	s.enqueue("subject-1")
	s.enqueue("subject-1")

	w := s.do(http.MethodPost, "/review-queue/subject-1/resolve",
		map[string]any{"label": 1, "confidence": 0.85})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("subject-1", resp["subject_id"])
	s.Len(resp["resolved_queries"], 2)

	events, err := s.store.ListRecent(s.T().Context(), 10)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.ActionQueryResolved, events[0].Action)
	s.Equal("2", events[0].Detail["resolved_queries"])
	s.Equal("1", events[0].Detail["label"])
	s.Equal("0.85", events[0].Detail["labeler_confidence"])
}

func (s *HandlerSuite) TestResolveValidation() {
	s.enqueue("subject-1")

	// Missing fields.
	w := s.do(http.MethodPost, "/review-queue/subject-1/resolve", map[string]any{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/review-queue/subject-1/resolve", map[string]any{"label": 1})
	s.Equal(http.StatusBadRequest, w.Code)

	// Out-of-range values.
	w = s.do(http.MethodPost, "/review-queue/subject-1/resolve",
		map[string]any{"label": 3, "confidence": 0.5})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/review-queue/subject-1/resolve",
		map[string]any{"label": 1, "confidence": 1.5})
	s.Equal(http.StatusBadRequest, w.Code)

	// The queue is untouched.
	depth, err := s.svc.Depth(s.T().Context())
	s.Require().NoError(err)
	s.Equal(1, depth)
}

func (s *HandlerSuite) TestResolveUnknownSubject() {
	w := s.do(http.MethodPost, "/review-queue/nobody/resolve",
		map[string]any{"label": 0, "confidence": 0.9})
	s.Require().Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Empty(resp["resolved_queries"])
}
