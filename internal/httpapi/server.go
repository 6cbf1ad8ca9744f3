package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/evanmarcey/passage/internal/metrics"
	"github.com/evanmarcey/passage/internal/passage/service"
	"github.com/evanmarcey/passage/internal/passage/store"
	"github.com/evanmarcey/passage/internal/passage/types"
)

type Dependencies struct {
	Logger           *logrus.Logger
	Addr             string
	Engine           *service.Engine
	HeartbeatService *service.HeartbeatService
	Presence         store.ActiveSessionStore

	// Optional extras.
	Gatherer   prometheus.Gatherer // serves /metrics when set
	Collector  *metrics.Collector  // heartbeat counters when set
	TapLimiter *ReaderRateLimiter  // per-reader limit on /v1/tap when set
}

type Server struct {
	httpServer       *http.Server
	logger           *logrus.Logger
	mux              *http.ServeMux
	engine           *service.Engine
	heartbeatService *service.HeartbeatService
	presence         store.ActiveSessionStore
	collector        *metrics.Collector
	tapLimiter       *ReaderRateLimiter
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:           d.Logger,
		mux:              mux,
		engine:           d.Engine,
		heartbeatService: d.HeartbeatService,
		presence:         d.Presence,
		collector:        d.Collector,
		tapLimiter:       d.TapLimiter,
	}

	mux.HandleFunc("POST /v1/tap", s.handleTap)
	mux.HandleFunc("GET /v1/presence", s.handlePresence)
	mux.HandleFunc("POST /v1/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if d.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(d.Gatherer))
	}

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req types.TapRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	if s.tapLimiter != nil && !s.tapLimiter.Allow(req.ReaderID) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many taps from this reader")
		return
	}

	rec, err := s.engine.ProcessTap(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidReaderID):
			writeError(w, http.StatusBadRequest, "invalid_reader_id", err.Error())
		case errors.Is(err, service.ErrInvalidCardID):
			writeError(w, http.StatusBadRequest, "invalid_card_id", err.Error())
		case errors.Is(err, service.ErrUnknownReader):
			writeError(w, http.StatusNotFound, "unknown_reader", err.Error())
		case errors.Is(err, service.ErrTapConflict):
			// Nothing was committed; the reader can safely retry.
			writeError(w, http.StatusConflict, "tap_conflict", err.Error())
		default:
			s.logger.WithError(err).Error("tap failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, tapResponseFromRecord(rec))
}

func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	open, err := s.presence.ListOpen(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("presence query failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, presenceResponse(open))
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req types.HeartbeatRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	resp, err := s.heartbeatService.Record(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReaderID) {
			writeError(w, http.StatusBadRequest, "invalid_reader_id", err.Error())
			return
		}
		s.logger.WithError(err).Error("heartbeat failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	if s.collector != nil {
		s.collector.RecordHeartbeat(resp.Registered)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
