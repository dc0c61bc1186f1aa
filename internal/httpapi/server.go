// Package httpapi exposes the map feature over HTTP. It is a view like any
// other: requests become wishes, responses are built from state snapshots
// and news.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/fieldmap/internal/app"
	"github.com/roach88/fieldmap/internal/mapfeature"
	"github.com/roach88/fieldmap/internal/mapper"
	"github.com/roach88/fieldmap/internal/mvi"
	"github.com/roach88/fieldmap/internal/point"
	"github.com/roach88/fieldmap/internal/view"
)

// DefaultResultsTimeout bounds how long GET /results waits for the feature.
const DefaultResultsTimeout = 5 * time.Second

// Server serves one feature.
type Server struct {
	feature        *mapfeature.Feature
	ids            point.IDGenerator
	gatherer       prometheus.Gatherer
	resultsTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithIDGenerator sets how ids are assigned to posted points that lack one.
func WithIDGenerator(gen point.IDGenerator) Option {
	return func(s *Server) {
		s.ids = gen
	}
}

// WithGatherer serves metrics from g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithResultsTimeout bounds GET /results.
func WithResultsTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.resultsTimeout = d
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for f.
func NewServer(f *mapfeature.Feature, opts ...Option) *Server {
	s := &Server{
		feature:        f,
		ids:            point.UUIDv7Generator{},
		resultsTimeout: DefaultResultsTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the routes:
//
//	GET  /state     current points and version
//	GET  /states    server-sent stream of point lists
//	POST /points    mark a new object
//	GET  /results   ask the feature for results and wait for them
//	GET  /share     the share-by-email message
//	GET  /healthz   feature lifecycle
//	GET  /metrics   Prometheus metrics, when a gatherer is configured
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/state", s.getState)
	r.Get("/states", s.streamStates)
	r.Post("/points", s.postPoint)
	r.Get("/results", s.getResults)
	r.Get("/share", s.getShare)
	r.Get("/healthz", s.getHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	Version int64            `json:"version"`
	Loaded  bool             `json:"loaded"`
	Points  []point.MapPoint `json:"points"`
}

// PointRequest is the body of POST /points. ID is optional.
type PointRequest struct {
	ID       string         `json:"id,omitempty"`
	Type     point.Type     `json:"type"`
	Location point.Location `json:"location"`
}

// PointResponse is the body of a successful POST /points.
type PointResponse struct {
	ID string `json:"id"`
}

// ResultsResponse is the body of GET /results.
type ResultsResponse struct {
	Count  int              `json:"count"`
	Points []point.MapPoint `json:"points"`
}

// ShareResponse is the body of GET /share.
type ShareResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Mailto  string `json:"mailto"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	state := s.feature.State()
	model, _ := mapper.StateToModel(state)
	s.writeJSON(w, http.StatusOK, StateResponse{
		Version: s.feature.Version(),
		Loaded:  state.Points != nil,
		Points:  model.Points,
	})
}

func (s *Server) streamStates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	sub := s.feature.States()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case state, ok := <-sub.C():
			if !ok {
				return
			}
			model, _ := mapper.StateToModel(state)
			data, err := json.Marshal(model.Points)
			if err != nil {
				s.logger.Error("encode state failed", "error", err)
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *Server) postPoint(w http.ResponseWriter, r *http.Request) {
	if s.feature.Lifecycle() == mvi.Disposed {
		s.writeError(w, http.StatusServiceUnavailable, mvi.ErrDisposed)
		return
	}

	var req PointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("invalid point request", "error", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	p := point.MapPoint{ID: req.ID, Type: req.Type, Location: req.Location}
	if p.ID == "" {
		p.ID = s.ids.Generate()
	}
	if err := p.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	wish, _ := mapper.UIEventToWish(view.MapPointCreated{Point: p})
	s.feature.Accept(wish)

	s.logger.Debug("point accepted", "id", p.ID, "type", p.Type.String())
	s.writeJSON(w, http.StatusAccepted, PointResponse{ID: p.ID})
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	if s.feature.Lifecycle() == mvi.Disposed {
		s.writeError(w, http.StatusServiceUnavailable, mvi.ErrDisposed)
		return
	}

	// Subscribe before asking so the one-shot news cannot be missed.
	news := s.feature.News()
	defer news.Close()

	wish, _ := mapper.UIEventToWish(view.ShowResultsClicked{})
	s.feature.Accept(wish)

	timeout := time.NewTimer(s.resultsTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-timeout.C:
			s.writeError(w, http.StatusGatewayTimeout, errors.New("timed out waiting for results"))
			return
		case n, ok := <-news.C():
			if !ok {
				s.writeError(w, http.StatusServiceUnavailable, mvi.ErrDisposed)
				return
			}
			action, _ := mapper.NewsToAction(n)
			if results, ok := action.(view.ShowResults); ok {
				model, _ := mapper.StateToModel(mapfeature.State{Points: results.Points})
				s.writeJSON(w, http.StatusOK, ResultsResponse{Count: len(model.Points), Points: model.Points})
				return
			}
		}
	}
}

func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	var resp ShareResponse
	ok := app.Share(s.feature.State().Points, func(subject, body, mailto string) {
		resp = ShareResponse{Subject: subject, Body: body, Mailto: mailto}
	})
	if !ok {
		s.writeError(w, http.StatusConflict, errors.New("no points loaded yet"))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	lc := s.feature.Lifecycle()
	status := http.StatusOK
	if lc != mvi.Active {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]string{"lifecycle": lc.String()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
