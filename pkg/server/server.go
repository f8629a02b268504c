package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/pkg/explore"
	"github.com/yihengz/trendscope/pkg/recommend"
	"github.com/yihengz/trendscope/pkg/trend"
)

// Server provides the HTTP API.
type Server struct {
	store  store.Store
	sync   *trend.Synchronizer
	runner *explore.Runner
	recs   *recommend.Service
	port   int
}

// New creates a new HTTP server.
func New(s store.Store, sync *trend.Synchronizer, runner *explore.Runner, recs *recommend.Service, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:  s,
		sync:   sync,
		runner: runner,
		recs:   recs,
		port:   port,
	}
}

// Handler returns the API routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/keywords", s.handleListKeywords)
	mux.HandleFunc("POST /api/v1/keywords", s.handleCreateKeyword)
	mux.HandleFunc("POST /api/v1/sync", s.handleSync)
	mux.HandleFunc("GET /api/v1/heatmap", s.handleHeatmap)
	mux.HandleFunc("POST /api/v1/explore", s.handleExplore)
	mux.HandleFunc("GET /api/v1/explore/quick", s.handleExploreQuick)
	mux.HandleFunc("GET /api/v1/recommendations", s.handleListRecommendations)
	mux.HandleFunc("POST /api/v1/recommendations/{id}/accept", s.handleRecommendationStatus)
	mux.HandleFunc("POST /api/v1/recommendations/{id}/dismiss", s.handleRecommendationStatus)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("trendscope server listening on %s\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	kws, err := s.store.ListKeywords(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  kws,
		"count": len(kws),
	})
}

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		Keyword     string `json:"keyword"`
		DisplayName string `json:"display_name"`
		Color       string `json:"color"`
		Priority    int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	req.Keyword = strings.TrimSpace(req.Keyword)
	if len(req.Keyword) < 2 || len(req.Keyword) > 50 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword must be 2-50 characters"})
		return
	}

	kw := &store.TrackedKeyword{
		UserID:      req.UserID,
		Keyword:     req.Keyword,
		DisplayName: req.DisplayName,
		Color:       req.Color,
		Priority:    req.Priority,
	}
	if err := s.store.CreateKeyword(r.Context(), kw); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, kw)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string  `json:"user_id"`
		KeywordIDs []int64 `json:"keyword_ids"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	}

	summary, err := s.sync.Sync(r.Context(), req.UserID, req.KeywordIDs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "days must be 1-365"})
			return
		}
		days = n
	}

	metric := r.URL.Query().Get("metric")
	switch metric {
	case "", "trend", "virality", "growth":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "metric must be trend, virality or growth"})
		return
	}

	hm, err := trend.LoadHeatmap(r.Context(), s.store, r.URL.Query().Get("user_id"), days)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metric":  metric,
		"heatmap": hm,
	})
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req explore.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	req.UserID = r.URL.Query().Get("user_id")
	if req.MaxResults <= 0 {
		req.MaxResults = explore.MaxResultsFull
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExploreQuick(w http.ResponseWriter, r *http.Request) {
	req := explore.Request{
		Seed:         r.URL.Query().Get("seed"),
		Depth:        1,
		Strategy:     explore.StrategyBalanced,
		ExcludeKnown: true,
		MaxResults:   explore.MaxResultsQuick,
		UserID:       r.URL.Query().Get("user_id"),
	}

	result, err := s.runner.Run(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	opts := store.RecommendationListOpts{
		Type:   r.URL.Query().Get("type"),
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("keyword_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid keyword_id"})
			return
		}
		opts.KeywordID = id
	}

	recs, err := s.recs.List(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  recs,
		"count": len(recs),
	})
}

func (s *Server) handleRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var err error
	if strings.HasSuffix(r.URL.Path, "/accept") {
		err = s.recs.Accept(r.Context(), id)
	} else {
		err = s.recs.Dismiss(r.Context(), id)
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrTerminalStatus):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		rec, getErr := s.store.GetRecommendation(r.Context(), id)
		if getErr != nil {
			writeJSON(w, http.StatusOK, map[string]string{"id": id})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
