// Package server exposes the aggregator over a small JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/TaiwoAjibola/aggregator/internal/config"
	"github.com/TaiwoAjibola/aggregator/internal/store"
	"github.com/TaiwoAjibola/aggregator/pkg/cluster"
	"github.com/TaiwoAjibola/aggregator/pkg/detect"
	"github.com/TaiwoAjibola/aggregator/pkg/ingest"
	"github.com/TaiwoAjibola/aggregator/pkg/summary"
)

// Server provides the HTTP API.
type Server struct {
	store     store.Store
	ingester  *ingest.Ingester
	feeds     []config.FeedConfig
	engine    *cluster.Engine
	grouping  cluster.Options
	analyzer  *detect.Analyzer
	limit     int
	generator *summary.Generator
	port      int
}

// New creates a new HTTP server.
func New(
	s store.Store,
	ingester *ingest.Ingester,
	feeds []config.FeedConfig,
	engine *cluster.Engine,
	grouping cluster.Options,
	analyzer *detect.Analyzer,
	limit int,
	generator *summary.Generator,
	port int,
) *Server {
	if port == 0 {
		port = 8080
	}
	if limit <= 0 {
		limit = 20
	}
	return &Server{
		store:     s,
		ingester:  ingester,
		feeds:     feeds,
		engine:    engine,
		grouping:  grouping,
		analyzer:  analyzer,
		limit:     limit,
		generator: generator,
		port:      port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/events/{id}", s.handleEvent)
	mux.HandleFunc("/api/v1/events/{id}/generate", s.handleGenerate)
	mux.HandleFunc("/api/v1/items", s.handleItems)
	mux.HandleFunc("/api/v1/sources", s.handleSources)
	mux.HandleFunc("/api/v1/ingest", s.handleIngest)
	mux.HandleFunc("/api/v1/group", s.handleGroup)
	mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("aggregator server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := s.store.ListRecentEvents(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if r.URL.Query().Get("breaking") == "1" {
		var breaking []store.Event
		for _, ev := range events {
			if ev.IsBreaking {
				breaking = append(breaking, ev)
			}
		}
		events = breaking
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  events,
		"count": len(events),
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	detail, err := s.store.GetEventWithItems(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": detail})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	if s.generator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "summary generation not configured"})
		return
	}

	out, err := s.generator.Generate(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	items, err := s.store.ListRecentItems(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.CountItemsBySource(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	type sourceInfo struct {
		Name  string `json:"name"`
		URL   string `json:"url"`
		Items int    `json:"items"`
	}

	var infos []sourceInfo
	for _, f := range s.feeds {
		infos = append(infos, sourceInfo{
			Name:  f.Name,
			URL:   f.URL,
			Items: counts[f.Name],
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	ctx := r.Context()
	var results []ingest.Result
	var errs []string

	for _, f := range s.feeds {
		res, err := s.ingester.IngestFeed(ctx, f.Name, f.URL)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f.Name, err))
			continue
		}
		results = append(results, res)
	}

	resp := map[string]any{"ingested": results}
	if len(errs) > 0 {
		resp["errors"] = errs
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	res, err := s.engine.Group(r.Context(), s.grouping)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": res})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	res, err := s.analyzer.AnalyzeRecent(r.Context(), s.limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": res})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
