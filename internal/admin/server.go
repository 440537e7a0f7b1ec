// Package admin serves rendered charts, the editor draft and a live
// optimizer progress feed over HTTP.
package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"bodash/internal/chart"
	"bodash/internal/dashboard"
	"bodash/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dashboard is the controller view the server reads from.
type Dashboard interface {
	ChartIDs() []string
	WritePNG(id string, w io.Writer) error
	Draft() model.BuildOrder
	Controls() dashboard.Controls
	Progress() (*model.ProgressEvent, []float64)
}

// Server exposes the dashboard over HTTP.
type Server struct {
	Dash Dashboard
	hub  *Hub
	log  *slog.Logger
}

// NewServer returns a server reading from d.
func NewServer(d Dashboard, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Dash: d, hub: NewHub(log), log: log}
}

// Hub returns the progress feed. Subscribe its Publish method to the
// controller to stream events to websocket clients.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /charts", s.handleCharts)
	mux.HandleFunc("GET /charts/{file}", s.handleChartPNG)
	mux.HandleFunc("GET /editor", s.handleEditor)
	mux.HandleFunc("GET /ws/progress", s.handleProgressWS)
	return mux
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.Close()
		srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("admin server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"controls": s.Dash.Controls(),
		"clients":  s.hub.Len(),
	})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ids := s.Dash.ChartIDs()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": ids})
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	id, ok := strings.CutSuffix(file, ".png")
	if !ok || id == "" {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := s.Dash.WritePNG(id, &buf); err != nil {
		if errors.Is(err, chart.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("render chart failed", "chart_id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Dash.Draft())
}
