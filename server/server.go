// Package server exposes the HTTP API and the WebSocket progress stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fiolab/fio-fetcher/fetcher"
	"github.com/fiolab/fio-fetcher/matching"
	"github.com/fiolab/fio-fetcher/pkg/logger"
	"github.com/fiolab/fio-fetcher/storage/postgres"
)

type Config struct {
	Host string `env:"HOST, default=0.0.0.0"`
	Port int    `env:"PORT, default=3000"`
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Store is what the API needs from persistence.
type Store interface {
	ListTransactions(ctx context.Context, f postgres.TransactionFilter) ([]fetcher.Transaction, error)
	CountTransactions(ctx context.Context, f postgres.TransactionFilter) (int, error)
	DeleteAllTransactions(ctx context.Context) (int64, error)
	ReplaceMatchingRows(ctx context.Context, rows []matching.Row) error
	ListMatchingRows(ctx context.Context) ([]matching.Row, error)
	DeleteMatchingRows(ctx context.Context) (int64, error)
}

// FetchTrigger accepts run requests; the run itself reports through the
// Broadcaster.
type FetchTrigger interface {
	RequestRun(ctx context.Context) fetcher.Outcome
}

// ConfigInfo is the safe-to-echo slice of the runtime configuration.
type ConfigInfo struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	APIURL            string `json:"fio_api_url"`
	TokenMasked       string `json:"fio_token"`
	LookbackDays      int    `json:"lookback_days"`
	AutoFetchInterval string `json:"auto_fetch_interval"`
}

type Server struct {
	log     *logger.Logger
	store   Store
	trigger FetchTrigger
	bc      *fetcher.Broadcaster
	info    ConfigInfo
}

func New(log *logger.Logger, store Store, trigger FetchTrigger, bc *fetcher.Broadcaster, info ConfigInfo) *Server {
	return &Server{
		log:     log,
		store:   store,
		trigger: trigger,
		bc:      bc,
		info:    info,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fetch", s.handleTriggerFetch)
		r.Get("/ws", s.handleWebSocket)

		r.Get("/transactions", s.handleListTransactions)
		r.Get("/transactions/count", s.handleCountTransactions)
		r.Delete("/transactions", s.handleDeleteTransactions)

		r.Post("/matching-data", s.handleUploadMatchingData)
		r.Get("/matching-data", s.handleListMatchingData)
		r.Get("/matching-data/stats", s.handleMatchingStats)
		r.Delete("/matching-data", s.handleDeleteMatchingData)

		r.Get("/config", s.handleConfig)
		r.Get("/logs", s.handleLogs)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ErrorResponse is the API error envelope.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"lines": s.log.Recent()})
}
