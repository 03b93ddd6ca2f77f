// Package api exposes the payments engine over HTTP: routing, request
// decoding, auth and rate-limit middleware, and the error-to-status
// translation.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dodopayments/payments-engine/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Pinger reports storage reachability for the health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server routes HTTP requests to the service layer.
type Server struct {
	accounts     *service.AccountService
	transactions *service.TransactionService
	webhooks     *service.WebhookService
	auth         *service.AuthService
	limiter      *RateLimiter
	pinger       Pinger
	log          *zap.Logger

	router *mux.Router
}

// NewServer builds the router. Request flow: rate limit, then auth
// (on protected routes), then the handler.
func NewServer(
	accounts *service.AccountService,
	transactions *service.TransactionService,
	webhooks *service.WebhookService,
	auth *service.AuthService,
	limiter *RateLimiter,
	pinger Pinger,
	log *zap.Logger,
) *Server {
	s := &Server{
		accounts:     accounts,
		transactions: transactions,
		webhooks:     webhooks,
		auth:         auth,
		limiter:      limiter,
		pinger:       pinger,
		log:          log,
	}

	root := mux.NewRouter()
	root.Handle("/metrics", promhttp.Handler())

	app := root.PathPrefix("/").Subrouter()
	app.Use(metricsMiddleware)
	app.Use(s.limiter.Middleware)

	app.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	app.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)

	protected := app.PathPrefix("/").Subrouter()
	protected.Use(authMiddleware(s.auth))
	protected.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	protected.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	protected.HandleFunc("/transactions/deposit", s.handleDeposit).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/transfer", s.handleTransfer).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/history", s.handleHistory).Methods(http.MethodGet)
	protected.HandleFunc("/webhooks", s.handleCreateWebhook).Methods(http.MethodPost)
	protected.HandleFunc("/webhooks", s.handleListWebhooks).Methods(http.MethodGet)
	protected.HandleFunc("/webhooks/{id}", s.handleDeleteWebhook).Methods(http.MethodDelete)

	s.router = root
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pinger.Ping(r.Context()); err != nil {
		s.log.Error("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Version: Version})
		return
	}
	respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: Version})
}
