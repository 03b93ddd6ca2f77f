package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/dodopayments/payments-engine/internal/service"
)

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid API key", "UNAUTHORIZED")
		return
	}

	var req service.CreateWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "BAD_REQUEST")
		return
	}

	webhook, err := s.webhooks.Register(r.Context(), principal.AccountID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, webhook)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid API key", "UNAUTHORIZED")
		return
	}

	webhooks, err := s.webhooks.List(r.Context(), principal.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}
	if webhooks == nil {
		webhooks = []service.WebhookResponse{}
	}
	respondJSON(w, http.StatusOK, webhooks)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid webhook id", "BAD_REQUEST")
		return
	}

	if err := s.webhooks.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
