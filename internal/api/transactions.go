package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/dodopayments/payments-engine/internal/service"
)

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req service.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "BAD_REQUEST")
		return
	}

	tx, err := s.transactions.Deposit(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req service.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "BAD_REQUEST")
		return
	}

	tx, err := s.transactions.Withdraw(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req service.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Malformed JSON body", "BAD_REQUEST")
		return
	}

	tx, err := s.transactions.Transfer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	accountID, err := uuid.Parse(query.Get("account_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid or missing account_id", "BAD_REQUEST")
		return
	}

	limit := queryInt(query.Get("limit"), 0)
	offset := queryInt(query.Get("offset"), 0)

	history, err := s.transactions.GetHistory(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []service.TransactionResponse{}
	}
	respondJSON(w, http.StatusOK, history)
}

func queryInt(raw string, fallback int64) int64 {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
