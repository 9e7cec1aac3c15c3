package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"securevault/internal/middleware"
	"securevault/internal/money"
)

type depositRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	reference, err := h.ledger.Deposit(r.Context(), user.ID, req.Amount, req.Description)
	if err != nil {
		respondClassified(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"reference": reference})
}

type transferRequest struct {
	Recipient   string `json:"recipient"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	reference, err := h.ledger.Transfer(r.Context(), user.ID, req.Recipient, req.Amount, req.Description)
	if err != nil {
		respondClassified(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"reference": reference})
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	balance, err := h.ledger.Balance(r.Context(), user.ID)
	if err != nil {
		respondClassified(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"balance": money.Format(balance)})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	entries, err := h.ledger.History(r.Context(), user.ID, limit, offset)
	if err != nil {
		respondClassified(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handler) SelfCheck(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	consistent, err := h.ledger.Reconcile(r.Context(), user.ID)
	if err != nil {
		respondClassified(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"consistent": consistent})
}
