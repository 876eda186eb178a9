package credits

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/mapping"
)

const (
	defaultActivityLimit = int32(20)
	maxActivityLimit     = int32(100)
)

// CreditsHandler holds the dependencies for store-credit handlers.
type CreditsHandler struct {
	Ledger ledger.CreditLedger
}

// NewCreditsHandler creates a new CreditsHandler.
func NewCreditsHandler(l ledger.CreditLedger) *CreditsHandler {
	return &CreditsHandler{Ledger: l}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// IssueCredit creates a new store credit.
func (h *CreditsHandler) IssueCredit(w http.ResponseWriter, r *http.Request) {
	var newCredit api.NewCredit
	if err := json.NewDecoder(r.Body).Decode(&newCredit); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	entry, err := h.Ledger.Issue(r.Context(), mapping.ToDomainIssueRequest(&newCredit))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrCodeExists):
			http.Error(w, "Store credit code already exists", http.StatusConflict)
		case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidCredit):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, fmt.Sprintf("Failed to issue store credit: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, mapping.ToApiCredit(entry))
}

// GetCredit returns a store credit by code.
func (h *CreditsHandler) GetCredit(w http.ResponseWriter, r *http.Request, code api.Code) {
	entry, err := h.Ledger.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "Store credit not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve store credit: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiCredit(entry))
}

// ValidateCredit reports the spendable balance and a lock token binding it.
func (h *CreditsHandler) ValidateCredit(w http.ResponseWriter, r *http.Request, code api.Code) {
	v, err := h.Ledger.ValidateAndLock(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			http.Error(w, "Store credit not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrNoBalance):
			http.Error(w, "Store credit has no balance", http.StatusUnprocessableEntity)
		default:
			http.Error(w, fmt.Sprintf("Failed to validate store credit: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiCreditValidation(v))
}

// ListCreditActivity lists the debits and refunds of a credit, newest first.
func (h *CreditsHandler) ListCreditActivity(w http.ResponseWriter, r *http.Request, code api.Code, params api.ListCreditActivityParams) {
	limit := defaultActivityLimit
	if params.Limit != nil {
		limit = min(max(*params.Limit, 1), maxActivityLimit)
	}

	rows, err := h.Ledger.Activity(r.Context(), code, limit)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			http.Error(w, "Store credit not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve store credit activity: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiRows := make([]*api.CreditActivity, len(rows))
	for i, row := range rows {
		apiRows[i] = mapping.ToApiCreditActivity(&row)
	}

	writeJSON(w, http.StatusOK, apiRows)
}
