package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/mapping"
	"github.com/chris/store-credit-checkout/pkg/settlement"
)

const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeCreditDebit     = "CREDIT_DEBIT_FAILED"
	codePaymentDeclined = "PAYMENT_DECLINED"
	codeInternal        = "INTERNAL"
)

// CheckoutHandler holds the dependencies for the checkout endpoint.
type CheckoutHandler struct {
	Settler  settlement.Settler
	Currency string
}

// NewCheckoutHandler creates a new CheckoutHandler. currency applies to orders that name none.
func NewCheckoutHandler(settler settlement.Settler, currency string) *CheckoutHandler {
	return &CheckoutHandler{Settler: settler, Currency: currency}
}

// Checkout settles an order and maps the outcome to a response.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req api.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.ErrorResponse{
			Errors: []api.ErrorDetail{detail(codeInvalidRequest, fmt.Sprintf("Invalid request body: %v", err))},
		})
		return
	}

	res := h.Settler.Settle(r.Context(), mapping.ToSettlementRequest(&req, h.Currency))

	switch res.Kind {
	case settlement.Paid:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(mapping.ToApiCheckoutResponse(&res)); err != nil {
			http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
		}

	case settlement.CreditDebitFailed:
		writeError(w, http.StatusNotFound, api.ErrorResponse{
			ReferenceId: &res.ReferenceID,
			Errors:      []api.ErrorDetail{detail(codeCreditDebit, "Unable to debit store credit.")},
		})

	case settlement.Declined:
		body := api.ErrorResponse{
			ReferenceId: &res.ReferenceID,
			Errors:      []api.ErrorDetail{detail(codePaymentDeclined, "Payment was declined.")},
		}
		if res.Decline != nil {
			body.Errors[0].Detail = res.Decline.Reason
			body.Processor = res.Decline.Detail
		}
		writeError(w, http.StatusBadRequest, body)

	default:
		if errors.Is(res.Err, settlement.ErrInvalidOrder) {
			writeError(w, http.StatusBadRequest, api.ErrorResponse{
				Errors: []api.ErrorDetail{detail(codeInvalidRequest, res.Err.Error())},
			})
			return
		}
		slog.Error("checkout failed", "reference_id", res.ReferenceID, "error", res.Err)
		body := api.ErrorResponse{
			Errors: []api.ErrorDetail{detail(codeInternal, "Unable to complete the order.")},
		}
		if res.ReferenceID != "" {
			body.ReferenceId = &res.ReferenceID
		}
		writeError(w, http.StatusInternalServerError, body)
	}
}

func detail(code, msg string) api.ErrorDetail {
	return api.ErrorDetail{Code: &code, Detail: msg}
}

func writeError(w http.ResponseWriter, status int, body api.ErrorResponse) {
	body.Success = false
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}
