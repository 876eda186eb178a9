package handlers

import (
	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/handlers/checkout"
	"github.com/chris/store-credit-checkout/pkg/handlers/credits"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/settlement"
)

// ApiHandler implements the generated server interface by composing the
// per-resource handlers.
type ApiHandler struct {
	*checkout.CheckoutHandler
	*credits.CreditsHandler
}

// NewApiHandler creates a new ApiHandler.
func NewApiHandler(settler settlement.Settler, l ledger.CreditLedger, currency string) *ApiHandler {
	return &ApiHandler{
		CheckoutHandler: checkout.NewCheckoutHandler(settler, currency),
		CreditsHandler:  credits.NewCreditsHandler(l),
	}
}

// Make sure we conform to the interface
var _ api.ServerInterface = (*ApiHandler)(nil)
