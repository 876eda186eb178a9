package checkout_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/handlers/checkout"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/settlement"
	"github.com/chris/store-credit-checkout/pkg/settlement/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const checkoutBody = `{
	"totalAmount": 2500,
	"credit": {"code": "GIFT-2000", "amount": 1000, "lock": {"enc": "e", "iv": "i", "auth": "a"}},
	"card": {"nonce": "cnon:card-nonce-ok"},
	"customer": {"name": "Ada", "email": "ada@example.com"},
	"fulfillment": {"table": 4}
}`

func post(h *checkout.CheckoutHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/orders/checkout", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.Checkout(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.NotEmpty(t, body.Errors)
	return body
}

func TestCheckout(t *testing.T) {
	t.Run("Paid", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.MatchedBy(func(req settlement.Request) bool {
			return req.TotalAmount == 2500 && req.Currency == "USD" &&
				req.Credit.Code == "GIFT-2000" && req.Credit.Lock.IV == "i" &&
				req.CardNonce == "cnon:card-nonce-ok" && req.Customer.Email == "ada@example.com" &&
				string(req.Fulfillment) == `{"table": 4}`
		})).Return(settlement.Result{
			Kind: settlement.Paid, ReferenceID: "01JREF", Paid: true,
			CreditAmount: 1000, ChargedAmount: 1500, Last4: "4242", ReceiptURL: "https://receipt",
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), checkoutBody)

		assert.Equal(t, http.StatusOK, rr.Code)
		var body api.CheckoutResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.True(t, body.Paid)
		assert.Equal(t, "01JREF", body.ReferenceId)
		assert.Equal(t, int64(1500), *body.ChargedAmount)
		assert.Equal(t, "4242", *body.Last4)
		assert.Equal(t, "https://receipt", *body.ReceiptUrl)
	})

	t.Run("Paid Entirely With Credit", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{
			Kind: settlement.Paid, ReferenceID: "01JREF", Paid: true, CreditAmount: 1800,
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), checkoutBody)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "chargedAmount")
		assert.NotContains(t, rr.Body.String(), "last4")
	})

	t.Run("Credit Debit Failed", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{
			Kind: settlement.CreditDebitFailed, ReferenceID: "01JREF", Err: ledger.ErrBalanceMismatch,
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), checkoutBody)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Unable to debit store credit.", body.Errors[0].Detail)
	})

	t.Run("Declined Passes Processor Payload Through", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{
			Kind:        settlement.Declined,
			ReferenceID: "01JREF",
			Decline:     &settlement.Decline{Reason: "CARD_DECLINED", Detail: json.RawMessage(`{"errors":[{"code":"CARD_DECLINED"}]}`)},
			Err:         errors.New("payment declined: CARD_DECLINED"),
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), checkoutBody)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "CARD_DECLINED", body.Errors[0].Detail)
		assert.JSONEq(t, `{"errors":[{"code":"CARD_DECLINED"}]}`, string(body.Processor))
		assert.Equal(t, "01JREF", *body.ReferenceId)
	})

	t.Run("Invalid Order", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{
			Kind: settlement.Failed, Err: fmt.Errorf("%w: total must be positive", settlement.ErrInvalidOrder),
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), `{"totalAmount": 0}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decodeError(t, rr)
		assert.Contains(t, body.Errors[0].Detail, "total must be positive")
	})

	t.Run("Compensation Failed", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{
			Kind: settlement.Failed, ReferenceID: "01JREF", Err: settlement.ErrCompensationFailed,
		}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), checkoutBody)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Unable to complete the order.", body.Errors[0].Detail)
		assert.NotContains(t, rr.Body.String(), "compensation")
	})

	t.Run("Malformed Body", func(t *testing.T) {
		settler := mocks.NewSettler(t)

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), `{"totalAmount": "lots"`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.True(t, strings.HasPrefix(decodeError(t, rr).Errors[0].Detail, "Invalid request body"))
		settler.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
	})

	t.Run("Explicit Currency Wins", func(t *testing.T) {
		settler := mocks.NewSettler(t)
		settler.On("Settle", mock.Anything, mock.MatchedBy(func(req settlement.Request) bool {
			return req.Currency == "EUR"
		})).Return(settlement.Result{Kind: settlement.Paid, ReferenceID: "01JREF", Paid: true}).Once()

		rr := post(checkout.NewCheckoutHandler(settler, "USD"), `{"totalAmount": 100, "currency": "eur", "card": {"nonce": "n"}}`)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
