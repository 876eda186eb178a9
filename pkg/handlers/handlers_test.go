package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/settlement"
	"github.com/chris/store-credit-checkout/pkg/settlement/mocks"
	"github.com/chris/store-credit-checkout/pkg/storage/memory"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T, settler settlement.Settler) http.Handler {
	t.Helper()
	sealer, err := locktoken.NewSealer("test-secret", 0)
	require.NoError(t, err)

	router := chi.NewRouter()
	api.HandlerFromMux(NewApiHandler(settler, ledger.New(memory.New(), sealer), "USD"), router)
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestCreditLifecycleThroughRouter(t *testing.T) {
	router := newRouter(t, mocks.NewSettler(t))

	rr := do(t, router, http.MethodPost, "/credits", `{"code":"GIFT-2000","type":"MONEY","amount":2000,"currency":"USD"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, router, http.MethodGet, "/credits/GIFT-2000", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var credit api.Credit
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &credit))
	assert.Equal(t, int64(2000), credit.Balance.Amount)

	rr = do(t, router, http.MethodPost, "/credits/GIFT-2000/validate", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var v api.CreditValidation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	assert.NotEmpty(t, v.Lock.Enc)
	assert.NotEmpty(t, v.Lock.Iv)
	assert.NotEmpty(t, v.Lock.Auth)

	rr = do(t, router, http.MethodGet, "/credits/GIFT-2000/activity?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(t, router, http.MethodPost, "/credits", `{"code":"GIFT-2000","type":"MONEY","amount":2000,"currency":"USD"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodGet, "/credits/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInvalidQueryParameter(t *testing.T) {
	router := newRouter(t, mocks.NewSettler(t))

	rr := do(t, router, http.MethodGet, "/credits/GIFT-2000/activity?limit=many", "")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid format for parameter limit")
}

func TestCheckoutRoute(t *testing.T) {
	settler := mocks.NewSettler(t)
	settler.On("Settle", mock.Anything, mock.Anything).Return(settlement.Result{Kind: settlement.Paid, ReferenceID: "01JREF", Paid: true}).Once()
	router := newRouter(t, settler)

	rr := do(t, router, http.MethodPost, "/orders/checkout", `{"totalAmount":100,"card":{"nonce":"n"}}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"paid":true,"referenceId":"01JREF"}`, rr.Body.String())
}
