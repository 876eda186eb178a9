package square

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chris/store-credit-checkout/pkg/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, AccessToken: "token", LocationID: "LOC1", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := New(Config{LocationID: "LOC1"})
	assert.Error(t, err)

	_, err = New(Config{AccessToken: "token"})
	assert.Error(t, err)

	c, err := New(Config{AccessToken: "token", LocationID: "LOC1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}

func TestCreateOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v2/orders", r.URL.Path)
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			assert.Equal(t, DefaultAPIVersion, r.Header.Get("Square-Version"))

			var body orderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "01JREF-order", body.IdempotencyKey)
			assert.Equal(t, "LOC1", body.Order.LocationID)
			assert.Equal(t, int64(500), body.Order.LineItems[0].BasePriceMoney.Amount)

			w.Write([]byte(`{"order":{"id":"ORD1","version":3,"location_id":"LOC1"}}`))
		})

		order, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{ReferenceID: "01JREF", Amount: 500, Currency: "USD"})

		require.NoError(t, err)
		assert.Equal(t, "ORD1", order.ID)
		assert.Equal(t, int64(3), order.Version)
	})

	t.Run("Rejected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"INVALID_VALUE","detail":"bad currency"}]}`))
		})

		_, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{ReferenceID: "01JREF", Amount: 500, Currency: "XXX"})

		require.ErrorIs(t, err, payments.ErrProcessorDeclined)
		var decline *payments.DeclineError
		require.True(t, errors.As(err, &decline))
		assert.Equal(t, "INVALID_VALUE", decline.Code)
		assert.JSONEq(t, `{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"INVALID_VALUE","detail":"bad currency"}]}`, string(decline.Detail))
	})

	t.Run("Server Error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{ReferenceID: "01JREF", Amount: 500, Currency: "USD"})

		assert.ErrorIs(t, err, payments.ErrProcessorUnavailable)
	})

	t.Run("Timeout", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		})
		c.http.Timeout = 10 * time.Millisecond

		_, err := c.CreateOrder(context.Background(), payments.CreateOrderRequest{ReferenceID: "01JREF", Amount: 500, Currency: "USD"})

		assert.ErrorIs(t, err, payments.ErrProcessorUnavailable)
	})
}

func TestCharge(t *testing.T) {
	req := payments.ChargeRequest{Nonce: "cnon:ok", Amount: 500, Currency: "USD", ReferenceID: "01JREF", OrderID: "ORD1"}

	t.Run("Approved", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/payments", r.URL.Path)
			var body paymentRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "01JREF-payment", body.IdempotencyKey)
			assert.Equal(t, "cnon:ok", body.SourceID)
			assert.Equal(t, "ORD1", body.OrderID)
			assert.True(t, body.Autocomplete)

			w.Write([]byte(`{"payment":{"id":"PAY1","status":"COMPLETED","receipt_url":"https://squareup.com/receipt/PAY1","card_details":{"card":{"last_4":"1111"}}}}`))
		})

		res, err := c.Charge(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, payments.APPROVED, res.Outcome)
		assert.Equal(t, "PAY1", res.PaymentID)
		assert.Equal(t, "1111", res.Last4)
		assert.Equal(t, "https://squareup.com/receipt/PAY1", res.ReceiptURL)
	})

	t.Run("Card Declined", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write([]byte(`{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED","detail":"Card declined."}]}`))
		})

		res, err := c.Charge(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, payments.DECLINED, res.Outcome)
		assert.Equal(t, "CARD_DECLINED", res.DeclineReason)
		assert.Contains(t, string(res.Detail), "Card declined.")
	})

	t.Run("Not Completed", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"payment":{"id":"PAY1","status":"FAILED"}}`))
		})

		res, err := c.Charge(context.Background(), req)

		require.NoError(t, err)
		assert.Equal(t, payments.DECLINED, res.Outcome)
		assert.Equal(t, "FAILED", res.DeclineReason)
	})

	t.Run("Unreachable", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
		c.baseURL = "http://127.0.0.1:1"

		_, err := c.Charge(context.Background(), req)

		assert.ErrorIs(t, err, payments.ErrProcessorUnavailable)
	})

	t.Run("Malformed Response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})

		_, err := c.Charge(context.Background(), req)

		assert.ErrorIs(t, err, payments.ErrProcessorUnavailable)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/v2/orders/ORD1", r.URL.Path)
			var body orderRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "CANCELED", body.Order.State)
			assert.Equal(t, int64(3), body.Order.Version)
			assert.Equal(t, "ORD1-cancel", body.IdempotencyKey)

			w.Write([]byte(`{"order":{"id":"ORD1","version":4,"state":"CANCELED","location_id":"LOC1"}}`))
		})

		assert.NoError(t, c.CancelOrder(context.Background(), "ORD1", 3))
	})

	t.Run("Version Conflict", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"VERSION_MISMATCH"}]}`))
		})

		err := c.CancelOrder(context.Background(), "ORD1", 3)

		assert.ErrorIs(t, err, payments.ErrProcessorDeclined)
	})
}
