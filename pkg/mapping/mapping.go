package mapping

import (
	"slices"
	"strings"

	"github.com/chris/store-credit-checkout/pkg/api"
	"github.com/chris/store-credit-checkout/pkg/ledger"
	"github.com/chris/store-credit-checkout/pkg/locktoken"
	"github.com/chris/store-credit-checkout/pkg/models"
	"github.com/chris/store-credit-checkout/pkg/notify"
	"github.com/chris/store-credit-checkout/pkg/settlement"
)

func ToApiMoney(m models.Money) api.Money {
	return api.Money{Amount: m.Amount, Currency: m.Currency}
}

func ToApiLockToken(tok locktoken.Token) api.LockToken {
	return api.LockToken{Enc: tok.Enc, Iv: tok.IV, Auth: tok.Auth}
}

func ToDomainLockToken(tok api.LockToken) locktoken.Token {
	return locktoken.Token{Enc: tok.Enc, IV: tok.Iv, Auth: tok.Auth}
}

// ToApiCredit converts a domain CreditEntry to an API Credit. Nil slices become empty arrays.
func ToApiCredit(entry *models.CreditEntry) *api.Credit {
	names := slices.Clone(entry.Names)
	if names == nil {
		names = []string{}
	}
	orders := slices.Clone(entry.AssociatedOrders)
	if orders == nil {
		orders = []string{}
	}
	return &api.Credit{
		Code:             entry.Code,
		Type:             api.CreditType(entry.Type),
		InitialValue:     ToApiMoney(entry.InitialValue),
		Balance:          ToApiMoney(entry.Balance),
		Names:            names,
		AssociatedOrders: orders,
		CreatedAt:        entry.CreatedAt,
		LastUsedAt:       entry.LastUsedAt,
	}
}

// ToDomainIssueRequest converts an API NewCredit to a ledger IssueRequest.
func ToDomainIssueRequest(c *api.NewCredit) ledger.IssueRequest {
	req := ledger.IssueRequest{
		Type:     models.CreditType(c.Type),
		Amount:   c.Amount,
		Currency: strings.ToUpper(c.Currency),
	}
	if c.Code != nil {
		req.Code = strings.TrimSpace(*c.Code)
	}
	if c.Names != nil {
		req.Names = *c.Names
	}
	return req
}

func ToApiCreditValidation(v *ledger.Validation) *api.CreditValidation {
	return &api.CreditValidation{
		Code:    v.Code,
		Balance: ToApiMoney(v.Balance),
		Type:    api.CreditType(v.Type),
		Lock:    ToApiLockToken(v.Lock),
	}
}

func ToApiCreditActivity(a *models.CreditActivity) *api.CreditActivity {
	out := &api.CreditActivity{
		EntryId:      a.EntryID,
		ReferenceId:  a.ReferenceID,
		Kind:         api.CreditActivityKind(a.Kind),
		Amount:       a.Amount,
		BalanceAfter: a.BalanceAfter,
		Timestamp:    a.Timestamp,
	}
	if a.Actor != "" {
		actor := a.Actor
		out.Actor = &actor
	}
	return out
}

// ToSettlementRequest converts an API CheckoutRequest to a settlement Request.
// defaultCurrency applies when the order names none.
func ToSettlementRequest(req *api.CheckoutRequest, defaultCurrency string) settlement.Request {
	out := settlement.Request{
		TotalAmount:   req.TotalAmount,
		Currency:      defaultCurrency,
		FulfillmentAt: req.FulfillmentAt,
		Fulfillment:   req.Fulfillment,
	}
	if req.Currency != nil && *req.Currency != "" {
		out.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Credit != nil {
		out.Credit = &settlement.CreditPayment{
			Code:   req.Credit.Code,
			Amount: req.Credit.Amount,
			Lock:   ToDomainLockToken(req.Credit.Lock),
		}
	}
	if req.Card != nil {
		out.CardNonce = req.Card.Nonce
	}
	out.Customer = toNotifyCustomer(req.Customer)
	return out
}

// ToApiCheckoutResponse converts a Paid settlement result.
func ToApiCheckoutResponse(res *settlement.Result) *api.CheckoutResponse {
	out := &api.CheckoutResponse{
		Paid:        res.Paid,
		ReferenceId: res.ReferenceID,
	}
	if res.CreditAmount > 0 {
		out.CreditAmount = &res.CreditAmount
	}
	if res.ChargedAmount > 0 {
		out.ChargedAmount = &res.ChargedAmount
		if res.Last4 != "" {
			out.Last4 = &res.Last4
		}
		if res.ReceiptURL != "" {
			out.ReceiptUrl = &res.ReceiptURL
		}
	}
	return out
}

func toNotifyCustomer(c *api.Customer) notify.Customer {
	var out notify.Customer
	if c == nil {
		return out
	}
	if c.Name != nil {
		out.Name = *c.Name
	}
	if c.Email != nil {
		out.Email = string(*c.Email)
	}
	return out
}
