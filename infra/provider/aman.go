package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
)

const (
	amanCurrency    = "EGP"
	amanSuccessCode = "200"
	amanPendingCode = "pending"
	amanFailureCode = "504"
)

// AmanChannel is the cash-voucher rail: the recipient collects cash at a branch using the bill
// reference issued by the pay call.
type AmanChannel struct {
	client *Client
	cfg    config.AmanConfig
}

func NewAmanChannel(cfg config.AmanConfig, client *Client) *AmanChannel {
	return &AmanChannel{client: client, cfg: cfg}
}

type amanAuthResponse struct {
	Token   string `json:"token"`
	Profile struct {
		ID flexString `json:"id"`
	} `json:"profile"`
}

type amanOrderRequest struct {
	AuthToken       string `json:"auth_token"`
	MerchantID      string `json:"merchant_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	AmountCents     string `json:"amount_cents"`
	Currency        string `json:"currency"`
}

type amanOrderResponse struct {
	ID flexString `json:"id"`
}

type amanBillingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Street      string `json:"street"`
	Building    string `json:"building"`
	Floor       string `json:"floor"`
	Apartment   string `json:"apartment"`
}

type amanPaymentKeyRequest struct {
	AuthToken         string          `json:"auth_token"`
	OrderID           string          `json:"order_id"`
	AmountCents       string          `json:"amount_cents"`
	IntegrationID     string          `json:"integration_id"`
	Currency          string          `json:"currency"`
	BillingData       amanBillingData `json:"billing_data"`
	Expiration        int             `json:"expiration"`
	LockOrderWhenPaid string          `json:"lock_order_when_paid"`
}

type amanPaymentKeyResponse struct {
	Token string `json:"token"`
}

type amanPaySource struct {
	Identifier string `json:"identifier"`
	Subtype    string `json:"subtype"`
}

type amanPayRequest struct {
	Source       amanPaySource `json:"source"`
	PaymentToken string        `json:"payment_token"`
}

type amanPayResponse struct {
	Pending bool `json:"pending"`
	Success bool `json:"success"`
	Data    struct {
		BillReference flexString `json:"bill_reference"`
		Message       string     `json:"message"`
	} `json:"data"`
}

type amanInquiryRequest struct {
	AuthToken       string `json:"auth_token"`
	MerchantOrderID string `json:"merchant_order_id"`
}

type amanCallback struct {
	Obj struct {
		ID      flexString `json:"id"`
		Success bool       `json:"success"`
		Order   struct {
			MerchantOrderID string `json:"merchant_order_id"`
		} `json:"order"`
	} `json:"obj"`
}

func (a *AmanChannel) Family() string {
	return consts.FamilyAman
}

func (a *AmanChannel) Send(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error) {
	auth, err := a.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entity.ProviderResponse, 0, len(envelope.Transfers))
	for _, t := range envelope.Transfers {
		resp, err := a.send(ctx, auth, t)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (a *AmanChannel) send(ctx context.Context, auth amanAuthResponse, t entity.Transfer) (entity.ProviderResponse, error) {
	amountCents := t.Amount.Shift(2).StringFixed(0)

	var order amanOrderResponse
	err := a.client.PostJSON(ctx, "order", a.cfg.OrderURL, nil, amanOrderRequest{
		AuthToken:       auth.Token,
		MerchantID:      string(auth.Profile.ID),
		MerchantOrderID: t.UID,
		AmountCents:     amountCents,
		Currency:        amanCurrency,
	}, &order)
	if err != nil {
		return entity.ProviderResponse{}, err
	}
	if order.ID == "" {
		return entity.ProviderResponse{}, a.client.wrap("order", errors.New("malformed response: order id missing"))
	}

	var key amanPaymentKeyResponse
	err = a.client.PostJSON(ctx, "payment_key", a.cfg.PaymentKeyURL, nil, amanPaymentKeyRequest{
		AuthToken:     auth.Token,
		OrderID:       string(order.ID),
		AmountCents:   amountCents,
		IntegrationID: a.cfg.IntegrationID,
		Currency:      amanCurrency,
		BillingData: amanBillingData{
			FirstName:   extra(t.ExtraFields, "first_name", "NA"),
			LastName:    extra(t.ExtraFields, "last_name", "NA"),
			Email:       extra(t.ExtraFields, "email", "NA"),
			PhoneNumber: t.Recipient,
			Country:     "EGY",
			City:        "NA",
			Street:      "NA",
			Building:    "NA",
			Floor:       "NA",
			Apartment:   "NA",
		},
		Expiration:        3600,
		LockOrderWhenPaid: "false",
	}, &key)
	if err != nil {
		return entity.ProviderResponse{}, err
	}
	if key.Token == "" {
		return entity.ProviderResponse{}, a.client.wrap("payment_key", errors.New("malformed response: token missing"))
	}

	var pay amanPayResponse
	err = a.client.PostJSON(ctx, "pay", a.cfg.PayURL, nil, amanPayRequest{
		Source:       amanPaySource{Identifier: "AGGREGATOR", Subtype: "AGGREGATOR"},
		PaymentToken: key.Token,
	}, &pay)
	if err != nil {
		return entity.ProviderResponse{}, err
	}

	if !pay.Pending || pay.Data.BillReference == "" {
		return entity.ProviderResponse{
			TransactionID: t.TransactionID,
			Code:          amanFailureCode,
			Message:       "voucher was not issued",
		}, nil
	}

	return entity.ProviderResponse{
		TransactionID:     t.TransactionID,
		Code:              amanSuccessCode,
		Message:           fmt.Sprintf("collect %s EGP at any Aman branch with code %s", t.Amount.StringFixed(2), pay.Data.BillReference),
		ExternalReference: string(pay.Data.BillReference),
	}, nil
}

func (a *AmanChannel) Inquire(ctx context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error) {
	if a.cfg.InquiryURL == "" {
		return entity.ProviderResponse{}, entity.ErrInquiryUnsupported
	}

	auth, err := a.authenticate(ctx)
	if err != nil {
		return entity.ProviderResponse{}, err
	}

	var resp amanPayResponse
	if err := a.client.PostJSON(ctx, "inquiry", a.cfg.InquiryURL, nil, amanInquiryRequest{
		AuthToken:       auth.Token,
		MerchantOrderID: req.UID,
	}, &resp); err != nil {
		return entity.ProviderResponse{}, err
	}

	out := entity.ProviderResponse{
		TransactionID:     req.TransactionID,
		Message:           resp.Data.Message,
		ExternalReference: string(resp.Data.BillReference),
	}
	switch {
	case resp.Success || (resp.Pending && resp.Data.BillReference != ""):
		out.Code = amanSuccessCode
	case resp.Pending:
		out.Code = amanPendingCode
	default:
		out.Code = amanFailureCode
	}
	return out, nil
}

// ParseCallback reads the acceptance notification; obj.success means the voucher was issued and paid.
func (a *AmanChannel) ParseCallback(body []byte) (entity.CallbackPayload, error) {
	var cb amanCallback
	if err := json.Unmarshal(body, &cb); err == nil && (cb.Obj.ID != "" || cb.Obj.Order.MerchantOrderID != "") {
		reference := cb.Obj.Order.MerchantOrderID
		if reference == "" {
			reference = string(cb.Obj.ID)
		}
		code := amanFailureCode
		if cb.Obj.Success {
			code = amanSuccessCode
		}
		return entity.CallbackPayload{
			TransactionReference: reference,
			StatusCode:           code,
			StatusMessage:        fmt.Sprintf("acceptance notification for %s", cb.Obj.ID),
		}, nil
	}
	return parseGenericCallback(body)
}

func (a *AmanChannel) authenticate(ctx context.Context) (amanAuthResponse, error) {
	var auth amanAuthResponse
	if err := a.client.PostJSON(ctx, "auth", a.cfg.AuthURL, nil, map[string]string{"api_key": a.cfg.APIKey}, &auth); err != nil {
		return auth, err
	}
	if auth.Token == "" {
		return auth, a.client.wrap("auth", errors.New("malformed response: token missing"))
	}
	return auth, nil
}
