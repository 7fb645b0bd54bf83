package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
)

const (
	achCurrency        = "EGP"
	achDefaultCategory = "CASH"
	achDateTimeLayout  = "02/01/2006 15:04:05"
)

// ACHChannel is the signed bank-transfer rail. Sends are accepted asynchronously and settle later.
type ACHChannel struct {
	client *Client
	cfg    config.ACHConfig
	signer Signer
	now    func() time.Time
}

func NewACHChannel(cfg config.ACHConfig, client *Client, signer Signer) *ACHChannel {
	return &ACHChannel{client: client, cfg: cfg, signer: signer, now: time.Now}
}

// achSendPayload field order is the canonical order the signature is computed over.
type achSendPayload struct {
	TransactionID         string      `json:"TransactionId"`
	MessageID             string      `json:"MessageId"`
	TransactionDateTime   string      `json:"TransactionDateTime"`
	CategoryCode          string      `json:"CategoryCode"`
	TransactionPurpose    string      `json:"TransactionPurpose"`
	TransactionAmount     json.Number `json:"TransactionAmount"`
	Currency              string      `json:"Currency"`
	CorporateCode         string      `json:"CorporateCode"`
	DebtorAccount         string      `json:"DebtorAccount"`
	CreditorName          string      `json:"CreditorName"`
	CreditorAccountNumber string      `json:"CreditorAccountNumber"`
	CreditorBank          string      `json:"CreditorBank"`
}

type signedACHSend struct {
	achSendPayload
	Signature string `json:"Signature"`
}

type achStatusPayload struct {
	TransactionID string `json:"TransactionId"`
	MessageID     string `json:"MessageId"`
	CorporateCode string `json:"CorporateCode"`
}

type signedACHStatus struct {
	achStatusPayload
	Signature string `json:"Signature"`
}

type achSendResponse struct {
	ResponseCode flexString `json:"ResponseCode"`
	ResponseDesc string     `json:"ResponseDescription"`
}

type achStatusResponse struct {
	TransactionStatusCode        flexString `json:"TransactionStatusCode"`
	TransactionStatusDescription string     `json:"TransactionStatusDescription"`
}

type achCallback struct {
	TransactionID                string     `json:"TransactionId"`
	TransactionStatusCode        flexString `json:"TransactionStatusCode"`
	TransactionStatusDescription string     `json:"TransactionStatusDescription"`
}

func (a *ACHChannel) Family() string {
	return consts.FamilyACH
}

// Send posts one signed request per transfer. A transport failure on any transfer aborts the rest
// of the envelope; the router sends ACH envelopes with a single transfer.
func (a *ACHChannel) Send(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error) {
	out := make([]entity.ProviderResponse, 0, len(envelope.Transfers))
	for _, t := range envelope.Transfers {
		resp, err := a.send(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (a *ACHChannel) send(ctx context.Context, t entity.Transfer) (entity.ProviderResponse, error) {
	payload := achSendPayload{
		TransactionID:         achTransactionID(t.UID),
		MessageID:             strings.ReplaceAll(uuid.NewString(), "-", ""),
		TransactionDateTime:   a.now().Format(achDateTimeLayout),
		CategoryCode:          extra(t.ExtraFields, "category_code", achDefaultCategory),
		TransactionPurpose:    extra(t.ExtraFields, "purpose", achDefaultCategory),
		TransactionAmount:     json.Number(t.Amount.StringFixed(4)),
		Currency:              achCurrency,
		CorporateCode:         a.cfg.CorporateCode,
		DebtorAccount:         a.cfg.DebtorAccount,
		CreditorName:          extra(t.ExtraFields, "full_name", ""),
		CreditorAccountNumber: t.Recipient,
		CreditorBank:          extra(t.ExtraFields, "bank_code", ""),
	}

	canonical, err := json.Marshal(payload)
	if err != nil {
		return entity.ProviderResponse{}, fmt.Errorf("marshal ach payload: %w", err)
	}
	signature, err := a.signer.Sign(canonical)
	if err != nil {
		return entity.ProviderResponse{}, err
	}
	body, err := json.Marshal(signedACHSend{achSendPayload: payload, Signature: signature})
	if err != nil {
		return entity.ProviderResponse{}, fmt.Errorf("marshal ach payload: %w", err)
	}

	var resp achSendResponse
	if err := a.client.PostRaw(ctx, "send", a.cfg.SendURL, body, &resp); err != nil {
		return entity.ProviderResponse{}, err
	}
	if resp.ResponseCode == "" {
		return entity.ProviderResponse{}, a.client.wrap("send", errors.New("malformed response: ResponseCode missing"))
	}

	return entity.ProviderResponse{
		TransactionID:     t.TransactionID,
		Code:              string(resp.ResponseCode),
		Message:           resp.ResponseDesc,
		ExternalReference: payload.TransactionID,
	}, nil
}

func (a *ACHChannel) Inquire(ctx context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error) {
	payload := achStatusPayload{
		TransactionID: achTransactionID(req.UID),
		MessageID:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		CorporateCode: a.cfg.CorporateCode,
	}

	canonical, err := json.Marshal(payload)
	if err != nil {
		return entity.ProviderResponse{}, fmt.Errorf("marshal ach status payload: %w", err)
	}
	signature, err := a.signer.Sign(canonical)
	if err != nil {
		return entity.ProviderResponse{}, err
	}
	signed, err := json.Marshal(signedACHStatus{achStatusPayload: payload, Signature: signature})
	if err != nil {
		return entity.ProviderResponse{}, fmt.Errorf("marshal ach status payload: %w", err)
	}

	var resp achStatusResponse
	if err := a.client.GetJSON(ctx, "inquiry", a.cfg.InquiryURL, url.Values{"request": {string(signed)}}, &resp); err != nil {
		return entity.ProviderResponse{}, err
	}

	return entity.ProviderResponse{
		TransactionID:     req.TransactionID,
		Code:              string(resp.TransactionStatusCode),
		Message:           resp.TransactionStatusDescription,
		ExternalReference: payload.TransactionID,
	}, nil
}

func (a *ACHChannel) ParseCallback(body []byte) (entity.CallbackPayload, error) {
	var cb achCallback
	if err := json.Unmarshal(body, &cb); err == nil && cb.TransactionID != "" && cb.TransactionStatusCode != "" {
		return entity.CallbackPayload{
			TransactionReference: cb.TransactionID,
			StatusCode:           string(cb.TransactionStatusCode),
			StatusMessage:        cb.TransactionStatusDescription,
		}, nil
	}
	return parseGenericCallback(body)
}

// The bank network identifies transfers by the dashless form of our UID.
func achTransactionID(uid string) string {
	return strings.ReplaceAll(uid, "-", "")
}

func extra(fields map[string]string, key, fallback string) string {
	if v, ok := fields[key]; ok && v != "" {
		return v
	}
	return fallback
}
