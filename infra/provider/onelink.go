package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/shopspring/decimal"
)

const (
	oneLinkTokenKey    = "payout:onelink:access_token"
	oneLinkSuccessCode = "00"
)

// OneLinkChannel is the interbank (IBFT) rail: token exchange, title fetch, then push.
type OneLinkChannel struct {
	client *Client
	cfg    config.OneLinkConfig
	tokens TokenStore
	now    func() time.Time
}

func NewOneLinkChannel(cfg config.OneLinkConfig, client *Client, tokens TokenStore) *OneLinkChannel {
	return &OneLinkChannel{client: client, cfg: cfg, tokens: tokens, now: time.Now}
}

type oneLinkTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type oneLinkTitleRequest struct {
	Date                    string `json:"Date"`
	Time                    string `json:"Time"`
	TransmissionDateAndTime string `json:"TransmissionDateAndTime"`
	TransactionAmount       string `json:"TransactionAmount"`
	STAN                    string `json:"STAN"`
	RRN                     string `json:"RRN"`
	MerchantType            string `json:"MerchantType"`
	FromBankIMD             string `json:"FromBankIMD"`
	AccountNumberFrom       string `json:"AccountNumberFrom"`
	ToBankIMD               string `json:"ToBankIMD"`
	AccountNumberTo         string `json:"AccountNumberTo"`
}

type oneLinkPushRequest struct {
	oneLinkTitleRequest
	AuthorizationIdentificationResponse string `json:"AuthorizationIdentificationResponse"`
	SenderName                          string `json:"SenderName,omitempty"`
}

type oneLinkTitleResponse struct {
	ResponseCode                        flexString `json:"ResponseCode"`
	ResponseDetail                      string     `json:"ResponseDetail"`
	AuthorizationIdentificationResponse string     `json:"AuthorizationIdentificationResponse"`
}

type oneLinkStatusRequest struct {
	STAN string `json:"STAN"`
	RRN  string `json:"RRN"`
}

type oneLinkResponse struct {
	ResponseCode   flexString `json:"ResponseCode"`
	ResponseDetail string     `json:"ResponseDetail"`
}

func (o *OneLinkChannel) Family() string {
	return consts.FamilyOneLink
}

func (o *OneLinkChannel) Send(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error) {
	token, err := o.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]entity.ProviderResponse, 0, len(envelope.Transfers))
	for _, t := range envelope.Transfers {
		resp, err := o.send(ctx, token, t)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (o *OneLinkChannel) send(ctx context.Context, token string, t entity.Transfer) (entity.ProviderResponse, error) {
	amount, err := oneLinkAmount(t.Amount)
	if err != nil {
		return entity.ProviderResponse{}, err
	}
	now := o.now()
	stan, rrn := oneLinkSTAN(t.TransactionID), oneLinkRRN(t.TransactionID)

	title := oneLinkTitleRequest{
		Date:                    now.Format("0102"),
		Time:                    now.Format("150405"),
		TransmissionDateAndTime: now.Format("0102150405"),
		TransactionAmount:       amount,
		STAN:                    stan,
		RRN:                     rrn,
		MerchantType:            o.cfg.MerchantType,
		FromBankIMD:             o.cfg.FromBankIMD,
		AccountNumberFrom:       o.cfg.AccountNumberFrom,
		ToBankIMD:               extra(t.ExtraFields, "bank_code", ""),
		AccountNumberTo:         t.Recipient,
	}

	var titleResp oneLinkTitleResponse
	if err := o.client.PostJSON(ctx, "fetch_title", o.cfg.TitleFetchURL, o.authHeaders(token), title, &titleResp); err != nil {
		return entity.ProviderResponse{}, err
	}
	if titleResp.ResponseCode == "" {
		return entity.ProviderResponse{}, o.client.wrap("fetch_title", errors.New("malformed response: ResponseCode missing"))
	}
	if string(titleResp.ResponseCode) != oneLinkSuccessCode {
		log.Warnf("[OneLink] trx_id:%d title fetch declined code:%s", t.TransactionID, titleResp.ResponseCode)
		return entity.ProviderResponse{
			TransactionID:     t.TransactionID,
			Code:              string(titleResp.ResponseCode),
			Message:           titleResp.ResponseDetail,
			ExternalReference: rrn,
		}, nil
	}

	push := oneLinkPushRequest{
		oneLinkTitleRequest:                 title,
		AuthorizationIdentificationResponse: titleResp.AuthorizationIdentificationResponse,
		SenderName:                          extra(t.ExtraFields, "sender_name", ""),
	}

	var pushResp oneLinkResponse
	if err := o.client.PostJSON(ctx, "push", o.cfg.PushURL, o.authHeaders(token), push, &pushResp); err != nil {
		return entity.ProviderResponse{}, err
	}
	if pushResp.ResponseCode == "" {
		return entity.ProviderResponse{}, o.client.wrap("push", errors.New("malformed response: ResponseCode missing"))
	}

	return entity.ProviderResponse{
		TransactionID:     t.TransactionID,
		Code:              string(pushResp.ResponseCode),
		Message:           pushResp.ResponseDetail,
		ExternalReference: rrn,
	}, nil
}

func (o *OneLinkChannel) Inquire(ctx context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error) {
	if o.cfg.StatusURL == "" {
		return entity.ProviderResponse{}, entity.ErrInquiryUnsupported
	}

	token, err := o.accessToken(ctx)
	if err != nil {
		return entity.ProviderResponse{}, err
	}

	body := oneLinkStatusRequest{STAN: oneLinkSTAN(req.TransactionID), RRN: oneLinkRRN(req.TransactionID)}
	var resp oneLinkResponse
	if err := o.client.PostJSON(ctx, "inquiry", o.cfg.StatusURL, o.authHeaders(token), body, &resp); err != nil {
		return entity.ProviderResponse{}, err
	}

	return entity.ProviderResponse{
		TransactionID:     req.TransactionID,
		Code:              string(resp.ResponseCode),
		Message:           resp.ResponseDetail,
		ExternalReference: body.RRN,
	}, nil
}

func (o *OneLinkChannel) ParseCallback(body []byte) (entity.CallbackPayload, error) {
	return parseGenericCallback(body)
}

func (o *OneLinkChannel) accessToken(ctx context.Context) (string, error) {
	if token, ok, err := o.tokens.Get(ctx, oneLinkTokenKey); err != nil {
		log.Warnf("[OneLink] token cache read failed: %v", err)
	} else if ok {
		return token, nil
	}

	form := url.Values{
		"client_id":     {o.cfg.ClientID},
		"client_secret": {o.cfg.ClientSecret},
		"username":      {o.cfg.Username},
		"password":      {o.cfg.Password},
	}

	var resp oneLinkTokenResponse
	if err := o.client.PostForm(ctx, "token", o.cfg.TokenURL, form, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", o.client.wrap("token", errors.New("malformed response: access_token missing"))
	}

	ttl := o.cfg.TokenTTL
	if resp.ExpiresIn > 0 && time.Duration(resp.ExpiresIn)*time.Second < ttl {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	if ttl > 0 {
		if err := o.tokens.Set(ctx, oneLinkTokenKey, resp.AccessToken, ttl); err != nil {
			log.Warnf("[OneLink] token cache write failed: %v", err)
		}
	}
	return resp.AccessToken, nil
}

func (o *OneLinkChannel) authHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization":   "Bearer " + token,
		"X-IBM-Client-Id": o.cfg.ClientID,
	}
}

// oneLinkAmount renders whole currency units zero-padded to 12 digits. The rail has no field for a
// fraction, so one is refused rather than dropped.
func oneLinkAmount(amount decimal.Decimal) (string, error) {
	if !amount.Equal(amount.Truncate(0)) {
		return "", entity.NewValidationError("amount", fmt.Sprintf("onelink transfers carry whole units only, got %s", amount))
	}
	return fmt.Sprintf("%012d", amount.IntPart()), nil
}

func oneLinkSTAN(trxID int64) string {
	return fmt.Sprintf("%06d", trxID%1000000)
}

func oneLinkRRN(trxID int64) string {
	return fmt.Sprintf("%012d", trxID%1000000000000)
}
