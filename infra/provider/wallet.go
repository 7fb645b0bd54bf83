package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/radhian/payout-disbursement/config"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
)

const (
	walletSuccessCode       = "200"
	walletRecordSuccessCode = "0"
)

// WalletChannel is the one-step mobile wallet rail: one request per issuer group, signed by one agent.
type WalletChannel struct {
	client *Client
	cfg    config.WalletConfig
}

func NewWalletChannel(cfg config.WalletConfig, client *Client) *WalletChannel {
	return &WalletChannel{client: client, cfg: cfg}
}

type walletSender struct {
	MSISDN string `json:"MSISDN"`
	PIN    string `json:"PIN"`
}

type walletRecipient struct {
	MSISDN string `json:"MSISDN"`
	Amount string `json:"AMOUNT"`
	TxnID  string `json:"TXNID"`
}

type walletDisburseRequest struct {
	Login        string            `json:"LOGIN"`
	Password     string            `json:"PASSWORD"`
	GatewayCode  string            `json:"REQUEST_GATEWAY_CODE"`
	GatewayType  string            `json:"REQUEST_GATEWAY_TYPE"`
	WalletIssuer string            `json:"WALLETISSUER"`
	PIN          string            `json:"PIN"`
	ServiceType  string            `json:"SERVICETYPE"`
	Source       string            `json:"SOURCE"`
	Type         string            `json:"TYPE"`
	Senders      []walletSender    `json:"SENDERS"`
	Recipients   []walletRecipient `json:"RECIPIENTS"`
}

type walletDisburseResponse struct {
	TxnStatus flexString `json:"TXNSTATUS"`
	BatchID   flexString `json:"BATCH_ID"`
	Message   string     `json:"MESSAGE"`
}

type walletInquiryRequest struct {
	Login       string `json:"LOGIN"`
	Password    string `json:"PASSWORD"`
	GatewayCode string `json:"REQUEST_GATEWAY_CODE"`
	GatewayType string `json:"REQUEST_GATEWAY_TYPE"`
	Type        string `json:"TYPE"`
	BatchID     string `json:"BATCH_ID"`
}

type walletInquiryRecord struct {
	ID          string     `json:"id"`
	Status      flexString `json:"status"`
	Description string     `json:"description"`
	MpgRRN      string     `json:"mpg_rrn"`
}

type walletInquiryResponse struct {
	TxnStatus    flexString            `json:"TXNSTATUS"`
	Message      string                `json:"MESSAGE"`
	Transactions []walletInquiryRecord `json:"TRANSACTIONS"`
}

type walletCallback struct {
	TxnID     string     `json:"TXNID"`
	TxnStatus flexString `json:"TXNSTATUS"`
	Message   string     `json:"MESSAGE"`
}

func (w *WalletChannel) Family() string {
	return consts.FamilyWallet
}

func (w *WalletChannel) Send(ctx context.Context, envelope *entity.Envelope) ([]entity.ProviderResponse, error) {
	if envelope.Agent == nil {
		return nil, errors.New("wallet envelope without sending agent")
	}

	req := walletDisburseRequest{
		Login:        w.cfg.Login,
		Password:     w.cfg.Password,
		GatewayCode:  w.cfg.GatewayCode,
		GatewayType:  w.cfg.GatewayType,
		WalletIssuer: strings.ToUpper(envelope.Issuer),
		PIN:          envelope.Agent.PIN,
		ServiceType:  "P2P",
		Source:       "DISB",
		Type:         "PPREQ",
		Senders:      []walletSender{{MSISDN: envelope.Agent.MSISDN, PIN: envelope.Agent.PIN}},
	}
	for _, t := range envelope.Transfers {
		req.Recipients = append(req.Recipients, walletRecipient{
			MSISDN: t.Recipient,
			Amount: t.Amount.StringFixed(2),
			TxnID:  t.UID,
		})
	}

	var resp walletDisburseResponse
	if err := w.client.PostJSON(ctx, "send", w.cfg.URL, nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.TxnStatus == "" {
		return nil, w.client.wrap("send", errors.New("malformed response: TXNSTATUS missing"))
	}

	out := make([]entity.ProviderResponse, 0, len(envelope.Transfers))
	for _, t := range envelope.Transfers {
		out = append(out, entity.ProviderResponse{
			TransactionID:     t.TransactionID,
			Code:              string(resp.TxnStatus),
			Message:           resp.Message,
			ExternalReference: string(resp.BatchID),
		})
	}
	return out, nil
}

// Inquire asks for the wallet batch the transfer was sent in and picks the transfer's record.
func (w *WalletChannel) Inquire(ctx context.Context, req *entity.InquiryRequest) (entity.ProviderResponse, error) {
	if req.ExternalReference == "" {
		return entity.ProviderResponse{}, fmt.Errorf("transaction %d has no wallet batch id: %w", req.TransactionID, entity.ErrInquiryUnsupported)
	}

	body := walletInquiryRequest{
		Login:       w.cfg.Login,
		Password:    w.cfg.Password,
		GatewayCode: w.cfg.GatewayCode,
		GatewayType: w.cfg.GatewayType,
		Type:        "BDISBINQREQ",
		BatchID:     req.ExternalReference,
	}

	var resp walletInquiryResponse
	if err := w.client.PostJSON(ctx, "inquiry", w.cfg.URL, nil, body, &resp); err != nil {
		return entity.ProviderResponse{}, err
	}

	for _, record := range resp.Transactions {
		if record.ID != req.UID {
			continue
		}
		return entity.ProviderResponse{
			TransactionID:     req.TransactionID,
			Code:              normalizeWalletCode(string(record.Status)),
			Message:           record.Description,
			ExternalReference: req.ExternalReference,
		}, nil
	}

	return entity.ProviderResponse{}, w.client.wrap("inquiry",
		fmt.Errorf("malformed response: transaction %s not in batch %s", req.UID, req.ExternalReference))
}

func (w *WalletChannel) ParseCallback(body []byte) (entity.CallbackPayload, error) {
	var cb walletCallback
	if err := json.Unmarshal(body, &cb); err == nil && cb.TxnID != "" && cb.TxnStatus != "" {
		return entity.CallbackPayload{
			TransactionReference: cb.TxnID,
			StatusCode:           normalizeWalletCode(string(cb.TxnStatus)),
			StatusMessage:        cb.Message,
		}, nil
	}

	payload, err := parseGenericCallback(body)
	if err != nil {
		return payload, err
	}
	payload.StatusCode = normalizeWalletCode(payload.StatusCode)
	return payload, nil
}

// Wallet records report success as "0" while the request level uses "200".
func normalizeWalletCode(code string) string {
	if code == walletRecordSuccessCode {
		return walletSuccessCode
	}
	return code
}
