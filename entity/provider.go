package entity

import (
	"github.com/shopspring/decimal"
)

// Transfer is one transaction as seen by a channel adapter.
type Transfer struct {
	TransactionID int64
	UID           string
	OperatorID    int64
	Recipient     string
	Amount        decimal.Decimal
	Issuer        string
	ExtraFields   map[string]string
	CreateTime    int64
}

// Agent is a sending-agent credential from the operator's pool.
type Agent struct {
	ID     int64
	MSISDN string
	PIN    string
}

// Envelope is what the router hands an adapter in one call. Wallet envelopes carry the whole
// issuer group and one agent; every other family gets one transfer per envelope.
type Envelope struct {
	Family    string
	Issuer    string
	Agent     *Agent
	Transfers []Transfer
}

// ProviderResponse is a provider answer normalized to the common shape fed to the transition engine.
type ProviderResponse struct {
	TransactionID     int64  `json:"transaction_id"`
	Code              string `json:"code"`
	Message           string `json:"message"`
	ExternalReference string `json:"external_reference"`
}

// InquiryRequest asks a provider for the current status of one transfer.
type InquiryRequest struct {
	TransactionID     int64
	UID               string
	Issuer            string
	ExternalReference string
	Extra             map[string]string
}

// CallbackPayload is the generic provider callback shape.
type CallbackPayload struct {
	TransactionReference string `json:"transaction_reference"`
	StatusCode           string `json:"status_code"`
	StatusMessage        string `json:"status_message"`
}
