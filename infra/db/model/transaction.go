package model

import "github.com/shopspring/decimal"

type Transaction struct {
	ID                int64           `gorm:"primary_key" json:"id"`
	UID               string          `gorm:"size:36;not null;unique_index" json:"uid"`
	BatchID           int64           `gorm:"not null;index" json:"batch_id"`
	RecordID          int64           `json:"record_id"`
	OperatorID        int64           `gorm:"not null;index" json:"operator_id"`
	Recipient         string          `gorm:"size:64;not null" json:"recipient"`
	Amount            decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Issuer            string          `gorm:"size:20;not null" json:"issuer"`
	Family            string          `gorm:"size:20;not null" json:"family"`
	Status            int             `gorm:"not null;index" json:"status"`
	StatusCode        string          `gorm:"size:32" json:"status_code"`
	Reason            string          `gorm:"type:text" json:"reason"`
	ExternalReference string          `gorm:"size:64;index" json:"external_reference"`
	ExtraFields       string          `gorm:"type:text" json:"extra_fields"`
	BalanceBefore     decimal.Decimal `gorm:"type:numeric(15,2)" json:"balance_before"`
	BalanceAfter      decimal.Decimal `gorm:"type:numeric(15,2)" json:"balance_after"`
	Fees              decimal.Decimal `gorm:"type:numeric(15,4)" json:"fees"`
	VAT               decimal.Decimal `gorm:"type:numeric(15,4)" json:"vat"`
	IsSingleStep      bool            `gorm:"not null" json:"is_single_step"`
	Unresolved        bool            `gorm:"not null" json:"unresolved"`
	LedgerHeld        bool            `gorm:"not null" json:"ledger_held"`
	LedgerReversed    bool            `gorm:"not null" json:"ledger_reversed"`
	LastInquiryTime   int64           `json:"last_inquiry_time"`
	CreateTime        int64           `gorm:"not null" json:"create_time"`
	CreateBy          string          `gorm:"size:100;not null" json:"create_by"`
	UpdateTime        int64           `gorm:"not null;index" json:"update_time"`
	UpdateBy          string          `gorm:"size:100;not null" json:"update_by"`
}

// TransactionStatusLog is the append-only status history of a transaction.
type TransactionStatusLog struct {
	ID            int64  `gorm:"primary_key" json:"id"`
	TransactionID int64  `gorm:"not null;index" json:"transaction_id"`
	FromStatus    int    `gorm:"not null" json:"from_status"`
	ToStatus      int    `gorm:"not null" json:"to_status"`
	Code          string `gorm:"size:32" json:"code"`
	Message       string `gorm:"type:text" json:"message"`
	Source        string `gorm:"size:20;not null" json:"source"`
	CreateTime    int64  `gorm:"not null" json:"create_time"`
}
