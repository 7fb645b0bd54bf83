package model

import "github.com/shopspring/decimal"

type Batch struct {
	ID                   int64           `gorm:"primary_key" json:"id"`
	OwnerID              int64           `gorm:"not null;index" json:"owner_id"`
	CategoryID           int64           `gorm:"not null" json:"category_id"`
	IssuerFamily         string          `gorm:"size:20;not null" json:"issuer_family"`
	TotalAmount          decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_amount"`
	TotalCount           int64           `gorm:"not null" json:"total_count"`
	IsProcessed          bool            `gorm:"not null" json:"is_processed"`
	ReadyForDisbursement bool            `gorm:"not null" json:"ready_for_disbursement"`
	IsDisbursed          bool            `gorm:"not null" json:"is_disbursed"`
	HasCallback          bool            `gorm:"not null" json:"has_callback"`
	FailureReason        string          `gorm:"type:text" json:"failure_reason"`
	DisbursedBy          int64           `json:"disbursed_by"`
	CreateTime           int64           `gorm:"not null" json:"create_time"`
	CreateBy             string          `gorm:"size:100;not null" json:"create_by"`
	UpdateTime           int64           `gorm:"not null" json:"update_time"`
	UpdateBy             string          `gorm:"size:100;not null" json:"update_by"`
}

// DisbursementRecord is one uploaded, pre-validated transfer instruction of a batch.
type DisbursementRecord struct {
	ID          int64           `gorm:"primary_key" json:"id"`
	BatchID     int64           `gorm:"not null;index" json:"batch_id"`
	Recipient   string          `gorm:"size:64;not null" json:"recipient"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Issuer      string          `gorm:"size:20;not null" json:"issuer"`
	ExtraFields string          `gorm:"type:text" json:"extra_fields"`
	CreateTime  int64           `gorm:"not null" json:"create_time"`
	CreateBy    string          `gorm:"size:100;not null" json:"create_by"`
}
