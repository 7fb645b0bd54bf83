package model

import "github.com/shopspring/decimal"

type Budget struct {
	ID              int64           `gorm:"primary_key" json:"id"`
	OperatorID      int64           `gorm:"not null;unique_index" json:"operator_id"`
	CurrentBalance  decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"current_balance"`
	DisbursedAmount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"disbursed_amount"`
	MaxAmount       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"max_amount"`
	VATRate         decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"vat_rate"`
	CreateTime      int64           `gorm:"not null" json:"create_time"`
	UpdateTime      int64           `gorm:"not null" json:"update_time"`
	UpdateBy        string          `gorm:"size:100;not null" json:"update_by"`
}

type FeeRule struct {
	ID              int64           `gorm:"primary_key" json:"id"`
	OperatorID      int64           `gorm:"not null;index" json:"operator_id"`
	Issuer          string          `gorm:"size:20;not null" json:"issuer"`
	FeeType         string          `gorm:"size:1;not null" json:"fee_type"`
	FixedValue      decimal.Decimal `gorm:"type:numeric(7,2)" json:"fixed_value"`
	PercentageValue decimal.Decimal `gorm:"type:numeric(7,2)" json:"percentage_value"`
	MinValue        decimal.Decimal `gorm:"type:numeric(7,2)" json:"min_value"`
	MaxValue        decimal.Decimal `gorm:"type:numeric(7,2)" json:"max_value"`
}
