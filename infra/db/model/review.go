package model

import "github.com/shopspring/decimal"

type Review struct {
	ID         int64  `gorm:"primary_key" json:"id"`
	BatchID    int64  `gorm:"not null;unique_index:idx_review_batch_reviewer" json:"batch_id"`
	ReviewerID int64  `gorm:"not null;unique_index:idx_review_batch_reviewer" json:"reviewer_id"`
	IsOk       bool   `gorm:"not null" json:"is_ok"`
	Comment    string `gorm:"size:255" json:"comment"`
	CreateTime int64  `gorm:"not null" json:"create_time"`
}

// ReviewPolicy is the per-operator category configuration of the review gate.
type ReviewPolicy struct {
	ID              int64  `gorm:"primary_key" json:"id"`
	OperatorID      int64  `gorm:"not null;index" json:"operator_id"`
	Name            string `gorm:"size:100;not null" json:"name"`
	RequiredReviews int    `gorm:"not null" json:"required_reviews"`
	CreateTime      int64  `gorm:"not null" json:"create_time"`
	UpdateTime      int64  `gorm:"not null" json:"update_time"`
}

type Reviewer struct {
	ID                      int64           `gorm:"primary_key" json:"id"`
	OperatorID              int64           `gorm:"not null;index" json:"operator_id"`
	Name                    string          `gorm:"size:100;not null" json:"name"`
	Level                   int             `gorm:"not null" json:"level"`
	MaxAmountCanBeDisbursed decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"max_amount_can_be_disbursed"`
}
