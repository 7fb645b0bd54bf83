package model

type Agent struct {
	ID           int64  `gorm:"primary_key" json:"id"`
	OperatorID   int64  `gorm:"not null;index" json:"operator_id"`
	Issuer       string `gorm:"size:20;not null" json:"issuer"`
	MSISDN       string `gorm:"size:16;not null" json:"msisdn"`
	PIN          string `gorm:"size:64" json:"-"`
	IsSuper      bool   `gorm:"not null" json:"is_super"`
	LastUsedTime int64  `json:"last_used_time"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Batch{},
		&DisbursementRecord{},
		&Review{},
		&ReviewPolicy{},
		&Reviewer{},
		&Transaction{},
		&TransactionStatusLog{},
		&Budget{},
		&FeeRule{},
		&Agent{},
	}
}
