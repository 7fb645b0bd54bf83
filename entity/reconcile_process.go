package entity

import "github.com/shopspring/decimal"

type IngestRecord struct {
	Recipient   string            `json:"recipient"`
	Amount      decimal.Decimal   `json:"amount"`
	Issuer      string            `json:"issuer"`
	ExtraFields map[string]string `json:"extra_fields,omitempty"`
}

type IngestBatchRequest struct {
	OwnerID      int64          `json:"owner_id"`
	CategoryID   int64          `json:"category_id"`
	IssuerFamily string         `json:"issuer_family"`
	Records      []IngestRecord `json:"records"`
	Operator     string         `json:"operator"`
}

type SubmitReviewRequest struct {
	ReviewerID int64  `json:"reviewer_id"`
	IsOk       bool   `json:"is_ok"`
	Comment    string `json:"comment"`
}

type DisburseRequest struct {
	DisburserID int64 `json:"disburser_id"`
}

type InstantDisbursementRequest struct {
	OperatorID  int64             `json:"operator_id"`
	Recipient   string            `json:"recipient"`
	Amount      decimal.Decimal   `json:"amount"`
	Issuer      string            `json:"issuer"`
	ExtraFields map[string]string `json:"extra_fields,omitempty"`
}

type TopUpRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Operator string          `json:"operator"`
}

type FeeQuote struct {
	Amount decimal.Decimal `json:"amount"`
	Issuer string          `json:"issuer"`
	Fees   decimal.Decimal `json:"fees"`
	VAT    decimal.Decimal `json:"vat"`
	Total  decimal.Decimal `json:"total"`
}

// LedgerEntry is what one ApplyDisbursement took from the budget; reversals give back exactly this.
type LedgerEntry struct {
	Amount        decimal.Decimal `json:"amount"`
	Fees          decimal.Decimal `json:"fees"`
	VAT           decimal.Decimal `json:"vat"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
}

// DispatchSummary reports one DispatchBatch run per issuer group.
type DispatchSummary struct {
	BatchID       int64                   `json:"batch_id"`
	Groups        map[string]GroupOutcome `json:"groups"`
	Disbursed     bool                    `json:"disbursed"`
	FailureReason string                  `json:"failure_reason,omitempty"`
}

type GroupOutcome struct {
	Issuer     string `json:"issuer"`
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	InFlight   int    `json:"in_flight"`
	Failed     int    `json:"failed"`
	Err        string `json:"error,omitempty"`
}

// JobResult summarizes one reconciliation run.
type JobResult struct {
	Scanned   int `json:"scanned"`
	Skipped   int `json:"skipped"`
	Inquired  int `json:"inquired"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
	Errored   int `json:"errored"`
}

type OpenBudgetRequest struct {
	OperatorID     int64            `json:"operator_id"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	MaxAmount      decimal.Decimal  `json:"max_amount"`
	VATRate        *decimal.Decimal `json:"vat_rate,omitempty"`
	Operator       string           `json:"operator"`
}

type FeeRuleRequest struct {
	Issuer          string          `json:"issuer"`
	FeeType         string          `json:"fee_type"`
	FixedValue      decimal.Decimal `json:"fixed_value"`
	PercentageValue decimal.Decimal `json:"percentage_value"`
	MinValue        decimal.Decimal `json:"min_value"`
	MaxValue        decimal.Decimal `json:"max_value"`
}

type ReviewPolicyRequest struct {
	OperatorID      int64  `json:"operator_id"`
	Name            string `json:"name"`
	RequiredReviews int    `json:"required_reviews"`
}

// DisburseEligibility tells a disburser whether a batch can be disbursed by them and, if not, why.
type DisburseEligibility struct {
	Allowed bool   `json:"allowed"`
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
}
