package consts

const (
	// Issuers (rails) as they appear on uploaded records and fee rules
	IssuerVodafone   = "vodafone"
	IssuerEtisalat   = "etisalat"
	IssuerOrange     = "orange"
	IssuerAman       = "aman"
	IssuerBankCard   = "bank_card"
	IssuerBankWallet = "bank_wallet"
	IssuerIBFT       = "ibft"

	// Issuer families, one channel adapter each
	FamilyWallet  = "wallet"
	FamilyACH     = "ach"
	FamilyOneLink = "onelink"
	FamilyAman    = "aman"
	FamilyMixed   = "mixed"

	// Fee types
	FeeTypeFixed      = "f"
	FeeTypePercentage = "p"
	FeeTypeMixed      = "m"

	// Agent selection strategies
	AgentSelectorRandom     = "random"
	AgentSelectorRoundRobin = "round_robin"
	AgentSelectorLRU        = "least_recently_used"
)

const (
	// Reasons a disburser is refused, as reported to the dashboard
	DisburseDeniedConflict     = 1
	DisburseDeniedQuorum       = 2
	DisburseDeniedNotPermitted = 3
	DisburseDeniedDisbursed    = 4

	// Ledger effects recorded per transition
	LedgerEffectHold    = "hold"
	LedgerEffectDebit   = "debit"
	LedgerEffectReverse = "reverse"
	LedgerEffectRefused = "refused"
	LedgerEffectTopUp   = "top_up"
)
