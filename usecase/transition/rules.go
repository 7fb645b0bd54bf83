package transition

import (
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/provider"
)

const (
	ignoreRepeatedCode = "repeated code"
	ignoreUnknownCode  = "unrecognized code"
	ignoreTerminal     = "transaction already terminal"
	ignoreRegression   = "status regression"
)

// decision is the outcome of the shared transition rule for one provider code.
type decision struct {
	to     int
	ignore string
}

func progress(status int) int {
	switch status {
	case consts.StatusPending:
		return 0
	case consts.StatusBeingProcessed:
		return 1
	default:
		return 2
	}
}

// decide applies the transition rule. It never looks at the ledger; ledger effects follow from the
// decided target status and the transaction's hold/reverse flags.
func decide(trx model.Transaction, table *provider.CodeTable, code, source string) decision {
	if trx.StatusCode != "" && code == trx.StatusCode {
		return decision{ignore: ignoreRepeatedCode}
	}

	to, ok := table.Status(code)
	if !ok {
		if source == consts.SourceDispatch && table.FailUnknownOnDispatch && trx.Status == consts.StatusPending {
			return decision{to: consts.StatusFailed}
		}
		return decision{ignore: ignoreUnknownCode}
	}

	if consts.IsTerminal(trx.Status) {
		if trx.Status == consts.StatusFailed && trx.Unresolved {
			return decision{to: to}
		}
		return decision{ignore: ignoreTerminal}
	}

	if progress(to) < progress(trx.Status) {
		return decision{ignore: ignoreRegression}
	}
	return decision{to: to}
}

// ledgerEffect says what the ledger must do when trx moves to status to.
func ledgerEffect(trx model.Transaction, table *provider.CodeTable, to int) string {
	switch to {
	case consts.StatusBeingProcessed:
		if table.HoldOnAccept && !trx.LedgerHeld {
			return consts.LedgerEffectHold
		}
	case consts.StatusSuccessful:
		if !trx.LedgerHeld {
			return consts.LedgerEffectDebit
		}
	case consts.StatusFailed, consts.StatusRejected, consts.StatusReturned:
		if trx.LedgerHeld && !trx.LedgerReversed {
			return consts.LedgerEffectReverse
		}
	}
	return ""
}
