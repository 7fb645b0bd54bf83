package entity

// TransitionEvent is emitted once per applied (or ignored) status transition.
type TransitionEvent struct {
	EventID       string `json:"event_id"`
	TransactionID int64  `json:"transaction_id"`
	BatchID       int64  `json:"batch_id"`
	OperatorID    int64  `json:"operator_id"`
	Family        string `json:"family"`
	Source        string `json:"source"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	LedgerEffect  string `json:"ledger_effect,omitempty"`
	Ignored       bool   `json:"ignored"`
	Timestamp     int64  `json:"timestamp"`
}

// ReviewNotice tells the remaining reviewer tiers that a batch became authorized.
type ReviewNotice struct {
	BatchID     int64   `json:"batch_id"`
	OperatorID  int64   `json:"operator_id"`
	ReviewerIDs []int64 `json:"reviewer_ids"`
	State       string  `json:"state"`
	Timestamp   int64   `json:"timestamp"`
}
