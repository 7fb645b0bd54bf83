package consts

const (
	// Transaction status codes
	StatusPending        = 1
	StatusBeingProcessed = 2
	StatusSuccessful     = 3
	StatusFailed         = 4
	StatusRejected       = 5
	StatusReturned       = 6
)

var statusNames = map[int]string{
	StatusPending:        "pending",
	StatusBeingProcessed: "being_processed",
	StatusSuccessful:     "successful",
	StatusFailed:         "failed",
	StatusRejected:       "rejected",
	StatusReturned:       "returned",
}

// StatusName returns the wire name of a transaction status.
func StatusName(status int) string {
	if name, ok := statusNames[status]; ok {
		return name
	}
	return "unknown"
}

// StatusFromName is the inverse of StatusName.
func StatusFromName(name string) (int, bool) {
	for status, n := range statusNames {
		if n == name {
			return status, true
		}
	}
	return 0, false
}

// IsTerminal reports whether no further transition is expected for the status.
func IsTerminal(status int) bool {
	switch status {
	case StatusSuccessful, StatusFailed, StatusRejected, StatusReturned:
		return true
	}
	return false
}

// InFlightStatuses are the statuses the reconciliation worker polls for.
var InFlightStatuses = []int{StatusPending, StatusBeingProcessed}
