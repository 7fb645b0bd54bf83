package entity

import "fmt"

// ApprovalKind tags the variant of a batch's approval state.
type ApprovalKind int

const (
	Unreviewed ApprovalKind = iota
	PartiallyReviewed
	Authorized
	Rejected
)

func (k ApprovalKind) String() string {
	switch k {
	case Unreviewed:
		return "unreviewed"
	case PartiallyReviewed:
		return "partially_reviewed"
	case Authorized:
		return "authorized"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ApprovalState is Unreviewed | PartiallyReviewed{Count} | Authorized{Count} | Rejected.
// Count is the number of positive reviews folded so far.
type ApprovalState struct {
	Kind  ApprovalKind `json:"kind"`
	Count int          `json:"positive_count"`
}

// Apply is the single transition function of the review gate.
// A negative verdict always rejects and Rejected absorbs everything after it, so the resulting
// kind depends only on the multiset of verdicts and not on their order.
func (s ApprovalState) Apply(isOk bool, required int) ApprovalState {
	if s.Kind == Rejected {
		return s
	}
	if !isOk {
		return ApprovalState{Kind: Rejected, Count: s.Count}
	}

	count := s.Count + 1
	if count >= required {
		return ApprovalState{Kind: Authorized, Count: count}
	}
	return ApprovalState{Kind: PartiallyReviewed, Count: count}
}

// FoldReviews folds verdicts from the zero state.
func FoldReviews(verdicts []bool, required int) ApprovalState {
	state := ApprovalState{Kind: Unreviewed}
	for _, isOk := range verdicts {
		state = state.Apply(isOk, required)
	}
	return state
}

func (s ApprovalState) String() string {
	if s.Kind == PartiallyReviewed || s.Kind == Authorized {
		return fmt.Sprintf("%s(%d)", s.Kind, s.Count)
	}
	return s.Kind.String()
}
