package handler

import (
	"net/http"

	"github.com/radhian/payout-disbursement/entity"
)

type reviewEligibility struct {
	Allowed         bool `json:"allowed"`
	AlreadyReviewed bool `json:"already_reviewed"`
}

func (h *PayoutHandler) CheckReviewEligibility(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reviewerID, err := queryID(r, "reviewer_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	allowed, already, err := h.Review.CanReview(r.Context(), reviewerID, batchID)
	if err != nil {
		writeUsecaseError(w, "CheckReviewEligibility", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", reviewEligibility{Allowed: allowed, AlreadyReviewed: already})
}

func (h *PayoutHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entity.SubmitReviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	review, state, err := h.Review.SubmitReview(r.Context(), batchID, req)
	if err != nil {
		writeUsecaseError(w, "SubmitReview", err)
		return
	}
	writeSuccess(w, http.StatusCreated, state.String(), map[string]interface{}{
		"review":         review,
		"approval_state": state,
	})
}

func (h *PayoutHandler) CheckDisburseEligibility(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	disburserID, err := queryID(r, "disburser_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eligibility, err := h.Review.CanDisburse(r.Context(), disburserID, batchID)
	if err != nil {
		writeUsecaseError(w, "CheckDisburseEligibility", err)
		return
	}
	writeSuccess(w, http.StatusOK, eligibility.Reason, eligibility)
}

func (h *PayoutHandler) ConfigurePolicy(w http.ResponseWriter, r *http.Request) {
	var req entity.ReviewPolicyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	policy, err := h.Review.ConfigurePolicy(r.Context(), req)
	if err != nil {
		writeUsecaseError(w, "ConfigurePolicy", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", policy)
}
