package handler

import (
	"net/http"

	"github.com/radhian/payout-disbursement/entity"
)

func (h *PayoutHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req entity.IngestBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := h.Disbursement.IngestBatch(r.Context(), req)
	if err != nil {
		writeUsecaseError(w, "IngestBatch", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", batch)
}

func (h *PayoutHandler) GetApprovalState(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.Review.GetApprovalState(r.Context(), batchID)
	if err != nil {
		writeUsecaseError(w, "GetApprovalState", err)
		return
	}
	writeSuccess(w, http.StatusOK, state.String(), state)
}
