package handler

import (
	"net/http"

	"github.com/radhian/payout-disbursement/entity"
)

func (h *PayoutHandler) DisburseBatch(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entity.DisburseRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.DisburserID <= 0 {
		writeError(w, http.StatusBadRequest, "disburser_id is required")
		return
	}

	summary, err := h.Disbursement.DispatchBatch(r.Context(), batchID, req.DisburserID)
	if err != nil {
		writeUsecaseError(w, "DisburseBatch", err)
		return
	}
	writeSuccess(w, http.StatusOK, summary.FailureReason, summary)
}

func (h *PayoutHandler) InstantDisbursement(w http.ResponseWriter, r *http.Request) {
	var req entity.InstantDisbursementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trx, err := h.Disbursement.DispatchSingle(r.Context(), req)
	if err != nil {
		writeUsecaseError(w, "InstantDisbursement", err)
		return
	}
	writeSuccess(w, http.StatusOK, trx.Reason, trx)
}
