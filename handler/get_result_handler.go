package handler

import (
	"net/http"
)

func (h *PayoutHandler) GetBatchResult(w http.ResponseWriter, r *http.Request) {
	batchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Disbursement.GetBatchResult(r.Context(), batchID)
	if err != nil {
		writeUsecaseError(w, "GetBatchResult", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", result)
}

func (h *PayoutHandler) GetTransactionHistory(w http.ResponseWriter, r *http.Request) {
	trxID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.Reconciliation.GetTransactionHistory(r.Context(), trxID)
	if err != nil {
		writeUsecaseError(w, "GetTransactionHistory", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", history)
}
