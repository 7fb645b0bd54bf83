package handler

import (
	"net/http"

	"github.com/radhian/payout-disbursement/entity"
	"github.com/shopspring/decimal"
)

func (h *PayoutHandler) OpenBudget(w http.ResponseWriter, r *http.Request) {
	var req entity.OpenBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := h.Ledger.OpenBudget(r.Context(), req)
	if err != nil {
		writeUsecaseError(w, "OpenBudget", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", budget)
}

func (h *PayoutHandler) GetBudget(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operator_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := h.Ledger.GetBudget(r.Context(), operatorID)
	if err != nil {
		writeUsecaseError(w, "GetBudget", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", budget)
}

func (h *PayoutHandler) QuoteFees(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operator_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return
	}
	issuer := r.URL.Query().Get("issuer")
	if issuer == "" {
		writeError(w, http.StatusBadRequest, "issuer is required")
		return
	}

	quote, err := h.Ledger.Quote(r.Context(), operatorID, amount, issuer)
	if err != nil {
		writeUsecaseError(w, "QuoteFees", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", quote)
}

func (h *PayoutHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operator_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entity.TopUpRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := h.Ledger.TopUp(r.Context(), operatorID, req.Amount, req.Operator)
	if err != nil {
		writeUsecaseError(w, "TopUp", err)
		return
	}
	writeSuccess(w, http.StatusOK, "", budget)
}

func (h *PayoutHandler) SetFeeRule(w http.ResponseWriter, r *http.Request) {
	operatorID, err := pathID(r, "operator_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req entity.FeeRuleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := h.Ledger.SetFeeRule(r.Context(), operatorID, req)
	if err != nil {
		writeUsecaseError(w, "SetFeeRule", err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", rule)
}
