package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/usecase/disbursement"
	"github.com/radhian/payout-disbursement/usecase/ledger"
	"github.com/radhian/payout-disbursement/usecase/reconciliation"
	"github.com/radhian/payout-disbursement/usecase/review"
	"github.com/radhian/payout-disbursement/usecase/transition"
)

type PayoutHandler struct {
	Disbursement   disbursement.DisbursementUsecase
	Review         review.ReviewUsecase
	Ledger         ledger.LedgerUsecase
	Transition     transition.TransitionUsecase
	Reconciliation reconciliation.ReconciliationUsecase
}

func NewPayoutHandler(
	d disbursement.DisbursementUsecase,
	r review.ReviewUsecase,
	l ledger.LedgerUsecase,
	t transition.TransitionUsecase,
	rc reconciliation.ReconciliationUsecase,
) *PayoutHandler {
	return &PayoutHandler{
		Disbursement:   d,
		Review:         r,
		Ledger:         l,
		Transition:     t,
		Reconciliation: rc,
	}
}

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{
		Status:  "error",
		Message: message,
	})
}

// writeUsecaseError maps the error taxonomy onto HTTP statuses. Anything unexpected is logged and
// reported without detail.
func writeUsecaseError(w http.ResponseWriter, tag string, err error) {
	var (
		validation *entity.ValidationError
		budget     *entity.InsufficientBudgetError
		external   *entity.ExternalProviderError
	)

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &budget):
		writeError(w, http.StatusUnprocessableEntity, budget.Error())
	case errors.As(err, &external):
		log.Warnf("[%s] %v", tag, err)
		writeError(w, http.StatusBadGateway, "provider unavailable")
	case errors.Is(err, entity.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrBatchNotAuthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, entity.ErrBatchAlreadyDisbursed), errors.Is(err, entity.ErrDispatchInProgress):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrUnknownFamily):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("[%s] %v", tag, err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a valid integer", name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a valid integer", name)
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("Invalid request body")
	}
	return nil
}
