package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/entity"
)

const maxCallbackBody = 1 << 20

// HandleCallback acknowledges every callback the engine accepted or deliberately dropped, so
// providers stop redelivering codes that were already applied.
func (h *PayoutHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	family := mux.Vars(r)["family"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trx, err := h.Transition.HandleCallback(r.Context(), family, body)
	if errors.Is(err, entity.ErrStaleCodeIgnored) {
		if trx != nil {
			log.Infof("[Callback] family:%s trx_id:%d code ignored", family, trx.ID)
		}
		writeSuccess(w, http.StatusOK, "ignored", trx)
		return
	}
	if err != nil {
		writeUsecaseError(w, "Callback", err)
		return
	}
	writeSuccess(w, http.StatusOK, "applied", trx)
}
