package controllers

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/radhian/payout-disbursement/handler"
)

func RegisterPayoutRoutes(router *mux.Router, h *handler.PayoutHandler) {
	router.HandleFunc("/batches", h.IngestBatch).Methods("POST")
	router.HandleFunc("/batches/{id}", h.GetBatchResult).Methods("GET")
	router.HandleFunc("/batches/{id}/approval", h.GetApprovalState).Methods("GET")
	router.HandleFunc("/batches/{id}/reviews", h.SubmitReview).Methods("POST")
	router.HandleFunc("/batches/{id}/reviews/eligibility", h.CheckReviewEligibility).Methods("GET")
	router.HandleFunc("/batches/{id}/disburse", h.DisburseBatch).Methods("POST")
	router.HandleFunc("/batches/{id}/disburse/eligibility", h.CheckDisburseEligibility).Methods("GET")

	router.HandleFunc("/disbursements/instant", h.InstantDisbursement).Methods("POST")
	router.HandleFunc("/transactions/{id}/history", h.GetTransactionHistory).Methods("GET")
	router.HandleFunc("/callbacks/{family}", h.HandleCallback).Methods("POST")

	router.HandleFunc("/budgets", h.OpenBudget).Methods("POST")
	router.HandleFunc("/budgets/{operator_id}", h.GetBudget).Methods("GET")
	router.HandleFunc("/budgets/{operator_id}/fees", h.QuoteFees).Methods("GET")
	router.HandleFunc("/budgets/{operator_id}/top_up", h.TopUp).Methods("POST")
	router.HandleFunc("/budgets/{operator_id}/fee_rules", h.SetFeeRule).Methods("POST")

	router.HandleFunc("/review_policies", h.ConfigurePolicy).Methods("POST")
}

func RegisterMetricsRoute(router *mux.Router, gatherer prometheus.Gatherer) {
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
