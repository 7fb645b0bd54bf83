package dao

import (
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

type DaoMethod interface {
	CreateBatch(batch *model.Batch, records []model.DisbursementRecord) error
	GetBatchByID(batchID int64) (model.Batch, error)
	UpdateBatch(batch model.Batch) error
	MarkBatchHasCallback(batchID int64, updateTime int64) error
	GetDisbursementRecordsByBatchID(batchID int64) ([]model.DisbursementRecord, error)

	CreateReview(review *model.Review) error
	GetReviewsByBatchID(batchID int64) ([]model.Review, error)
	CreateReviewPolicy(policy *model.ReviewPolicy) error
	GetReviewPolicyByID(policyID int64) (model.ReviewPolicy, error)
	CreateReviewer(reviewer *model.Reviewer) error
	GetReviewerByID(reviewerID int64) (model.Reviewer, error)
	GetReviewersByOperatorID(operatorID int64) ([]model.Reviewer, error)

	CreateTransaction(trx *model.Transaction) error
	GetTransactionByID(trxID int64) (model.Transaction, error)
	GetTransactionByReference(reference string) (model.Transaction, error)
	GetTransactionsByBatchID(batchID int64) ([]model.Transaction, error)
	GetStaleTransactions(family string, staleBefore int64, limit int) ([]model.Transaction, error)
	GetUnsettledTransactions(operatorID int64) ([]model.Transaction, error)
	MarkInquiryAttempt(trxID int64, attemptTime int64) error
	UpdateTransaction(trx model.Transaction, entry *model.TransactionStatusLog) error
	GetTransactionStatusLogs(trxID int64) ([]model.TransactionStatusLog, error)

	CreateBudget(budget *model.Budget) error
	GetBudgetByOperatorID(operatorID int64) (model.Budget, error)
	UpdateBudget(operatorID int64, mutate func(budget *model.Budget) error) (model.Budget, error)
	CreateFeeRule(rule *model.FeeRule) error
	GetFeeRule(operatorID int64, issuer string) (model.FeeRule, error)

	CreateAgent(agent *model.Agent) error
	GetAgents(operatorID int64, issuer string) ([]model.Agent, error)
	UpdateAgentLastUsed(agentID int64, usedTime int64) error
}

type dao struct {
	db *gorm.DB
}

func NewDaoMethod(db *gorm.DB) DaoMethod {
	return &dao{db: db}
}

func notFound(err error, what string, id interface{}) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s %v: %w", what, id, entity.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s %v: %w", what, id, err)
}
