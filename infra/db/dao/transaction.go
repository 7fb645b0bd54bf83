package dao

import (
	"fmt"

	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

func (d *dao) CreateTransaction(trx *model.Transaction) error {
	if err := d.db.Create(trx).Error; err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (d *dao) GetTransactionByID(trxID int64) (model.Transaction, error) {
	var trx model.Transaction
	if err := d.db.First(&trx, trxID).Error; err != nil {
		return trx, notFound(err, "transaction", trxID)
	}
	return trx, nil
}

// GetTransactionByReference matches our own UID first, then the provider's reference.
func (d *dao) GetTransactionByReference(reference string) (model.Transaction, error) {
	var trx model.Transaction
	err := d.db.
		Where("uid = ? OR external_reference = ?", reference, reference).
		Order("id ASC").
		First(&trx).Error
	if err != nil {
		return trx, notFound(err, "transaction reference", reference)
	}
	return trx, nil
}

func (d *dao) GetTransactionsByBatchID(batchID int64) ([]model.Transaction, error) {
	var trxList []model.Transaction
	if err := d.db.
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&trxList).Error; err != nil {
		return nil, err
	}
	return trxList, nil
}

// GetUnsettledTransactions returns the operator's in-flight transactions that the ledger has not
// debited yet.
func (d *dao) GetUnsettledTransactions(operatorID int64) ([]model.Transaction, error) {
	var trxList []model.Transaction
	if err := d.db.
		Where("operator_id = ? AND status IN (?) AND ledger_held = ?", operatorID, consts.InFlightStatuses, false).
		Order("id ASC").
		Find(&trxList).Error; err != nil {
		return nil, err
	}
	return trxList, nil
}

// GetStaleTransactions returns in-flight (or unresolved failed) transactions of one family that were
// neither updated nor inquired since staleBefore, least recently touched first. Batches that already
// received a provider callback are skipped.
func (d *dao) GetStaleTransactions(family string, staleBefore int64, limit int) ([]model.Transaction, error) {
	const lastTouched = "GREATEST(transactions.update_time, COALESCE(transactions.last_inquiry_time, 0))"

	var trxList []model.Transaction
	if err := d.db.
		Select("transactions.*").
		Joins("LEFT JOIN batches ON batches.id = transactions.batch_id").
		Where("transactions.family = ?", family).
		Where(lastTouched+" <= ?", staleBefore).
		Where("transactions.status IN (?) OR (transactions.status = ? AND transactions.unresolved = ?)",
			consts.InFlightStatuses, consts.StatusFailed, true).
		Where("transactions.batch_id = 0 OR batches.has_callback = ?", false).
		Order(lastTouched + " ASC, transactions.id ASC").
		Limit(limit).
		Find(&trxList).Error; err != nil {
		return nil, err
	}
	return trxList, nil
}

// MarkInquiryAttempt stamps the time of a reconciliation attempt without touching anything else.
func (d *dao) MarkInquiryAttempt(trxID int64, attemptTime int64) error {
	if err := d.db.Model(&model.Transaction{}).
		Where("id = ?", trxID).
		UpdateColumn("last_inquiry_time", attemptTime).Error; err != nil {
		return fmt.Errorf("failed to stamp inquiry attempt: %w", err)
	}
	return nil
}

// UpdateTransaction saves the transaction and appends its status log entry atomically.
func (d *dao) UpdateTransaction(trx model.Transaction, entry *model.TransactionStatusLog) error {
	tx := d.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Save(&trx).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if entry != nil {
		entry.TransactionID = trx.ID
		if err := tx.Create(entry).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to append status log: %w", err)
		}
	}

	return tx.Commit().Error
}

func (d *dao) GetTransactionStatusLogs(trxID int64) ([]model.TransactionStatusLog, error) {
	var logs []model.TransactionStatusLog
	if err := d.db.
		Where("transaction_id = ?", trxID).
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
