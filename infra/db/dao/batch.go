package dao

import (
	"fmt"

	"github.com/radhian/payout-disbursement/infra/db/model"
)

func (d *dao) CreateBatch(batch *model.Batch, records []model.DisbursementRecord) error {
	tx := d.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if err := tx.Create(batch).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save batch: %w", err)
	}

	for i := range records {
		records[i].BatchID = batch.ID
		if err := tx.Create(&records[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save disbursement record: %w", err)
		}
	}

	return tx.Commit().Error
}

func (d *dao) GetBatchByID(batchID int64) (model.Batch, error) {
	var batch model.Batch
	if err := d.db.First(&batch, batchID).Error; err != nil {
		return batch, notFound(err, "batch", batchID)
	}
	return batch, nil
}

func (d *dao) UpdateBatch(batch model.Batch) error {
	if err := d.db.Save(&batch).Error; err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	return nil
}

func (d *dao) MarkBatchHasCallback(batchID int64, updateTime int64) error {
	err := d.db.Model(&model.Batch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{"has_callback": true, "update_time": updateTime}).Error
	if err != nil {
		return fmt.Errorf("failed to flag batch callback: %w", err)
	}
	return nil
}

func (d *dao) GetDisbursementRecordsByBatchID(batchID int64) ([]model.DisbursementRecord, error) {
	var records []model.DisbursementRecord
	if err := d.db.
		Where("batch_id = ?", batchID).
		Order("id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
