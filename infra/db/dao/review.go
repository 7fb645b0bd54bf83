package dao

import (
	"fmt"

	"github.com/radhian/payout-disbursement/infra/db/model"
)

func (d *dao) CreateReview(review *model.Review) error {
	if err := d.db.Create(review).Error; err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return nil
}

func (d *dao) GetReviewsByBatchID(batchID int64) ([]model.Review, error) {
	var reviews []model.Review
	if err := d.db.
		Where("batch_id = ?", batchID).
		Order("create_time ASC, id ASC").
		Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (d *dao) CreateReviewPolicy(policy *model.ReviewPolicy) error {
	if err := d.db.Create(policy).Error; err != nil {
		return fmt.Errorf("failed to save review policy: %w", err)
	}
	return nil
}

func (d *dao) GetReviewPolicyByID(policyID int64) (model.ReviewPolicy, error) {
	var policy model.ReviewPolicy
	if err := d.db.First(&policy, policyID).Error; err != nil {
		return policy, notFound(err, "review policy", policyID)
	}
	return policy, nil
}

func (d *dao) CreateReviewer(reviewer *model.Reviewer) error {
	if err := d.db.Create(reviewer).Error; err != nil {
		return fmt.Errorf("failed to save reviewer: %w", err)
	}
	return nil
}

func (d *dao) GetReviewerByID(reviewerID int64) (model.Reviewer, error) {
	var reviewer model.Reviewer
	if err := d.db.First(&reviewer, reviewerID).Error; err != nil {
		return reviewer, notFound(err, "reviewer", reviewerID)
	}
	return reviewer, nil
}

func (d *dao) GetReviewersByOperatorID(operatorID int64) ([]model.Reviewer, error) {
	var reviewers []model.Reviewer
	if err := d.db.
		Where("operator_id = ?", operatorID).
		Order("level ASC, id ASC").
		Find(&reviewers).Error; err != nil {
		return nil, err
	}
	return reviewers, nil
}
