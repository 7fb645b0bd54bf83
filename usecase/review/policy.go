package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

// ValidatePolicy rejects a quorum no batch could ever reach: reviews escalate one authority level at
// a time, so the required count cannot exceed the number of distinct levels configured.
func ValidatePolicy(policy model.ReviewPolicy, reviewers []model.Reviewer) error {
	if policy.RequiredReviews < 1 {
		return entity.NewValidationError("required_reviews", "number of reviews must be greater than zero")
	}

	levels := make(map[int]struct{}, len(reviewers))
	for _, r := range reviewers {
		if r.OperatorID == policy.OperatorID {
			levels[r.Level] = struct{}{}
		}
	}
	if policy.RequiredReviews > len(levels) {
		return entity.NewValidationError("required_reviews",
			fmt.Sprintf("number of reviews %d exceeds the %d configured authority levels", policy.RequiredReviews, len(levels)))
	}
	return nil
}

func (u *reviewUsecase) ConfigurePolicy(ctx context.Context, req entity.ReviewPolicyRequest) (*model.ReviewPolicy, error) {
	if req.OperatorID <= 0 {
		return nil, entity.NewValidationError("operator_id", "operator_id is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, entity.NewValidationError("name", "name is required")
	}

	reviewers, err := u.dao.GetReviewersByOperatorID(req.OperatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewers: %w", err)
	}

	now := time.Now().Unix()
	policy := &model.ReviewPolicy{
		OperatorID:      req.OperatorID,
		Name:            req.Name,
		RequiredReviews: req.RequiredReviews,
		CreateTime:      now,
		UpdateTime:      now,
	}
	if err := ValidatePolicy(*policy, reviewers); err != nil {
		return nil, err
	}

	if err := u.dao.CreateReviewPolicy(policy); err != nil {
		return nil, err
	}
	return policy, nil
}
