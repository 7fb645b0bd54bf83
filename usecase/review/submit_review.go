package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
)

// CanReview allows a reviewer only when every lower authority level has already been passed: the
// reviewer's level may be at most one above the number of reviews submitted so far.
func (u *reviewUsecase) CanReview(ctx context.Context, reviewerID, batchID int64) (bool, bool, error) {
	batch, err := u.dao.GetBatchByID(batchID)
	if err != nil {
		return false, false, err
	}
	reviewer, err := u.dao.GetReviewerByID(reviewerID)
	if err != nil {
		return false, false, err
	}
	reviews, err := u.dao.GetReviewsByBatchID(batchID)
	if err != nil {
		return false, false, fmt.Errorf("failed to load reviews: %w", err)
	}

	allowed, already := canReview(batch, reviewer, reviews)
	return allowed, already, nil
}

func canReview(batch model.Batch, reviewer model.Reviewer, reviews []model.Review) (bool, bool) {
	for _, r := range reviews {
		if r.ReviewerID == reviewer.ID {
			return false, true
		}
	}
	if reviewer.OperatorID != batch.OwnerID {
		return false, false
	}
	return reviewer.Level <= len(reviews)+1, false
}

func (u *reviewUsecase) SubmitReview(ctx context.Context, batchID int64, req entity.SubmitReviewRequest) (*model.Review, entity.ApprovalState, error) {
	if !req.IsOk && strings.TrimSpace(req.Comment) == "" {
		return nil, entity.ApprovalState{}, entity.NewValidationError("comment", "comment is required when rejecting a batch")
	}

	var (
		review *model.Review
		state  entity.ApprovalState
		notice *entity.ReviewNotice
	)

	err := u.locker.WithLock(ctx, fmt.Sprintf("review:%d", batchID), func(ctx context.Context) error {
		batch, err := u.dao.GetBatchByID(batchID)
		if err != nil {
			return err
		}
		if batch.IsDisbursed {
			return entity.NewValidationError("batch_id", "batch is already disbursed")
		}

		policy, err := u.dao.GetReviewPolicyByID(batch.CategoryID)
		if err != nil {
			return fmt.Errorf("failed to load review policy: %w", err)
		}
		reviewer, err := u.dao.GetReviewerByID(req.ReviewerID)
		if err != nil {
			return err
		}
		reviews, err := u.dao.GetReviewsByBatchID(batchID)
		if err != nil {
			return fmt.Errorf("failed to load reviews: %w", err)
		}

		allowed, already := canReview(batch, reviewer, reviews)
		if already {
			return entity.NewValidationError("reviewer_id", "reviewer already reviewed this batch")
		}
		if !allowed {
			return entity.NewValidationError("reviewer_id",
				fmt.Sprintf("reviewer of level %d cannot review before the lower levels", reviewer.Level))
		}

		previous := foldReviews(reviews, policy.RequiredReviews)

		review = &model.Review{
			BatchID:    batchID,
			ReviewerID: reviewer.ID,
			IsOk:       req.IsOk,
			Comment:    req.Comment,
			CreateTime: time.Now().Unix(),
		}
		if err := u.dao.CreateReview(review); err != nil {
			return fmt.Errorf("failed to save review: %w", err)
		}

		state = previous.Apply(req.IsOk, policy.RequiredReviews)
		log.Infof("[Review] batch_id:%d reviewer_id:%d is_ok:%t state:%s -> %s",
			batchID, reviewer.ID, req.IsOk, previous, state)

		if state.Kind == entity.Authorized && previous.Kind != entity.Authorized {
			batch.ReadyForDisbursement = true
			batch.UpdateTime = time.Now().Unix()
			batch.UpdateBy = reviewer.Name
			if err := u.dao.UpdateBatch(batch); err != nil {
				return fmt.Errorf("failed to mark batch authorized: %w", err)
			}
			notice, err = u.remainingTiers(batch, append(reviews, *review), state)
			if err != nil {
				log.Warnf("[Review] batch_id:%d could not resolve remaining reviewers: %v", batchID, err)
			}
		}

		if state.Kind == entity.Rejected && batch.ReadyForDisbursement {
			batch.ReadyForDisbursement = false
			batch.UpdateTime = time.Now().Unix()
			batch.UpdateBy = reviewer.Name
			if err := u.dao.UpdateBatch(batch); err != nil {
				return fmt.Errorf("failed to withdraw batch authorization: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, entity.ApprovalState{}, err
	}

	if notice != nil && u.notifier != nil {
		if err := u.notifier.PublishReviewNotice(ctx, *notice); err != nil {
			log.Errorf("[Review] batch_id:%d notify failed: %v", batchID, err)
		}
	}
	return review, state, nil
}

func (u *reviewUsecase) remainingTiers(batch model.Batch, reviews []model.Review, state entity.ApprovalState) (*entity.ReviewNotice, error) {
	reviewers, err := u.dao.GetReviewersByOperatorID(batch.OwnerID)
	if err != nil {
		return nil, err
	}

	reviewed := make(map[int64]bool, len(reviews))
	for _, r := range reviews {
		reviewed[r.ReviewerID] = true
	}

	notice := &entity.ReviewNotice{
		BatchID:    batch.ID,
		OperatorID: batch.OwnerID,
		State:      state.String(),
		Timestamp:  time.Now().Unix(),
	}
	for _, r := range reviewers {
		if !reviewed[r.ID] {
			notice.ReviewerIDs = append(notice.ReviewerIDs, r.ID)
		}
	}
	return notice, nil
}

func (u *reviewUsecase) GetApprovalState(ctx context.Context, batchID int64) (entity.ApprovalState, error) {
	batch, err := u.dao.GetBatchByID(batchID)
	if err != nil {
		return entity.ApprovalState{}, err
	}
	policy, err := u.dao.GetReviewPolicyByID(batch.CategoryID)
	if err != nil {
		return entity.ApprovalState{}, fmt.Errorf("failed to load review policy: %w", err)
	}
	reviews, err := u.dao.GetReviewsByBatchID(batchID)
	if err != nil {
		return entity.ApprovalState{}, fmt.Errorf("failed to load reviews: %w", err)
	}
	return foldReviews(reviews, policy.RequiredReviews), nil
}

// CanDisburse combines the approval state with the disburser's own amount permission.
func (u *reviewUsecase) CanDisburse(ctx context.Context, disburserID, batchID int64) (entity.DisburseEligibility, error) {
	batch, err := u.dao.GetBatchByID(batchID)
	if err != nil {
		return entity.DisburseEligibility{}, err
	}
	if batch.IsDisbursed {
		return entity.DisburseEligibility{Code: consts.DisburseDeniedDisbursed, Reason: "batch is already disbursed"}, nil
	}

	disburser, err := u.dao.GetReviewerByID(disburserID)
	if err != nil {
		return entity.DisburseEligibility{}, err
	}
	if disburser.OperatorID != batch.OwnerID {
		return entity.DisburseEligibility{Code: consts.DisburseDeniedNotPermitted, Reason: "not permitted to disburse"}, nil
	}

	state, err := u.GetApprovalState(ctx, batchID)
	if err != nil {
		return entity.DisburseEligibility{}, err
	}

	switch {
	case state.Kind == entity.Rejected:
		return entity.DisburseEligibility{
			Code:   consts.DisburseDeniedConflict,
			Reason: "issues are submitted by some reviewers, resolve any conflict first",
		}, nil
	case state.Kind != entity.Authorized:
		return entity.DisburseEligibility{
			Code:   consts.DisburseDeniedQuorum,
			Reason: "batch is still suspended due to shortage of reviews",
		}, nil
	case disburser.MaxAmountCanBeDisbursed.LessThan(batch.TotalAmount):
		return entity.DisburseEligibility{Code: consts.DisburseDeniedNotPermitted, Reason: "not permitted to disburse"}, nil
	}
	return entity.DisburseEligibility{Allowed: true}, nil
}

func foldReviews(reviews []model.Review, required int) entity.ApprovalState {
	verdicts := make([]bool, 0, len(reviews))
	for _, r := range reviews {
		verdicts = append(verdicts, r.IsOk)
	}
	return entity.FoldReviews(verdicts, required)
}
