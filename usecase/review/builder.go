package review

import (
	"context"

	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/dao"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/radhian/payout-disbursement/infra/locker"
)

type ReviewUsecase interface {
	CanReview(ctx context.Context, reviewerID, batchID int64) (allowed bool, alreadyReviewed bool, err error)
	SubmitReview(ctx context.Context, batchID int64, req entity.SubmitReviewRequest) (*model.Review, entity.ApprovalState, error)
	GetApprovalState(ctx context.Context, batchID int64) (entity.ApprovalState, error)
	CanDisburse(ctx context.Context, disburserID, batchID int64) (entity.DisburseEligibility, error)
	ConfigurePolicy(ctx context.Context, req entity.ReviewPolicyRequest) (*model.ReviewPolicy, error)
}

// Notifier tells the remaining reviewer tiers that a batch was authorized.
type Notifier interface {
	PublishReviewNotice(ctx context.Context, notice entity.ReviewNotice) error
}

type reviewUsecase struct {
	dao      dao.DaoMethod
	locker   locker.Locker
	notifier Notifier
}

func NewReviewUsecase(d dao.DaoMethod, l locker.Locker, n Notifier) ReviewUsecase {
	return &reviewUsecase{dao: d, locker: l, notifier: n}
}
