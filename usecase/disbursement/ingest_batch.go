package disbursement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/radhian/payout-disbursement/consts"
	"github.com/radhian/payout-disbursement/entity"
	"github.com/radhian/payout-disbursement/infra/db/model"
	"github.com/shopspring/decimal"
)

// IngestBatch stores an uploaded, already parsed sheet as a processed batch waiting for review.
func (u *disbursementUsecase) IngestBatch(ctx context.Context, req entity.IngestBatchRequest) (*model.Batch, error) {
	if req.OwnerID <= 0 {
		return nil, entity.NewValidationError("owner_id", "owner is required")
	}
	if len(req.Records) == 0 {
		return nil, entity.NewValidationError("records", "batch has no records")
	}

	policy, err := u.dao.GetReviewPolicyByID(req.CategoryID)
	if err != nil {
		return nil, entity.NewValidationError("category_id", fmt.Sprintf("unknown category %d", req.CategoryID))
	}
	if policy.OperatorID != req.OwnerID {
		return nil, entity.NewValidationError("category_id", "category belongs to another operator")
	}

	operator := req.Operator
	if operator == "" {
		operator = consts.SystemUser
	}
	now := u.now().Unix()

	total := decimal.Zero
	families := make(map[string]bool)
	records := make([]model.DisbursementRecord, 0, len(req.Records))
	for i, r := range req.Records {
		field := fmt.Sprintf("records[%d]", i)

		recipient := strings.TrimSpace(r.Recipient)
		if recipient == "" {
			return nil, entity.NewValidationError(field, "recipient is required")
		}
		if !r.Amount.IsPositive() {
			return nil, entity.NewValidationError(field, "amount must be positive")
		}
		if !r.Amount.Equal(r.Amount.Round(2)) {
			return nil, entity.NewValidationError(field, "amount has more than 2 decimals")
		}

		issuer := strings.ToLower(strings.TrimSpace(r.Issuer))
		family, err := u.registry.Routing().FamilyOf(issuer)
		if err != nil {
			return nil, entity.NewValidationError(field, fmt.Sprintf("unsupported issuer %q", r.Issuer))
		}
		if req.IssuerFamily != "" && req.IssuerFamily != family {
			return nil, entity.NewValidationError(field, fmt.Sprintf("issuer %s is not a %s issuer", issuer, req.IssuerFamily))
		}
		if msg := u.railAmountError(family, r.Amount); msg != "" {
			return nil, entity.NewValidationError(field, msg)
		}
		families[family] = true

		extra := ""
		if len(r.ExtraFields) > 0 {
			raw, err := json.Marshal(r.ExtraFields)
			if err != nil {
				return nil, fmt.Errorf("failed to encode extra fields of %s: %w", field, err)
			}
			extra = string(raw)
		}

		total = total.Add(r.Amount)
		records = append(records, model.DisbursementRecord{
			Recipient:   recipient,
			Amount:      r.Amount,
			Issuer:      issuer,
			ExtraFields: extra,
			CreateTime:  now,
			CreateBy:    operator,
		})
	}

	batch := &model.Batch{
		OwnerID:      req.OwnerID,
		CategoryID:   req.CategoryID,
		IssuerFamily: batchFamily(req.IssuerFamily, families),
		TotalAmount:  total,
		TotalCount:   int64(len(records)),
		IsProcessed:  true,
		CreateTime:   now,
		CreateBy:     operator,
		UpdateTime:   now,
		UpdateBy:     operator,
	}
	if err := u.dao.CreateBatch(batch, records); err != nil {
		return nil, err
	}

	log.Infof("[Ingest] batch_id:%d owner_id:%d records:%d total:%s family:%s",
		batch.ID, batch.OwnerID, batch.TotalCount, batch.TotalAmount.StringFixed(2), batch.IssuerFamily)
	return batch, nil
}

func batchFamily(requested string, families map[string]bool) string {
	if requested != "" {
		return requested
	}
	if len(families) == 1 {
		for family := range families {
			return family
		}
	}
	return consts.FamilyMixed
}
