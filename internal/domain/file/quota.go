package file

import (
	"context"

	"cloudvault/internal/domain/plan"
)

// PlanPolicy is implemented by the plan service.
type PlanPolicy interface {
	StorageLimitBytes(ctx context.Context, ownerID string) (*int64, error)
	MaxFileSizeBytes(ctx context.Context, ownerID string) (*int64, error)
	PlanForOwner(ctx context.Context, ownerID string) (plan.ID, error)
}

// QuotaEnforcer compares a tenant's stored bytes against the plan-derived
// storage limit.
type QuotaEnforcer struct {
	files  Repository
	policy PlanPolicy
}

func NewQuotaEnforcer(files Repository, policy PlanPolicy) *QuotaEnforcer {
	return &QuotaEnforcer{files: files, policy: policy}
}

// UsedBytes is the tenant's current quota usage: uploaded, non-soft-deleted
// bytes only.
func (q *QuotaEnforcer) UsedBytes(ctx context.Context, ownerID string) (int64, error) {
	return q.files.SumUploadedSizeByOwner(ctx, ownerID)
}

// IsOverQuota reports whether used exceeds limitBytes. A nil limit means
// unlimited and is never over.
func (q *QuotaEnforcer) IsOverQuota(used int64, limitBytes *int64) bool {
	return limitBytes != nil && used > *limitBytes
}

// Check returns a policy denial when adding extraBytes would push the tenant
// strictly over the plan's storage limit.
func (q *QuotaEnforcer) Check(ctx context.Context, ownerID string, extraBytes int64) error {
	limit, err := q.policy.StorageLimitBytes(ctx, ownerID)
	if err != nil {
		return err
	}
	if limit == nil {
		return nil
	}

	used, err := q.UsedBytes(ctx, ownerID)
	if err != nil {
		return err
	}
	if !q.IsOverQuota(used+extraBytes, limit) {
		return nil
	}

	planID, err := q.policy.PlanForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return &plan.LimitError{
		Err:       plan.ErrStorageQuotaExceeded,
		Current:   used,
		Limit:     *limit,
		PlanID:    planID,
		UpgradeTo: plan.NextPlan(planID),
	}
}
