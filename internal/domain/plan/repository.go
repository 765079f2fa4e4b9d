package plan

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository handles persistence for plans, feature policies and subscriptions.
type Repository interface {
	ListPlans(ctx context.Context) ([]*Plan, error)
	GetPlanByID(ctx context.Context, id ID) (*Plan, error)

	GetFeature(ctx context.Context, code string) (*Feature, error)
	GetPlanFeature(ctx context.Context, planID ID, code string) (*PlanFeature, error)

	GetActiveByOwnerID(ctx context.Context, ownerID string) (*Subscription, error)
	CreateSubscription(ctx context.Context, sub *Subscription) error
	CancelSubscription(ctx context.Context, id string, reason string) error
	ExpireOldSubscriptions(ctx context.Context) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPlans(ctx context.Context) ([]*Plan, error) {
	var plans []*Plan
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("price_monthly ASC").Find(&plans).Error
	return plans, err
}

func (r *repository) GetPlanByID(ctx context.Context, id ID) (*Plan, error) {
	var p Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetFeature(ctx context.Context, code string) (*Feature, error) {
	var f Feature
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFeatureNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetPlanFeature returns nil without error when the plan has no override for
// the feature.
func (r *repository) GetPlanFeature(ctx context.Context, planID ID, code string) (*PlanFeature, error) {
	var pf PlanFeature
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND feature_code = ?", planID, code).
		First(&pf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pf, nil
}

func (r *repository) GetActiveByOwnerID(ctx context.Context, ownerID string) (*Subscription, error) {
	var sub Subscription
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, StatusActive).
		Order("created_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repository) CreateSubscription(ctx context.Context, sub *Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repository) CancelSubscription(ctx context.Context, id string, reason string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        StatusCancelled,
			"cancel_reason": reason,
			"cancelled_at":  now,
			"updated_at":    now,
		}).Error
}

func (r *repository) ExpireOldSubscriptions(ctx context.Context) (int, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", StatusActive, now).
		Updates(map[string]any{
			"status":     StatusExpired,
			"updated_at": now,
		})
	return int(result.RowsAffected), result.Error
}
