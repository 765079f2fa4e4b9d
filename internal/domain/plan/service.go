package plan

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service resolves effective policy for tenants and manages subscriptions.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Plans returns all active plans (public, no auth required)
func (s *Service) Plans(ctx context.Context) ([]*Plan, error) {
	return s.repo.ListPlans(ctx)
}

// CurrentSubscription returns the tenant's active subscription and plan.
// Tenants without an active subscription get a virtual free-tier one.
func (s *Service) CurrentSubscription(ctx context.Context, ownerID string) (*Subscription, *Plan, error) {
	sub, err := s.repo.GetActiveByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	if sub == nil || sub.IsExpired() {
		freePlan, err := s.repo.GetPlanByID(ctx, PlanFree)
		if err != nil {
			return nil, nil, err
		}
		return &Subscription{
			OwnerID:   ownerID,
			PlanID:    PlanFree,
			Status:    StatusActive,
			StartedAt: time.Now(),
		}, freePlan, nil
	}

	p, err := s.repo.GetPlanByID(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return sub, p, nil
}

// PlanForOwner resolves the tenant's current plan ID, falling back to free.
func (s *Service) PlanForOwner(ctx context.Context, ownerID string) (ID, error) {
	sub, err := s.repo.GetActiveByOwnerID(ctx, ownerID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.IsExpired() {
		return PlanFree, nil
	}
	return sub.PlanID, nil
}

// EffectiveMetadata merges the feature's default metadata with the plan's
// override, override winning key-by-key. The result is a deep copy.
func (s *Service) EffectiveMetadata(ctx context.Context, planID ID, featureCode string) (Metadata, error) {
	feature, err := s.repo.GetFeature(ctx, featureCode)
	if err != nil {
		return nil, err
	}

	override, err := s.repo.GetPlanFeature(ctx, planID, featureCode)
	if err != nil {
		return nil, err
	}

	var overrideMeta Metadata
	if override != nil {
		overrideMeta = override.Metadata
	}
	return MergeMetadata(feature.Metadata, overrideMeta), nil
}

// EffectiveLimit returns the numeric value for key under the plan's effective
// feature metadata, or nil when neither the default nor the override defines it.
func (s *Service) EffectiveLimit(ctx context.Context, planID ID, featureCode, key string) (*int64, error) {
	meta, err := s.EffectiveMetadata(ctx, planID, featureCode)
	if err != nil {
		return nil, err
	}
	return LimitValue(meta, key), nil
}

// ---- Owner-scoped policy views consumed by the other domains ----

// StorageLimitBytes returns the tenant's storage quota in bytes; nil means
// unlimited. Plan limits are stored in decimal megabytes.
func (s *Service) StorageLimitBytes(ctx context.Context, ownerID string) (*int64, error) {
	return s.ownerLimitBytes(ctx, ownerID, KeyMaxStorageMB)
}

// MaxFileSizeBytes returns the per-file size ceiling in bytes; nil = unlimited.
func (s *Service) MaxFileSizeBytes(ctx context.Context, ownerID string) (*int64, error) {
	return s.ownerLimitBytes(ctx, ownerID, KeyMaxFileSizeMB)
}

func (s *Service) ownerLimitBytes(ctx context.Context, ownerID, key string) (*int64, error) {
	planID, err := s.PlanForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	mb, err := s.EffectiveLimit(ctx, planID, FeatureStorage, key)
	if err != nil {
		return nil, err
	}
	if mb == nil {
		return nil, nil
	}
	limit := *mb * BytesPerMB
	return &limit, nil
}

// FoldersAllowed reports whether the tenant's plan includes folders.
func (s *Service) FoldersAllowed(ctx context.Context, ownerID string) (bool, error) {
	planID, err := s.PlanForOwner(ctx, ownerID)
	if err != nil {
		return false, err
	}
	meta, err := s.EffectiveMetadata(ctx, planID, FeatureFolders)
	if err != nil {
		return false, err
	}
	return BoolValue(meta, KeyFoldersEnabled), nil
}

// SharePolicy resolves the tenant's effective share-link policy.
func (s *Service) SharePolicy(ctx context.Context, ownerID string) (SharePolicy, error) {
	planID, err := s.PlanForOwner(ctx, ownerID)
	if err != nil {
		return SharePolicy{}, err
	}
	meta, err := s.EffectiveMetadata(ctx, planID, FeatureShareLinks)
	if err != nil {
		return SharePolicy{}, err
	}
	return SharePolicy{
		MaxActiveLinks:          LimitValue(meta, KeyMaxActiveLinks),
		MaxExpirationDays:       LimitValue(meta, KeyMaxExpirationDays),
		CustomExpirationAllowed: BoolValue(meta, KeyCustomExpirationAllowed),
		PasswordAllowed:         BoolValue(meta, KeyPasswordAllowed),
		FolderSharingAllowed:    BoolValue(meta, KeyFolderSharingAllowed),
	}, nil
}

// ---- Policy gates (called by other services) ----

// CanCreateFolder returns nil when the tenant's plan includes folders, or a
// policy denial otherwise.
func (s *Service) CanCreateFolder(ctx context.Context, ownerID string) error {
	allowed, err := s.FoldersAllowed(ctx, ownerID)
	if err != nil {
		return err
	}
	if !allowed {
		planID, err := s.PlanForOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		return &LimitError{
			Err:       ErrFoldersNotAllowed,
			PlanID:    planID,
			UpgradeTo: NextPlan(planID),
		}
	}
	return nil
}

// ---- Subscription management ----

// ProvisionDefault creates the free-tier subscription for a fresh tenant.
// Called explicitly by signup orchestration; idempotent.
func (s *Service) ProvisionDefault(ctx context.Context, ownerID string) error {
	existing, err := s.repo.GetActiveByOwnerID(ctx, ownerID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	now := time.Now()
	return s.repo.CreateSubscription(ctx, &Subscription{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		PlanID:    PlanFree,
		Status:    StatusActive,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Subscribe switches the tenant to a new plan, cancelling the previous
// subscription.
func (s *Service) Subscribe(ctx context.Context, ownerID string, planID ID) (*Subscription, error) {
	p, err := s.repo.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetActiveByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := s.repo.CancelSubscription(ctx, existing.ID, fmt.Sprintf("switched to %s", p.ID)); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	sub := &Subscription{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		PlanID:    p.ID,
		Status:    StatusActive,
		StartedAt: now,
		ExpiresAt: sql.NullTime{Time: now.AddDate(0, 1, 0), Valid: true},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ExpireOldSubscriptions is called by the maintenance job.
func (s *Service) ExpireOldSubscriptions(ctx context.Context) (int, error) {
	return s.repo.ExpireOldSubscriptions(ctx)
}
