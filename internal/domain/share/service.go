package share

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	filedomain "cloudvault/internal/domain/file"
	folderdomain "cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
	"cloudvault/internal/pkg/sharetoken"
)

// PlanPolicy is implemented by the plan service.
type PlanPolicy interface {
	SharePolicy(ctx context.Context, ownerID string) (plan.SharePolicy, error)
	PlanForOwner(ctx context.Context, ownerID string) (plan.ID, error)
}

// FileStore is the slice of the file repository the controller needs.
type FileStore interface {
	FindActiveByID(ctx context.Context, ownerID, id string) (*filedomain.CloudFile, error)
	FindAnyActiveByID(ctx context.Context, id string) (*filedomain.CloudFile, error)
	ListActiveByFolder(ctx context.Context, ownerID string, folderID *string) ([]*filedomain.CloudFile, error)
}

// FolderStore is the slice of the folder repository the controller needs.
type FolderStore interface {
	GetByID(ctx context.Context, ownerID, id string) (*folderdomain.Folder, error)
	GetAnyByID(ctx context.Context, id string) (*folderdomain.Folder, error)
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*folderdomain.Folder, error)
}

// Service issues share links under plan policy and controls access through
// them.
type Service struct {
	repo        Repository
	plans       PlanPolicy
	tokens      *sharetoken.Service
	files       FileStore
	folders     FolderStore
	defaultDays int
}

func NewService(repo Repository, plans PlanPolicy, tokens *sharetoken.Service, files FileStore, folders FolderStore, defaultExpirationDays int) *Service {
	if defaultExpirationDays <= 0 {
		defaultExpirationDays = 7
	}
	return &Service{
		repo:        repo,
		plans:       plans,
		tokens:      tokens,
		files:       files,
		folders:     folders,
		defaultDays: defaultExpirationDays,
	}
}

// CreateParams are the owner-supplied fields for a new link.
type CreateParams struct {
	FileIDs   []string
	FolderIDs []string
	ExpiresAt *time.Time
	Password  string
}

// Create issues a new share link after validating targets and plan policy.
func (s *Service) Create(ctx context.Context, ownerID string, params CreateParams) (*ShareLink, error) {
	if len(params.FileIDs) == 0 && len(params.FolderIDs) == 0 {
		return nil, ErrNoTargets
	}

	policy, err := s.plans.SharePolicy(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := s.validateTargets(ctx, ownerID, policy, params.FileIDs, params.FolderIDs); err != nil {
		return nil, err
	}

	now := time.Now()
	if policy.MaxActiveLinks != nil {
		active, err := s.repo.CountActiveByOwner(ctx, ownerID, now)
		if err != nil {
			return nil, err
		}
		if active >= *policy.MaxActiveLinks {
			return nil, s.limitError(ctx, ownerID, plan.ErrShareLinkLimitReached, active, *policy.MaxActiveLinks)
		}
	}

	expiresAt, err := s.resolveExpiration(ctx, ownerID, policy, params.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(ctx, ownerID, policy, params.Password)
	if err != nil {
		return nil, err
	}

	token, err := NewToken()
	if err != nil {
		return nil, err
	}

	link := &ShareLink{
		ID:           uuid.New().String(),
		Token:        token,
		OwnerID:      ownerID,
		ExpiresAt:    expiresAt,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, link, params.FileIDs, params.FolderIDs); err != nil {
		return nil, err
	}
	return link, nil
}

// UpdateParams carry optional replacements; nil fields are left untouched.
type UpdateParams struct {
	FileIDs     *[]string
	FolderIDs   *[]string
	ExpiresAt   *time.Time
	ClearExpiry bool
	Password    *string
}

// Update mutates a link's targets, expiration or password. Only the owner
// may update, and only while the link is neither revoked nor expired.
func (s *Service) Update(ctx context.Context, ownerID, linkID string, params UpdateParams) (*ShareLink, error) {
	link, err := s.repo.GetByID(ctx, ownerID, linkID)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateActive(link); err != nil {
		return nil, err
	}

	policy, err := s.plans.SharePolicy(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	fileIDs, err := s.repo.FileIDs(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	folderIDs, err := s.repo.FolderIDs(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	targetsChanged := false
	if params.FileIDs != nil {
		fileIDs = *params.FileIDs
		targetsChanged = true
	}
	if params.FolderIDs != nil {
		folderIDs = *params.FolderIDs
		targetsChanged = true
	}
	if len(fileIDs) == 0 && len(folderIDs) == 0 {
		return nil, ErrNoTargets
	}
	if targetsChanged {
		if err := s.validateTargets(ctx, ownerID, policy, fileIDs, folderIDs); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if params.ClearExpiry || params.ExpiresAt != nil {
		var requested *time.Time
		if !params.ClearExpiry {
			requested = params.ExpiresAt
		}
		expiresAt, err := s.resolveExpiration(ctx, ownerID, policy, requested, now)
		if err != nil {
			return nil, err
		}
		link.ExpiresAt = expiresAt
	}

	if params.Password != nil {
		hash, err := s.hashPassword(ctx, ownerID, policy, *params.Password)
		if err != nil {
			return nil, err
		}
		link.PasswordHash = hash
	}

	link.UpdatedAt = now
	if err := s.repo.Save(ctx, link); err != nil {
		return nil, err
	}
	if targetsChanged {
		if err := s.repo.ReplaceTargets(ctx, link.ID, fileIDs, folderIDs); err != nil {
			return nil, err
		}
	}
	return link, nil
}

// Revoke terminates a link. Idempotent.
func (s *Service) Revoke(ctx context.Context, ownerID, linkID string) error {
	link, err := s.repo.GetByID(ctx, ownerID, linkID)
	if err != nil {
		return err
	}
	return s.repo.Revoke(ctx, link.ID, time.Now())
}

// Delete removes a link entirely. Only the owner's explicit delete ever
// hard-deletes a link.
func (s *Service) Delete(ctx context.Context, ownerID, linkID string) error {
	link, err := s.repo.GetByID(ctx, ownerID, linkID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, link.ID)
}

func (s *Service) Get(ctx context.Context, ownerID, linkID string) (*ShareLink, error) {
	return s.repo.GetByID(ctx, ownerID, linkID)
}

func (s *Service) List(ctx context.Context, ownerID string) ([]*ShareLink, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) GetByToken(ctx context.Context, token string) (*ShareLink, error) {
	return s.repo.GetByToken(ctx, token)
}

// ---- policy helpers ----

func (s *Service) validateTargets(ctx context.Context, ownerID string, policy plan.SharePolicy, fileIDs, folderIDs []string) error {
	if len(folderIDs) > 0 && !policy.FolderSharingAllowed {
		return s.limitError(ctx, ownerID, plan.ErrFolderSharingNotAllowed, 0, 0)
	}
	for _, folderID := range folderIDs {
		f, err := s.folders.GetByID(ctx, ownerID, folderID)
		if err != nil {
			if err == folderdomain.ErrNotFound {
				return ErrTargetNotFound
			}
			return err
		}
		if !f.IsRoot() {
			return ErrFolderNotRoot
		}
	}
	for _, fileID := range fileIDs {
		if _, err := s.files.FindActiveByID(ctx, ownerID, fileID); err != nil {
			if err == filedomain.ErrNotFound {
				return ErrTargetNotFound
			}
			return err
		}
	}
	return nil
}

// resolveExpiration applies the plan's expiration policy. Plans without
// custom expiration ignore the requested value and get the plan maximum (or
// the global default) silently; plans with it may choose any value up to the
// maximum.
func (s *Service) resolveExpiration(ctx context.Context, ownerID string, policy plan.SharePolicy, requested *time.Time, now time.Time) (*time.Time, error) {
	maxDays := int64(s.defaultDays)
	if policy.MaxExpirationDays != nil {
		maxDays = *policy.MaxExpirationDays
	}

	if !policy.CustomExpirationAllowed {
		capped := now.AddDate(0, 0, int(maxDays))
		return &capped, nil
	}

	if requested == nil {
		if policy.MaxExpirationDays == nil {
			return nil, nil
		}
		capped := now.AddDate(0, 0, int(maxDays))
		return &capped, nil
	}

	if policy.MaxExpirationDays != nil {
		limit := now.AddDate(0, 0, int(*policy.MaxExpirationDays))
		if requested.After(limit) {
			return nil, s.limitError(ctx, ownerID, plan.ErrShareExpirationTooLong, 0, *policy.MaxExpirationDays)
		}
	}
	t := *requested
	return &t, nil
}

func (s *Service) hashPassword(ctx context.Context, ownerID string, policy plan.SharePolicy, password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	if !policy.PasswordAllowed {
		return nil, s.limitError(ctx, ownerID, plan.ErrSharePasswordNotAllowed, 0, 0)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	h := string(hash)
	return &h, nil
}

func (s *Service) limitError(ctx context.Context, ownerID string, sentinel error, current, limit int64) error {
	planID, err := s.plans.PlanForOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	return &plan.LimitError{
		Err:       sentinel,
		Current:   current,
		Limit:     limit,
		PlanID:    planID,
		UpgradeTo: plan.NextPlan(planID),
	}
}
