package share

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Repository handles persistence for share links and their target references.
type Repository interface {
	Create(ctx context.Context, link *ShareLink, fileIDs, folderIDs []string) error
	Save(ctx context.Context, link *ShareLink) error
	ReplaceTargets(ctx context.Context, linkID string, fileIDs, folderIDs []string) error
	Revoke(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, ownerID, id string) (*ShareLink, error)
	GetByToken(ctx context.Context, token string) (*ShareLink, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*ShareLink, error)

	// CountActiveByOwner counts links that are neither revoked nor expired.
	CountActiveByOwner(ctx context.Context, ownerID string, now time.Time) (int64, error)

	FileIDs(ctx context.Context, linkID string) ([]string, error)
	FolderIDs(ctx context.Context, linkID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, link *ShareLink, fileIDs, folderIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		return createTargets(tx, link.ID, fileIDs, folderIDs)
	})
}

func (r *repository) Save(ctx context.Context, link *ShareLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

func (r *repository) ReplaceTargets(ctx context.Context, linkID string, fileIDs, folderIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&ShareLinkFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", linkID).Delete(&ShareLinkFolder{}).Error; err != nil {
			return err
		}
		return createTargets(tx, linkID, fileIDs, folderIDs)
	})
}

func createTargets(tx *gorm.DB, linkID string, fileIDs, folderIDs []string) error {
	for _, fileID := range fileIDs {
		if err := tx.Create(&ShareLinkFile{LinkID: linkID, FileID: fileID}).Error; err != nil {
			return err
		}
	}
	for _, folderID := range folderIDs {
		if err := tx.Create(&ShareLinkFolder{LinkID: linkID, FolderID: folderID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Revoke is idempotent: revoking an already-revoked link keeps the original
// revocation time.
func (r *repository) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&ShareLink{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(map[string]any{
			"revoked_at": at,
			"updated_at": at,
		}).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", id).Delete(&ShareLinkFile{}).Error; err != nil {
			return err
		}
		if err := tx.Where("link_id = ?", id).Delete(&ShareLinkFolder{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&ShareLink{}).Error
	})
}

func (r *repository) GetByID(ctx context.Context, ownerID, id string) (*ShareLink, error) {
	var link ShareLink
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*ShareLink, error) {
	var link ShareLink
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID string) ([]*ShareLink, error) {
	var links []*ShareLink
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}

func (r *repository) CountActiveByOwner(ctx context.Context, ownerID string, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ShareLink{}).
		Where("owner_id = ? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > ?)", ownerID, now).
		Count(&n).Error
	return n, err
}

func (r *repository) FileIDs(ctx context.Context, linkID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&ShareLinkFile{}).
		Where("link_id = ?", linkID).
		Pluck("file_id", &ids).Error
	return ids, err
}

func (r *repository) FolderIDs(ctx context.Context, linkID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&ShareLinkFolder{}).
		Where("link_id = ?", linkID).
		Pluck("folder_id", &ids).Error
	return ids, err
}
