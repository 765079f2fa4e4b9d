package file

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"cloudvault/internal/domain/folder"
)

// Repository handles CloudFile persistence. Soft-delete scoping is explicit
// in method names; no query carries a hidden default filter.
type Repository interface {
	Create(ctx context.Context, f *CloudFile) error
	Save(ctx context.Context, f *CloudFile) error
	HardDelete(ctx context.Context, id string) error

	FindByID(ctx context.Context, ownerID, id string) (*CloudFile, error)
	FindActiveByID(ctx context.Context, ownerID, id string) (*CloudFile, error)
	FindAnyActiveByID(ctx context.Context, id string) (*CloudFile, error)
	ListActiveByFolder(ctx context.Context, ownerID string, folderID *string) ([]*CloudFile, error)
	ListDeletedByOwner(ctx context.Context, ownerID string) ([]*CloudFile, error)

	SumUploadedSizeByOwner(ctx context.Context, ownerID string) (int64, error)
	ExistsStorageKey(ctx context.Context, key string) (bool, error)

	MarkFailed(ctx context.Context, id, code, message string) error
	ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error)

	// Namespace hooks (folder.FileStore).
	CountActiveInFolder(ctx context.Context, folderID string) (int64, error)
	ExistsActivePath(ctx context.Context, ownerID, storagePath string) (bool, error)
	ListActiveByFolderPage(ctx context.Context, folderID, afterID string, limit int) ([]folder.FileRef, error)
	UpdateStoragePath(ctx context.Context, fileID, storagePath string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// The repository doubles as the namespace's file store.
var _ folder.FileStore = (*repository)(nil)

func (r *repository) Create(ctx context.Context, f *CloudFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) Save(ctx context.Context, f *CloudFile) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *repository) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&CloudFile{}).Error
}

func (r *repository) FindByID(ctx context.Context, ownerID, id string) (*CloudFile, error) {
	var f CloudFile
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) FindActiveByID(ctx context.Context, ownerID, id string) (*CloudFile, error) {
	var f CloudFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ? AND deleted_at IS NULL", id, ownerID).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) FindAnyActiveByID(ctx context.Context, id string) (*CloudFile, error) {
	var f CloudFile
	err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListActiveByFolder(ctx context.Context, ownerID string, folderID *string) ([]*CloudFile, error) {
	var files []*CloudFile
	q := r.db.WithContext(ctx).Where("owner_id = ? AND deleted_at IS NULL", ownerID)
	if folderID == nil {
		q = q.Where("folder_id IS NULL")
	} else {
		q = q.Where("folder_id = ?", *folderID)
	}
	err := q.Order("file_name ASC").Find(&files).Error
	return files, err
}

func (r *repository) ListDeletedByOwner(ctx context.Context, ownerID string) ([]*CloudFile, error) {
	var files []*CloudFile
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND deleted_at IS NOT NULL", ownerID).
		Order("deleted_at DESC").
		Find(&files).Error
	return files, err
}

// SumUploadedSizeByOwner is the quota ground: bytes of successfully uploaded,
// non-soft-deleted files. Pending declared sizes are untrusted and excluded;
// soft-deleted bytes do not count against quota.
func (r *repository) SumUploadedSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("owner_id = ? AND status = ? AND deleted_at IS NULL", ownerID, StatusUploaded).
		Select("COALESCE(SUM(size), 0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) ExistsStorageKey(ctx context.Context, key string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CloudFile{}).Where("storage_key = ?", key).Count(&n).Error
	return n > 0, err
}

func (r *repository) MarkFailed(ctx context.Context, id, code, message string) error {
	return r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        StatusFailed,
			"error_code":    code,
			"error_message": message,
			"updated_at":    time.Now(),
		}).Error
}

func (r *repository) ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("status = ? AND created_at < ?", StatusPending, olderThan).
		Updates(map[string]any{
			"status":        StatusFailed,
			"error_code":    ErrCodeUploadExpired,
			"error_message": "upload was never finalized",
			"updated_at":    time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) CountActiveInFolder(ctx context.Context, folderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("folder_id = ? AND deleted_at IS NULL", folderID).
		Count(&n).Error
	return n, err
}

func (r *repository) ExistsActivePath(ctx context.Context, ownerID, storagePath string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("owner_id = ? AND storage_path = ? AND deleted_at IS NULL", ownerID, storagePath).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) ListActiveByFolderPage(ctx context.Context, folderID, afterID string, limit int) ([]folder.FileRef, error) {
	var files []*CloudFile
	err := r.db.WithContext(ctx).
		Where("folder_id = ? AND deleted_at IS NULL AND id > ?", folderID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&files).Error
	if err != nil {
		return nil, err
	}
	refs := make([]folder.FileRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, folder.FileRef{ID: f.ID, FileName: f.FileName})
	}
	return refs, nil
}

func (r *repository) UpdateStoragePath(ctx context.Context, fileID, storagePath string) error {
	return r.db.WithContext(ctx).Model(&CloudFile{}).
		Where("id = ?", fileID).
		Updates(map[string]any{
			"storage_path": storagePath,
			"updated_at":   time.Now(),
		}).Error
}
