package folder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles persistence for the namespace tree and the rebuild queue.
type Repository interface {
	// Transaction runs fn with a repository bound to a database transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error

	// AcquireOwnerLock takes the tenant's exclusive namespace lock for the
	// duration of the surrounding transaction. Must be called inside
	// Transaction.
	AcquireOwnerLock(ctx context.Context, ownerID string) error

	Create(ctx context.Context, f *Folder) error
	Save(ctx context.Context, f *Folder) error
	Delete(ctx context.Context, id string) error

	GetByID(ctx context.Context, ownerID, id string) (*Folder, error)
	GetAnyByID(ctx context.Context, id string) (*Folder, error)
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*Folder, error)
	CountChildren(ctx context.Context, folderID string) (int64, error)
	SiblingExists(ctx context.Context, ownerID string, parentID *string, name, excludeID string) (bool, error)

	EnqueueRebuild(ctx context.Context, folderID string) error
	ListPendingRebuilds(ctx context.Context, limit int) ([]*PathRebuild, error)
	CompleteRebuild(ctx context.Context, id string) error
	FailRebuild(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) AcquireOwnerLock(ctx context.Context, ownerID string) error {
	// Ensure the lock row exists, then take it FOR UPDATE. The row lock is
	// released when the surrounding transaction ends, on every exit path.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&NamespaceLock{OwnerID: ownerID}).Error; err != nil {
		return err
	}
	var lock NamespaceLock
	return r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ?", ownerID).
		First(&lock).Error
}

func (r *repository) Create(ctx context.Context, f *Folder) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) Save(ctx context.Context, f *Folder) error {
	return r.db.WithContext(ctx).Save(f).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&Folder{}).Error
}

func (r *repository) GetByID(ctx context.Context, ownerID, id string) (*Folder, error) {
	var f Folder
	err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) GetAnyByID(ctx context.Context, id string) (*Folder, error) {
	var f Folder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*Folder, error) {
	var folders []*Folder
	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.Order("name ASC").Find(&folders).Error
	return folders, err
}

func (r *repository) CountChildren(ctx context.Context, folderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Folder{}).Where("parent_id = ?", folderID).Count(&n).Error
	return n, err
}

// SiblingExists checks the case-insensitive (owner, parent, name) uniqueness
// invariant. excludeID skips the folder being renamed/moved itself.
func (r *repository) SiblingExists(ctx context.Context, ownerID string, parentID *string, name, excludeID string) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&Folder{}).
		Where("owner_id = ? AND LOWER(name) = LOWER(?)", ownerID, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *repository) EnqueueRebuild(ctx context.Context, folderID string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Create(&PathRebuild{
		ID:        uuid.New().String(),
		FolderID:  folderID,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func (r *repository) ListPendingRebuilds(ctx context.Context, limit int) ([]*PathRebuild, error) {
	var jobs []*PathRebuild
	err := r.db.WithContext(ctx).Order("created_at ASC").Limit(limit).Find(&jobs).Error
	return jobs, err
}

func (r *repository) CompleteRebuild(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&PathRebuild{}).Error
}

func (r *repository) FailRebuild(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&PathRebuild{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now(),
		}).Error
}
