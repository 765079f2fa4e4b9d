package folder

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxDepth bounds ancestor walks so a corrupted tree cannot loop forever.
const maxDepth = 100

// FileStore is implemented by the file domain's repository. The namespace
// needs file visibility for delete-only-if-empty, path uniqueness and the
// descendant path rebuild.
type FileStore interface {
	CountActiveInFolder(ctx context.Context, folderID string) (int64, error)
	ExistsActivePath(ctx context.Context, ownerID, storagePath string) (bool, error)

	// ListActiveByFolderPage pages active files in a folder ordered by ID,
	// returning files with ID > afterID. The rebuild re-queries each batch
	// rather than assuming a stable snapshot.
	ListActiveByFolderPage(ctx context.Context, folderID, afterID string, limit int) ([]FileRef, error)
	UpdateStoragePath(ctx context.Context, fileID, storagePath string) error
}

// PlanGate is implemented by the plan service.
type PlanGate interface {
	CanCreateFolder(ctx context.Context, ownerID string) error
}

// Service owns the namespace tree: folder structure, canonical paths and the
// invariants on them.
type Service struct {
	repo      Repository
	files     FileStore
	plans     PlanGate
	batchSize int
}

func NewService(repo Repository, files FileStore, plans PlanGate, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Service{repo: repo, files: files, plans: plans, batchSize: batchSize}
}

// ValidateName rejects names containing a path separator and names that are
// empty or whitespace-only after trimming.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrInvalidName
	}
	if strings.ContainsAny(trimmed, `/\`) {
		return ErrInvalidName
	}
	return nil
}

// Create makes a new folder under parentID (nil = tenant root). Folder
// creation is gated by the tenant's plan. Sibling uniqueness is checked under
// the tenant's namespace lock.
func (s *Service) Create(ctx context.Context, ownerID string, parentID *string, name string) (*Folder, error) {
	if err := s.plans.CanCreateFolder(ctx, ownerID); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var created *Folder
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.AcquireOwnerLock(ctx, ownerID); err != nil {
			return err
		}

		if parentID != nil {
			if _, err := tx.GetByID(ctx, ownerID, *parentID); err != nil {
				if err == ErrNotFound {
					return ErrInvalidParent
				}
				return err
			}
		}

		taken, err := tx.SiblingExists(ctx, ownerID, parentID, name, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}

		now := time.Now()
		created = &Folder{
			ID:        uuid.New().String(),
			OwnerID:   ownerID,
			ParentID:  parentID,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(ctx, created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Rename changes a folder's name and queues a path rebuild for every file
// under it.
func (s *Service) Rename(ctx context.Context, ownerID, folderID, newName string) (*Folder, error) {
	if err := ValidateName(newName); err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)

	var renamed *Folder
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.AcquireOwnerLock(ctx, ownerID); err != nil {
			return err
		}

		f, err := tx.GetByID(ctx, ownerID, folderID)
		if err != nil {
			return err
		}

		taken, err := tx.SiblingExists(ctx, ownerID, f.ParentID, newName, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}

		f.Name = newName
		f.UpdatedAt = time.Now()
		if err := tx.Save(ctx, f); err != nil {
			return err
		}
		renamed = f
		return tx.EnqueueRebuild(ctx, f.ID)
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Move reparents a folder. The new parent must belong to the same tenant and
// must not be the folder itself or one of its descendants.
func (s *Service) Move(ctx context.Context, ownerID, folderID string, newParentID *string) (*Folder, error) {
	var moved *Folder
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.AcquireOwnerLock(ctx, ownerID); err != nil {
			return err
		}

		f, err := tx.GetByID(ctx, ownerID, folderID)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if *newParentID == f.ID {
				return ErrInvalidParent
			}
			parent, err := tx.GetByID(ctx, ownerID, *newParentID)
			if err != nil {
				if err == ErrNotFound {
					return ErrInvalidParent
				}
				return err
			}
			inside, err := s.isInSubtree(ctx, tx, parent, f.ID)
			if err != nil {
				return err
			}
			if inside {
				return ErrInvalidParent
			}
		}

		taken, err := tx.SiblingExists(ctx, ownerID, newParentID, f.Name, f.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}

		f.ParentID = newParentID
		f.UpdatedAt = time.Now()
		if err := tx.Save(ctx, f); err != nil {
			return err
		}
		moved = f
		return tx.EnqueueRebuild(ctx, f.ID)
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes a folder iff it has no child folders and no non-deleted
// files. Soft-deleted files do not block deletion.
func (s *Service) Delete(ctx context.Context, ownerID, folderID string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.AcquireOwnerLock(ctx, ownerID); err != nil {
			return err
		}

		f, err := tx.GetByID(ctx, ownerID, folderID)
		if err != nil {
			return err
		}

		ok, err := s.canDelete(ctx, tx, f)
		if err != nil {
			return err
		}
		if !ok {
			return ErrFolderNotEmpty
		}
		return tx.Delete(ctx, f.ID)
	})
}

// CanDelete reports whether the folder is empty enough to delete.
func (s *Service) CanDelete(ctx context.Context, f *Folder) (bool, error) {
	return s.canDelete(ctx, s.repo, f)
}

func (s *Service) canDelete(ctx context.Context, repo Repository, f *Folder) (bool, error) {
	children, err := repo.CountChildren(ctx, f.ID)
	if err != nil {
		return false, err
	}
	if children > 0 {
		return false, nil
	}
	files, err := s.files.CountActiveInFolder(ctx, f.ID)
	if err != nil {
		return false, err
	}
	return files == 0, nil
}

// Get returns a tenant's folder by ID.
func (s *Service) Get(ctx context.Context, ownerID, folderID string) (*Folder, error) {
	return s.repo.GetByID(ctx, ownerID, folderID)
}

// ListChildren lists a tenant's folders under parentID (nil = roots).
func (s *Service) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*Folder, error) {
	return s.repo.ListChildren(ctx, ownerID, parentID)
}

// Path computes the canonical root-relative path of a folder: the join of
// ancestor names down to the folder itself.
func (s *Service) Path(ctx context.Context, f *Folder) (string, error) {
	return s.path(ctx, s.repo, f)
}

func (s *Service) path(ctx context.Context, repo Repository, f *Folder) (string, error) {
	segments := []string{f.Name}
	current := f
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxDepth {
			return "", ErrInvalidPath
		}
		parent, err := repo.GetAnyByID(ctx, *current.ParentID)
		if err != nil {
			return "", err
		}
		segments = append([]string{parent.Name}, segments...)
		current = parent
	}
	return strings.Join(segments, "/"), nil
}

// ResolvePath builds the canonical path a file would occupy inside folderID
// (nil = tenant root). It fails with ErrInvalidPath when the file name is
// empty or contains a separator, and with ErrPathExists when an active file
// already occupies the resulting path.
func (s *Service) ResolvePath(ctx context.Context, ownerID string, folderID *string, fileName string) (string, error) {
	trimmed := strings.TrimSpace(fileName)
	if trimmed == "" || strings.ContainsAny(trimmed, `/\`) {
		return "", ErrInvalidPath
	}

	full := trimmed
	if folderID != nil {
		f, err := s.repo.GetByID(ctx, ownerID, *folderID)
		if err != nil {
			return "", err
		}
		prefix, err := s.Path(ctx, f)
		if err != nil {
			return "", err
		}
		full = prefix + "/" + trimmed
	}

	exists, err := s.files.ExistsActivePath(ctx, ownerID, full)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrPathExists
	}
	return full, nil
}

// AncestorRoot walks from folderID up to its tenant root and returns the
// root's ID. Used by share access checks.
func (s *Service) AncestorRoot(ctx context.Context, folderID string) (string, error) {
	f, err := s.repo.GetAnyByID(ctx, folderID)
	if err != nil {
		return "", err
	}
	for depth := 0; f.ParentID != nil; depth++ {
		if depth >= maxDepth {
			return "", ErrInvalidPath
		}
		f, err = s.repo.GetAnyByID(ctx, *f.ParentID)
		if err != nil {
			return "", err
		}
	}
	return f.ID, nil
}

// isInSubtree reports whether candidate sits at or below folderID.
func (s *Service) isInSubtree(ctx context.Context, repo Repository, candidate *Folder, folderID string) (bool, error) {
	current := candidate
	for depth := 0; ; depth++ {
		if depth >= maxDepth {
			return false, ErrInvalidPath
		}
		if current.ID == folderID {
			return true, nil
		}
		if current.ParentID == nil {
			return false, nil
		}
		parent, err := repo.GetAnyByID(ctx, *current.ParentID)
		if err != nil {
			return false, err
		}
		current = parent
	}
}
