package file

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudvault/internal/blob"
	"cloudvault/internal/domain/plan"
)

// PathResolver is implemented by the namespace service.
type PathResolver interface {
	ResolvePath(ctx context.Context, ownerID string, folderID *string, fileName string) (string, error)
}

// Service orchestrates the two-phase upload protocol: clients upload straight
// to the blob store with a signed credential, then the server reconciles its
// record against the store's ground truth.
type Service struct {
	repo        Repository
	store       blob.Store
	quota       *QuotaEnforcer
	paths       PathResolver
	policy      PlanPolicy
	blobTimeout time.Duration
	uploadTTL   time.Duration
}

func NewService(repo Repository, store blob.Store, quota *QuotaEnforcer, paths PathResolver, policy PlanPolicy, blobTimeout, uploadTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		store:       store,
		quota:       quota,
		paths:       paths,
		policy:      policy,
		blobTimeout: blobTimeout,
		uploadTTL:   uploadTTL,
	}
}

// Intent validates the requested upload, claims the path, persists a pending
// row and issues a signed upload credential bounded by the declared size.
// The quota check here is advisory — the declared size is untrusted client
// input; true enforcement happens at Finalize against the store's ground
// truth.
func (s *Service) Intent(ctx context.Context, ownerID string, folderID *string, fileName string, declaredSize int64, contentType string) (*CloudFile, *blob.UploadCredential, error) {
	if declaredSize <= 0 {
		return nil, nil, ErrInvalidSize
	}

	maxFile, err := s.policy.MaxFileSizeBytes(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if maxFile != nil && declaredSize > *maxFile {
		planID, perr := s.policy.PlanForOwner(ctx, ownerID)
		if perr != nil {
			return nil, nil, perr
		}
		return nil, nil, &plan.LimitError{
			Err:       plan.ErrFileTooLarge,
			Current:   declaredSize,
			Limit:     *maxFile,
			PlanID:    planID,
			UpgradeTo: plan.NextPlan(planID),
		}
	}

	storagePath, err := s.paths.ResolvePath(ctx, ownerID, folderID, fileName)
	if err != nil {
		return nil, nil, err
	}

	if err := s.quota.Check(ctx, ownerID, declaredSize); err != nil {
		return nil, nil, err
	}

	key, err := s.deriveStorageKey(ctx, ownerID, storagePath)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	f := &CloudFile{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		FolderID:    folderID,
		FileName:    strings.TrimSpace(fileName),
		Size:        declaredSize,
		ContentType: contentType,
		Status:      StatusPending,
		StorageKey:  key,
		StoragePath: storagePath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, nil, err
	}

	blobCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	cred, err := s.store.IssueUploadCredential(blobCtx, key, declaredSize, contentType)
	if err != nil {
		// Release the claimed path; the client never got a credential.
		if derr := s.repo.HardDelete(ctx, f.ID); derr != nil {
			log.Printf("upload_intent_cleanup_failed file=%s key=%s owner=%s error=%q", f.ID, key, ownerID, derr)
		}
		return nil, nil, fmt.Errorf("issue upload credential for %s: %w", key, err)
	}
	return f, cred, nil
}

// deriveStorageKey prefers the deterministic {owner}/{path} form and falls
// back to a generated unique hash when the key was ever used before (keys are
// globally unique across live and purged rows).
func (s *Service) deriveStorageKey(ctx context.Context, ownerID, storagePath string) (string, error) {
	key := ownerID + "/" + storagePath
	taken, err := s.repo.ExistsStorageKey(ctx, key)
	if err != nil {
		return "", err
	}
	if !taken {
		return key, nil
	}
	return ownerID + "/" + uuid.New().String() + path.Ext(storagePath), nil
}

// Finalize reconciles a pending upload against the blob store's ground truth.
// It is idempotent: finalizing a file already in a terminal state returns the
// current row unchanged.
func (s *Service) Finalize(ctx context.Context, ownerID, fileID string) (*CloudFile, error) {
	f, err := s.repo.FindActiveByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if f.Status != StatusPending {
		return f, nil
	}

	blobCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	info, err := s.store.HeadObject(blobCtx, f.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return s.fail(ctx, f, ErrCodeObjectNotFound, "object was not uploaded to the blob store")
		}
		// Transient store failure: leave the row pending, caller retries.
		log.Printf("finalize_head_failed file=%s key=%s owner=%s error=%q", f.ID, f.StorageKey, ownerID, err)
		return nil, fmt.Errorf("head object %s: %w", f.StorageKey, err)
	}

	if info.Size != f.Size {
		limit, err := s.policy.StorageLimitBytes(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		used, err := s.quota.UsedBytes(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if s.quota.IsOverQuota(used+info.Size, limit) {
			msg := fmt.Sprintf("actual size %d pushes usage over the %d byte limit", info.Size, *limit)
			if derr := s.deleteObject(ctx, f); derr != nil {
				// Best effort: the object may be orphaned until the
				// reconciliation sweep finds it.
				log.Printf("finalize_compensating_delete_failed file=%s key=%s owner=%s error=%q",
					f.ID, f.StorageKey, ownerID, derr)
				msg += fmt.Sprintf(" (compensating delete failed: %v)", derr)
			}
			return s.fail(ctx, f, ErrCodeQuotaExceeded, msg)
		}
	}

	f.Size = info.Size
	if info.ContentType != "" {
		f.ContentType = info.ContentType
	}
	f.Checksum = info.ETag
	f.Status = StatusUploaded
	f.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) fail(ctx context.Context, f *CloudFile, code, message string) (*CloudFile, error) {
	if err := s.repo.MarkFailed(ctx, f.ID, code, message); err != nil {
		return nil, err
	}
	f.Status = StatusFailed
	f.ErrorCode = code
	f.ErrorMessage = message
	return f, nil
}

func (s *Service) deleteObject(ctx context.Context, f *CloudFile) error {
	blobCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	return s.store.DeleteObject(blobCtx, f.StorageKey)
}

// SoftDelete moves a file to the trash: deleted_at set, folder cleared. Its
// path is freed immediately; re-deleting is a no-op.
func (s *Service) SoftDelete(ctx context.Context, ownerID, fileID string) error {
	f, err := s.repo.FindByID(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if f.IsDeleted() {
		return nil
	}

	now := time.Now()
	f.DeletedAt = &now
	f.FolderID = nil
	f.UpdatedAt = now
	return s.repo.Save(ctx, f)
}

// Restore brings a trashed file back at the tenant root, provided the path is
// free and the bytes still fit the quota.
func (s *Service) Restore(ctx context.Context, ownerID, fileID string) (*CloudFile, error) {
	f, err := s.repo.FindByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	if !f.IsDeleted() {
		return f, nil
	}

	if f.Status == StatusUploaded {
		if err := s.quota.Check(ctx, ownerID, f.Size); err != nil {
			return nil, err
		}
	}

	restorePath := f.FileName
	occupied, err := s.repo.ExistsActivePath(ctx, ownerID, restorePath)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, ErrPathOccupied
	}

	f.DeletedAt = nil
	f.StoragePath = restorePath
	f.UpdatedAt = time.Now()
	if err := s.repo.Save(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Purge permanently removes a trashed file. The row is deleted only after
// the blob store confirms the object is gone.
func (s *Service) Purge(ctx context.Context, ownerID, fileID string) error {
	f, err := s.repo.FindByID(ctx, ownerID, fileID)
	if err != nil {
		return err
	}
	if !f.IsDeleted() {
		return ErrNotDeleted
	}

	if err := s.deleteObject(ctx, f); err != nil {
		log.Printf("purge_delete_failed file=%s key=%s owner=%s error=%q", f.ID, f.StorageKey, ownerID, err)
		return fmt.Errorf("delete object %s: %w", f.StorageKey, err)
	}
	return s.repo.HardDelete(ctx, f.ID)
}

// DownloadURL signs a read URL for an uploaded file.
func (s *Service) DownloadURL(ctx context.Context, ownerID, fileID string, ttl time.Duration) (string, error) {
	f, err := s.repo.FindActiveByID(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}
	if f.Status != StatusUploaded {
		return "", ErrNotUploaded
	}

	blobCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()
	return s.store.IssueDownloadURL(blobCtx, f.StorageKey, ttl)
}

// Get returns a tenant's file by ID, trashed or not.
func (s *Service) Get(ctx context.Context, ownerID, fileID string) (*CloudFile, error) {
	return s.repo.FindByID(ctx, ownerID, fileID)
}

// List returns the tenant's active files inside folderID (nil = root).
func (s *Service) List(ctx context.Context, ownerID string, folderID *string) ([]*CloudFile, error) {
	return s.repo.ListActiveByFolder(ctx, ownerID, folderID)
}

// ListTrash returns the tenant's soft-deleted files.
func (s *Service) ListTrash(ctx context.Context, ownerID string) ([]*CloudFile, error) {
	return s.repo.ListDeletedByOwner(ctx, ownerID)
}

// ExpireStalePending fails pending rows older than ttl. Called by the
// maintenance job.
func (s *Service) ExpireStalePending(ctx context.Context, ttl time.Duration) (int64, error) {
	return s.repo.ExpireStalePending(ctx, time.Now().Add(-ttl))
}
