package file

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/blob"
	"cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
)

/* ==================== MOCKS ==================== */

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, f *CloudFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockRepository) Save(ctx context.Context, f *CloudFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockRepository) HardDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, ownerID, id string) (*CloudFile, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CloudFile), args.Error(1)
}

func (m *MockRepository) FindActiveByID(ctx context.Context, ownerID, id string) (*CloudFile, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CloudFile), args.Error(1)
}

func (m *MockRepository) FindAnyActiveByID(ctx context.Context, id string) (*CloudFile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CloudFile), args.Error(1)
}

func (m *MockRepository) ListActiveByFolder(ctx context.Context, ownerID string, folderID *string) ([]*CloudFile, error) {
	args := m.Called(ctx, ownerID, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CloudFile), args.Error(1)
}

func (m *MockRepository) ListDeletedByOwner(ctx context.Context, ownerID string) ([]*CloudFile, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CloudFile), args.Error(1)
}

func (m *MockRepository) SumUploadedSizeByOwner(ctx context.Context, ownerID string) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ExistsStorageKey(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkFailed(ctx context.Context, id, code, message string) error {
	args := m.Called(ctx, id, code, message)
	return args.Error(0)
}

func (m *MockRepository) ExpireStalePending(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountActiveInFolder(ctx context.Context, folderID string) (int64, error) {
	args := m.Called(ctx, folderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) ExistsActivePath(ctx context.Context, ownerID, storagePath string) (bool, error) {
	args := m.Called(ctx, ownerID, storagePath)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListActiveByFolderPage(ctx context.Context, folderID, afterID string, limit int) ([]folder.FileRef, error) {
	args := m.Called(ctx, folderID, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]folder.FileRef), args.Error(1)
}

func (m *MockRepository) UpdateStoragePath(ctx context.Context, fileID, storagePath string) error {
	args := m.Called(ctx, fileID, storagePath)
	return args.Error(0)
}

type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) IssueUploadCredential(ctx context.Context, key string, maxBytes int64, contentType string) (*blob.UploadCredential, error) {
	args := m.Called(ctx, key, maxBytes, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.UploadCredential), args.Error(1)
}

func (m *MockBlobStore) HeadObject(ctx context.Context, key string) (*blob.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.ObjectInfo), args.Error(1)
}

func (m *MockBlobStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockBlobStore) IssueDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type MockPathResolver struct {
	mock.Mock
}

func (m *MockPathResolver) ResolvePath(ctx context.Context, ownerID string, folderID *string, fileName string) (string, error) {
	args := m.Called(ctx, ownerID, folderID, fileName)
	return args.String(0), args.Error(1)
}

type MockPlanPolicy struct {
	mock.Mock
}

func (m *MockPlanPolicy) StorageLimitBytes(ctx context.Context, ownerID string) (*int64, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockPlanPolicy) MaxFileSizeBytes(ctx context.Context, ownerID string) (*int64, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockPlanPolicy) PlanForOwner(ctx context.Context, ownerID string) (plan.ID, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(plan.ID), args.Error(1)
}

func newTestService() (*Service, *MockRepository, *MockBlobStore, *MockPathResolver, *MockPlanPolicy) {
	repo := new(MockRepository)
	store := new(MockBlobStore)
	paths := new(MockPathResolver)
	policy := new(MockPlanPolicy)
	quota := NewQuotaEnforcer(repo, policy)
	svc := NewService(repo, store, quota, paths, policy, 5*time.Second, 15*time.Minute)
	return svc, repo, store, paths, policy
}

func int64ptr(n int64) *int64 { return &n }

/* ==================== INTENT ==================== */

func TestIntentRejectsNonPositiveSize(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, _, err := svc.Intent(context.Background(), "owner-1", nil, "a.txt", 0, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, _, err = svc.Intent(context.Background(), "owner-1", nil, "a.txt", -5, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestIntentRejectsOversizedFile(t *testing.T) {
	svc, _, _, _, policy := newTestService()

	policy.On("MaxFileSizeBytes", mock.Anything, "owner-1").Return(int64ptr(1_000_000), nil)
	policy.On("PlanForOwner", mock.Anything, "owner-1").Return(plan.PlanFree, nil)

	_, _, err := svc.Intent(context.Background(), "owner-1", nil, "big.bin", 2_000_000, "application/octet-stream")

	var limitErr *plan.LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.ErrorIs(t, err, plan.ErrFileTooLarge)
	assert.Equal(t, int64(2_000_000), limitErr.Current)
	assert.Equal(t, int64(1_000_000), limitErr.Limit)
}

func TestIntentAdvisoryQuotaCheck(t *testing.T) {
	svc, repo, _, paths, policy := newTestService()

	policy.On("MaxFileSizeBytes", mock.Anything, "owner-1").Return(nil, nil)
	paths.On("ResolvePath", mock.Anything, "owner-1", (*string)(nil), "a.txt").Return("a.txt", nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(int64ptr(10_000_000), nil)
	repo.On("SumUploadedSizeByOwner", mock.Anything, "owner-1").Return(int64(9_900_000), nil)
	policy.On("PlanForOwner", mock.Anything, "owner-1").Return(plan.PlanFree, nil)

	// Declared size would land at 10.1MB against a 10MB limit.
	_, _, err := svc.Intent(context.Background(), "owner-1", nil, "a.txt", 200_000, "text/plain")

	assert.ErrorIs(t, err, plan.ErrStorageQuotaExceeded)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIntentIssuesCredentialAndPendingRow(t *testing.T) {
	svc, repo, store, paths, policy := newTestService()

	policy.On("MaxFileSizeBytes", mock.Anything, "owner-1").Return(nil, nil)
	paths.On("ResolvePath", mock.Anything, "owner-1", (*string)(nil), "a.txt").Return("a.txt", nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(nil, nil)
	repo.On("ExistsStorageKey", mock.Anything, "owner-1/a.txt").Return(false, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *CloudFile) bool {
		return f.Status == StatusPending && f.StorageKey == "owner-1/a.txt" && f.StoragePath == "a.txt"
	})).Return(nil)
	store.On("IssueUploadCredential", mock.Anything, "owner-1/a.txt", int64(1024), "text/plain").Return(&blob.UploadCredential{
		URL:    "https://signed.example/put",
		Method: "PUT",
	}, nil)

	f, cred, err := svc.Intent(context.Background(), "owner-1", nil, "a.txt", 1024, "text/plain")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, f.Status)
	assert.Equal(t, "https://signed.example/put", cred.URL)
	repo.AssertExpectations(t)
}

func TestIntentCleansUpRowWhenCredentialFails(t *testing.T) {
	svc, repo, store, paths, policy := newTestService()

	policy.On("MaxFileSizeBytes", mock.Anything, "owner-1").Return(nil, nil)
	paths.On("ResolvePath", mock.Anything, "owner-1", (*string)(nil), "a.txt").Return("a.txt", nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(nil, nil)
	repo.On("ExistsStorageKey", mock.Anything, "owner-1/a.txt").Return(false, nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	store.On("IssueUploadCredential", mock.Anything, "owner-1/a.txt", int64(1024), "text/plain").Return(nil, assert.AnError)
	repo.On("HardDelete", mock.Anything, mock.Anything).Return(nil)

	_, _, err := svc.Intent(context.Background(), "owner-1", nil, "a.txt", 1024, "text/plain")

	require.Error(t, err)
	repo.AssertCalled(t, "HardDelete", mock.Anything, mock.Anything)
}

func TestIntentStorageKeyCollisionFallsBackToGenerated(t *testing.T) {
	svc, repo, store, paths, policy := newTestService()

	policy.On("MaxFileSizeBytes", mock.Anything, "owner-1").Return(nil, nil)
	paths.On("ResolvePath", mock.Anything, "owner-1", (*string)(nil), "a.txt").Return("a.txt", nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(nil, nil)
	// Deterministic key already used by a purged row once upon a time.
	repo.On("ExistsStorageKey", mock.Anything, "owner-1/a.txt").Return(true, nil)

	var created *CloudFile
	repo.On("Create", mock.Anything, mock.MatchedBy(func(f *CloudFile) bool {
		created = f
		return f.StorageKey != "owner-1/a.txt" && f.StoragePath == "a.txt"
	})).Return(nil)
	store.On("IssueUploadCredential", mock.Anything, mock.Anything, int64(1024), "text/plain").Return(&blob.UploadCredential{URL: "u", Method: "PUT"}, nil)

	_, _, err := svc.Intent(context.Background(), "owner-1", nil, "a.txt", 1024, "text/plain")

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Contains(t, created.StorageKey, "owner-1/")
	assert.NotEqual(t, "owner-1/a.txt", created.StorageKey)
}

/* ==================== FINALIZE ==================== */

func pendingFile() *CloudFile {
	return &CloudFile{
		ID:          "f1",
		OwnerID:     "owner-1",
		FileName:    "a.txt",
		Size:        1024,
		ContentType: "text/plain",
		Status:      StatusPending,
		StorageKey:  "owner-1/a.txt",
		StoragePath: "a.txt",
	}
}

func TestFinalizeMissingObjectFailsWithoutCharge(t *testing.T) {
	svc, repo, store, _, _ := newTestService()

	f := pendingFile()
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("HeadObject", mock.Anything, "owner-1/a.txt").Return(nil, blob.ErrObjectNotFound)
	repo.On("MarkFailed", mock.Anything, "f1", ErrCodeObjectNotFound, mock.Anything).Return(nil)

	out, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrCodeObjectNotFound, out.ErrorCode)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFinalizeTransientHeadFailureLeavesPending(t *testing.T) {
	svc, repo, store, _, _ := newTestService()

	f := pendingFile()
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("HeadObject", mock.Anything, "owner-1/a.txt").Return(nil, errors.New("connection reset"))

	_, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.Error(t, err)
	repo.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFinalizeIdempotentOnTerminalStates(t *testing.T) {
	svc, repo, store, _, _ := newTestService()

	done := pendingFile()
	done.Status = StatusUploaded
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(done, nil)

	out, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, out.Status)
	store.AssertNotCalled(t, "HeadObject", mock.Anything, mock.Anything)
}

// The decimal-megabyte boundary case: 9.9MB used, ~200KB actual upload, 10MB
// limit. 9,900,000 + 200,001 > 10,000,000 so the finalize must fail and the
// object must be removed from the store.
func TestFinalizeActualSizeOverQuota(t *testing.T) {
	svc, repo, store, _, policy := newTestService()

	f := pendingFile()
	f.Size = 150_000 // declared less than was actually uploaded
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("HeadObject", mock.Anything, "owner-1/a.txt").Return(&blob.ObjectInfo{Size: 200_001}, nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(int64ptr(10_000_000), nil)
	repo.On("SumUploadedSizeByOwner", mock.Anything, "owner-1").Return(int64(9_900_000), nil)
	store.On("DeleteObject", mock.Anything, "owner-1/a.txt").Return(nil)
	repo.On("MarkFailed", mock.Anything, "f1", ErrCodeQuotaExceeded, mock.Anything).Return(nil)

	out, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrCodeQuotaExceeded, out.ErrorCode)
	store.AssertCalled(t, "DeleteObject", mock.Anything, "owner-1/a.txt")
}

func TestFinalizeExactLimitFits(t *testing.T) {
	svc, repo, store, _, policy := newTestService()

	f := pendingFile()
	f.Size = 50_000
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("HeadObject", mock.Anything, "owner-1/a.txt").Return(&blob.ObjectInfo{Size: 100_000, ContentType: "text/plain", ETag: "abc"}, nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(int64ptr(10_000_000), nil)
	// used + actual lands exactly on the limit: allowed, over means strictly over.
	repo.On("SumUploadedSizeByOwner", mock.Anything, "owner-1").Return(int64(9_900_000), nil)
	repo.On("Save", mock.Anything, f).Return(nil)

	out, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, out.Status)
	assert.Equal(t, int64(100_000), out.Size, "row syncs to the store's actual size")
	assert.Equal(t, "abc", out.Checksum)
	store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestFinalizeSizeMatchSkipsQuotaCheck(t *testing.T) {
	svc, repo, store, _, policy := newTestService()

	f := pendingFile()
	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("HeadObject", mock.Anything, "owner-1/a.txt").Return(&blob.ObjectInfo{Size: f.Size}, nil)
	repo.On("Save", mock.Anything, f).Return(nil)

	out, err := svc.Finalize(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	assert.Equal(t, StatusUploaded, out.Status)
	policy.AssertNotCalled(t, "StorageLimitBytes", mock.Anything, mock.Anything)
}

/* ==================== TRASH ==================== */

func TestSoftDeleteIdempotent(t *testing.T) {
	svc, repo, _, _, _ := newTestService()

	deletedAt := time.Now().Add(-time.Hour)
	f := pendingFile()
	f.Status = StatusUploaded
	f.DeletedAt = &deletedAt
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)

	err := svc.SoftDelete(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSoftDeleteClearsFolder(t *testing.T) {
	svc, repo, _, _, _ := newTestService()

	folderID := "dir-1"
	f := pendingFile()
	f.Status = StatusUploaded
	f.FolderID = &folderID
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(saved *CloudFile) bool {
		return saved.DeletedAt != nil && saved.FolderID == nil
	})).Return(nil)

	err := svc.SoftDelete(context.Background(), "owner-1", "f1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRestoreRejectsOccupiedPath(t *testing.T) {
	svc, repo, _, _, policy := newTestService()

	deletedAt := time.Now()
	f := pendingFile()
	f.Status = StatusUploaded
	f.DeletedAt = &deletedAt
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(nil, nil)
	repo.On("ExistsActivePath", mock.Anything, "owner-1", "a.txt").Return(true, nil)

	_, err := svc.Restore(context.Background(), "owner-1", "f1")

	assert.ErrorIs(t, err, ErrPathOccupied)
}

func TestRestoreReappliesQuota(t *testing.T) {
	svc, repo, _, _, policy := newTestService()

	deletedAt := time.Now()
	f := pendingFile()
	f.Status = StatusUploaded
	f.Size = 500_000
	f.DeletedAt = &deletedAt
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	policy.On("StorageLimitBytes", mock.Anything, "owner-1").Return(int64ptr(1_000_000), nil)
	repo.On("SumUploadedSizeByOwner", mock.Anything, "owner-1").Return(int64(800_000), nil)
	policy.On("PlanForOwner", mock.Anything, "owner-1").Return(plan.PlanFree, nil)

	_, err := svc.Restore(context.Background(), "owner-1", "f1")

	assert.ErrorIs(t, err, plan.ErrStorageQuotaExceeded)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPurgeRequiresTrash(t *testing.T) {
	svc, repo, store, _, _ := newTestService()

	f := pendingFile()
	f.Status = StatusUploaded
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)

	err := svc.Purge(context.Background(), "owner-1", "f1")

	assert.ErrorIs(t, err, ErrNotDeleted)
	store.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestPurgeKeepsRowWhenStoreDeleteFails(t *testing.T) {
	svc, repo, store, _, _ := newTestService()

	deletedAt := time.Now()
	f := pendingFile()
	f.DeletedAt = &deletedAt
	repo.On("FindByID", mock.Anything, "owner-1", "f1").Return(f, nil)
	store.On("DeleteObject", mock.Anything, "owner-1/a.txt").Return(assert.AnError)

	err := svc.Purge(context.Background(), "owner-1", "f1")

	require.Error(t, err)
	repo.AssertNotCalled(t, "HardDelete", mock.Anything, mock.Anything)
}

/* ==================== DOWNLOAD ==================== */

func TestDownloadURLRequiresUploaded(t *testing.T) {
	svc, repo, _, _, _ := newTestService()

	repo.On("FindActiveByID", mock.Anything, "owner-1", "f1").Return(pendingFile(), nil)

	_, err := svc.DownloadURL(context.Background(), "owner-1", "f1", time.Minute)

	assert.ErrorIs(t, err, ErrNotUploaded)
}
