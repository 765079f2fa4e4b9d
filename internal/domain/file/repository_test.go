package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/database"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	db, err := database.Connect(filepath.Join(t.TempDir(), "files.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&CloudFile{}))
	return NewRepository(db)
}

func seedFile(t *testing.T, repo Repository, f *CloudFile) {
	t.Helper()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
		f.UpdatedAt = f.CreatedAt
	}
	require.NoError(t, repo.Create(context.Background(), f))
}

// Only uploaded, non-trashed bytes count against the quota: pending intents
// carry untrusted declared sizes, failed rows never stored anything, and
// trashing a file releases both its path and its bytes.
func TestSumUploadedSizeScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedFile(t, repo, &CloudFile{ID: "up-1", OwnerID: "o1", FileName: "a", Size: 100, Status: StatusUploaded, StorageKey: "o1/a", StoragePath: "a"})
	seedFile(t, repo, &CloudFile{ID: "up-2", OwnerID: "o1", FileName: "b", Size: 250, Status: StatusUploaded, StorageKey: "o1/b", StoragePath: "b"})
	seedFile(t, repo, &CloudFile{ID: "pend", OwnerID: "o1", FileName: "c", Size: 1_000, Status: StatusPending, StorageKey: "o1/c", StoragePath: "c"})
	seedFile(t, repo, &CloudFile{ID: "fail", OwnerID: "o1", FileName: "d", Size: 9_999, Status: StatusFailed, StorageKey: "o1/d", StoragePath: "d"})
	seedFile(t, repo, &CloudFile{ID: "trash", OwnerID: "o1", FileName: "e", Size: 500, Status: StatusUploaded, StorageKey: "o1/e", StoragePath: "e", DeletedAt: &now})
	seedFile(t, repo, &CloudFile{ID: "other", OwnerID: "o2", FileName: "f", Size: 777, Status: StatusUploaded, StorageKey: "o2/f", StoragePath: "f"})

	sum, err := repo.SumUploadedSizeByOwner(ctx, "o1")

	require.NoError(t, err)
	assert.Equal(t, int64(350), sum)
}

func TestSumUploadedSizeEmptyOwner(t *testing.T) {
	repo := newTestRepo(t)

	sum, err := repo.SumUploadedSizeByOwner(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestExistsActivePathIgnoresTrashedAndFailed(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()

	seedFile(t, repo, &CloudFile{ID: "trash", OwnerID: "o1", FileName: "a", Size: 1, Status: StatusUploaded, StorageKey: "o1/a", StoragePath: "a.txt", DeletedAt: &now})
	seedFile(t, repo, &CloudFile{ID: "fail", OwnerID: "o1", FileName: "b", Size: 1, Status: StatusFailed, StorageKey: "o1/b", StoragePath: "b.txt"})
	seedFile(t, repo, &CloudFile{ID: "pend", OwnerID: "o1", FileName: "c", Size: 1, Status: StatusPending, StorageKey: "o1/c", StoragePath: "c.txt"})

	// Trashed and failed rows release their path; a pending intent holds it.
	exists, err := repo.ExistsActivePath(ctx, "o1", "a.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsActivePath(ctx, "o1", "b.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.ExistsActivePath(ctx, "o1", "c.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListActiveByFolderPageOrdersAndPages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	folderID := "dir-1"

	for _, id := range []string{"f3", "f1", "f2"} {
		seedFile(t, repo, &CloudFile{
			ID: id, OwnerID: "o1", FolderID: &folderID, FileName: id + ".txt",
			Size: 1, Status: StatusUploaded, StorageKey: "o1/" + id, StoragePath: id + ".txt",
		})
	}

	page, err := repo.ListActiveByFolderPage(ctx, folderID, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "f1", page[0].ID)
	assert.Equal(t, "f2", page[1].ID)

	page, err = repo.ListActiveByFolderPage(ctx, folderID, "f2", 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "f3", page[0].ID)
}

func TestMarkFailedAndExpireStalePending(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stale := &CloudFile{ID: "old", OwnerID: "o1", FileName: "x", Size: 1, Status: StatusPending, StorageKey: "o1/x", StoragePath: "x",
		CreatedAt: time.Now().Add(-48 * time.Hour), UpdatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &CloudFile{ID: "new", OwnerID: "o1", FileName: "y", Size: 1, Status: StatusPending, StorageKey: "o1/y", StoragePath: "y"}
	seedFile(t, repo, stale)
	seedFile(t, repo, fresh)

	n, err := repo.ExpireStalePending(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(ctx, "o1", "old")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, ErrCodeUploadExpired, got.ErrorCode)

	got, err = repo.FindByID(ctx, "o1", "new")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}
