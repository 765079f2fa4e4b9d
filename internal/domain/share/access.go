package share

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	filedomain "cloudvault/internal/domain/file"
)

// walkLimit bounds ancestor walks through the folder tree.
const walkLimit = 100

// ValidateActive gates every public access: the revoked check runs first —
// an explicit revocation always wins over a future expiry — then the
// time-based expiry.
func (s *Service) ValidateActive(link *ShareLink) error {
	if link.IsRevoked() {
		return &GoneError{Reason: ReasonRevoked}
	}
	if link.IsExpired(time.Now()) {
		return &GoneError{Reason: ReasonExpired}
	}
	return nil
}

// CheckPassword compares raw against the stored hash. A link without a
// password accepts any input: "no password" always passes, it is not an
// empty-string password.
func (s *Service) CheckPassword(link *ShareLink, raw string) bool {
	if link.PasswordHash == nil {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(raw)) == nil
}

// IssueAccessToken signs a session token bound to the link, so
// password-protected links are not re-validated on every request.
func (s *Service) IssueAccessToken(link *ShareLink) (string, error) {
	return s.tokens.Issue(link.ID)
}

// VerifyAccessToken rejects tokens for another link, malformed or badly
// signed tokens, and expired tokens — distinct reasons internally, one
// generic unauthorized status outwardly.
func (s *Service) VerifyAccessToken(token string, link *ShareLink) error {
	return s.tokens.Verify(token, link.ID)
}

// CanAccessFile reports whether the link grants access to fileID: either the
// file is directly referenced, or its owning root folder is among the link's
// shared roots. Missing or soft-deleted files resolve to not-accessible,
// never an error.
func (s *Service) CanAccessFile(ctx context.Context, link *ShareLink, fileID string) (*filedomain.CloudFile, bool, error) {
	f, err := s.files.FindAnyActiveByID(ctx, fileID)
	if err != nil {
		if err == filedomain.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	if f.OwnerID != link.OwnerID || f.Status != filedomain.StatusUploaded {
		return nil, false, nil
	}

	fileIDs, err := s.repo.FileIDs(ctx, link.ID)
	if err != nil {
		return nil, false, err
	}
	if contains(fileIDs, f.ID) {
		return f, true, nil
	}

	if f.FolderID == nil {
		return nil, false, nil
	}
	ok, err := s.folderInSharedSubtree(ctx, link, *f.FolderID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return f, true, nil
}

// CanAccessFolder reports whether folderID is one of the link's shared roots
// or a descendant of one.
func (s *Service) CanAccessFolder(ctx context.Context, link *ShareLink, folderID string) (bool, error) {
	return s.folderInSharedSubtree(ctx, link, folderID)
}

// folderInSharedSubtree walks the ancestor chain from folderID toward the
// root, checking each hop against the link's folder set.
func (s *Service) folderInSharedSubtree(ctx context.Context, link *ShareLink, folderID string) (bool, error) {
	sharedIDs, err := s.repo.FolderIDs(ctx, link.ID)
	if err != nil {
		return false, err
	}
	if len(sharedIDs) == 0 {
		return false, nil
	}

	currentID := folderID
	for depth := 0; depth < walkLimit; depth++ {
		if contains(sharedIDs, currentID) {
			return true, nil
		}
		f, err := s.folders.GetAnyByID(ctx, currentID)
		if err != nil {
			// Folder vanished mid-walk: the target is simply not reachable.
			return false, nil
		}
		if f.OwnerID != link.OwnerID || f.ParentID == nil {
			return false, nil
		}
		currentID = *f.ParentID
	}
	return false, nil
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
