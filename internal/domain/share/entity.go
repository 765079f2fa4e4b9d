package share

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// ShareLink is a public capability: possession of the token grants read
// access to the referenced files and root folders (and the folders' whole
// subtrees). Targets are weak references — deleting a target never touches
// the link; missing targets resolve to not-found at access time.
type ShareLink struct {
	ID      string `gorm:"column:id;primaryKey" json:"id"`
	Token   string `gorm:"column:token;uniqueIndex" json:"token"`
	OwnerID string `gorm:"column:owner_id;index" json:"owner_id"`

	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	RevokedAt    *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
	PasswordHash *string    `gorm:"column:password_hash" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ShareLink) TableName() string { return "share_links" }

func (l *ShareLink) IsRevoked() bool { return l.RevokedAt != nil }

func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// RequiresPassword reports whether a password hash is configured.
func (l *ShareLink) RequiresPassword() bool { return l.PasswordHash != nil }

// ShareLinkFile references a shared file.
type ShareLinkFile struct {
	LinkID string `gorm:"column:link_id;primaryKey"`
	FileID string `gorm:"column:file_id;primaryKey;index"`
}

func (ShareLinkFile) TableName() string { return "share_link_files" }

// ShareLinkFolder references a shared tenant-root folder.
type ShareLinkFolder struct {
	LinkID   string `gorm:"column:link_id;primaryKey"`
	FolderID string `gorm:"column:folder_id;primaryKey;index"`
}

func (ShareLinkFolder) TableName() string { return "share_link_folders" }

// tokenBytes gives 24 bytes of entropy, above the 16-byte floor for public
// capability tokens.
const tokenBytes = 24

// NewToken returns a URL-safe random link token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
