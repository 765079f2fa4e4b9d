package share

import "errors"

var (
	ErrNotFound       = errors.New("share link not found")
	ErrNoTargets      = errors.New("a share link must reference at least one file or folder")
	ErrFolderNotRoot  = errors.New("only tenant-root folders can be shared")
	ErrTargetNotFound = errors.New("shared target does not exist or is not yours")
	ErrUnauthorized   = errors.New("unauthorized")
)

// Gone reasons.
const (
	ReasonRevoked = "revoked"
	ReasonExpired = "expired"
)

// GoneError marks a link that is terminally unusable: explicitly revoked or
// passively expired. Revocation wins when both hold.
type GoneError struct {
	Reason string
}

func (e *GoneError) Error() string { return "share link " + e.Reason }

// IsGone reports whether err is a GoneError, returning the reason.
func IsGone(err error) (string, bool) {
	var gone *GoneError
	if errors.As(err, &gone) {
		return gone.Reason, true
	}
	return "", false
}
