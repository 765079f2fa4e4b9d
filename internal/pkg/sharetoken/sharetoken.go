package sharetoken

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Verification failures are distinguished internally so callers can log the
// real reason; the HTTP layer collapses all of them into a generic 401.
var (
	ErrMalformed = errors.New("access token malformed or badly signed")
	ErrExpired   = errors.New("access token expired")
	ErrWrongLink = errors.New("access token issued for a different link")
)

// Service issues short-lived access tokens bound to a single share link.
// Verification is pure and needs no database round-trip.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	LinkID string `json:"link_id"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a token granting session access to the given link.
func (s *Service) Issue(linkID string) (string, error) {
	claims := Claims{
		LinkID: linkID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and link binding, in that order of report:
// expired tokens report ErrExpired, any other parse failure ErrMalformed,
// and a valid token for another link ErrWrongLink.
func (s *Service) Verify(tokenStr, linkID string) error {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, ErrMalformed
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrMalformed
	}
	if !token.Valid {
		return ErrMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return ErrMalformed
	}
	if claims.LinkID != linkID {
		return ErrWrongLink
	}
	return nil
}
