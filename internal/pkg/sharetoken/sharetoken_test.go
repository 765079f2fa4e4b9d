package sharetoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := New("test-secret", time.Hour)

	token, err := svc.Issue("link-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, svc.Verify(token, "link-1"))
}

func TestVerify_WrongLink(t *testing.T) {
	svc := New("test-secret", time.Hour)

	token, err := svc.Issue("link-1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify(token, "link-2"), ErrWrongLink)
}

func TestVerify_Expired(t *testing.T) {
	svc := New("test-secret", -time.Minute)

	token, err := svc.Issue("link-1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Verify(token, "link-1"), ErrExpired)
}

func TestVerify_Malformed(t *testing.T) {
	svc := New("test-secret", time.Hour)

	assert.ErrorIs(t, svc.Verify("not-a-token", "link-1"), ErrMalformed)
}

func TestVerify_DifferentSecret(t *testing.T) {
	issuer := New("secret-a", time.Hour)
	verifier := New("secret-b", time.Hour)

	token, err := issuer.Issue("link-1")
	require.NoError(t, err)

	assert.ErrorIs(t, verifier.Verify(token, "link-1"), ErrMalformed)
}
