package authstub_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/examcore/internal/authstub"
)

func TestIssueThenValidateRoundTrips(t *testing.T) {
	issuer := authstub.New("test-secret", time.Hour)
	userID := uuid.New()

	tok, err := issuer.Issue(userID, authstub.RoleStudent)
	require.NoError(t, err)

	claims, err := issuer.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, authstub.RoleStudent, claims.Role)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issuer := authstub.New("test-secret", -time.Minute)

	tok, err := issuer.Issue(uuid.New(), authstub.RoleAdmin)
	require.NoError(t, err)

	_, err = issuer.Validate(tok)
	assert.ErrorIs(t, err, authstub.ErrInvalidToken)
}

func TestValidateRejectsTokenSignedWithDifferentSecret(t *testing.T) {
	issuerA := authstub.New("secret-a", time.Hour)
	issuerB := authstub.New("secret-b", time.Hour)

	tok, err := issuerA.Issue(uuid.New(), authstub.RoleStudent)
	require.NoError(t, err)

	_, err = issuerB.Validate(tok)
	assert.ErrorIs(t, err, authstub.ErrInvalidToken)
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	issuer := authstub.New("test-secret", time.Hour)

	_, err := issuer.Validate("not-a-jwt")
	assert.ErrorIs(t, err, authstub.ErrInvalidToken)
}
