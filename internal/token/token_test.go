package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParsePair(t *testing.T) {
	issuer := NewIssuer("secret", 5*time.Minute, 24*time.Hour)
	pair, err := issuer.IssuePair(7, "validuser")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := issuer.ParseAccess(pair.Access)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "validuser", claims.Username)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = issuer.ParseAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrWrongType)
	_, err = issuer.ParseRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestRefresh(t *testing.T) {
	issuer := NewIssuer("secret", 5*time.Minute, 24*time.Hour)
	pair, err := issuer.IssuePair(3, "bob")
	require.NoError(t, err)

	access, err := issuer.Refresh(pair.Refresh)
	require.NoError(t, err)
	claims, err := issuer.ParseAccess(access)
	require.NoError(t, err)
	assert.EqualValues(t, 3, claims.UserID)

	_, err = issuer.Refresh(pair.Access)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)
	issuer.now = func() time.Time { return issued }
	pair, err := issuer.IssuePair(1, "alice")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.ParseRefresh(pair.Refresh)
	assert.NoError(t, err)
}

func TestForeignSecret(t *testing.T) {
	pair, err := NewIssuer("one", time.Minute, time.Hour).IssuePair(1, "alice")
	require.NoError(t, err)
	_, err = NewIssuer("two", time.Minute, time.Hour).ParseAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
