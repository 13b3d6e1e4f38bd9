package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

func TestPlaintextVerifier(t *testing.T) {
	v := PlaintextVerifier{}

	assert.NoError(t, v.Verify("admin123", "admin123"))
	assert.ErrorIs(t, v.Verify("admin123", "admin124"), ErrPasswordMismatch)
	assert.ErrorIs(t, v.Verify("admin123", ""), ErrPasswordMismatch)
}

func TestBcryptVerifier(t *testing.T) {
	hash, err := HashPassword("user123", bcrypt.MinCost)
	require.NoError(t, err)

	v := BcryptVerifier{}
	assert.NoError(t, v.Verify(hash, "user123"))
	assert.ErrorIs(t, v.Verify(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, v.Verify("not-a-hash", "user123"), ErrPasswordMismatch)
}

func TestHashUsers(t *testing.T) {
	seed := domain.DefaultUsers()

	hashed, err := HashUsers(seed, bcrypt.MinCost)
	require.NoError(t, err)
	require.Len(t, hashed, len(seed))

	for i, u := range hashed {
		assert.Equal(t, seed[i].Username, u.Username)
		assert.NotEqual(t, seed[i].Secret, u.Secret)
		assert.NoError(t, BcryptVerifier{}.Verify(u.Secret, seed[i].Secret))
	}
	assert.Equal(t, "admin123", seed[0].Secret)
}
