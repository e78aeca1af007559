package cryptox_test

import (
	"strings"
	"testing"

	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t,
		cryptox.VerifyPassword("wrong password", hash),
		cryptox.ErrPasswordMismatch,
	)
}

func TestHashPasswordSaltsEveryCall(t *testing.T) {
	t.Parallel()

	h1, err := cryptox.HashPassword("same input")
	require.NoError(t, err)
	h2, err := cryptox.HashPassword("same input")
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{
		"",
		"plainhash",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		require.Error(t, cryptox.VerifyPassword("pw", hash), "hash %q", hash)
	}
}
