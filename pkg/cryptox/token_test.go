package cryptox_test

import (
	"encoding/base64"
	"testing"

	"github.com/fieldgate/provision/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	require.NoError(t, err)

	// 16 bytes -> 22 chars of unpadded base64url
	require.Len(t, token, 22)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	require.Len(t, raw, cryptox.TokenSize128)

	other, err := cryptox.GenerateToken(cryptox.TokenSize128)
	require.NoError(t, err)
	require.NotEqual(t, token, other)
}

func TestGenerateTokenRejectsInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := cryptox.GenerateToken(0)
	require.Error(t, err)

	_, err = cryptox.GenerateToken(-1)
	require.Error(t, err)
}

func TestFingerprintTokenIsDeterministic(t *testing.T) {
	t.Parallel()

	token := cryptox.MustGenerateToken(cryptox.TokenSize128)

	fp1 := cryptox.FingerprintToken(token)
	fp2 := cryptox.FingerprintToken(token)
	require.Equal(t, fp1, fp2)
	require.NotEqual(t, token, fp1)

	// SHA-256 -> 43 chars of unpadded base64url
	require.Len(t, fp1, 43)
}
