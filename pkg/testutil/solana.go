package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/instruction-server/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) *solana.Keypair {
	keypair, err := solana.NewKeypair()
	require.NoError(t, err)
	return keypair
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		keys[i] = GenerateSolanaKeypair(t).PublicKey()
	}
	return keys
}
