package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLayout = AccountLayout{
	{Name: "source", IsWritable: true},
	{Name: "destination", IsWritable: true},
	{Name: "owner", IsSigner: true},
}

func TestAccountLayout_Bind(t *testing.T) {
	keys := generateKeys(t, 3)

	accounts := testLayout.Bind(public(keys[0]), public(keys[1]), public(keys[2]))
	assert.Len(t, accounts, 3)
	for i, account := range accounts {
		assert.Equal(t, public(keys[i]), account.PublicKey)
		assert.Equal(t, testLayout[i].IsSigner, account.IsSigner)
		assert.Equal(t, testLayout[i].IsWritable, account.IsWritable)
	}
	assert.True(t, testLayout.Matches(accounts))

	accounts[2].IsSigner = false
	assert.False(t, testLayout.Matches(accounts))
	assert.False(t, testLayout.Matches(accounts[:2]))
}

func TestAccountLayout_BindMismatch(t *testing.T) {
	keys := generateKeys(t, 2)

	assert.Panics(t, func() {
		testLayout.Bind(public(keys[0]), public(keys[1]))
	})
	assert.Panics(t, func() {
		testLayout.Bind()
	})
}

func TestAccountLayout_String(t *testing.T) {
	assert.Equal(t, "0. [writable] source, 1. [writable] destination, 2. [signer] owner", testLayout.String())
}

func TestNewInstructionWithLayout(t *testing.T) {
	keys := generateKeys(t, 4)
	data := []byte{1, 2, 3}

	instruction := NewInstructionWithLayout(public(keys[3]), data, testLayout, public(keys[0]), public(keys[1]), public(keys[2]))
	assert.Equal(t, public(keys[3]), instruction.Program)
	assert.Equal(t, data, instruction.Data)
	assert.Equal(t, []AccountMeta{
		NewAccountMeta(public(keys[0]), false),
		NewAccountMeta(public(keys[1]), false),
		NewReadonlyAccountMeta(public(keys[2]), true),
	}, instruction.Accounts)
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}

func generateKeys(t *testing.T, amount int) []ed25519.PrivateKey {
	keys := make([]ed25519.PrivateKey, amount)

	for i := 0; i < amount; i++ {
		_, priv, err := ed25519.GenerateKey(nil)
		if err != nil {
			t.Fatal(err)
		}
		keys[i] = priv
	}

	return keys
}
