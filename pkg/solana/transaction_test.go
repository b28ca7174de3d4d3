package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Taken from: https://github.com/solana-labs/solana/blob/14339dec0a960e8161d1165b6a8e5cfb73e78f23/sdk/src/transaction.rs#L523
//
// The keypair used to generate it embeds a public key that was not derived
// from its seed, so it doubles as a check that signing trusts the embedded
// public key the same way the Rust SDK does.
const rustGenerated = "AUc7Cbu+gZalFSGeSFdukHhP7oSGaSdmdNEd5ZokaSysdoMWfIOzjrAbdaBZZuDMAfyNAogAJdrhgVya+jthsgoBAAEDnON0wdcmjhYIDuXvd10F2qEjAyEAJGSe/CGhYbk+WWMBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

// The above example with a correctly derived keypair.
const rustGeneratedAdjusted = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

var (
	crossImplSecret = []byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75, 156, 227, 116, 193, 215, 38, 142, 22, 8,
		14, 229, 239, 119, 93, 5, 218, 161, 35, 3, 33, 0, 36, 100, 158, 252, 33, 161, 97, 185,
		62, 89, 99}
	crossImplProgram = ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	crossImplTo = ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}
)

func TestTransaction_CrossImpl(t *testing.T) {
	kp, err := KeypairFromSecret(crossImplSecret)
	require.NoError(t, err)

	tx := NewTransaction(
		kp.PublicKey(),
		NewInstruction(
			crossImplProgram,
			[]byte{1, 2, 3},
			NewAccountMeta(kp.PublicKey(), true),
			NewAccountMeta(crossImplTo, false),
		),
	)
	require.NoError(t, tx.Sign(kp))

	generated, err := base64.StdEncoding.DecodeString(rustGenerated)
	require.NoError(t, err)
	assert.Equal(t, generated, tx.Marshal())

	_, err = KeypairFromSecretVerified(crossImplSecret)
	assert.Error(t, err)
}

func TestTransaction_GenerateValidCrossImpl(t *testing.T) {
	kp, err := KeypairFromSeed(crossImplSecret[:32])
	require.NoError(t, err)

	tx := NewTransaction(
		kp.PublicKey(),
		NewInstruction(
			crossImplProgram,
			[]byte{1, 2, 3},
			NewAccountMeta(kp.PublicKey(), true),
			NewAccountMeta(crossImplTo, false),
		),
	)
	require.NoError(t, tx.Sign(kp))
	assert.Equal(t, rustGeneratedAdjusted, base64.StdEncoding.EncodeToString(tx.Marshal()))

	assert.True(t, Verify(kp.PublicKey(), tx.Message.Marshal(), tx.Signature()))
}

func TestTransaction_MarshalRoundTrip(t *testing.T) {
	keys := generateKeys(t, 4)
	payer, err := KeypairFromSecret(keys[0])
	require.NoError(t, err)

	tx := NewTransaction(
		payer.PublicKey(),
		NewInstruction(
			public(keys[1]),
			[]byte{1, 2, 3},
			NewAccountMeta(public(keys[2]), false),
			NewReadonlyAccountMeta(public(keys[3]), false),
		),
		NewInstruction(
			public(keys[1]),
			[]byte{4},
			NewAccountMeta(payer.PublicKey(), true),
		),
	)
	tx.SetBlockhash(Blockhash{1, 2, 3})
	require.NoError(t, tx.Sign(payer))

	var rtt Transaction
	require.NoError(t, rtt.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx.Marshal(), rtt.Marshal())
	assert.Equal(t, tx.Signatures, rtt.Signatures)
	assert.Equal(t, tx.Message.Header, rtt.Message.Header)
	assert.Equal(t, tx.Message.RecentBlockhash, rtt.Message.RecentBlockhash)
	assert.Len(t, rtt.Message.Instructions, 2)
}

func TestTransaction_AccountOrdering(t *testing.T) {
	keys := generateKeys(t, 5)

	tx := NewTransaction(
		public(keys[0]),
		NewInstruction(
			public(keys[4]),
			nil,
			NewReadonlyAccountMeta(public(keys[1]), false),
			NewAccountMeta(public(keys[2]), false),
			NewReadonlyAccountMeta(public(keys[3]), true),
		),
	)

	// payer, readonly signer, writable, readonly, program
	assert.Equal(t, []ed25519.PublicKey{
		public(keys[0]),
		public(keys[3]),
		public(keys[2]),
		public(keys[1]),
		public(keys[4]),
	}, tx.Message.Accounts)
	assert.Equal(t, Header{NumSignatures: 2, NumReadonlySigned: 1, NumReadOnly: 2}, tx.Message.Header)
	assert.Len(t, tx.Signatures, 2)

	assert.EqualValues(t, 4, tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{3, 2, 1}, tx.Message.Instructions[0].Accounts)
}

func TestTransaction_DuplicateKeys(t *testing.T) {
	keys := generateKeys(t, 3)

	tx := NewTransaction(
		public(keys[0]),
		NewInstruction(
			public(keys[2]),
			nil,
			NewReadonlyAccountMeta(public(keys[1]), false),
			NewAccountMeta(public(keys[1]), false),
			NewReadonlyAccountMeta(public(keys[0]), true),
		),
	)

	// The duplicate is promoted to writable rather than listed twice.
	assert.Len(t, tx.Message.Accounts, 3)
	assert.Equal(t, Header{NumSignatures: 1, NumReadOnly: 1}, tx.Message.Header)
	assert.Equal(t, []byte{1, 1, 0}, tx.Message.Instructions[0].Accounts)
}

func TestTransaction_SignUnknownSigner(t *testing.T) {
	keys := generateKeys(t, 3)
	stranger, err := KeypairFromSecret(keys[2])
	require.NoError(t, err)

	tx := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), nil))
	assert.Error(t, tx.Sign(stranger))

	readonly, err := KeypairFromSecret(keys[1])
	require.NoError(t, err)
	assert.Error(t, tx.Sign(readonly))
}

func TestTransaction_InvalidAccounts(t *testing.T) {
	keys := generateKeys(t, 2)
	tx := NewTransaction(
		public(keys[0]),
		NewInstruction(
			public(keys[1]),
			nil,
			NewAccountMeta(public(keys[0]), true),
		),
	)
	tx.Message.Instructions[0].ProgramIndex = 2
	assert.Error(t, tx.Unmarshal(tx.Marshal()))

	tx = NewTransaction(
		public(keys[0]),
		NewInstruction(
			public(keys[1]),
			nil,
			NewAccountMeta(public(keys[0]), true),
		),
	)
	tx.Message.Instructions[0].Accounts = []byte{2}
	assert.Error(t, tx.Unmarshal(tx.Marshal()))
}
