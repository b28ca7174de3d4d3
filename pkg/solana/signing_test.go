package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_Verify(t *testing.T) {
	for _, message := range [][]byte{
		nil,
		{},
		[]byte("test"),
		[]byte("Hello, ledger!"),
		make([]byte, 4096),
	} {
		kp, err := NewKeypair()
		require.NoError(t, err)

		sig, err := Sign(kp, message)
		require.NoError(t, err)
		assert.True(t, Verify(kp.PublicKey(), message, sig[:]))
	}
}

func TestSign_Deterministic(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)

	a, err := Sign(kp, []byte("Hello, ledger!"))
	require.NoError(t, err)
	b, err := Sign(kp, []byte("Hello, ledger!"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	restored, err := KeypairFromSecret(kp.Secret())
	require.NoError(t, err)
	c, err := Sign(restored, []byte("Hello, ledger!"))
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

// RFC 8032 section 7.1, test 2.
func TestSign_RFC8032Vector(t *testing.T) {
	seed, _ := hex.DecodeString("4ccd089b28ff96da9db6c346ec114e0f5b8a319f35aba624da8cf6ed4fb8a6fb")
	pub, _ := hex.DecodeString("3d4017c3e843895a92b70aa74d1b7ebc9c982ccf2ec4968cc0cd55f12af4660c")
	expected, _ := hex.DecodeString("92a009a9f0d4cab8720e820b5f642540a2b27b5416503f8fb3762223ebdb69da085ac1e43e15996e458f3613d0f11d8c387b2eaeb4302aeeb00d291612bb0c00")

	kp, err := KeypairFromSeed(seed)
	require.NoError(t, err)
	assert.EqualValues(t, pub, kp.PublicKey())

	sig, err := Sign(kp, []byte{0x72})
	require.NoError(t, err)
	assert.EqualValues(t, expected, sig[:])
	assert.True(t, Verify(pub, []byte{0x72}, sig[:]))
}

func TestVerify_TamperedMessage(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)

	message := []byte("Hello, ledger!")
	sig, err := Sign(kp, message)
	require.NoError(t, err)

	for i := range message {
		tampered := make([]byte, len(message))
		copy(tampered, message)
		tampered[i] ^= 0x01

		assert.False(t, Verify(kp.PublicKey(), tampered, sig[:]), "byte %d", i)
	}
}

func TestVerify_Invalid(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)
	other, err := NewKeypair()
	require.NoError(t, err)

	message := []byte("test")
	sig, err := Sign(kp, message)
	require.NoError(t, err)

	assert.False(t, Verify(other.PublicKey(), message, sig[:]))
	assert.False(t, Verify(kp.PublicKey(), message, sig[:63]))
	assert.False(t, Verify(kp.PublicKey(), message, append(sig[:], 0)))
	assert.False(t, Verify(kp.PublicKey(), message, nil))
	assert.False(t, Verify(kp.PublicKey()[:31], message, sig[:]))
	assert.False(t, Verify(nil, message, sig[:]))

	tamperedSig := sig
	tamperedSig[10] ^= 0x80
	assert.False(t, Verify(kp.PublicKey(), message, tamperedSig[:]))

	// Equal inputs, equal outputs.
	for i := 0; i < 3; i++ {
		assert.True(t, Verify(kp.PublicKey(), message, sig[:]))
		assert.False(t, Verify(other.PublicKey(), message, sig[:]))
	}
}

func TestSign_MalformedKey(t *testing.T) {
	_, err := Sign(nil, []byte("test"))
	assert.True(t, errors.Is(err, ErrSigningFailure))

	_, err = Sign(&Keypair{secret: make(ed25519.PrivateKey, 10)}, []byte("test"))
	assert.True(t, errors.Is(err, ErrSigningFailure))
}

func TestEndToEnd_GenerateSignVerify(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)

	// Through the transport encodings.
	restored, err := KeypairFromSecretString(kp.ToBase58())
	require.NoError(t, err)

	sig, err := Sign(restored, []byte("test"))
	require.NoError(t, err)

	decodedSig, err := SignatureFromBase64(sig.ToBase64())
	require.NoError(t, err)
	pub, err := PublicKeyFromString(PublicKeyToString(kp.PublicKey()))
	require.NoError(t, err)
	assert.True(t, Verify(pub, []byte("test"), decodedSig[:]))

	unrelated, err := NewKeypair()
	require.NoError(t, err)
	assert.False(t, Verify(unrelated.PublicKey(), []byte("test"), decodedSig[:]))
}

func TestSignatureFromBase64(t *testing.T) {
	_, err := SignatureFromBase64("%%%")
	assert.True(t, errors.Is(err, ErrInvalidEncoding))

	_, err = SignatureFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 63)))
	assert.True(t, errors.Is(err, ErrInvalidLength))

	_, err = SignatureFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 65)))
	assert.True(t, errors.Is(err, ErrInvalidLength))

	sig, err := SignatureFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 64)))
	require.NoError(t, err)
	assert.Equal(t, Signature{}, sig)
}
