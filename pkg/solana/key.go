package solana

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/encoding"
)

var (
	// ErrInvalidEncoding indicates the text form of a key, secret or
	// signature could not be decoded.
	ErrInvalidEncoding = encoding.ErrInvalidEncoding

	// ErrInvalidLength indicates a decoded value does not have the fixed size
	// expected for a public key, secret or signature.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidPublicKey indicates a well-formed key was rejected, for
	// example an embedded public key that does not match its seed.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrSigningFailure indicates the key material could not be used to sign.
	ErrSigningFailure = errors.New("signing failure")
)

// PublicKeyFromString decodes the canonical base58 form of a public key.
func PublicKeyFromString(s string) (ed25519.PublicKey, error) {
	b, err := encoding.Base58Decode(s)
	if err != nil {
		return nil, err
	}

	return PublicKeyFromBytes(b)
}

// PublicKeyFromBytes validates b as a public key. The returned key does not
// alias b.
func PublicKeyFromBytes(b []byte) (ed25519.PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidLength, "public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
	}

	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, b)
	return pub, nil
}

// PublicKeyToString returns the canonical base58 form of pub.
func PublicKeyToString(pub ed25519.PublicKey) string {
	return encoding.Base58Encode(pub)
}
