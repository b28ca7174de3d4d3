package solana

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/encoding"
)

// Sign signs message with the keypair. Signing is deterministic (RFC 8032):
// the same keypair and message always produce the same signature.
func Sign(k *Keypair, message []byte) (sig Signature, err error) {
	if k == nil || len(k.secret) != ed25519.PrivateKeySize {
		return sig, errors.Wrap(ErrSigningFailure, "malformed key material")
	}

	copy(sig[:], ed25519.Sign(k.secret, message))
	return sig, nil
}

// Verify reports whether sig is a valid signature of message by pub. It never
// fails; malformed keys or signatures are reported as invalid.
func Verify(pub ed25519.PublicKey, message, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}

	return ed25519.Verify(pub, message, sig)
}

// SignatureFromBytes validates b as a signature.
func SignatureFromBytes(b []byte) (sig Signature, err error) {
	if len(b) != ed25519.SignatureSize {
		return sig, errors.Wrapf(ErrInvalidLength, "signature must be %d bytes, got %d", ed25519.SignatureSize, len(b))
	}

	copy(sig[:], b)
	return sig, nil
}

// SignatureFromBase64 decodes the transport form of a signature.
func SignatureFromBase64(s string) (sig Signature, err error) {
	b, err := encoding.Base64Decode(s)
	if err != nil {
		return sig, err
	}

	return SignatureFromBytes(b)
}

// ToBase64 returns the transport form of the signature.
func (s Signature) ToBase64() string {
	return encoding.Base64Encode(s[:])
}

// ToBase58 returns the form used by the RPC API and block explorers.
func (s Signature) ToBase58() string {
	return encoding.Base58Encode(s[:])
}
