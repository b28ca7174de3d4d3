package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/encoding"
)

// Keypair is an ed25519 keypair in the 64 byte Solana layout: the 32 byte
// seed followed by the 32 byte public key.
//
// A Keypair is immutable. Accessors return copies.
type Keypair struct {
	secret ed25519.PrivateKey
}

// NewKeypair generates a new keypair from crypto/rand.
func NewKeypair() (*Keypair, error) {
	return newKeypairFromReader(rand.Reader)
}

func newKeypairFromReader(r io.Reader) (*Keypair, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(r, seed); err != nil {
		return nil, errors.Wrap(err, "failed to read seed")
	}

	return &Keypair{
		secret: ed25519.NewKeyFromSeed(seed),
	}, nil
}

// KeypairFromSeed derives a keypair from a 32 byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Wrapf(ErrInvalidLength, "seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	return &Keypair{
		secret: ed25519.NewKeyFromSeed(seed),
	}, nil
}

// KeypairFromSecret constructs a keypair from 64 bytes of secret material.
//
// The trailing 32 bytes are used as the public key as-is; they are not
// recomputed from the seed. Inconsistent material produces a keypair whose
// signatures do not verify against its own public key. Use
// KeypairFromSecretVerified when the input is not trusted.
func KeypairFromSecret(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, errors.Wrapf(ErrInvalidLength, "secret must be %d bytes, got %d", ed25519.PrivateKeySize, len(secret))
	}

	kp := &Keypair{
		secret: make(ed25519.PrivateKey, ed25519.PrivateKeySize),
	}
	copy(kp.secret, secret)
	return kp, nil
}

// KeypairFromSecretVerified is KeypairFromSecret, but rejects material whose
// embedded public key does not match the one derived from the seed.
func KeypairFromSecretVerified(secret []byte) (*Keypair, error) {
	kp, err := KeypairFromSecret(secret)
	if err != nil {
		return nil, err
	}

	derived := ed25519.NewKeyFromSeed(kp.secret.Seed())
	if !bytes.Equal(derived[ed25519.SeedSize:], kp.secret[ed25519.SeedSize:]) {
		return nil, errors.Wrap(ErrInvalidPublicKey, "embedded public key does not match seed")
	}

	return kp, nil
}

// KeypairFromSecretString decodes a base58 encoded 64 byte secret. See
// KeypairFromSecret for the trust model.
func KeypairFromSecretString(s string) (*Keypair, error) {
	secret, err := encoding.Base58Decode(s)
	if err != nil {
		return nil, err
	}

	return KeypairFromSecret(secret)
}

// KeypairFromJSON decodes the keypair file format written by the Solana CLI:
// a JSON array of the 64 secret bytes. The embedded public key is verified.
func KeypairFromJSON(b []byte) (*Keypair, error) {
	var values []int
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}

	secret := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Wrapf(ErrInvalidEncoding, "byte %d out of range: %d", i, v)
		}
		secret[i] = byte(v)
	}

	return KeypairFromSecretVerified(secret)
}

// PublicKey returns the public half of the keypair.
func (k *Keypair) PublicKey() ed25519.PublicKey {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, k.secret[ed25519.SeedSize:])
	return pub
}

// Secret returns the 64 byte secret material.
func (k *Keypair) Secret() []byte {
	secret := make([]byte, ed25519.PrivateKeySize)
	copy(secret, k.secret)
	return secret
}

// PrivateKey returns the secret material as an ed25519.PrivateKey.
func (k *Keypair) PrivateKey() ed25519.PrivateKey {
	return ed25519.PrivateKey(k.Secret())
}

// ToBase58 returns the base58 encoded secret material.
func (k *Keypair) ToBase58() string {
	return encoding.Base58Encode(k.secret)
}

// MarshalJSON encodes the keypair in the Solana CLI keypair file format.
func (k *Keypair) MarshalJSON() ([]byte, error) {
	values := make([]int, len(k.secret))
	for i, v := range k.secret {
		values[i] = int(v)
	}
	return json.Marshal(values)
}
