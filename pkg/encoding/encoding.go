// Package encoding provides the base58 and base64 text forms used for keys,
// secrets and signatures.
package encoding

import (
	"encoding/base64"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// ErrInvalidEncoding indicates the input text is not valid in the requested
// encoding.
var ErrInvalidEncoding = errors.New("invalid encoding")

// Base58Encode encodes b using the bitcoin base58 alphabet. No checksum is
// appended.
func Base58Encode(b []byte) string {
	return base58.Encode(b)
}

// Base58Decode decodes s from the bitcoin base58 alphabet.
//
// The decoded length is not checked; callers that expect fixed size values
// must verify it themselves.
func Base58Decode(s string) ([]byte, error) {
	if len(s) == 0 {
		return []byte{}, nil
	}

	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}
	return b, nil
}

// Base64Encode encodes b using the standard, padded base64 alphabet.
func Base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Base64Decode decodes s from the standard, padded base64 alphabet. Line
// breaks are rejected rather than skipped.
func Base64Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidEncoding, err.Error())
	}

	// DecodeString ignores \r and \n, so any skipped byte shows up as a
	// length mismatch.
	if len(s) != base64.StdEncoding.EncodedLen(len(b)) {
		return nil, errors.Wrap(ErrInvalidEncoding, "unexpected characters in base64 input")
	}
	return b, nil
}
