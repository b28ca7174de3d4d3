package solana

import (
	"crypto/ed25519"
	"fmt"
	"strings"
)

// AccountRole describes one position in an instruction's account list.
type AccountRole struct {
	Name       string
	IsSigner   bool
	IsWritable bool
}

// AccountLayout is the fixed, ordered account list a program expects for
// one instruction kind.
type AccountLayout []AccountRole

// Bind assigns keys to the layout positions, in order.
//
// Bind panics if the number of keys does not match the layout, since that
// can only happen through a programming error in a builder.
func (l AccountLayout) Bind(keys ...ed25519.PublicKey) []AccountMeta {
	if len(keys) != len(l) {
		panic(fmt.Sprintf("layout expects %d accounts, got %d", len(l), len(keys)))
	}

	accounts := make([]AccountMeta, len(l))
	for i, role := range l {
		accounts[i] = AccountMeta{
			PublicKey:  keys[i],
			IsSigner:   role.IsSigner,
			IsWritable: role.IsWritable,
		}
	}
	return accounts
}

// Matches reports whether the signer and writable flags of accounts match
// the layout exactly.
func (l AccountLayout) Matches(accounts []AccountMeta) bool {
	if len(accounts) != len(l) {
		return false
	}

	for i, role := range l {
		if accounts[i].IsSigner != role.IsSigner || accounts[i].IsWritable != role.IsWritable {
			return false
		}
	}
	return true
}

// String renders the layout in the notation used by the program docs, for
// example "0. [writable] mint, 1. [] rent sysvar".
func (l AccountLayout) String() string {
	parts := make([]string, len(l))
	for i, role := range l {
		var flags []string
		if role.IsWritable {
			flags = append(flags, "writable")
		}
		if role.IsSigner {
			flags = append(flags, "signer")
		}
		parts[i] = fmt.Sprintf("%d. [%s] %s", i, strings.Join(flags, ", "), role.Name)
	}
	return strings.Join(parts, ", ")
}
