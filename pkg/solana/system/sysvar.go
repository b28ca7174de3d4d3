package system

import (
	"crypto/ed25519"

	"github.com/code-payments/instruction-server/pkg/solana"
)

var (
	// ProgramKey is the address of the system program.
	//
	// https://explorer.solana.com/address/11111111111111111111111111111111
	ProgramKey = mustDecode("11111111111111111111111111111111")

	// RentSysVar points to the "Rent" sysvar account.
	//
	// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
	RentSysVar = mustDecode("SysvarRent111111111111111111111111111111111")
)

func mustDecode(s string) ed25519.PublicKey {
	pub, err := solana.PublicKeyFromString(s)
	if err != nil {
		panic(err)
	}
	return pub
}
