package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/system"
)

// AssociatedTokenAccountProgramKey is the address of the associated token
// account program.
//
// Current key: ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL
var AssociatedTokenAccountProgramKey = ed25519.PublicKey{140, 151, 37, 143, 78, 36, 137, 241, 187, 61, 16, 41, 20, 142, 13, 131, 11, 90, 19, 153, 218, 255, 16, 132, 4, 142, 123, 216, 219, 233, 248, 89}

// AssociatedAccountLayout is the account order of the idempotent create
// instruction.
var AssociatedAccountLayout = solana.AccountLayout{
	{Name: "funder", IsSigner: true, IsWritable: true},
	{Name: "associated account", IsWritable: true},
	{Name: "wallet"},
	{Name: "mint"},
	{Name: "system program"},
	{Name: "token program"},
}

const commandCreateIdempotent byte = 1

// GetAssociatedAccount returns the associated token account address of
// wallet for mint.
//
// Reference: https://spl.solana.com/associated-token-account#finding-the-associated-token-account-address
func GetAssociatedAccount(wallet, mint ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.FindProgramAddress(
		AssociatedTokenAccountProgramKey,
		wallet,
		ProgramKey,
		mint,
	)
}

// CreateAssociatedTokenAccountIdempotent creates the associated token account
// of wallet for mint, funded by funder. It succeeds if the account already
// exists.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/2a5b1ea6e4dce1b4e4e7e2a8d2a5bb1c4a6d8a14/associated-token-account/program/src/instruction.rs#L27-L39
func CreateAssociatedTokenAccountIdempotent(funder, wallet, mint ed25519.PublicKey) (solana.Instruction, ed25519.PublicKey, error) {
	addr, err := GetAssociatedAccount(wallet, mint)
	if err != nil {
		return solana.Instruction{}, nil, err
	}

	return solana.NewInstructionWithLayout(
		AssociatedTokenAccountProgramKey,
		[]byte{commandCreateIdempotent},
		AssociatedAccountLayout,
		funder,
		addr,
		wallet,
		mint,
		system.ProgramKey,
		ProgramKey,
	), addr, nil
}

type DecompiledCreateAssociatedAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey
	Wallet  ed25519.PublicKey
	Mint    ed25519.PublicKey
}

func DecompileCreateAssociatedAccount(m solana.Message, index int) (*DecompiledCreateAssociatedAccount, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], AssociatedTokenAccountProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !bytes.Equal(i.Data, []byte{commandCreateIdempotent}) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != len(AssociatedAccountLayout) {
		return nil, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), len(AssociatedAccountLayout))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[4]], system.ProgramKey) {
		return nil, errors.New("system program key mismatch")
	}
	if !bytes.Equal(m.Accounts[i.Accounts[5]], ProgramKey) {
		return nil, errors.New("token program key mismatch")
	}

	return &DecompiledCreateAssociatedAccount{
		Funder:  m.Accounts[i.Accounts[0]],
		Address: m.Accounts[i.Accounts[1]],
		Wallet:  m.Accounts[i.Accounts[2]],
		Mint:    m.Accounts[i.Accounts[3]],
	}, nil
}
