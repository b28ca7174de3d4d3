package memo

import (
	"bytes"
	"crypto/ed25519"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/solana"
)

// ProgramKey is the address of the SPL memo program (v2).
//
// Current key: MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr
var ProgramKey = ed25519.PublicKey{5, 74, 83, 90, 153, 41, 33, 6, 77, 36, 232, 113, 96, 218, 56, 124, 124, 53, 181, 221, 188, 146, 187, 129, 228, 31, 168, 64, 65, 5, 68, 141}

var ErrInvalidMemo = errors.New("memo must be valid utf-8")

// Instruction attaches text to a transaction. Each signer must sign the
// enclosing transaction.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/master/memo/program/src/processor.rs
func Instruction(text string, signers ...ed25519.PublicKey) (solana.Instruction, error) {
	if !utf8.ValidString(text) {
		return solana.Instruction{}, ErrInvalidMemo
	}

	accounts := make([]solana.AccountMeta, len(signers))
	for i, signer := range signers {
		accounts[i] = solana.NewReadonlyAccountMeta(signer, true)
	}

	return solana.NewInstruction(ProgramKey, []byte(text), accounts...), nil
}

type DecompiledMemo struct {
	Text    string
	Signers []ed25519.PublicKey
}

func DecompileMemo(m solana.Message, index int) (*DecompiledMemo, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if !utf8.Valid(i.Data) {
		return nil, ErrInvalidMemo
	}

	decompiled := &DecompiledMemo{
		Text:    string(i.Data),
		Signers: make([]ed25519.PublicKey, len(i.Accounts)),
	}
	for j, account := range i.Accounts {
		decompiled.Signers[j] = m.Accounts[account]
	}
	return decompiled, nil
}
