package solana

import (
	"bytes"
	"crypto/ed25519"
	"errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
)

// AccountMeta is an account referenced by an instruction, along with the
// permissions the instruction needs on it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	isPayer    bool
	isProgram  bool
}

// NewAccountMeta returns a writable account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta returns a readonly account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// compareAccountMeta orders accounts the way the runtime expects them in a
// message: the payer first, then signers before non-signers and writable
// before readonly, with invoked programs last.
//
// Reference: https://docs.solana.com/transaction#account-addresses-format
func compareAccountMeta(a, b AccountMeta) int {
	switch {
	case a.isPayer != b.isPayer:
		return rank(a.isPayer)
	case a.isProgram != b.isProgram:
		return -rank(a.isProgram)
	case a.IsSigner != b.IsSigner:
		return rank(a.IsSigner)
	case a.IsWritable != b.IsWritable:
		return rank(a.IsWritable)
	default:
		return bytes.Compare(a.PublicKey, b.PublicKey)
	}
}

// rank sorts true ahead of false.
func rank(first bool) int {
	if first {
		return -1
	}
	return 1
}

// Instruction is an unsigned description of a single program invocation.
// Instructions are built by the program packages and are not modified
// afterwards.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// NewInstructionWithLayout creates a new instruction whose accounts are the
// keys bound, in order, to layout.
func NewInstructionWithLayout(program ed25519.PublicKey, data []byte, layout AccountLayout, keys ...ed25519.PublicKey) Instruction {
	return NewInstruction(program, data, layout.Bind(keys...)...)
}

// CompiledInstruction is an instruction as encoded in a message, with the
// program and accounts replaced by indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}
