package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/system"
)

// ProgramKey is the address of the SPL token program.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

// Command is the leading tag byte of a token program instruction.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs
type Command byte

const (
	CommandInitializeMint Command = 0
	CommandTransfer       Command = 3
	CommandMintTo         Command = 7

	CommandUnknown = Command(math.MaxUint8)
)

const (
	initializeMintSize         = 1 + 1 + ed25519.PublicKeySize + 1
	initializeMintWithFreeze   = initializeMintSize + ed25519.PublicKeySize
	amountInstructionDataSize  = 1 + 8
	freezeAuthorityAbsentFlag  = 0
	freezeAuthorityPresentFlag = 1
)

// Layouts holds the account order the token program expects for each
// supported command.
var Layouts = map[Command]solana.AccountLayout{
	CommandInitializeMint: {
		{Name: "mint", IsWritable: true},
		{Name: "rent sysvar"},
	},
	CommandMintTo: {
		{Name: "mint", IsWritable: true},
		{Name: "destination", IsWritable: true},
		{Name: "authority", IsSigner: true},
	},
	CommandTransfer: {
		{Name: "source", IsWritable: true},
		{Name: "destination", IsWritable: true},
		{Name: "owner", IsSigner: true},
	},
}

// GetCommand returns the token command of the instruction at index.
func GetCommand(m solana.Message, index int) (Command, error) {
	i, err := tokenInstruction(m, index)
	if err != nil {
		return CommandUnknown, err
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// InitializeMint initializes a new mint with the given mint authority and
// decimals. An empty freezeAuthority leaves the mint without one.
//
// Data: tag, decimals, mint authority, then a one byte option flag followed
// by the freeze authority when present.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L22-L40
func InitializeMint(mint, authority ed25519.PublicKey, decimals byte, freezeAuthority ed25519.PublicKey) solana.Instruction {
	data := make([]byte, 0, initializeMintWithFreeze)
	data = append(data, byte(CommandInitializeMint), decimals)
	data = append(data, authority...)

	if len(freezeAuthority) > 0 {
		data = append(data, freezeAuthorityPresentFlag)
		data = append(data, freezeAuthority...)
	} else {
		data = append(data, freezeAuthorityAbsentFlag)
	}

	return solana.NewInstructionWithLayout(
		ProgramKey,
		data,
		Layouts[CommandInitializeMint],
		mint,
		system.RentSysVar,
	)
}

type DecompiledInitializeMint struct {
	Mint            ed25519.PublicKey
	Authority       ed25519.PublicKey
	Decimals        byte
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint(m solana.Message, index int) (*DecompiledInitializeMint, error) {
	i, err := expectCommand(m, index, CommandInitializeMint)
	if err != nil {
		return nil, err
	}

	switch {
	case len(i.Data) == initializeMintSize && i.Data[initializeMintSize-1] == freezeAuthorityAbsentFlag:
	case len(i.Data) == initializeMintWithFreeze && i.Data[initializeMintSize-1] == freezeAuthorityPresentFlag:
	default:
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if !bytes.Equal(system.RentSysVar, m.Accounts[i.Accounts[1]]) {
		return nil, errors.New("invalid rent sysvar")
	}

	v := &DecompiledInitializeMint{
		Mint:      m.Accounts[i.Accounts[0]],
		Decimals:  i.Data[1],
		Authority: ed25519.PublicKey(bytes.Clone(i.Data[2 : 2+ed25519.PublicKeySize])),
	}
	if len(i.Data) == initializeMintWithFreeze {
		v.FreezeAuthority = ed25519.PublicKey(bytes.Clone(i.Data[initializeMintSize:]))
	}

	return v, nil
}

// MintTo issues amount new tokens of mint to destination.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L156-L170
func MintTo(mint, destination, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	return solana.NewInstructionWithLayout(
		ProgramKey,
		amountData(CommandMintTo, amount),
		Layouts[CommandMintTo],
		mint,
		destination,
		authority,
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(m solana.Message, index int) (*DecompiledMintTo, error) {
	i, err := expectCommand(m, index, CommandMintTo)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != amountInstructionDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledMintTo{
		Mint:        m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Authority:   m.Accounts[i.Accounts[2]],
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

// Transfer moves amount tokens from source to destination. Both are token
// accounts, not wallets; owner is the wallet that owns source.
//
// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L76-L91
func Transfer(source, destination, owner ed25519.PublicKey, amount uint64) solana.Instruction {
	return solana.NewInstructionWithLayout(
		ProgramKey,
		amountData(CommandTransfer, amount),
		Layouts[CommandTransfer],
		source,
		destination,
		owner,
	)
}

type DecompiledTransfer struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Owner       ed25519.PublicKey
	Amount      uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := expectCommand(m, index, CommandTransfer)
	if err != nil {
		return nil, err
	}
	if len(i.Data) != amountInstructionDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		Source:      m.Accounts[i.Accounts[0]],
		Destination: m.Accounts[i.Accounts[1]],
		Owner:       m.Accounts[i.Accounts[2]],
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}

func amountData(cmd Command, amount uint64) []byte {
	data := make([]byte, amountInstructionDataSize)
	data[0] = byte(cmd)
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

func tokenInstruction(m solana.Message, index int) (solana.CompiledInstruction, error) {
	if index < 0 || index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return solana.CompiledInstruction{}, solana.ErrIncorrectProgram
	}
	return i, nil
}

func expectCommand(m solana.Message, index int, cmd Command) (solana.CompiledInstruction, error) {
	i, err := tokenInstruction(m, index)
	if err != nil {
		return i, err
	}
	if len(i.Data) == 0 || Command(i.Data[0]) != cmd {
		return i, solana.ErrIncorrectInstruction
	}
	if expected := len(Layouts[cmd]); len(i.Accounts) != expected {
		return i, errors.Errorf("invalid number of accounts: %d (expected %d)", len(i.Accounts), expected)
	}
	return i, nil
}
