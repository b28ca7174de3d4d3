package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/instruction-server/pkg/solana"
)

// Command is the system program's instruction enum index. Unlike the token
// program it is encoded as a little endian u32.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs
type Command uint32

const (
	CommandCreateAccount Command = 0
	CommandAssign        Command = 1
	CommandTransfer      Command = 2
)

const transferDataSize = 4 + 8

// Layouts holds the account order the system program expects for each
// supported command.
var Layouts = map[Command]solana.AccountLayout{
	CommandTransfer: {
		{Name: "from", IsSigner: true, IsWritable: true},
		{Name: "to", IsWritable: true},
	},
}

// Transfer moves lamports from one system account to another.
//
// Data: u32 command index followed by u64 lamports, both little endian.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L93-L98
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, transferDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandTransfer))
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstructionWithLayout(
		ProgramKey,
		data,
		Layouts[CommandTransfer],
		from,
		to,
	)
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) < 4 || Command(binary.LittleEndian.Uint32(i.Data)) != CommandTransfer {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Data) != transferDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if len(i.Accounts) != len(Layouts[CommandTransfer]) {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	return &DecompiledTransfer{
		From:     m.Accounts[i.Accounts[0]],
		To:       m.Accounts[i.Accounts[1]],
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}
