package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/instruction-server/pkg/solana"
	"github.com/code-payments/instruction-server/pkg/solana/system"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", solana.PublicKeyToString(ProgramKey))
	assert.Equal(t, "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", solana.PublicKeyToString(AssociatedTokenAccountProgramKey))
}

func TestGetCommand_Error(t *testing.T) {
	keys := generateKeys(t, 2)

	cmd, err := GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(keys[1], []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	cmd, err = GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(ProgramKey, []byte{})).Message, 0)
	assert.Equal(t, CommandUnknown, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing data")

	_, err = GetCommand(solana.NewTransaction(keys[0], solana.NewInstruction(ProgramKey, []byte{})).Message, 1)
	assert.Error(t, err)
}

func TestInitializeMint(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := InitializeMint(keys[0], keys[1], 9, nil)

	expected := append([]byte{0, 9}, keys[1]...)
	expected = append(expected, 0)
	assert.Equal(t, expected, instruction.Data)
	assert.Len(t, instruction.Data, 35)

	assert.Equal(t, ProgramKey, instruction.Program)
	require.Len(t, instruction.Accounts, 2)
	assert.Equal(t, keys[0], instruction.Accounts[0].PublicKey)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.Equal(t, system.RentSysVar, instruction.Accounts[1].PublicKey)
	assert.False(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)

	decompiled, err := DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Mint)
	assert.Equal(t, keys[1], decompiled.Authority)
	assert.EqualValues(t, 9, decompiled.Decimals)
	assert.Nil(t, decompiled.FreezeAuthority)

	cmd, err := GetCommand(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandInitializeMint, cmd)
}

func TestInitializeMint_FreezeAuthority(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := InitializeMint(keys[0], keys[1], 255, keys[2])

	expected := append([]byte{0, 255}, keys[1]...)
	expected = append(expected, 1)
	expected = append(expected, keys[2]...)
	assert.Equal(t, expected, instruction.Data)
	assert.Len(t, instruction.Data, 67)

	decompiled, err := DecompileInitializeMint(solana.NewTransaction(keys[3], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[2], decompiled.FreezeAuthority)
	assert.EqualValues(t, 255, decompiled.Decimals)
}

func TestInitializeMint_EmptyFreezeAuthority(t *testing.T) {
	keys := generateKeys(t, 2)

	for _, freeze := range []ed25519.PublicKey{nil, {}} {
		instruction := InitializeMint(keys[0], keys[1], 6, freeze)

		expected := append([]byte{0, 6}, keys[1]...)
		expected = append(expected, 0)
		assert.Equal(t, expected, instruction.Data)
	}
}

func TestDecompileInitializeMint_Invalid(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := InitializeMint(keys[0], keys[1], 6, nil)
	instruction.Accounts[1].PublicKey = keys[3]
	_, err := DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rent sysvar")

	instruction = InitializeMint(keys[0], keys[1], 6, nil)
	instruction.Data[len(instruction.Data)-1] = 1
	_, err = DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instruction data size")

	instruction = InitializeMint(keys[0], keys[1], 6, nil)
	instruction.Accounts = instruction.Accounts[:1]
	_, err = DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"))

	instruction = InitializeMint(keys[0], keys[1], 6, nil)
	instruction.Data[0] = byte(CommandMintTo)
	_, err = DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileInitializeMint(solana.NewTransaction(keys[2], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestMintTo(t *testing.T) {
	keys := generateKeys(t, 3)

	for _, amount := range []uint64{0, 1_000_000, math.MaxUint64} {
		instruction := MintTo(keys[0], keys[1], keys[2], amount)

		expected := make([]byte, 9)
		expected[0] = 7
		binary.LittleEndian.PutUint64(expected[1:], amount)
		assert.Equal(t, expected, instruction.Data)

		require.Len(t, instruction.Accounts, 3)
		assert.True(t, Layouts[CommandMintTo].Matches(instruction.Accounts))
		assert.True(t, instruction.Accounts[0].IsWritable)
		assert.True(t, instruction.Accounts[1].IsWritable)
		assert.True(t, instruction.Accounts[2].IsSigner)
		assert.False(t, instruction.Accounts[2].IsWritable)

		decompiled, err := DecompileMintTo(solana.NewTransaction(keys[2], instruction).Message, 0)
		require.NoError(t, err)
		assert.Equal(t, keys[0], decompiled.Mint)
		assert.Equal(t, keys[1], decompiled.Destination)
		assert.Equal(t, keys[2], decompiled.Authority)
		assert.Equal(t, amount, decompiled.Amount)
	}

	assert.Equal(t,
		[]byte{7, 0x40, 0x42, 0x0f, 0, 0, 0, 0, 0},
		MintTo(keys[0], keys[1], keys[2], 1_000_000).Data,
	)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := Transfer(keys[0], keys[1], keys[2], 123456789)

	expected := make([]byte, 9)
	expected[0] = 3
	binary.LittleEndian.PutUint64(expected[1:], 123456789)
	assert.Equal(t, expected, instruction.Data)

	require.Len(t, instruction.Accounts, 3)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[2].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)

	decompiled, err := DecompileTransfer(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 123456789, decompiled.Amount)

	instruction.Data = instruction.Data[:5]
	_, err = DecompileTransfer(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instruction data size")

	instruction = Transfer(keys[0], keys[1], keys[2], 1)
	_, err = DecompileMintTo(solana.NewTransaction(keys[2], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestLayouts_String(t *testing.T) {
	assert.Equal(t, "0. [writable] mint, 1. [] rent sysvar", Layouts[CommandInitializeMint].String())
	assert.Equal(t, "0. [writable] source, 1. [writable] destination, 2. [signer] owner", Layouts[CommandTransfer].String())
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := range keys {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
