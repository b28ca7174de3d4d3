package solana

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeJSON(t *testing.T, s string) interface{} {
	d := json.NewDecoder(bytes.NewBufferString(s))
	d.UseNumber()

	var raw interface{}
	require.NoError(t, d.Decode(&raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeJSON(t, `{"InstructionError":[2,{"Custom":3}]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.Key)
	require.NotNil(t, e.Instruction)
	assert.Equal(t, 2, e.Instruction.Index)
	assert.Equal(t, InstructionErrorCustom, e.Instruction.Key)
	assert.Equal(t, CustomError(3), e.Instruction.Code)
	assert.Equal(t, "instruction 2 failed: custom program error: 0x3", e.Error())

	e, err = ParseTransactionError(decodeJSON(t, `{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)
	require.NotNil(t, e.Instruction)
	assert.Equal(t, 0, e.Instruction.Index)
	assert.Equal(t, InstructionErrorInvalidArgument, e.Instruction.Key)

	e, err = ParseTransactionError(decodeJSON(t, `"DuplicateSignature"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorDuplicateSignature, e.Key)
	assert.Nil(t, e.Instruction)
	assert.Equal(t, "DuplicateSignature", e.Error())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestParseTransactionError_Invalid(t *testing.T) {
	for _, s := range []string{
		`{"A":1,"B":2}`,
		`{"InstructionError":[0]}`,
		`{"InstructionError":["x","InvalidArgument"]}`,
		`{"InstructionError":[0,{"Custom":"abc"}]}`,
		`12`,
	} {
		_, err := ParseTransactionError(decodeJSON(t, s))
		assert.Error(t, err, s)
	}
}

func TestParseRPCError(t *testing.T) {
	e, err := ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err":  "AccountNotFound",
			"logs": []interface{}{"log a", "log b"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, TransactionErrorAccountNotFound, e.Key)
	assert.Equal(t, "AccountNotFound (log a; log b)", e.Error())

	e, err = ParseRPCError(&jsonrpc.RPCError{Code: -32002})
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = ParseRPCError(&jsonrpc.RPCError{Data: map[string]interface{}{"logs": nil}})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Data: "bad"})
	assert.Error(t, err)
}

func TestParseJSONNumber(t *testing.T) {
	for i, c := range []interface{}{
		"1",
		1.0,
		json.Number("1"),
	} {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
