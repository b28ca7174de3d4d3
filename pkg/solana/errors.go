package solana

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey names a transaction level failure reported by the
// cluster.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
)

// InstructionErrorKey names an instruction level failure.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorInvalidArgument          InstructionErrorKey = "InvalidArgument"
	InstructionErrorInsufficientFunds        InstructionErrorKey = "InsufficientFunds"
	InstructionErrorMissingRequiredSignature InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorCustom                   InstructionErrorKey = "Custom"
)

// CustomError is the numeric error code returned by a program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", int(c))
}

// InstructionError is the failure of one instruction within a transaction.
type InstructionError struct {
	Index int
	Key   InstructionErrorKey

	// Code is set when Key is InstructionErrorCustom.
	Code CustomError
}

func (i InstructionError) Error() string {
	if i.Key == InstructionErrorCustom {
		return fmt.Sprintf("instruction %d failed: %v", i.Index, i.Code)
	}
	return fmt.Sprintf("instruction %d failed: %s", i.Index, i.Key)
}

// TransactionError is a parsed "err" value from the RPC API, optionally with
// the program logs of a failed simulation.
type TransactionError struct {
	Key         TransactionErrorKey
	Instruction *InstructionError
	Logs        []string
}

func (t TransactionError) Error() string {
	var sb strings.Builder
	if t.Instruction != nil {
		sb.WriteString(t.Instruction.Error())
	} else {
		sb.WriteString(string(t.Key))
	}

	if len(t.Logs) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(t.Logs, "; "))
		sb.WriteString(")")
	}
	return sb.String()
}

// ParseRPCError extracts the transaction error carried by a failed RPC call,
// such as a sendTransaction preflight failure. It returns nil if the error
// carries none.
func ParseRPCError(rpcErr *jsonrpc.RPCError) (*TransactionError, error) {
	if rpcErr == nil || rpcErr.Data == nil {
		return nil, nil
	}

	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("unexpected rpc error data type %T", rpcErr.Data)
	}

	raw, ok := data["err"]
	if !ok || raw == nil {
		return nil, nil
	}

	txErr, err := ParseTransactionError(raw)
	if err != nil {
		return nil, err
	}

	if logs, ok := data["logs"].([]interface{}); ok {
		for _, l := range logs {
			if s, ok := l.(string); ok {
				txErr.Logs = append(txErr.Logs, s)
			}
		}
	}

	return txErr, nil
}

// ParseTransactionError parses a decoded "err" JSON value. Errors are either
// a bare string ("AccountNotFound") or a single entry object
// ({"InstructionError":[0,{"Custom":1}]}).
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return &TransactionError{Key: TransactionErrorKey(t)}, nil
	case map[string]interface{}:
		k, v, err := singleEntry(t)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction error")
		}

		txErr := &TransactionError{Key: TransactionErrorKey(k)}
		if txErr.Key != TransactionErrorInstructionError {
			return txErr, nil
		}

		instructionErr, err := parseInstructionError(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid instruction error")
		}
		txErr.Instruction = instructionErr
		return txErr, nil
	default:
		return nil, errors.Errorf("unhandled transaction error type %T", raw)
	}
}

func parseInstructionError(raw interface{}) (*InstructionError, error) {
	tuple, ok := raw.([]interface{})
	if !ok || len(tuple) != 2 {
		return nil, errors.New("expected [index, error] tuple")
	}

	index, err := parseJSONNumber(tuple[0])
	if err != nil {
		return nil, err
	}

	e := &InstructionError{Index: index}
	switch t := tuple[1].(type) {
	case string:
		e.Key = InstructionErrorKey(t)
	case map[string]interface{}:
		k, v, err := singleEntry(t)
		if err != nil {
			return nil, err
		}

		e.Key = InstructionErrorKey(k)
		if e.Key == InstructionErrorCustom {
			code, err := parseJSONNumber(v)
			if err != nil {
				return nil, err
			}
			e.Code = CustomError(code)
		}
	default:
		return nil, errors.Errorf("unhandled instruction error type %T", t)
	}

	return e, nil
}

func singleEntry(m map[string]interface{}) (string, interface{}, error) {
	if len(m) != 1 {
		return "", nil, errors.Errorf("expected a single entry, got %d", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	return "", nil, nil
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non integer value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	default:
		return 0, errors.Errorf("non numeric value: %v", v)
	}
}
