package core

import (
	"fmt"

	"github.com/cairoforge/starkplug/core/felt"
)

type TransactionType uint8

const (
	Declare TransactionType = iota + 1
	Deploy
	Invoke
)

func (t TransactionType) String() string {
	switch t {
	case Declare:
		return "DECLARE"
	case Deploy:
		return "DEPLOY"
	case Invoke:
		return "INVOKE_FUNCTION"
	default:
		return "<unknown>"
	}
}

func (t TransactionType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(data []byte) error {
	switch str := string(data); str {
	case "DECLARE":
		*t = Declare
	case "DEPLOY":
		*t = Deploy
	case "INVOKE", "INVOKE_FUNCTION":
		*t = Invoke
	default:
		return fmt.Errorf("unknown TransactionType %q", str)
	}
	return nil
}

// Transaction is the canonical record every raw gateway transaction is
// normalized into. For invoke transactions routed through an account's
// __execute__ wrapper, ContractAddress, EntryPointSelector and Calldata
// describe the inner call and Sender holds the wrapper account's address.
// Records are built once per raw transaction and never mutated after.
type Transaction struct {
	Hash *felt.Felt
	Type TransactionType

	// Checksummed hex addresses. Sender is empty unless the raw record was
	// a declare or an unwrapped account call.
	ContractAddress string
	Sender          string

	EntryPointSelector *felt.Felt
	Calldata           []*felt.Felt

	// Deploy-only.
	Salt                *felt.Felt
	ConstructorCalldata []*felt.Felt

	// Declare-only.
	ClassHash *felt.Felt

	// Zero for deploy transactions, which carry no fee.
	MaxFee *felt.Felt

	Nonce     *felt.Felt
	Signature []*felt.Felt
}
