package core

import (
	"github.com/cairoforge/starkplug/core/felt"
)

type Event struct {
	From *felt.Felt
	Keys []*felt.Felt
	Data []*felt.Felt
}

// Receipt merges the gateway's receipt record with the transaction record
// it confirms. Transaction fields win on overlap.
type Receipt struct {
	Transaction *Transaction

	TransactionHash  *felt.Felt
	ActualFee        *felt.Felt
	Status           string
	BlockHash        *felt.Felt
	BlockNumber      uint64
	TransactionIndex uint64
	Events           []*Event

	// Raw return words recovered from the transaction's invocation trace.
	// Empty when no trace was available; callers treat that as undecoded.
	ReturnData []*felt.Felt
}

// RanOutOfGas reports whether the actual fee consumed the whole fee budget.
func (r *Receipt) RanOutOfGas() bool {
	if r.ActualFee == nil || r.Transaction == nil || r.Transaction.MaxFee == nil {
		return false
	}
	return r.ActualFee.Cmp(r.Transaction.MaxFee) >= 0
}
