package starknet

import (
	"github.com/cairoforge/starkplug/core/felt"
)

// BlockTrace object returned by the gateway for the "get_block_traces" endpoint
type BlockTrace struct {
	Traces []TransactionTrace `json:"traces"`
}

// TransactionTrace is the replayed call tree of a single transaction.
type TransactionTrace struct {
	TransactionHash    *felt.Felt          `json:"transaction_hash"`
	Signature          []*felt.Felt        `json:"signature"`
	FunctionInvocation *FunctionInvocation `json:"function_invocation"`
}

// FunctionInvocation is one node of the call tree. Result holds the call's
// raw return words; InternalCalls the nested invocations, in call order.
type FunctionInvocation struct {
	CallerAddress   *felt.Felt           `json:"caller_address"`
	ContractAddress *felt.Felt           `json:"contract_address"`
	Selector        *felt.Felt           `json:"selector"`
	CallData        []*felt.Felt         `json:"calldata"`
	CallType        string               `json:"call_type"`
	Result          []*felt.Felt         `json:"result"`
	InternalCalls   []FunctionInvocation `json:"internal_calls"`
	Events          []*Event             `json:"events"`
}
