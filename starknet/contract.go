package starknet

import (
	"encoding/json"

	"github.com/cairoforge/starkplug/core/felt"
)

// ContractCode object returned by the gateway for the "get_code" endpoint.
// The ABI is kept raw; this plugin only forwards it to callers.
type ContractCode struct {
	Bytecode []*felt.Felt    `json:"bytecode"`
	Abi      json.RawMessage `json:"abi,omitempty"`
}

// FunctionCall is the request body for "call_contract" and "estimate_fee".
type FunctionCall struct {
	ContractAddress    *felt.Felt   `json:"contract_address"`
	EntryPointSelector *felt.Felt   `json:"entry_point_selector"`
	CallData           []*felt.Felt `json:"calldata"`
	Signature          []*felt.Felt `json:"signature"`
}

// CallContractResponse is the gateway's reply to "call_contract".
type CallContractResponse struct {
	Result []*felt.Felt `json:"result"`
}

// FeeEstimate is the gateway's reply to "estimate_fee".
type FeeEstimate struct {
	OverallFee *felt.Felt `json:"overall_fee"`
	GasPrice   *felt.Felt `json:"gas_price"`
	GasUsage   *felt.Felt `json:"gas_usage"`
	Unit       string     `json:"unit"`
}
