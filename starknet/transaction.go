package starknet

import (
	"fmt"

	"github.com/cairoforge/starkplug/core/felt"
)

type TransactionType uint8

const (
	Invalid TransactionType = iota
	TxnDeclare
	TxnDeploy
	TxnInvoke
)

func (t TransactionType) String() string {
	switch t {
	case TxnDeclare:
		return "DECLARE"
	case TxnDeploy:
		return "DEPLOY"
	case TxnInvoke:
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
		*t = TxnDeclare
	case "DEPLOY":
		*t = TxnDeploy
	case "INVOKE", "INVOKE_FUNCTION":
		*t = TxnInvoke
	default:
		return fmt.Errorf("unknown TransactionType %q", str)
	}
	return nil
}

// Transaction object returned by the gateway in JSON format for multiple endpoints
type Transaction struct {
	Hash                *felt.Felt      `json:"transaction_hash,omitempty"`
	Version             *felt.Felt      `json:"version,omitempty"`
	ContractAddress     *felt.Felt      `json:"contract_address,omitempty"`
	ContractAddressSalt *felt.Felt      `json:"contract_address_salt,omitempty"`
	ClassHash           *felt.Felt      `json:"class_hash,omitempty"`
	ConstructorCallData *[]*felt.Felt   `json:"constructor_calldata,omitempty"`
	Type                TransactionType `json:"type,omitempty"`
	SenderAddress       *felt.Felt      `json:"sender_address,omitempty"`
	MaxFee              *felt.Felt      `json:"max_fee,omitempty"`
	Signature           *[]*felt.Felt   `json:"signature,omitempty"`
	CallData            *[]*felt.Felt   `json:"calldata,omitempty"`
	EntryPointSelector  *felt.Felt      `json:"entry_point_selector,omitempty"`
	Nonce               *felt.Felt      `json:"nonce,omitempty"`
}

// TransactionFailureReason explains a REJECTED transaction. The gateway's
// error_message carries the same traceback format as its HTTP error bodies.
type TransactionFailureReason struct {
	Code         string `json:"code"`
	ErrorMessage string `json:"error_message"`
}

// TransactionStatus is returned by the gateway's get_transaction endpoint.
type TransactionStatus struct {
	Status           string                    `json:"status"`
	BlockHash        *felt.Felt                `json:"block_hash"`
	BlockNumber      uint64                    `json:"block_number"`
	TransactionIndex uint64                    `json:"transaction_index"`
	Transaction      *Transaction              `json:"transaction"`
	FailureReason    *TransactionFailureReason `json:"transaction_failure_reason,omitempty"`
}

// Transaction status strings as reported by the gateway.
const (
	StatusNotReceived  = "NOT_RECEIVED"
	StatusReceived     = "RECEIVED"
	StatusPending      = "PENDING"
	StatusRejected     = "REJECTED"
	StatusAcceptedOnL2 = "ACCEPTED_ON_L2"
	StatusAcceptedOnL1 = "ACCEPTED_ON_L1"
)

type Event struct {
	From *felt.Felt   `json:"from_address"`
	Data []*felt.Felt `json:"data"`
	Keys []*felt.Felt `json:"keys"`
}

// TransactionReceipt is returned by the gateway's get_transaction_receipt
// endpoint.
type TransactionReceipt struct {
	ActualFee        *felt.Felt `json:"actual_fee"`
	Events           []*Event   `json:"events"`
	TransactionHash  *felt.Felt `json:"transaction_hash"`
	TransactionIndex uint64     `json:"transaction_index"`
	BlockHash        *felt.Felt `json:"block_hash"`
	BlockNumber      uint64     `json:"block_number"`
	Status           string     `json:"status"`
}

// TransactionReceivedCode is the gateway's acknowledgement code for a
// successfully submitted transaction.
const TransactionReceivedCode = "TRANSACTION_RECEIVED"

// SentTransactionResponse is the gateway's reply to add_transaction.
type SentTransactionResponse struct {
	Code            string     `json:"code"`
	TransactionHash *felt.Felt `json:"transaction_hash"`
	Address         *felt.Felt `json:"address,omitempty"`
	ClassHash       *felt.Felt `json:"class_hash,omitempty"`
}
