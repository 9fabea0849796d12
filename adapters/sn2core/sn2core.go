// Package sn2core normalizes raw gateway records into their canonical core
// representations, unwrapping account __execute__ indirection along the way.
package sn2core

import (
	"errors"
	"fmt"

	"github.com/cairoforge/starkplug/core"
	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/utils"
)

func AdaptBlock(response *starknet.Block) (*core.Block, error) {
	if response == nil {
		return nil, errors.New("nil client block")
	}

	return &core.Block{
		Hash:       response.Hash,
		ParentHash: response.ParentHash,
		Number:     response.Number,
		Timestamp:  response.Timestamp,
		Size:       len(response.Transactions),
	}, nil
}

// AdaptTransaction maps a raw gateway transaction onto the canonical record.
// Invoke transactions that target an account's __execute__ entry point are
// unwrapped so the record describes the user's inner call.
func AdaptTransaction(transaction *starknet.Transaction, log utils.SimpleLogger) (*core.Transaction, error) {
	if transaction == nil {
		return nil, errors.New("nil client transaction")
	}

	switch transaction.Type {
	case starknet.TxnDeclare:
		return adaptDeclareTransaction(transaction), nil
	case starknet.TxnDeploy:
		return adaptDeployTransaction(transaction), nil
	case starknet.TxnInvoke:
		return adaptInvokeTransaction(transaction, log), nil
	default:
		return nil, fmt.Errorf("unsupported transaction type %q", transaction.Type)
	}
}

func adaptDeclareTransaction(t *starknet.Transaction) *core.Transaction {
	return &core.Transaction{
		Hash:      t.Hash,
		Type:      core.Declare,
		Sender:    address.EncodeChecksum(feltOrZero(t.SenderAddress)),
		ClassHash: t.ClassHash,
		MaxFee:    feltOrZero(t.MaxFee),
		Nonce:     t.Nonce,
		Signature: derefFelts(t.Signature),
	}
}

func adaptDeployTransaction(t *starknet.Transaction) *core.Transaction {
	return &core.Transaction{
		Hash:            t.Hash,
		Type:            core.Deploy,
		ContractAddress: address.EncodeChecksum(feltOrZero(t.ContractAddress)),
		Salt:            t.ContractAddressSalt,
		// Deploy transactions carry no fee.
		MaxFee:              &felt.Zero,
		ConstructorCalldata: derefFelts(t.ConstructorCallData),
	}
}

func adaptInvokeTransaction(t *starknet.Transaction, log utils.SimpleLogger) *core.Transaction {
	adapted := &core.Transaction{
		Hash:               t.Hash,
		Type:               core.Invoke,
		ContractAddress:    address.EncodeChecksum(feltOrZero(t.ContractAddress)),
		EntryPointSelector: t.EntryPointSelector,
		Calldata:           derefFelts(t.CallData),
		MaxFee:             feltOrZero(t.MaxFee),
		Nonce:              t.Nonce,
		Signature:          derefFelts(t.Signature),
	}

	if inner, ok := UnwrapExecute(t.EntryPointSelector, adapted.Calldata, log); ok {
		adapted.Sender = adapted.ContractAddress
		adapted.ContractAddress = inner.Target
		adapted.EntryPointSelector = inner.Selector
		adapted.Calldata = inner.Calldata
	}

	return adapted
}

// AdaptReceipt merges a raw receipt with the transaction record it confirms.
// Transaction fields take precedence on overlap. When a trace invocation is
// supplied its selected result becomes the receipt's decoded return words.
func AdaptReceipt(
	receipt *starknet.TransactionReceipt,
	status *starknet.TransactionStatus,
	trace *starknet.FunctionInvocation,
	log utils.SimpleLogger,
) (*core.Receipt, error) {
	if receipt == nil {
		return nil, errors.New("nil client receipt")
	}
	if status == nil || status.Transaction == nil {
		return nil, errors.New("nil client transaction info")
	}

	transaction, err := AdaptTransaction(status.Transaction, log)
	if err != nil {
		return nil, err
	}

	txHash := receipt.TransactionHash
	if transaction.Hash != nil {
		txHash = transaction.Hash
	}

	txStatus := receipt.Status
	if txStatus == "" {
		txStatus = status.Status
	}

	events := make([]*core.Event, len(receipt.Events))
	for i, event := range receipt.Events {
		events[i] = adaptEvent(event)
	}

	return &core.Receipt{
		Transaction:      transaction,
		TransactionHash:  txHash,
		ActualFee:        receipt.ActualFee,
		Status:           txStatus,
		BlockHash:        receipt.BlockHash,
		BlockNumber:      receipt.BlockNumber,
		TransactionIndex: receipt.TransactionIndex,
		Events:           events,
		ReturnData:       SelectTraceResult(trace),
	}, nil
}

func adaptEvent(response *starknet.Event) *core.Event {
	if response == nil {
		return nil
	}

	return &core.Event{
		From: response.From,
		Keys: response.Keys,
		Data: response.Data,
	}
}

func feltOrZero(f *felt.Felt) *felt.Felt {
	if f == nil {
		return &felt.Zero
	}
	return f
}

func derefFelts(f *[]*felt.Felt) []*felt.Felt {
	if f == nil {
		return nil
	}
	return *f
}
