package sn2core_test

import (
	"testing"

	"github.com/cairoforge/starkplug/adapters/sn2core"
	"github.com/cairoforge/starkplug/core"
	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feltFromUint(v uint64) *felt.Felt {
	return new(felt.Felt).SetUint64(v)
}

func felts(vs ...uint64) []*felt.Felt {
	out := make([]*felt.Felt, len(vs))
	for i, v := range vs {
		out[i] = feltFromUint(v)
	}
	return out
}

func TestUnwrapExecute(t *testing.T) {
	log := utils.NewNopZapLogger()
	target := utils.HexToFelt(t, "0x49d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7")
	selector := crypto.MustSelectorFromName("transfer")

	t.Run("single call round trip", func(t *testing.T) {
		calldata := []*felt.Felt{
			feltFromUint(1),
			target,
			selector,
			feltFromUint(2),
			feltFromUint(111),
			feltFromUint(222),
		}

		inner, ok := sn2core.UnwrapExecute(crypto.ExecuteSelector, calldata, log)
		require.True(t, ok)
		assert.Equal(t, address.EncodeChecksum(target), inner.Target)
		assert.True(t, selector.Equal(inner.Selector))
		require.Len(t, inner.Calldata, 2)
		assert.Equal(t, uint64(111), inner.Calldata[0].Uint64())
		assert.Equal(t, uint64(222), inner.Calldata[1].Uint64())
	})

	t.Run("other selectors pass through", func(t *testing.T) {
		_, ok := sn2core.UnwrapExecute(selector, felts(1, 2, 3), log)
		assert.False(t, ok)

		_, ok = sn2core.UnwrapExecute(nil, felts(1, 2, 3), log)
		assert.False(t, ok)
	})

	t.Run("multi call parses the first call", func(t *testing.T) {
		calldata := []*felt.Felt{
			feltFromUint(2),
			target,
			selector,
			feltFromUint(1),
			feltFromUint(7),
		}

		inner, ok := sn2core.UnwrapExecute(crypto.ExecuteSelector, calldata, log)
		require.True(t, ok)
		require.Len(t, inner.Calldata, 1)
		assert.Equal(t, uint64(7), inner.Calldata[0].Uint64())
	})

	t.Run("truncated calldata shortens instead of failing", func(t *testing.T) {
		// Length word claims more arguments than the payload carries.
		calldata := []*felt.Felt{
			feltFromUint(1),
			target,
			selector,
			feltFromUint(5),
			feltFromUint(7),
		}

		inner, ok := sn2core.UnwrapExecute(crypto.ExecuteSelector, calldata, log)
		require.True(t, ok)
		assert.Len(t, inner.Calldata, 1)

		inner, ok = sn2core.UnwrapExecute(crypto.ExecuteSelector, nil, log)
		require.True(t, ok)
		assert.Empty(t, inner.Target)
		assert.Empty(t, inner.Calldata)
	})
}

func TestSelectTraceResult(t *testing.T) {
	t.Run("last internal call wins", func(t *testing.T) {
		invocation := &starknet.FunctionInvocation{
			Result: felts(9, 2, 3),
			InternalCalls: []starknet.FunctionInvocation{
				{Result: felts(1)},
				{Result: felts(2, 3)},
			},
		}

		result := sn2core.SelectTraceResult(invocation)
		require.Len(t, result, 2)
		assert.Equal(t, uint64(2), result[0].Uint64())
		assert.Equal(t, uint64(3), result[1].Uint64())
	})

	t.Run("empty internal result falls back to outer", func(t *testing.T) {
		invocation := &starknet.FunctionInvocation{
			Result:        felts(5),
			InternalCalls: []starknet.FunctionInvocation{{}},
		}

		result := sn2core.SelectTraceResult(invocation)
		require.Len(t, result, 1)
		assert.Equal(t, uint64(5), result[0].Uint64())
	})

	t.Run("nil invocation", func(t *testing.T) {
		assert.Nil(t, sn2core.SelectTraceResult(nil))
	})
}

func TestAdaptTransaction(t *testing.T) {
	log := utils.NewNopZapLogger()

	t.Run("declare", func(t *testing.T) {
		sender := feltFromUint(0xabc)
		signature := felts(1, 2)
		txn := &starknet.Transaction{
			Hash:          feltFromUint(0x111),
			Type:          starknet.TxnDeclare,
			SenderAddress: sender,
			ClassHash:     feltFromUint(0x222),
			MaxFee:        feltFromUint(100),
			Nonce:         feltFromUint(3),
			Signature:     &signature,
		}

		adapted, err := sn2core.AdaptTransaction(txn, log)
		require.NoError(t, err)
		assert.Equal(t, core.Declare, adapted.Type)
		assert.Equal(t, address.EncodeChecksum(sender), adapted.Sender)
		assert.Equal(t, uint64(100), adapted.MaxFee.Uint64())
		assert.Len(t, adapted.Signature, 2)
	})

	t.Run("deploy carries no fee", func(t *testing.T) {
		constructor := felts(9)
		txn := &starknet.Transaction{
			Hash:                feltFromUint(0x111),
			Type:                starknet.TxnDeploy,
			ContractAddress:     feltFromUint(0xabc),
			ContractAddressSalt: feltFromUint(0x5a17),
			ConstructorCallData: &constructor,
		}

		adapted, err := sn2core.AdaptTransaction(txn, log)
		require.NoError(t, err)
		assert.Equal(t, core.Deploy, adapted.Type)
		assert.True(t, adapted.MaxFee.IsZero())
		assert.Len(t, adapted.ConstructorCalldata, 1)
	})

	t.Run("plain invoke keeps its target", func(t *testing.T) {
		contract := feltFromUint(0xabc)
		calldata := felts(1, 2, 3)
		txn := &starknet.Transaction{
			Hash:               feltFromUint(0x111),
			Type:               starknet.TxnInvoke,
			ContractAddress:    contract,
			EntryPointSelector: crypto.MustSelectorFromName("transfer"),
			CallData:           &calldata,
			MaxFee:             feltFromUint(100),
		}

		adapted, err := sn2core.AdaptTransaction(txn, log)
		require.NoError(t, err)
		assert.Equal(t, address.EncodeChecksum(contract), adapted.ContractAddress)
		assert.Empty(t, adapted.Sender)
		assert.Len(t, adapted.Calldata, 3)
	})

	t.Run("account invoke is unwrapped", func(t *testing.T) {
		account := feltFromUint(0xacc)
		target := feltFromUint(0xdef)
		selector := crypto.MustSelectorFromName("transfer")
		calldata := []*felt.Felt{
			feltFromUint(1),
			target,
			selector,
			feltFromUint(1),
			feltFromUint(42),
		}

		txn := &starknet.Transaction{
			Hash:               feltFromUint(0x111),
			Type:               starknet.TxnInvoke,
			ContractAddress:    account,
			EntryPointSelector: crypto.ExecuteSelector,
			CallData:           &calldata,
			MaxFee:             feltFromUint(100),
		}

		adapted, err := sn2core.AdaptTransaction(txn, log)
		require.NoError(t, err)
		assert.Equal(t, address.EncodeChecksum(account), adapted.Sender)
		assert.Equal(t, address.EncodeChecksum(target), adapted.ContractAddress)
		assert.True(t, selector.Equal(adapted.EntryPointSelector))
		require.Len(t, adapted.Calldata, 1)
		assert.Equal(t, uint64(42), adapted.Calldata[0].Uint64())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := sn2core.AdaptTransaction(&starknet.Transaction{}, log)
		assert.Error(t, err)

		_, err = sn2core.AdaptTransaction(nil, log)
		assert.Error(t, err)
	})
}

func TestAdaptReceipt(t *testing.T) {
	log := utils.NewNopZapLogger()

	status := &starknet.TransactionStatus{
		Status: starknet.StatusAcceptedOnL2,
		Transaction: &starknet.Transaction{
			Hash:            feltFromUint(0x111),
			Type:            starknet.TxnInvoke,
			ContractAddress: feltFromUint(0xabc),
			MaxFee:          feltFromUint(100),
		},
	}
	receipt := &starknet.TransactionReceipt{
		TransactionHash:  feltFromUint(0x999), // loses to the transaction's hash
		ActualFee:        feltFromUint(90),
		BlockHash:        feltFromUint(0xb10c),
		BlockNumber:      7,
		TransactionIndex: 2,
		Events: []*starknet.Event{
			{From: feltFromUint(0xabc), Keys: felts(1), Data: felts(2, 3)},
		},
	}
	trace := &starknet.FunctionInvocation{
		InternalCalls: []starknet.FunctionInvocation{{Result: felts(42)}},
	}

	adapted, err := sn2core.AdaptReceipt(receipt, status, trace, log)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x111), adapted.TransactionHash.Uint64())
	assert.Equal(t, starknet.StatusAcceptedOnL2, adapted.Status)
	assert.Equal(t, uint64(90), adapted.ActualFee.Uint64())
	assert.Equal(t, uint64(7), adapted.BlockNumber)
	require.Len(t, adapted.Events, 1)
	require.Len(t, adapted.ReturnData, 1)
	assert.Equal(t, uint64(42), adapted.ReturnData[0].Uint64())
	require.NotNil(t, adapted.Transaction)
	assert.Equal(t, core.Invoke, adapted.Transaction.Type)

	t.Run("receipt status wins when present", func(t *testing.T) {
		withStatus := *receipt
		withStatus.Status = starknet.StatusAcceptedOnL1

		adapted, err := sn2core.AdaptReceipt(&withStatus, status, nil, log)
		require.NoError(t, err)
		assert.Equal(t, starknet.StatusAcceptedOnL1, adapted.Status)
		assert.Nil(t, adapted.ReturnData)
	})

	t.Run("nil inputs", func(t *testing.T) {
		_, err := sn2core.AdaptReceipt(nil, status, nil, log)
		assert.Error(t, err)

		_, err = sn2core.AdaptReceipt(receipt, nil, nil, log)
		assert.Error(t, err)

		_, err = sn2core.AdaptReceipt(receipt, &starknet.TransactionStatus{}, nil, log)
		assert.Error(t, err)
	})
}

func TestAdaptBlock(t *testing.T) {
	block := &starknet.Block{
		Hash:       feltFromUint(0xb10c),
		ParentHash: feltFromUint(0xb10b),
		Number:     12,
		Timestamp:  1_700_000_000,
		Transactions: []*starknet.Transaction{
			{Type: starknet.TxnInvoke},
			{Type: starknet.TxnDeploy},
		},
	}

	adapted, err := sn2core.AdaptBlock(block)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), adapted.Number)
	assert.Equal(t, uint64(1_700_000_000), adapted.Timestamp)
	assert.Equal(t, 2, adapted.Size)

	_, err = sn2core.AdaptBlock(nil)
	assert.Error(t, err)
}
