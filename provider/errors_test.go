package provider

import (
	"errors"
	"testing"

	"github.com/cairoforge/starkplug/clients/feeder"
	"github.com/cairoforge/starkplug/clients/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPassThrough(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("dial tcp: connection refused")
	assert.Same(t, plain, classify(plain))
}

func TestClassifyOutOfGas(t *testing.T) {
	err := classify(&feeder.ClientError{
		StatusCode: 500,
		Message:    `{"message": "Actual fee exceeded max fee.\n90 > 80"}`,
	})

	var outOfGas *OutOfGasError
	require.ErrorAs(t, err, &outOfGas)
}

func TestClassifyContractLogicError(t *testing.T) {
	t.Run("revert reason from traceback", func(t *testing.T) {
		err := classify(&feeder.ClientError{
			StatusCode: 500,
			Message:    "Error message:\noops\nmore traceback lines",
		})

		var logicErr *ContractLogicError
		require.ErrorAs(t, err, &logicErr)
		assert.Equal(t, "oops", logicErr.RevertMessage)
	})

	t.Run("pc frame flattens the whole message", func(t *testing.T) {
		err := classify(&feeder.ClientError{
			StatusCode: 500,
			Message:    "something failed\nError at pc=0:184\nunknown opcode",
		})

		var logicErr *ContractLogicError
		require.ErrorAs(t, err, &logicErr)
		assert.Equal(t, "something failed Error at pc=0:184 unknown opcode", logicErr.RevertMessage)
	})

	t.Run("empty revert message has a default", func(t *testing.T) {
		assert.Equal(t, "Transaction failed.", (&ContractLogicError{}).Error())
	})
}

func TestClassifyProviderError(t *testing.T) {
	t.Run("json envelope is unwrapped", func(t *testing.T) {
		err := classify(&feeder.ClientError{
			StatusCode: 400,
			Message:    `{"message": "bad request"}`,
		})

		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "bad request", providerErr.Message)
	})

	t.Run("gateway rejection keeps its message", func(t *testing.T) {
		err := classify(&gateway.Error{
			Code:    gateway.InsufficientAccountBalance,
			Message: "insufficient balance",
		})

		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
		assert.Equal(t, "insufficient balance", providerErr.Message)
	})

	t.Run("rejected transaction", func(t *testing.T) {
		err := classify(&feeder.TransactionRejectedError{Message: "transaction 0x1 was rejected"})

		var providerErr *ProviderError
		require.ErrorAs(t, err, &providerErr)
	})
}

// Rejection reasons carry the same traceback formats as HTTP error bodies,
// so the message rules apply to them too.
func TestClassifyRejectionReason(t *testing.T) {
	t.Run("fee cap", func(t *testing.T) {
		err := classify(&feeder.TransactionRejectedError{
			Message: "Actual fee exceeded max fee.\n90 > 80",
		})

		var outOfGas *OutOfGasError
		require.ErrorAs(t, err, &outOfGas)
	})

	t.Run("revert traceback", func(t *testing.T) {
		err := classify(&feeder.TransactionRejectedError{
			Message: "Transaction failed. Error message:\nassert failed\nmore frames",
		})

		var logicErr *ContractLogicError
		require.ErrorAs(t, err, &logicErr)
		assert.Equal(t, "assert failed", logicErr.RevertMessage)
	})

	t.Run("pc frame", func(t *testing.T) {
		err := classify(&feeder.TransactionRejectedError{
			Message: "Transaction failed\nError at pc=0:184\nunknown opcode",
		})

		var logicErr *ContractLogicError
		require.ErrorAs(t, err, &logicErr)
		assert.Equal(t, "Transaction failed Error at pc=0:184 unknown opcode", logicErr.RevertMessage)
	})
}
