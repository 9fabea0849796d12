package core_test

import (
	"testing"

	"github.com/cairoforge/starkplug/core"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/stretchr/testify/assert"
)

func TestRanOutOfGas(t *testing.T) {
	makeReceipt := func(actual, maxFee uint64) *core.Receipt {
		return &core.Receipt{
			ActualFee:   new(felt.Felt).SetUint64(actual),
			Transaction: &core.Transaction{MaxFee: new(felt.Felt).SetUint64(maxFee)},
		}
	}

	assert.False(t, makeReceipt(90, 100).RanOutOfGas())
	assert.True(t, makeReceipt(100, 100).RanOutOfGas())
	assert.True(t, makeReceipt(110, 100).RanOutOfGas())

	assert.False(t, (&core.Receipt{}).RanOutOfGas())
	assert.False(t, (&core.Receipt{Transaction: &core.Transaction{}}).RanOutOfGas())
}

func TestTransactionTypeText(t *testing.T) {
	for input, want := range map[string]core.TransactionType{
		"DECLARE":         core.Declare,
		"DEPLOY":          core.Deploy,
		"INVOKE":          core.Invoke,
		"INVOKE_FUNCTION": core.Invoke,
	} {
		var typ core.TransactionType
		assert.NoError(t, typ.UnmarshalText([]byte(input)))
		assert.Equal(t, want, typ)
	}

	var typ core.TransactionType
	assert.Error(t, typ.UnmarshalText([]byte("TRANSFER")))

	text, err := core.Invoke.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "INVOKE_FUNCTION", string(text))
}
