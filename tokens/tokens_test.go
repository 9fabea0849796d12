package tokens_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/tokens"
	"github.com/cairoforge/starkplug/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	network  utils.Network
	lastCall *starknet.FunctionCall
	result   []*felt.Felt
	err      error
}

func (f *fakeCaller) Call(_ context.Context, call *starknet.FunctionCall) ([]*felt.Felt, error) {
	f.lastCall = call
	return f.result, f.err
}

func (f *fakeCaller) Network() utils.Network {
	return f.network
}

func TestBalance(t *testing.T) {
	caller := &fakeCaller{
		network: utils.Testnet,
		result: []*felt.Felt{
			new(felt.Felt).SetUint64(100), // low
			new(felt.Felt).SetUint64(2),   // high
		},
	}
	manager := tokens.NewManager(caller, utils.NewNopZapLogger())

	balance, err := manager.Balance(context.Background(), "0x123", "eth")
	require.NoError(t, err)

	// low + (high << 128)
	want := new(big.Int).Lsh(big.NewInt(2), 128)
	want.Add(want, big.NewInt(100))
	assert.Equal(t, want, balance)

	require.NotNil(t, caller.lastCall)
	assert.True(t, crypto.MustSelectorFromName("balanceOf").Equal(caller.lastCall.EntryPointSelector))
	require.Len(t, caller.lastCall.CallData, 1)
	assert.Equal(t, uint64(0x123), caller.lastCall.CallData[0].Uint64())
}

func TestBalanceErrors(t *testing.T) {
	manager := tokens.NewManager(&fakeCaller{network: utils.Testnet}, utils.NewNopZapLogger())
	ctx := context.Background()

	_, err := manager.Balance(ctx, "0x123", "doge")
	assert.ErrorContains(t, err, "unknown token")

	// test_token only exists on testnet.
	mainnet := tokens.NewManager(&fakeCaller{network: utils.Mainnet}, utils.NewNopZapLogger())
	_, err = mainnet.Balance(ctx, "0x123", "test_token")
	assert.ErrorContains(t, err, "not deployed")

	short := tokens.NewManager(&fakeCaller{
		network: utils.Testnet,
		result:  []*felt.Felt{new(felt.Felt).SetUint64(1)},
	}, utils.NewNopZapLogger())
	_, err = short.Balance(ctx, "0x123", "eth")
	assert.ErrorContains(t, err, "fewer than two words")
}

func TestAddTokenAndIsToken(t *testing.T) {
	caller := &fakeCaller{network: utils.Local}
	manager := tokens.NewManager(caller, utils.NewNopZapLogger())

	// The devnet fee token is built in.
	assert.True(t, manager.IsToken("0x62230ea046a9a5fbc3ac77f03daa7d2add85f8b2d8df6e7e88c1c4e2f2db20"))
	assert.False(t, manager.IsToken("0xdead"))
	assert.False(t, manager.IsToken(3.14))

	require.NoError(t, manager.AddToken("doge", utils.Local, "0xdead"))
	assert.True(t, manager.IsToken("0xdead"))

	// Registered on another network, invisible here.
	require.NoError(t, manager.AddToken("cate", utils.Mainnet, "0xbeef"))
	assert.False(t, manager.IsToken("0xbeef"))

	assert.Error(t, manager.AddToken("bad", utils.Local, -5))
}

func TestTransferCall(t *testing.T) {
	manager := tokens.NewManager(&fakeCaller{network: utils.Testnet}, utils.NewNopZapLogger())

	amount := new(big.Int).Lsh(big.NewInt(3), 128)
	amount.Add(amount, big.NewInt(7))

	call, err := manager.TransferCall("0x456", amount, "eth")
	require.NoError(t, err)

	assert.True(t, crypto.MustSelectorFromName("transfer").Equal(call.EntryPointSelector))
	require.Len(t, call.CallData, 3)
	assert.Equal(t, uint64(0x456), call.CallData[0].Uint64())
	assert.Equal(t, uint64(7), call.CallData[1].Uint64())
	assert.Equal(t, uint64(3), call.CallData[2].Uint64())

	_, err = manager.TransferCall("0x456", big.NewInt(-1), "eth")
	assert.Error(t, err)

	_, err = manager.TransferCall("0x456", big.NewInt(1), "doge")
	assert.Error(t, err)
}
