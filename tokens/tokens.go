// Package tokens tracks ERC-20 style token contracts per network and decodes
// their uint256 balances.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/utils"
)

var (
	balanceOfSelector = crypto.MustSelectorFromName("balanceOf")
	transferSelector  = crypto.MustSelectorFromName("transfer")

	// Values above 2^128 - 1 need the high word of a uint256.
	lowMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Caller abstracts the provider surface the manager needs: a contract call
// and the network it lands on.
type Caller interface {
	Call(ctx context.Context, call *starknet.FunctionCall) ([]*felt.Felt, error)
	Network() utils.Network
}

type entry map[utils.Network]*felt.Felt

func mustFelt(hex string) *felt.Felt {
	f, err := new(felt.Felt).SetString(hex)
	if err != nil {
		panic(err)
	}
	return f
}

// The fee token is predeployed on every network; devnet uses its own address
// for it.
func builtinTokens() map[string]entry {
	feeToken := mustFelt("0x049d36570d4e46f48e99674bd3fcc84644ddd6b96f7c741b1562b82f9e004dc7")
	return map[string]entry{
		"eth": {
			utils.Mainnet: feeToken,
			utils.Testnet: feeToken,
			utils.Local:   mustFelt("0x62230ea046a9a5fbc3ac77f03daa7d2add85f8b2d8df6e7e88c1c4e2f2db20"),
		},
		"test_token": {
			utils.Testnet: mustFelt("0x07394cbe418daa16e42b87ba67372d4ab4a5df0b05c6e554d158458ce245bc10"),
		},
	}
}

type Manager struct {
	caller Caller
	log    utils.SimpleLogger

	mu     sync.Mutex
	tokens map[string]entry
}

func NewManager(caller Caller, log utils.SimpleLogger) *Manager {
	return &Manager{
		caller: caller,
		log:    log,
		tokens: builtinTokens(),
	}
}

// AddToken registers a token contract for the given network under name.
func (m *Manager) AddToken(name string, network utils.Network, tokenAddress any) error {
	addr, err := address.Parse(tokenAddress)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens[name] == nil {
		m.tokens[name] = entry{}
	}
	m.tokens[name][network] = addr
	return nil
}

// IsToken reports whether the address belongs to a token registered on the
// caller's network.
func (m *Manager) IsToken(tokenAddress any) bool {
	addr, err := address.Parse(tokenAddress)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	network := m.caller.Network()
	for _, networks := range m.tokens {
		if known, ok := networks[network]; ok && known.Equal(addr) {
			return true
		}
	}
	return false
}

func (m *Manager) tokenAddress(name string) (*felt.Felt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	networks, ok := m.tokens[name]
	if !ok {
		return nil, fmt.Errorf("unknown token %q", name)
	}
	addr, ok := networks[m.caller.Network()]
	if !ok {
		return nil, fmt.Errorf("token %q is not deployed on %s", name, m.caller.Network())
	}
	return addr, nil
}

// Balance returns the account's balance of the named token. The contract
// reports a uint256 as two field elements; the result is low + (high << 128).
func (m *Manager) Balance(ctx context.Context, account any, tokenName string) (*big.Int, error) {
	accountAddr, err := address.Parse(account)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := m.tokenAddress(tokenName)
	if err != nil {
		return nil, err
	}

	result, err := m.caller.Call(ctx, &starknet.FunctionCall{
		ContractAddress:    tokenAddr,
		EntryPointSelector: balanceOfSelector,
		CallData:           []*felt.Felt{accountAddr},
	})
	if err != nil {
		return nil, err
	}
	if len(result) < 2 {
		return nil, errors.New("balanceOf returned fewer than two words")
	}

	balance := new(big.Int)
	result[1].BigInt(balance)
	balance.Lsh(balance, 128)

	low := new(big.Int)
	result[0].BigInt(low)
	return balance.Add(balance, low), nil
}

// TransferCall builds the calldata for transferring amount of the named token
// to recipient. The caller submits it through a signing account.
func (m *Manager) TransferCall(recipient any, amount *big.Int, tokenName string) (*starknet.FunctionCall, error) {
	recipientAddr, err := address.Parse(recipient)
	if err != nil {
		return nil, err
	}
	tokenAddr, err := m.tokenAddress(tokenName)
	if err != nil {
		return nil, err
	}
	if amount.Sign() < 0 {
		return nil, errors.New("transfer amount must not be negative")
	}

	low := new(felt.Felt).SetBigInt(new(big.Int).And(amount, lowMask))
	high := new(felt.Felt).SetBigInt(new(big.Int).Rsh(amount, 128))

	return &starknet.FunctionCall{
		ContractAddress:    tokenAddr,
		EntryPointSelector: transferSelector,
		CallData:           []*felt.Felt{recipientAddr, low, high},
	}, nil
}
