package utils

import (
	"encoding"
	"encoding/json"
	"errors"

	"github.com/cairoforge/starkplug/core/felt"
	"github.com/spf13/pflag"
)

var ErrUnknownNetwork = errors.New("unknown network (known: mainnet, testnet, local)")

type Network int

// The following are necessary for Cobra and Viper, respectively, to unmarshal
// network CLI/config parameters properly.
var (
	_ pflag.Value              = (*Network)(nil)
	_ encoding.TextUnmarshaler = (*Network)(nil)
)

const (
	Mainnet Network = iota + 1
	Testnet
	Local
)

// DefaultDevnetURL is where a local devnet listens unless configured otherwise.
const DefaultDevnetURL = "http://127.0.0.1:5050"

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Local:
		return "local"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

func (n Network) MarshalYAML() (interface{}, error) {
	return n.String(), nil
}

func (n *Network) MarshalJSON() ([]byte, error) {
	return json.RawMessage(`"` + n.String() + `"`), nil
}

func (n *Network) Set(s string) error {
	switch s {
	case "MAINNET", "mainnet":
		*n = Mainnet
	case "TESTNET", "testnet":
		*n = Testnet
	case "LOCAL", "local":
		*n = Local
	default:
		return ErrUnknownNetwork
	}
	return nil
}

func (n *Network) Type() string {
	return "Network"
}

func (n *Network) UnmarshalText(text []byte) error {
	return n.Set(string(text))
}

// baseURL returns the base URL without endpoint
func (n Network) baseURL() string {
	switch n {
	case Mainnet:
		return "https://alpha-mainnet.starknet.io/"
	case Testnet:
		return "https://alpha4.starknet.io/"
	case Local:
		return DefaultDevnetURL + "/"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

// FeederURL returns URL for read commands
func (n Network) FeederURL() string {
	return n.baseURL() + "feeder_gateway/"
}

// GatewayURL returns URL for write commands
func (n Network) GatewayURL() string {
	return n.baseURL() + "gateway/"
}

func (n Network) ChainIDString() string {
	switch n {
	// The local devnet mimics the testnet chain ID.
	case Testnet, Local:
		return "SN_GOERLI"
	case Mainnet:
		return "SN_MAIN"
	default:
		// Should not happen.
		panic(ErrUnknownNetwork)
	}
}

func (n Network) ChainID() *felt.Felt {
	return new(felt.Felt).SetBytes([]byte(n.ChainIDString()))
}
