// Package provider exposes the plugin's network surface: connection
// lifecycle, block and transaction access, contract calls, and canonical
// receipt decoding, all against the sequencer gateway.
package provider

import (
	"context"
	"fmt"
	"iter"
	"math/big"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/go-playground/validator/v10"
	lru "github.com/hashicorp/golang-lru"

	"github.com/cairoforge/starkplug/adapters/sn2core"
	"github.com/cairoforge/starkplug/clients/devnet"
	"github.com/cairoforge/starkplug/clients/feeder"
	"github.com/cairoforge/starkplug/clients/gateway"
	"github.com/cairoforge/starkplug/core"
	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/tokens"
	"github.com/cairoforge/starkplug/utils"
)

// Block hashes serialize to 76 characters; anything shorter is a height or
// one of the "latest"/"pending" symbols.
const blockHashLength = 76

// The sequencer charges a flat gas price.
const flatGasPriceInGwei = 100

// An empty bytecode reply means the address holds a proxy whose real class
// lives elsewhere; the placeholder spells out "PROXY" one character per word.
var proxyCode = func() []*felt.Felt {
	word := []byte("PROXY")
	code := make([]*felt.Felt, len(word))
	for i, b := range word {
		code[i] = new(felt.Felt).SetUint64(uint64(b))
	}
	return code
}()

type Config struct {
	Network      utils.Network `mapstructure:"network" validate:"required"`
	FeederURL    string        `mapstructure:"feeder-url" validate:"omitempty,url"`
	GatewayURL   string        `mapstructure:"gateway-url" validate:"omitempty,url"`
	DevnetURL    string        `mapstructure:"devnet-url" validate:"omitempty,url"`
	PollInterval time.Duration `mapstructure:"poll-interval" validate:"omitempty,gt=0"`
	CacheSize    int           `mapstructure:"cache-size" validate:"omitempty,gt=0"`
}

func (c *Config) feederURL() string {
	if c.FeederURL != "" {
		return c.FeederURL
	}
	return c.Network.FeederURL()
}

func (c *Config) gatewayURL() string {
	if c.GatewayURL != "" {
		return c.GatewayURL
	}
	return c.Network.GatewayURL()
}

type Provider struct {
	cfg Config
	log utils.SimpleLogger

	mu        sync.Mutex
	connected bool
	feeder    *feeder.Client
	gateway   *gateway.Client

	tokens    *tokens.Manager
	codeCache *lru.Cache
}

func New(cfg Config, log utils.SimpleLogger) (*Provider, error) {
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, err
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 128
	}

	codeCache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		cfg:       cfg,
		log:       log,
		codeCache: codeCache,
	}
	p.tokens = tokens.NewManager(p, log)
	return p, nil
}

func (p *Provider) Network() utils.Network {
	return p.cfg.Network
}

func (p *Provider) Tokens() *tokens.Manager {
	return p.tokens
}

// IsConnected probes the feeder gateway's base URL. The base path serves no
// endpoint, so any HTTP reply, 404 included, proves the process is listening.
func (p *Provider) IsConnected(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.feederURL(), http.NoBody)
	if err != nil {
		return false
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()

	p.ensureClients()
	return true
}

// Connect verifies the gateway is reachable and builds the clients. Calling
// it on a connected provider is a no-op.
func (p *Provider) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.connected {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	if !p.IsConnected(ctx) {
		return fmt.Errorf("%w: no gateway at %s", ErrNotConnected, p.cfg.feederURL())
	}

	p.mu.Lock()
	p.connected = true
	p.mu.Unlock()
	return nil
}

// Disconnect drops the clients and cached contract code. Calling it on a
// disconnected provider is a no-op.
func (p *Provider) Disconnect() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected && p.feeder == nil {
		return
	}
	p.connected = false
	p.feeder = nil
	p.gateway = nil
	p.codeCache.Purge()
}

func (p *Provider) ensureClients() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.feeder == nil {
		p.feeder = feeder.NewClient(p.cfg.feederURL()).
			WithPollInterval(p.cfg.PollInterval).
			WithLogger(p.log)
	}
	if p.gateway == nil {
		p.gateway = gateway.NewClient(p.cfg.gatewayURL(), p.log)
	}
}

func (p *Provider) clients() (*feeder.Client, *gateway.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.connected || p.feeder == nil {
		return nil, nil, ErrNotConnected
	}
	return p.feeder, p.gateway, nil
}

// resolveBlockID maps the accepted block identifiers onto the gateway's
// query format. Negative heights count back from the latest block, -1 being
// the latest itself.
func (p *Provider) resolveBlockID(ctx context.Context, blockID any) (string, error) {
	var height int64
	switch id := blockID.(type) {
	case string:
		if id == "latest" || id == "pending" || len(id) == blockHashLength {
			return id, nil
		}
		parsed, err := strconv.ParseInt(id, 0, 64)
		if err != nil {
			return "", fmt.Errorf("invalid block identifier %q", id)
		}
		height = parsed
	case int:
		height = int64(id)
	case int64:
		height = id
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case *felt.Felt:
		return id.String(), nil
	default:
		return "", fmt.Errorf("invalid block identifier type %T", blockID)
	}

	if height < 0 {
		client, _, err := p.clients()
		if err != nil {
			return "", err
		}
		latest, err := client.Block(ctx, "latest")
		if err != nil {
			return "", classify(err)
		}
		height += int64(latest.Number) + 1
		if height < 0 {
			return "", fmt.Errorf("block %v is out of range", blockID)
		}
	}
	return strconv.FormatInt(height, 10), nil
}

func (p *Provider) BlockByID(ctx context.Context, blockID any) (*core.Block, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	resolved, err := p.resolveBlockID(ctx, blockID)
	if err != nil {
		return nil, err
	}

	block, err := client.Block(ctx, resolved)
	if err != nil {
		return nil, classify(err)
	}
	return sn2core.AdaptBlock(block)
}

// TransactionsByBlock lazily yields the block's transactions in canonical
// form. Each range over the sequence fetches the block afresh.
func (p *Provider) TransactionsByBlock(ctx context.Context, blockID any) iter.Seq2[*core.Transaction, error] {
	return func(yield func(*core.Transaction, error) bool) {
		client, _, err := p.clients()
		if err != nil {
			yield(nil, err)
			return
		}

		resolved, err := p.resolveBlockID(ctx, blockID)
		if err != nil {
			yield(nil, err)
			return
		}

		block, err := client.Block(ctx, resolved)
		if err != nil {
			yield(nil, classify(err))
			return
		}

		for _, txn := range block.Transactions {
			if !yield(sn2core.AdaptTransaction(txn, p.log)) {
				return
			}
		}
	}
}

func (p *Provider) Call(ctx context.Context, call *starknet.FunctionCall) ([]*felt.Felt, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	response, err := client.CallContract(ctx, call)
	if err != nil {
		return nil, classify(err)
	}
	return response.Result, nil
}

func (p *Provider) Balance(ctx context.Context, account any, tokenName string) (*big.Int, error) {
	return p.tokens.Balance(ctx, account, tokenName)
}

func (p *Provider) Nonce(ctx context.Context, account any) (*felt.Felt, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	addr, err := address.Parse(account)
	if err != nil {
		return nil, err
	}

	nonce, err := client.Nonce(ctx, addr)
	if err != nil {
		return nil, classify(err)
	}
	return nonce, nil
}

// CodeAndABI fetches the contract's bytecode and raw ABI, hitting the
// gateway at most once per address.
func (p *Provider) CodeAndABI(ctx context.Context, contractAddress any) (*starknet.ContractCode, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	addr, err := address.Parse(contractAddress)
	if err != nil {
		return nil, err
	}

	key := addr.String()
	if cached, ok := p.codeCache.Get(key); ok {
		return cached.(*starknet.ContractCode), nil
	}

	code, err := client.Code(ctx, addr)
	if err != nil {
		return nil, classify(err)
	}
	p.codeCache.Add(key, code)
	return code, nil
}

func (p *Provider) Code(ctx context.Context, contractAddress any) ([]*felt.Felt, error) {
	code, err := p.CodeAndABI(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	if len(code.Bytecode) == 0 {
		return proxyCode, nil
	}
	return code.Bytecode, nil
}

func (p *Provider) ABI(ctx context.Context, contractAddress any) ([]byte, error) {
	code, err := p.CodeAndABI(ctx, contractAddress)
	if err != nil {
		return nil, err
	}
	return code.Abi, nil
}

// EstimateGasCost simulates the transaction payload and returns the overall
// fee the sequencer would charge, in wei.
func (p *Provider) EstimateGasCost(ctx context.Context, txn any) (*big.Int, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	estimate, err := client.EstimateFee(ctx, txn)
	if err != nil {
		return nil, classify(err)
	}
	if estimate.OverallFee == nil {
		return nil, &ProviderError{Message: "fee estimate carried no overall fee"}
	}
	return estimate.OverallFee.BigInt(new(big.Int)), nil
}

// GasPrice reports the sequencer's flat gas price.
func (p *Provider) GasPrice() *big.Int {
	return new(big.Int).SetUint64(flatGasPriceInGwei * params.GWei)
}

// Receipt waits for the transaction to be accepted and returns its canonical
// receipt. For account transactions the invocation trace is fetched so the
// receipt carries the inner call's exact return words; a trace failure only
// degrades the decode, it never fails the receipt.
func (p *Provider) Receipt(ctx context.Context, transactionHash *felt.Felt) (*core.Receipt, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	status, err := client.WaitForTransaction(ctx, transactionHash)
	if err != nil {
		return nil, classify(err)
	}

	receipt, err := client.Receipt(ctx, transactionHash)
	if err != nil {
		return nil, classify(err)
	}

	var invocation *starknet.FunctionInvocation
	if txn := status.Transaction; txn != nil && txn.EntryPointSelector != nil &&
		txn.EntryPointSelector.Equal(crypto.ExecuteSelector) {
		invocation, err = p.transactionTrace(ctx, receipt.BlockNumber, transactionHash)
		if err != nil {
			p.log.Warnw("Failed to fetch invocation trace.",
				"transactionHash", transactionHash.String(),
				"err", err,
			)
		}
	}

	return sn2core.AdaptReceipt(receipt, status, invocation, p.log)
}

func (p *Provider) transactionTrace(ctx context.Context, blockNumber uint64, transactionHash *felt.Felt,
) (*starknet.FunctionInvocation, error) {
	client, _, err := p.clients()
	if err != nil {
		return nil, err
	}

	traces, err := client.BlockTraces(ctx, strconv.FormatUint(blockNumber, 10))
	if err != nil {
		return nil, classify(err)
	}

	for _, trace := range traces.Traces {
		if trace.TransactionHash != nil && trace.TransactionHash.Equal(transactionHash) {
			return trace.FunctionInvocation, nil
		}
	}
	return nil, fmt.Errorf("no trace for transaction %s in block %d", transactionHash.String(), blockNumber)
}

// SendTransaction submits a signed transaction payload and blocks until the
// network accepts it, returning the canonical receipt. A non-empty token is
// forwarded to the gateway for networks gating deploys behind a whitelist.
func (p *Provider) SendTransaction(ctx context.Context, txn any, token string) (*core.Receipt, error) {
	_, client, err := p.clients()
	if err != nil {
		return nil, err
	}

	response, err := client.AddTransaction(ctx, txn, token)
	if err != nil {
		return nil, classify(err)
	}
	if response.Code != starknet.TransactionReceivedCode {
		return nil, &ProviderError{
			Message: fmt.Sprintf("transaction not received, gateway answered %q", response.Code),
		}
	}
	return p.Receipt(ctx, response.TransactionHash)
}

// ContractLogs is not supported: the gateway offers no event filtering
// endpoint, events only surface through receipts.
func (p *Provider) ContractLogs(ctx context.Context, contractAddress any) ([]*core.Event, error) {
	return nil, ErrNotImplemented
}

// DevnetProvider extends Provider with the control endpoints a local
// starknet-devnet process exposes next to its gateway routes.
type DevnetProvider struct {
	*Provider
	devnet *devnet.Client
}

func NewDevnet(cfg Config, log utils.SimpleLogger) (*DevnetProvider, error) {
	cfg.Network = utils.Local

	p, err := New(cfg, log)
	if err != nil {
		return nil, err
	}

	devnetURL := cfg.DevnetURL
	if devnetURL == "" {
		devnetURL = utils.DefaultDevnetURL
	}
	return &DevnetProvider{
		Provider: p,
		devnet:   devnet.NewClient(devnetURL, log),
	}, nil
}

func (d *DevnetProvider) PredeployedAccounts(ctx context.Context) ([]devnet.PredeployedAccount, error) {
	return d.devnet.PredeployedAccounts(ctx)
}

// SetTimestamp moves the devnet clock to the given Unix timestamp. Devnet
// only accepts relative offsets, so the delta is computed against the
// pending block and forwarded as is; devnet itself decides whether it can
// honor a rewind.
func (d *DevnetProvider) SetTimestamp(ctx context.Context, timestamp int64) error {
	client, _, err := d.clients()
	if err != nil {
		return err
	}

	pending, err := client.Block(ctx, "pending")
	if err != nil {
		return classify(err)
	}

	seconds := timestamp - int64(pending.Timestamp)
	if _, err = d.devnet.IncreaseTime(ctx, seconds); err != nil {
		return &ProviderError{Message: err.Error()}
	}
	return nil
}
