// Package devnet talks to the local starknet-devnet process's own HTTP
// surface, which lives next to the gateway routes it emulates.
package devnet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/utils"
)

// PredeployedAccount is one of the funded accounts devnet creates at startup.
type PredeployedAccount struct {
	Address        *felt.Felt `json:"address"`
	InitialBalance string     `json:"initial_balance"`
	PrivateKey     *felt.Felt `json:"private_key"`
	PublicKey      *felt.Felt `json:"public_key"`
}

type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
	log     utils.SimpleLogger

	mu       sync.Mutex
	accounts []PredeployedAccount
}

func NewClient(devnetURL string, log utils.SimpleLogger) *Client {
	return &Client{
		url:     strings.TrimSuffix(devnetURL, "/"),
		client:  http.DefaultClient,
		timeout: 10 * time.Second,
		log:     log,
	}
}

// PredeployedAccounts returns devnet's startup accounts. The set is fixed for
// the life of the process, so the first successful fetch is memoized.
func (c *Client) PredeployedAccounts(ctx context.Context) ([]PredeployedAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accounts != nil {
		return c.accounts, nil
	}

	body, err := c.get(ctx, "/predeployed_accounts")
	if err != nil {
		return nil, err
	}

	var accounts []PredeployedAccount
	if err = json.Unmarshal(body, &accounts); err != nil {
		return nil, err
	}

	c.accounts = accounts
	return accounts, nil
}

// IncreaseTime advances devnet's clock by the given number of seconds and
// returns the offset the process acknowledged.
func (c *Client) IncreaseTime(ctx context.Context, seconds int64) (int64, error) {
	body, err := c.post(ctx, "/increase_time", map[string]int64{"time": seconds})
	if err != nil {
		return 0, err
	}

	var response map[string]json.RawMessage
	if err = json.Unmarshal(body, &response); err != nil {
		return 0, err
	}

	raw, ok := response["timestamp_increased_by"]
	if !ok {
		return 0, fmt.Errorf("failed to increase time: %s", string(body))
	}

	var increasedBy int64
	if err = json.Unmarshal(raw, &increasedBy); err != nil {
		return 0, err
	}
	return increasedBy, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, data any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, errors.New(string(body))
	}
	return body, nil
}
