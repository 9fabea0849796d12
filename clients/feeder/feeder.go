package feeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/utils"
)

// Block hashes serialize to 76 characters; heights and the "latest"/
// "pending" symbols are shorter.
const blockHashLength = 76

type Backoff func(wait time.Duration) time.Duration

// ClientError is returned when the gateway replies with a non-2xx status.
// The formatted message carries a fixed prefix that the provider's error
// classifier strips before interpreting the body.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("Client failed with code %d: %s", e.StatusCode, e.Message)
}

// TransactionRejectedError is returned when a submitted transaction reaches
// the REJECTED status while waiting for finality.
type TransactionRejectedError struct {
	Message string
}

func (e *TransactionRejectedError) Error() string {
	return e.Message
}

type Client struct {
	url          string
	client       *http.Client
	backoff      Backoff
	maxRetries   int
	maxWait      time.Duration
	minWait      time.Duration
	pollInterval time.Duration
	log          utils.SimpleLogger
	userAgent    string
}

func (c *Client) WithBackoff(b Backoff) *Client {
	c.backoff = b
	return c
}

func (c *Client) WithMaxRetries(num int) *Client {
	c.maxRetries = num
	return c
}

func (c *Client) WithMaxWait(d time.Duration) *Client {
	c.maxWait = d
	return c
}

func (c *Client) WithMinWait(d time.Duration) *Client {
	c.minWait = d
	return c
}

func (c *Client) WithPollInterval(d time.Duration) *Client {
	c.pollInterval = d
	return c
}

func (c *Client) WithLogger(log utils.SimpleLogger) *Client {
	c.log = log
	return c
}

func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

func ExponentialBackoff(wait time.Duration) time.Duration {
	return wait * 2
}

func NopBackoff(d time.Duration) time.Duration {
	return 0
}

func NewClient(clientURL string) *Client {
	return &Client{
		url:          strings.TrimSuffix(clientURL, "/"),
		client:       http.DefaultClient,
		backoff:      ExponentialBackoff,
		maxRetries:   5,
		maxWait:      4 * time.Second,
		minWait:      500 * time.Millisecond,
		pollInterval: 2 * time.Second,
		log:          utils.NewNopZapLogger(),
	}
}

func (c *Client) buildQueryString(endpoint string, args map[string]string) string {
	base, err := url.Parse(c.url)
	if err != nil {
		panic("malformed feeder base URL")
	}

	base.Path += "/" + endpoint
	params := url.Values{}
	for k, v := range args {
		params.Add(k, v)
	}
	base.RawQuery = params.Encode()
	return base.String()
}

// get performs a "GET" http request with the given URL and returns the
// response body. Transport failures and throttling are retried with
// backoff; any other non-OK status is returned as a ClientError carrying
// the response body.
func (c *Client) get(ctx context.Context, queryURL string) (io.ReadCloser, error) {
	var err error
	wait := time.Duration(0)
	for range c.maxRetries + 1 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
			var req *http.Request
			req, err = http.NewRequestWithContext(ctx, http.MethodGet, queryURL, http.NoBody)
			if err != nil {
				return nil, err
			}
			if c.userAgent != "" {
				req.Header.Set("User-Agent", c.userAgent)
			}

			var res *http.Response
			res, err = c.client.Do(req)
			if err == nil {
				if res.StatusCode == http.StatusOK {
					return res.Body, nil
				}

				body, readErr := io.ReadAll(res.Body)
				res.Body.Close()
				if readErr != nil {
					body = nil
				}
				clientErr := &ClientError{StatusCode: res.StatusCode, Message: string(body)}
				if res.StatusCode != http.StatusTooManyRequests {
					return nil, clientErr
				}
				err = clientErr
			}

			if wait < c.minWait {
				wait = c.minWait
			} else {
				wait = min(c.backoff(wait), c.maxWait)
			}
			c.log.Debugw("Failed query to feeder gateway, retrying...",
				"req", queryURL,
				"retryAfter", wait.String(),
				"err", err,
			)
		}
	}
	return nil, err
}

// post performs a "POST" http request with a JSON payload derived from data.
// Not retried: the endpoints using it are not idempotent from the gateway's
// point of view.
func (c *Client) post(ctx context.Context, queryURL string, data any) (io.ReadCloser, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, queryURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		resBody, readErr := io.ReadAll(res.Body)
		res.Body.Close()
		if readErr != nil {
			resBody = nil
		}
		return nil, &ClientError{StatusCode: res.StatusCode, Message: string(resBody)}
	}
	return res.Body, nil
}

// Block fetches a block by height, hash, or the "latest"/"pending" symbols.
func (c *Client) Block(ctx context.Context, blockID string) (*starknet.Block, error) {
	key := "blockNumber"
	if len(blockID) == blockHashLength {
		key = "blockHash"
	}
	queryURL := c.buildQueryString("get_block", map[string]string{
		key: blockID,
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	block := new(starknet.Block)
	if err = json.NewDecoder(body).Decode(block); err != nil {
		return nil, err
	}
	return block, nil
}

func (c *Client) Transaction(ctx context.Context, transactionHash *felt.Felt) (*starknet.TransactionStatus, error) {
	queryURL := c.buildQueryString("get_transaction", map[string]string{
		"transactionHash": transactionHash.String(),
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	txStatus := new(starknet.TransactionStatus)
	if err = json.NewDecoder(body).Decode(txStatus); err != nil {
		return nil, err
	}
	return txStatus, nil
}

func (c *Client) Receipt(ctx context.Context, transactionHash *felt.Felt) (*starknet.TransactionReceipt, error) {
	queryURL := c.buildQueryString("get_transaction_receipt", map[string]string{
		"transactionHash": transactionHash.String(),
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	receipt := new(starknet.TransactionReceipt)
	if err = json.NewDecoder(body).Decode(receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *Client) Code(ctx context.Context, contractAddress *felt.Felt) (*starknet.ContractCode, error) {
	queryURL := c.buildQueryString("get_code", map[string]string{
		"contractAddress": contractAddress.String(),
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	code := new(starknet.ContractCode)
	if err = json.NewDecoder(body).Decode(code); err != nil {
		return nil, err
	}
	return code, nil
}

func (c *Client) Nonce(ctx context.Context, contractAddress *felt.Felt) (*felt.Felt, error) {
	queryURL := c.buildQueryString("get_nonce", map[string]string{
		"contractAddress": contractAddress.String(),
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	nonce := new(felt.Felt)
	if err = json.NewDecoder(body).Decode(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}

func (c *Client) CallContract(ctx context.Context, call *starknet.FunctionCall) (*starknet.CallContractResponse, error) {
	queryURL := c.buildQueryString("call_contract", nil)

	body, err := c.post(ctx, queryURL, call)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	response := new(starknet.CallContractResponse)
	if err = json.NewDecoder(body).Decode(response); err != nil {
		return nil, err
	}
	return response, nil
}

// EstimateFee simulates the given transaction payload and returns the
// gateway's fee estimate.
func (c *Client) EstimateFee(ctx context.Context, txn any) (*starknet.FeeEstimate, error) {
	queryURL := c.buildQueryString("estimate_fee", nil)

	body, err := c.post(ctx, queryURL, txn)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	estimate := new(starknet.FeeEstimate)
	if err = json.NewDecoder(body).Decode(estimate); err != nil {
		return nil, err
	}
	return estimate, nil
}

func (c *Client) BlockTraces(ctx context.Context, blockID string) (*starknet.BlockTrace, error) {
	key := "blockNumber"
	if len(blockID) == blockHashLength {
		key = "blockHash"
	}
	queryURL := c.buildQueryString("get_block_traces", map[string]string{
		key: blockID,
	})

	body, err := c.get(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	traces := new(starknet.BlockTrace)
	if err = json.NewDecoder(body).Decode(traces); err != nil {
		return nil, err
	}
	return traces, nil
}

// WaitForTransaction polls the transaction's status until the network
// accepts it. A REJECTED status surfaces as TransactionRejectedError
// carrying the gateway's failure reason when one was reported.
func (c *Client) WaitForTransaction(ctx context.Context, transactionHash *felt.Felt) (*starknet.TransactionStatus, error) {
	for {
		status, err := c.Transaction(ctx, transactionHash)
		if err != nil {
			return nil, err
		}

		switch status.Status {
		case starknet.StatusAcceptedOnL2, starknet.StatusAcceptedOnL1:
			return status, nil
		case starknet.StatusRejected:
			message := fmt.Sprintf("transaction %s was rejected", transactionHash.String())
			if reason := status.FailureReason; reason != nil && reason.ErrorMessage != "" {
				message = reason.ErrorMessage
			}
			return nil, &TransactionRejectedError{Message: message}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
