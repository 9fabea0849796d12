package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
	"github.com/cairoforge/starkplug/utils"
)

var (
	InvalidContractClass       ErrorCode = "StarknetErrorCode.INVALID_CONTRACT_CLASS"
	UndeclaredClass            ErrorCode = "StarknetErrorCode.UNDECLARED_CLASS"
	ClassAlreadyDeclared       ErrorCode = "StarknetErrorCode.CLASS_ALREADY_DECLARED"
	InsufficientMaxFee         ErrorCode = "StarknetErrorCode.INSUFFICIENT_MAX_FEE"
	InsufficientAccountBalance ErrorCode = "StarknetErrorCode.INSUFFICIENT_ACCOUNT_BALANCE"
	ValidateFailure            ErrorCode = "StarknetErrorCode.VALIDATE_FAILURE"
	DuplicatedTransaction      ErrorCode = "StarknetErrorCode.DUPLICATED_TRANSACTION"
	InvalidTransactionNonce    ErrorCode = "StarknetErrorCode.INVALID_TRANSACTION_NONCE"
	InvalidTransactionVersion  ErrorCode = "StarknetErrorCode.INVALID_TRANSACTION_VERSION"
)

type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
	log     utils.SimpleLogger
}

// NewTestClient returns a client backed by a stub gateway server that is
// closed when the test finishes.
func NewTestClient(t *testing.T) *Client {
	srv := newTestServer()
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, utils.NewNopZapLogger())
}

func newTestServer() *httptest.Server {
	// The stub acknowledges any non-trivial payload and rejects the rest the
	// way the real gateway does.
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, err = w.Write([]byte(err.Error()))
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		// empty request: "{}"
		emptyReqLen := 4
		if string(b) == "null" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		} else if len(b) <= emptyReqLen {
			w.WriteHeader(http.StatusBadRequest)
			_, err = w.Write([]byte(`{"code": "Malformed Request", "message": "empty request"}`))
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}

		hash := new(felt.Felt).SetBytes([]byte("random"))
		resp := fmt.Sprintf("{\"code\": \"TRANSACTION_RECEIVED\", \"transaction_hash\": %q, \"address\": %q}", hash.String(), hash.String())
		_, err = w.Write([]byte(resp))
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
}

func NewClient(gatewayURL string, log utils.SimpleLogger) *Client {
	gatewayURL = strings.TrimSuffix(gatewayURL, "/")
	return &Client{
		url:     gatewayURL,
		timeout: 10 * time.Second,
		client:  http.DefaultClient,
		log:     log,
	}
}

// AddTransaction submits a signed transaction payload and returns the
// gateway's acknowledgement. A non-empty token is forwarded as the
// whitelist-deploy token some gateways require. Rejections decode into
// *Error when the body carries a structured code.
func (c *Client) AddTransaction(ctx context.Context, txn any, token string) (*starknet.SentTransactionResponse, error) {
	addTxURL := c.url + "/add_transaction"
	if token != "" {
		addTxURL += "?token=" + url.QueryEscape(token)
	}

	body, err := c.post(ctx, addTxURL, txn)
	if err != nil {
		return nil, err
	}

	response := new(starknet.SentTransactionResponse)
	if err = json.Unmarshal(body, response); err != nil {
		return nil, err
	}
	return response, nil
}

// post performs additional utility function over doPost method
func (c *Client) post(ctx context.Context, url string, data any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.doPost(ctx, url, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var gatewayError Error
		body, readErr := io.ReadAll(resp.Body)
		if readErr == nil && len(body) > 0 {
			if err := json.Unmarshal(body, &gatewayError); err == nil {
				if len(gatewayError.Code) != 0 {
					return nil, &gatewayError
				}
			}
			return nil, errors.New(string(body))
		}
		return nil, errors.New(resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// doPost performs a "POST" http request with the given URL and a JSON payload derived from the provided data
// it returns response without additional error handling
func (c *Client) doPost(ctx context.Context, url string, data any) (*http.Response, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

type ErrorCode string

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}
