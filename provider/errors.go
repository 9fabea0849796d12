package provider

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/cairoforge/starkplug/clients/feeder"
	"github.com/cairoforge/starkplug/clients/gateway"
)

var (
	ErrNotImplemented = errors.New("method is not implemented by this provider")
	ErrNotConnected   = errors.New("provider is not connected")
)

// OutOfGasError reports a transaction whose execution cost exceeded its fee
// allowance.
type OutOfGasError struct{}

func (e *OutOfGasError) Error() string {
	return "The transaction ran out of gas."
}

// ContractLogicError reports a Cairo-level revert. RevertMessage holds the
// human-readable reason extracted from the gateway's traceback.
type ContractLogicError struct {
	RevertMessage string
}

func (e *ContractLogicError) Error() string {
	if e.RevertMessage == "" {
		return "Transaction failed."
	}
	return e.RevertMessage
}

// ProviderError reports a gateway failure that is not attributable to
// contract logic.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// classify maps raw client errors onto the provider's error taxonomy. Errors
// that did not originate in a gateway reply pass through unchanged.
//
// Gateway tracebacks bury the revert reason under transport boilerplate, so
// the mapping works on the message text: a fee-cap failure becomes
// OutOfGasError, "Error message:" and "Error at pc=" tracebacks become
// ContractLogicError, and everything else becomes ProviderError with any
// JSON envelope unwrapped.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		clientErr   *feeder.ClientError
		gatewayErr  *gateway.Error
		rejectedErr *feeder.TransactionRejectedError
	)

	var message string
	switch {
	case errors.As(err, &clientErr):
		// The transport prefix before the first colon carries no signal.
		message = clientErr.Error()
		if _, rest, found := strings.Cut(message, ":"); found {
			message = rest
		}
	case errors.As(err, &gatewayErr):
		message = gatewayErr.Message
	case errors.As(err, &rejectedErr):
		message = rejectedErr.Message
	default:
		return err
	}

	if strings.Contains(message, "Actual fee exceeded max fee") {
		return &OutOfGasError{}
	}

	if _, rest, found := strings.Cut(message, "Error message:"); found {
		line, _, _ := strings.Cut(strings.TrimSpace(rest), "\n")
		return &ContractLogicError{RevertMessage: strings.TrimSpace(line)}
	}

	if strings.Contains(message, "Error at pc=") {
		flattened := strings.ReplaceAll(strings.TrimSpace(message), "\n", " ")
		return &ContractLogicError{RevertMessage: flattened}
	}

	message = strings.TrimSpace(message)
	var envelope struct {
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal([]byte(message), &envelope); jsonErr == nil && envelope.Message != "" {
		return &ProviderError{Message: envelope.Message}
	}
	return &ProviderError{Message: message}
}
