package sn2core

import (
	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/utils"
)

// InnerCall is the user's real call recovered from an account __execute__
// wrapper's flat calldata.
type InnerCall struct {
	// Checksummed address of the inner call's target contract.
	Target   string
	Selector *felt.Felt
	Calldata []*felt.Felt
}

// UnwrapExecute recovers the single inner call bundled in an account
// __execute__ transaction's calldata. The flat layout is
//
//	[0] bundled call count, [1] target address, [2] entry point selector,
//	[3] calldata length L, [4:4+L] calldata
//
// Returns false when selector is not the account dispatch selector. Slicing
// is best effort: missing indices shorten the result rather than failing,
// and a call count other than one only logs a warning before the first call
// is parsed.
func UnwrapExecute(selector *felt.Felt, calldata []*felt.Felt, log utils.SimpleLogger) (*InnerCall, bool) {
	if selector == nil || !selector.Equal(crypto.ExecuteSelector) {
		return nil, false
	}

	if len(calldata) > 0 && !calldata[0].IsOne() {
		log.Warnw("Multi-call not yet supported. Only parsing first call.",
			"calls", calldata[0].String(),
		)
	}

	inner := &InnerCall{Selector: &felt.Zero}
	if len(calldata) > 1 {
		inner.Target = address.EncodeChecksum(calldata[1])
	}
	if len(calldata) > 2 {
		inner.Selector = calldata[2]
	}
	if len(calldata) > 3 && calldata[3].IsUint64() {
		argCount := calldata[3].Uint64()
		if available := uint64(len(calldata) - 4); argCount > available {
			argCount = available
		}
		inner.Calldata = calldata[4 : 4+argCount]
	}
	return inner, true
}
