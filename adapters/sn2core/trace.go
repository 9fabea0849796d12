package sn2core

import (
	"github.com/cairoforge/starkplug/core/felt"
	"github.com/cairoforge/starkplug/starknet"
)

// SelectTraceResult picks the most relevant return-word sequence out of a
// call's invocation trace. The account implementation may prepend a word
// count to the outer result (a method returning [1, 2, 3] shows up as
// [0x4, 0x3, 0x1, 0x2, 0x3]), and there is no reliable way to detect the
// prepend. The last internal call's result holds the exact words the method
// returned, so it is preferred; the outer result is the fallback when no
// internal call exists or its result is empty.
//
// Known limitation: a genuinely empty inner result is indistinguishable from
// a missing one, so this is a best-effort heuristic rather than a guaranteed
// decode.
func SelectTraceResult(invocation *starknet.FunctionInvocation) []*felt.Felt {
	if invocation == nil {
		return nil
	}

	if n := len(invocation.InternalCalls); n > 0 {
		if result := invocation.InternalCalls[n-1].Result; len(result) > 0 {
			return result
		}
	}
	return invocation.Result
}
