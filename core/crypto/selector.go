package crypto

import (
	"fmt"

	"github.com/cairoforge/starkplug/core/felt"
)

// ExecuteSelector identifies the standard account contract's dispatch entry
// point. Every user call routed through an account lands here first.
var ExecuteSelector = MustSelectorFromName("__execute__")

// SelectorFromName derives the entry point selector from its ASCII name.
func SelectorFromName(name string) (*felt.Felt, error) {
	sel, err := StarknetKeccak([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("derive selector for %q: %w", name, err)
	}
	return sel, nil
}

// MustSelectorFromName is SelectorFromName for names known at compile time.
func MustSelectorFromName(name string) *felt.Felt {
	sel, err := SelectorFromName(name)
	if err != nil {
		panic(err)
	}
	return sel
}
