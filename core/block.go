package core

import (
	"github.com/cairoforge/starkplug/core/felt"
)

// Block is the canonical header-level view of a gateway block.
type Block struct {
	Hash       *felt.Felt
	ParentHash *felt.Felt
	Number     uint64
	Timestamp  uint64

	// Number of transactions in the block.
	Size int
}
