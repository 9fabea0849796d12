package crypto

import (
	"github.com/cairoforge/starkplug/core/felt"
	pedersenhash "github.com/consensys/gnark-crypto/ecc/stark-curve/pedersen-hash"
	lru "github.com/hashicorp/golang-lru"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type lruKey struct {
	x, y felt.Felt
}

// Checksum encoding hits the same (0, address) pairs repeatedly, so cache
// results. 2^16 entries covers every address a single plugin session touches.
var lruPedersen, _ = lru.New(65536)

var pedersenCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "starkplug_pedersen_cache",
	Help: "Pedersen hash cache lookups.",
}, []string{"hit"})

// Pedersen implements the [Pedersen hash].
//
// [Pedersen hash]: https://docs.starknet.io/documentation/develop/Hashing/hash-functions/#pedersen_hash
func Pedersen(a, b *felt.Felt) *felt.Felt {
	key := lruKey{
		x: *a, y: *b,
	}

	res, ok := lruPedersen.Get(key)
	if ok {
		pedersenCache.WithLabelValues("true").Inc()
		return res.(*felt.Felt)
	}

	hash := pedersenhash.Pedersen(a.Impl(), b.Impl())
	result := felt.New(&hash)
	lruPedersen.Add(key, result)
	pedersenCache.WithLabelValues("false").Inc()
	return result
}
