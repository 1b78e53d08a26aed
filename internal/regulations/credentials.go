package regulations

import "fmt"

// Rotator assigns API keys to outbound requests in contiguous blocks so that
// aggregate throughput approaches N times the per-key rate limit. It keeps no
// state beyond the configured order and is meant for sequential use only.
type Rotator struct {
	keys      []string
	blockSize int
}

// NewRotator builds a Rotator over an ordered credential list.
func NewRotator(keys []string, blockSize int) (*Rotator, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one api key is required")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be > 0")
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return &Rotator{keys: out, blockSize: blockSize}, nil
}

// KeyFor returns the key for the n-th request of a run (zero-based). Requests
// are grouped into blocks of blockSize; blocks round-robin over the key list.
func (r *Rotator) KeyFor(n int) string {
	if n < 0 {
		n = 0
	}
	return r.keys[(n/r.blockSize)%len(r.keys)]
}

// Primary returns the first configured key, used for listing and metadata
// requests that are not spread across the pool.
func (r *Rotator) Primary() string {
	return r.keys[0]
}

// BlockSize reports how many consecutive requests share one key.
func (r *Rotator) BlockSize() int {
	return r.blockSize
}
