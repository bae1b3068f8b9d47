package mockapi

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Reference behavior of the unreliable backend.
const (
	DefaultProfileLatency     = time.Second
	DefaultProfileFailureRate = 0.2
	DefaultUsersLatency       = 500 * time.Millisecond
	DefaultUsersFailureRate   = 0.1
	DefaultUserCount          = 100
)

// Options configures failure injection for a mock collaborator.
type Options struct {
	// Latency is the simulated network delay of every call.
	Latency time.Duration

	// FailureRate is the probability in [0, 1] that a call fails.
	FailureRate float64

	// Rand is the random source. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// injector decides whether a call fails and waits out the latency.
type injector struct {
	latency time.Duration
	rate    float64

	mu  sync.Mutex
	rng *rand.Rand
}

func newInjector(opts Options) *injector {
	rng := opts.Rand
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	rate := opts.FailureRate
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return &injector{latency: opts.Latency, rate: rate, rng: rng}
}

// shouldFail draws once from the random source.
func (i *injector) shouldFail() bool {
	switch i.rate {
	case 0:
		return false
	case 1:
		return true
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.rng.Float64() < i.rate
}

// NewRand returns a deterministic random source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
