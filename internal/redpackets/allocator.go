package redpackets

import (
	"math/rand/v2"

	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
)

// Rand is the randomness the allocator draws from.
type Rand interface {
	Int64N(n int64) int64
}

type globalRand struct{}

func (globalRand) Int64N(n int64) int64 { return rand.Int64N(n) }

// Allocator splits a packet total into randomized shares.
type Allocator struct {
	rng Rand
}

// NewAllocator returns an allocator drawing from rng, or from the
// process-wide source when rng is nil.
func NewAllocator(rng Rand) *Allocator {
	if rng == nil {
		rng = globalRand{}
	}
	return &Allocator{rng: rng}
}

// Split divides total minor units into count shares. Every share is at least 1
// and the shares sum to exactly total. Each of the first count-1 shares is drawn
// uniformly from what is left after reserving 1 unit per remaining share, and the
// last share takes the remainder, so the last share tends to be the largest.
func (a *Allocator) Split(total int64, count int) ([]int64, error) {
	if count < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "share count must be at least 1")
	}
	if total < int64(count) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must cover one minor unit per share")
	}

	shares := make([]int64, count)
	remaining := total
	for i := 0; i < count-1; i++ {
		upper := remaining - int64(count-i-1)
		share := 1 + a.rng.Int64N(upper)
		shares[i] = share
		remaining -= share
	}
	shares[count-1] = remaining
	return shares, nil
}
