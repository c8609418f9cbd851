package evalengine

import "math/bits"

// PopCount, TrailingZeros and LeadingZeros are the Go analogues of the
// compiler builtins (__builtin_popcount/ctz/clz) the original evaluator
// leans on for suit/flush bit tricks. math/bits compiles to the same CPU
// instructions on every platform Go supports, so there is no third-party
// library to reach for here — it is the direct equivalent of a compiler
// intrinsic, not a business-logic concern.

// PopCount64 returns the number of set bits in x.
func PopCount64(x uint64) int { return bits.OnesCount64(x) }

// TrailingZeros64 returns the number of trailing zero bits in x; 64 if x==0.
func TrailingZeros64(x uint64) int { return bits.TrailingZeros64(x) }

// LeadingZeros64 returns the number of leading zero bits in x; 64 if x==0.
func LeadingZeros64(x uint64) int { return bits.LeadingZeros64(x) }
