package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXoroshiro128PlusIsDeterministic(t *testing.T) {
	a := NewXoroshiro128Plus(42)
	b := NewXoroshiro128Plus(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestXoroshiro128PlusVaries(t *testing.T) {
	r := NewXoroshiro128Plus(1)
	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		seen[r.Uint64()] = true
	}
	assert.Greater(t, len(seen), 990)
}

func TestUniqueRNG64VisitsEveryIndexOnce(t *testing.T) {
	const n = 37
	u := NewUniqueRNG64(n)
	seen := make(map[uint64]bool, n)
	idx := uint64(12345)
	for i := 0; i < n; i++ {
		idx = u.Next(idx)
		assert.Less(t, idx, uint64(n))
		assert.False(t, seen[idx], "index %d repeated", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, n)
}

func TestFastUniformIntStaysInRange(t *testing.T) {
	rng := NewXoroshiro128Plus(7)
	d := NewFastUniformInt(rng, 21)
	for i := 0; i < 1000; i++ {
		v := d.Next(52)
		assert.Less(t, v, uint64(52))
	}
}

func TestFastUniformIntUnbiasedStaysInRangeAndCovers(t *testing.T) {
	rng := NewXoroshiro128Plus(9)
	d := NewFastUniformIntUnbiased(rng)
	seen := make(map[uint64]bool)
	for i := 0; i < 5000; i++ {
		v := d.Next(52)
		assert.Less(t, v, uint64(52))
		seen[v] = true
	}
	assert.Greater(t, len(seen), 45)
}
