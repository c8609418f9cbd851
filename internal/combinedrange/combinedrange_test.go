package combinedrange

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/equityprobe/internal/card"
)

func hc(s string) HoleCards {
	cards := card.MustParse(s)
	return HoleCards{cards[0], cards[1]}
}

func TestFromPlayer(t *testing.T) {
	r := FromPlayer(2, []HoleCards{hc("AsKs"), hc("2h2d")})
	require.Equal(t, []int{2}, r.Players)
	require.Len(t, r.Combos, 2)
	assert.Equal(t, card.MustParse("As")[0].Mask()|card.MustParse("Ks")[0].Mask(), r.Combos[0].CardMask)
}

func TestJoinFiltersConflicts(t *testing.T) {
	a := FromPlayer(0, []HoleCards{hc("AsAh")})
	b := FromPlayer(1, []HoleCards{hc("AsKd"), hc("2c3c")})

	joined := a.Join(b)
	assert.Equal(t, []int{0, 1}, joined.Players)
	// "AsKd" conflicts with "AsAh" (shares As), so only one combo survives.
	require.Len(t, joined.Combos, 1)
	assert.Equal(t, hc("2c3c"), joined.Combos[0].HoleCards[1])
}

func TestEstimateJoinSizeMatchesJoin(t *testing.T) {
	a := FromPlayer(0, []HoleCards{hc("AsAh"), hc("KsKh")})
	b := FromPlayer(1, []HoleCards{hc("2c3c"), hc("4d5d")})
	assert.EqualValues(t, len(a.Join(b).Combos), a.EstimateJoinSize(b))
}

func TestJoinRangesRespectsMaxSize(t *testing.T) {
	a := []HoleCards{hc("AsAh"), hc("KsKh")}
	b := []HoleCards{hc("2c3c"), hc("4d5d")}
	ranges := JoinRanges([][]HoleCards{a, b}, 2)
	// Joining would produce 4 combos, over the cap of 2, so no merge happens.
	assert.Len(t, ranges, 2)

	merged := JoinRanges([][]HoleCards{a, b}, 10)
	require.Len(t, merged, 1)
	assert.Len(t, merged[0].Combos, 4)
}

func TestShufflePreservesSet(t *testing.T) {
	r := FromPlayer(0, []HoleCards{hc("AsAh"), hc("KsKh"), hc("QsQh")})
	before := append([]Combo{}, r.Combos...)
	r.Shuffle(rand.New(rand.NewPCG(1, 2)))
	assert.ElementsMatch(t, before, r.Combos)
}
