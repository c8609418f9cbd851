package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/equityprobe/internal/card"
)

func handOf(cards ...card.Card) Hand {
	h := Empty()
	for _, c := range cards {
		h = h.Add(Of(c))
	}
	return h
}

func TestEmptyHandInvariants(t *testing.T) {
	for c := card.Card(0); c < card.Count; c++ {
		h := Empty().Add(Of(c))
		require.Equal(t, uint(1), h.Count())
		require.Equal(t, uint(1), h.SuitCount(int(c.Suit())))
	}
}

func TestAddIsBitIdenticalToUnion(t *testing.T) {
	c1 := card.MustParse("As")
	c2 := card.MustParse("Kd")
	h1 := handOf(c1[0])
	h2 := handOf(c2[0])
	combined := handOf(c1[0], c2[0])
	assert.Equal(t, combined, h1.Add(Of(c2[0])))
	assert.Equal(t, combined, h2.Add(Of(c1[0])))
}

func TestHasFlush(t *testing.T) {
	spades := card.MustParse("2s3s4s5s")
	h := Empty()
	for _, c := range spades {
		h = h.Add(Of(c))
	}
	assert.False(t, h.HasFlush())
	h = h.Add(Of(card.MustParse("6s")[0]))
	assert.True(t, h.HasFlush())
}

func TestEvaluateEmptyHand(t *testing.T) {
	assert.Equal(t, uint16(HighCard+1), Evaluate(Empty(), true))
}

func TestEvaluateOrdering(t *testing.T) {
	royalFlush := handOf(card.MustParse("AsKsQsJsTs")...)
	pair := handOf(card.MustParse("AsAh2c3d4h")...)
	highCard := handOf(card.MustParse("As7h4c3d2h")...)

	rf := Evaluate(royalFlush, true)
	pr := Evaluate(pair, true)
	hc := Evaluate(highCard, true)

	assert.Equal(t, 9, Category(rf))
	assert.Equal(t, 2, Category(pr))
	assert.Equal(t, 1, Category(hc))
	assert.Greater(t, rf, pr)
	assert.Greater(t, pr, hc)
}

func TestEvaluateEqualHandsEqualValues(t *testing.T) {
	a := handOf(card.MustParse("AsAh2c3d4h")...)
	b := handOf(card.MustParse("AhAs4h3d2c")...)
	assert.Equal(t, Evaluate(a, true), Evaluate(b, true))
}

func TestEvaluateShortHandsRankBelowFiveCard(t *testing.T) {
	single := handOf(card.MustParse("Ks")[0])
	fiveCard := handOf(card.MustParse("KsQhJc8d5h")...)
	assert.Less(t, Evaluate(single, true), Evaluate(fiveCard, true))
}

// categoryCounts enumerates every C(52,k) k-card hand and tallies how many
// fall in each of the 9 hand categories, indexed 1..9 (index 0 unused).
func categoryCounts(k int) [10]uint64 {
	var counts [10]uint64
	combo := make([]card.Card, k)
	var rec func(start, depth int)
	rec = func(start, depth int) {
		if depth == k {
			h := Empty()
			for _, c := range combo {
				h = h.Add(Of(c))
			}
			counts[Category(Evaluate(h, true))]++
			return
		}
		for c := card.Card(start); int(c) <= card.Count-(k-depth); c++ {
			combo[depth] = c
			rec(int(c)+1, depth+1)
		}
	}
	rec(0, 0)
	return counts
}

func TestCategoryCountsOneCard(t *testing.T) {
	counts := categoryCounts(1)
	assert.Equal(t, uint64(52), counts[1])
	for cat := 2; cat <= 9; cat++ {
		assert.Zero(t, counts[cat])
	}
}

func TestCategoryCountsTwoCards(t *testing.T) {
	counts := categoryCounts(2)
	assert.Equal(t, uint64(1248), counts[1])
	assert.Equal(t, uint64(78), counts[2])
	for cat := 3; cat <= 9; cat++ {
		assert.Zero(t, counts[cat])
	}
}

func TestCategoryCountsFiveCards(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive C(52,5) enumeration")
	}
	counts := categoryCounts(5)
	want := [10]uint64{0, 1302540, 1098240, 123552, 54912, 10200, 5108, 3744, 624, 40}
	assert.Equal(t, want, counts)
}

func TestCategoryCountsSevenCards(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive C(52,7) enumeration")
	}
	counts := categoryCounts(7)
	want := [10]uint64{0, 23294460, 58627800, 31433400, 6461620, 6180020, 4047644, 3473184, 224848, 41584}
	assert.Equal(t, want, counts)
}

// TestRankKeyCollisionFree enumerates every rank multiset reachable by
// ≤7 cards with ≤4 of any rank (76,155 of them including the empty one,
// per the published enumeration) and checks that every one of them gets
// its own distinct rank key.
func TestRankKeyCollisionFree(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive rank-multiset enumeration")
	}
	seen := make(map[uint32]bool)
	var rankCounts [13]int
	var total int
	var rec func(rank, remaining int)
	rec = func(rank, remaining int) {
		if rank == 13 {
			total++
			h := Empty()
			for r := 0; r < 13; r++ {
				for i := 0; i < rankCounts[r]; i++ {
					h = h.Add(Of(card.New(card.Rank(r), card.Suit(i))))
				}
			}
			seen[h.RankKey()] = true
			return
		}
		for take := 0; take <= 4 && take <= remaining; take++ {
			rankCounts[rank] = take
			rec(rank+1, remaining-take)
		}
		rankCounts[rank] = 0
	}
	rec(0, 7)
	assert.Equal(t, 76155, total)
	assert.Len(t, seen, total)
}

// TestEvaluateOrderingAcrossCardCounts checks strictly-increasing strength
// across representative 1-, 2-, 5- and 7-card hands, weakest to strongest.
func TestEvaluateOrderingAcrossCardCounts(t *testing.T) {
	tests := []struct {
		name  string
		hands []string
	}{
		{
			name:  "1 card",
			hands: []string{"2s", "9h", "As"},
		},
		{
			name:  "2 cards",
			hands: []string{"2s3h", "2s2h", "AsAh"},
		},
		{
			// high card < pair < two pair < trips < straight < flush <
			// full house < quads < straight flush
			name: "5 cards",
			hands: []string{
				"2s4h6c9dJc", "2s2h6c9dJc", "2s2h9c9dJc",
				"2s2h2c9dJc", "2h3c4d5s6h", "2s4s6s9sJs",
				"2s2h2c9d9s", "2s2h2c2d9s", "6s7s8s9sTs",
			},
		},
		{
			// same progression, with two extra cards that never beat the
			// hand's own best 5
			name: "7 cards",
			hands: []string{
				"2s4h6c9dJc5d8h", "2s2h6c9dJc5d8h", "2s2h9c9dJc5d8h",
				"2s2h2c9dJc5d8h", "2h3c4d5s6h8cTd", "2s4s6s9sJs3h7d",
				"2s2h2c9d9s5d8h", "2s2h2c2d9s5d8h", "6s7s8s9sTs2h4h",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prev uint16
			var prevCards string
			for i, s := range tt.hands {
				h := handOf(card.MustParse(s)...)
				v := Evaluate(h, true)
				if i > 0 {
					assert.Greater(t, v, prev, "%q should rank above %q", s, prevCards)
				}
				prev, prevCards = v, s
			}
		})
	}
}

func TestStraightWheelRanksLowest(t *testing.T) {
	lowStraight := handOf(card.MustParse("As2h3c4d5h")...)
	sixHighStraight := handOf(card.MustParse("2s3h4c5d6h")...)
	assert.Equal(t, 5, Category(Evaluate(lowStraight, true)))
	assert.Greater(t, Evaluate(sixHighStraight, true), Evaluate(lowStraight, true))
}
