// Package combinedrange merges per-player hole-card ranges into joint
// multi-player combo tables (C3), moving conflict rejection out of the
// equity engine's hot loop.
package combinedrange

import (
	"math/rand/v2"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/evalengine"
)

// MaxPlayers is the hard cap on players in a single calculation.
const MaxPlayers = 6

// HoleCards is one player's two-card starting hand.
type HoleCards [2]card.Card

// Combo is one joint deal across every player folded into a combined
// range: the union of their hole-card masks, the hole cards themselves,
// and each player's hole cards pre-loaded into evaluator form.
type Combo struct {
	CardMask  uint64
	HoleCards [MaxPlayers]HoleCards
	EvalHands [MaxPlayers]evalengine.Hand
}

// CombinedRange is the outer join of one or more original players' ranges:
// every combo is a legal (non-conflicting) assignment of hole cards to all
// of Players.
type CombinedRange struct {
	Players []int
	Combos  []Combo
}

// FromPlayer builds a singleton combined range for one player's range.
func FromPlayer(playerIdx int, holeCards []HoleCards) CombinedRange {
	combos := make([]Combo, len(holeCards))
	for i, h := range holeCards {
		var c Combo
		c.CardMask = h[0].Mask() | h[1].Mask()
		c.HoleCards[0] = h
		c.EvalHands[0] = evalengine.Empty().Add(evalengine.Of(h[0])).Add(evalengine.Of(h[1]))
		combos[i] = c
	}
	return CombinedRange{Players: []int{playerIdx}, Combos: combos}
}

// Join combines r with other and returns the conflict-filtered cartesian
// product: for every pair of combos whose card masks don't intersect, a
// new combo carrying both sides' hole cards and evaluator hands.
func (r CombinedRange) Join(other CombinedRange) CombinedRange {
	newPlayers := make([]int, 0, len(r.Players)+len(other.Players))
	newPlayers = append(newPlayers, r.Players...)
	newPlayers = append(newPlayers, other.Players...)

	var combos []Combo
	np := len(newPlayers)
	for _, c1 := range r.Combos {
		for _, c2 := range other.Combos {
			if c1.CardMask&c2.CardMask != 0 {
				continue
			}
			var c Combo
			c.CardMask = c1.CardMask | c2.CardMask
			copy(c.HoleCards[:len(r.Players)], c1.HoleCards[:len(r.Players)])
			copy(c.HoleCards[len(r.Players):np], c2.HoleCards[:len(other.Players)])
			copy(c.EvalHands[:len(r.Players)], c1.EvalHands[:len(r.Players)])
			copy(c.EvalHands[len(r.Players):np], c2.EvalHands[:len(other.Players)])
			combos = append(combos, c)
		}
	}
	return CombinedRange{Players: newPlayers, Combos: combos}
}

// EstimateJoinSize counts what Join would produce, without building it.
func (r CombinedRange) EstimateJoinSize(other CombinedRange) uint64 {
	var size uint64
	for _, c1 := range r.Combos {
		for _, c2 := range other.Combos {
			if c1.CardMask&c2.CardMask == 0 {
				size++
			}
		}
	}
	return size
}

// JoinRanges greedily merges per-player hole-card ranges into as few
// combined ranges as possible while keeping each one's combo count at or
// below maxSize: repeatedly join the pair whose result would be smallest,
// stopping once the smallest candidate join would exceed maxSize.
func JoinRanges(holeCardRanges [][]HoleCards, maxSize uint64) []CombinedRange {
	ranges := make([]CombinedRange, len(holeCardRanges))
	for i, hc := range holeCardRanges {
		ranges[i] = FromPlayer(i, hc)
	}

	for {
		bestSize := ^uint64(0)
		besti, bestj := 0, 0
		for i := 0; i < len(ranges); i++ {
			for j := 0; j < i; j++ {
				size := ranges[i].EstimateJoinSize(ranges[j])
				if size < bestSize {
					besti, bestj, bestSize = i, j, size
				}
			}
		}

		if len(ranges) < 2 || bestSize > maxSize {
			break
		}
		ranges[besti] = ranges[besti].Join(ranges[bestj])
		ranges = append(ranges[:bestj], ranges[bestj+1:]...)
	}

	return ranges
}

// Shuffle randomizes combo order in place. Used before random-walk Monte
// Carlo so that the walk's starting point isn't correlated with the order
// combos were enumerated in.
func (r CombinedRange) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(r.Combos), func(i, j int) {
		r.Combos[i], r.Combos[j] = r.Combos[j], r.Combos[i]
	})
}
