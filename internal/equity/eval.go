package equity

import (
	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/evalengine"
)

// boardHandOf builds the evaluator Hand for a board (or partial board). It
// starts from the zero Hand, not Empty(): it is always added to a player's
// hole-card hand, which already carries the one Empty() seed an evaluated
// hand needs.
func boardHandOf(board []card.Card) evalengine.Hand {
	var h evalengine.Hand
	for _, c := range board {
		h = h.Add(evalengine.Of(c))
	}
	return h
}

// evaluateDealDirect ranks every seated player's 7-card hand with no
// caching, for callers (Monte Carlo sampling) that rarely revisit the same
// (board, combo) pair twice and gain nothing from a lookup.
func evaluateDealDirect(d deal, players int, boardHand evalengine.Hand) []uint16 {
	ranks := make([]uint16, players)
	for p := 0; p < players; p++ {
		ranks[p] = evalengine.Evaluate(d.evalHands[p].Add(boardHand), true)
	}
	return ranks
}

// mergeBatchSize is how many evaluations a worker accumulates locally
// before folding its batch into the shared accumulator: the only
// contention point in the whole engine is the accumulator's mutex, and
// taking it once per ~4,096 evaluations instead of once per evaluation is
// what keeps many workers from serializing on it.
const mergeBatchSize = 4096

// localBatch is a worker-private accumulation of evaluated hands, indexed
// by winner bitmask in the worker's own combined-range group order (not
// the original seat order — that remapping happens once, at merge time).
type localBatch struct {
	evalCount            uint64
	uniquePreflopCombos  uint64
	skippedPreflopCombos uint64
	winsByPlayerMask     []uint64
}

func newLocalBatch(players int) *localBatch {
	return &localBatch{winsByPlayerMask: make([]uint64, 1<<uint(players))}
}

// reset clears a batch for reuse after it has been merged, so a worker
// doesn't need to reallocate winsByPlayerMask on every flush.
func (b *localBatch) reset() {
	b.evalCount = 0
	b.uniquePreflopCombos = 0
	b.skippedPreflopCombos = 0
	for i := range b.winsByPlayerMask {
		b.winsByPlayerMask[i] = 0
	}
}

// credit folds one evaluated deal into the batch, weighted by weight (1 for
// a single Monte Carlo sample).
func (b *localBatch) credit(ranks []uint16, weight uint64) {
	creditHistogram(b.winsByPlayerMask, ranks, weight)
	b.evalCount += weight
}

// addHistogram folds an already-built histogram (one combined-range
// group's preflop id, enumerated against every board completion) into the
// batch in one pass, used by the exact-enumeration cache-hit and
// cache-miss paths alike.
func (b *localBatch) addHistogram(hist []uint64) {
	for mask, w := range hist {
		b.winsByPlayerMask[mask] += w
		b.evalCount += w
	}
}

// remapMask translates a winner bitmask expressed in local (combined-range
// group) positions into one expressed in original seat indices.
func remapMask(localMask uint64, order []int) uint64 {
	var global uint64
	for i, p := range order {
		if localMask&(1<<uint(i)) != 0 {
			global |= 1 << uint(p)
		}
	}
	return global
}

// mergeBatch folds a worker's local batch into the shared accumulator
// under its mutex, remapping every nonzero histogram bucket from local to
// seat-indexed winner masks, then clears the batch for reuse.
func (a *accumulator) mergeBatch(b *localBatch, order []int) {
	if b.evalCount == 0 && b.uniquePreflopCombos == 0 && b.skippedPreflopCombos == 0 {
		return
	}
	a.mu.Lock()
	a.hands += b.evalCount
	a.uniquePreflopCombos += b.uniquePreflopCombos
	a.skippedPreflopCombos += b.skippedPreflopCombos
	for mask, w := range b.winsByPlayerMask {
		if w == 0 {
			continue
		}
		a.winsByPlayerMask[remapMask(uint64(mask), order)] += w
	}
	a.mu.Unlock()
	b.reset()
}
