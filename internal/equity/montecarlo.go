package equity

import (
	"context"
	"math/rand/v2"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/randutil"
)

// xoroshiroAsRand adapts a randutil PRNG (it already implements rand.Source
// via Uint64) to *rand.Rand, which is what CombinedRange.Shuffle expects.
func xoroshiroAsRand(rng *randutil.Xoroshiro128Plus) *rand.Rand {
	return rand.New(rng)
}

// maxConsecutiveSampleFailures bounds how many samples in a row a worker
// can fail to draw conflict-free before giving up on the whole calculation:
// a range configuration narrow enough that almost every draw conflicts with
// the board or another player's range will never produce a usable sample,
// and spinning forever on it is worse than reporting back with whatever was
// accumulated. 1,000 matches the threshold the original all-in calculator
// uses for the same abort condition.
const maxConsecutiveSampleFailures = 1000

// runMonteCarloWorker draws independent samples (UniformRejection) or walks
// a pre-shuffled, full-period visiting order (RandomWalk) until the
// calculator's stop flag, time limit, hand limit or stdev target fires, or
// until it can no longer draw a single conflict-free sample.
func (c *Calculator) runMonteCarloWorker(ctx context.Context, seed uint64) error {
	rng := randutil.NewXoroshiro128Plus(seed)
	dist := randutil.NewFastUniformInt(rng, 21)

	// The board is always drawn fresh each step, for both sampling modes:
	// RandomWalk's full-period, no-repeat visiting order is specified for
	// the exact-enumeration preflop cursor only (where touching every
	// index exactly once is the point), not for Monte Carlo board
	// completion, which the reference calculator redraws independently
	// every sample regardless of sampling mode.
	totalBoards := binomial(len(c.deckAvailable), c.boardNeeded)
	walk := c.opts.Sampling == RandomWalk

	groupCursor := make([]uint64, len(c.combined))

	batch := newLocalBatch(c.players)
	consecutiveFailures := 0

	for iter := 0; ; iter++ {
		if iter&0xff == 0 {
			select {
			case <-ctx.Done():
				c.acc.mergeBatch(batch, c.order)
				return ctx.Err()
			default:
			}
			if c.stop.Load() {
				c.acc.mergeBatch(batch, c.order)
				return nil
			}
			if c.shouldStop() {
				c.acc.mergeBatch(batch, c.order)
				c.Stop()
				return nil
			}
		}

		var boardIdx uint64
		if totalBoards > 0 {
			boardIdx = dist.Next(totalBoards)
		}

		fullBoard, fullBoardMask := c.boardFromCombinationIndex(boardIdx)
		d, ok := c.sampleDeal(fullBoardMask, dist, groupCursor, walk)
		if !ok {
			consecutiveFailures++
			if consecutiveFailures >= maxConsecutiveSampleFailures {
				c.acc.mergeBatch(batch, c.order)
				c.acc.markStarved()
				c.Stop()
				return nil
			}
			continue
		}
		consecutiveFailures = 0

		boardHand := boardHandOf(fullBoard)
		ranks := evaluateDealDirect(d, c.players, boardHand)
		batch.credit(ranks, 1)

		if batch.evalCount >= mergeBatchSize {
			c.acc.mergeBatch(batch, c.order)
		}
	}
}

// boardFromCombinationIndex turns a combinadic rank into the actual board:
// the fixed cards plus unrankCombination's pick of the remaining slots.
func (c *Calculator) boardFromCombinationIndex(idx uint64) ([]card.Card, uint64) {
	if c.boardNeeded == 0 {
		return c.board, c.boardMask
	}
	picks := unrankCombination(len(c.deckAvailable), c.boardNeeded, idx)
	full := append([]card.Card{}, c.board...)
	mask := c.boardMask
	for _, p := range picks {
		cd := c.deckAvailable[p]
		full = append(full, cd)
		mask |= cd.Mask()
	}
	return full, mask
}

// sampleDeal assigns one combo per combined-range group — drawn fresh for
// UniformRejection, advanced from the group's shuffled order for
// RandomWalk — and reports a conflict with the board or an earlier group
// by returning ok=false rather than retrying internally; the caller
// redraws the whole sample on failure. Every range combo was already
// filtered against the board and dead cards in NewCalculator, so boardMask
// is the only external conflict this needs to check.
func (c *Calculator) sampleDeal(boardMask uint64, dist *randutil.FastUniformInt, groupCursor []uint64, walk bool) (deal, bool) {
	var d deal
	used := boardMask
	pos := 0
	for gi, g := range c.combined {
		if len(g.Combos) == 0 {
			return d, false
		}
		var combo = g.Combos[0]
		if walk {
			groupCursor[gi] = (groupCursor[gi] + 1) % uint64(len(g.Combos))
			combo = g.Combos[groupCursor[gi]]
		} else {
			idx := dist.Next(uint64(len(g.Combos)))
			combo = g.Combos[idx]
		}
		if combo.CardMask&used != 0 {
			return d, false
		}
		used |= combo.CardMask
		np := len(g.Players)
		copy(d.hole[pos:pos+np], combo.HoleCards[:np])
		copy(d.evalHands[pos:pos+np], combo.EvalHands[:np])
		pos += np
	}
	d.usedMask = used
	return d, true
}
