package equity

import (
	"context"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/evalengine"
	"github.com/lox/equityprobe/internal/randutil"
)

// preflopEnumerationBatchSize sizes how many preflop indices a worker
// reserves from the shared cursor at once. A batch that decodes to a cache
// miss pays for a full postflop enumeration (up to PostflopCombinationCount
// leaves), so the batch is sized inversely to that cost: roughly 2,000,000
// total (preflop-index, postflop-leaf) work units per batch, floored at 1
// so a board with a huge remaining deck still makes progress one preflop
// index at a time.
func (c *Calculator) preflopEnumerationBatchSize() uint64 {
	postflop := binomial(len(c.deckAvailable), c.boardNeeded)
	if postflop == 0 {
		postflop = 1
	}
	size := uint64(2_000_000) / postflop
	if size < 1 {
		size = 1
	}
	return size
}

// randomizeEnumerationOrder reports whether the preflop-index cursor should
// be quasi-randomized via UniqueRNG64 before decoding: worthwhile only when
// the postflop tree per preflop id is large enough that cache misses
// dominate the cost, and the preflop space is small enough that spreading
// cache-populating visits across it (rather than sweeping it in index
// order) actually improves the hit rate workers further behind the cursor
// see.
func (c *Calculator) randomizeEnumerationOrder() bool {
	postflop := binomial(len(c.deckAvailable), c.boardNeeded)
	preflop := totalPreflopIndexSpace(c.combined)
	return postflop > 10_000 && preflop > 0 && preflop <= cacheEntryCap*4
}

// runEnumerationWorker exactly walks every preflop index — one combo per
// combined-range group, mixed-radix decoded — and, for each conflict-free
// one, consults the suit-isomorphism preflop cache for that combo's whole
// winsByPlayerMask histogram across every remaining board completion,
// building it via enumeratePostflopHistogram on a miss. Workers claim
// contiguous batches of preflop indices from a shared atomic counter and
// unrank them directly, so no worker ever waits on another's progress, and
// accumulate into a local batch that is merged into the shared accumulator
// only every mergeBatchSize evaluations.
func (c *Calculator) runEnumerationWorker(ctx context.Context) error {
	total := totalPreflopIndexSpace(c.combined)
	if total == 0 {
		return nil
	}
	batchSize := c.preflopEnumerationBatchSize()
	randomize := c.randomizeEnumerationOrder()
	var walker *randutil.UniqueRNG64
	if randomize {
		walker = randutil.NewUniqueRNG64(total)
	}

	batch := newLocalBatch(c.players)

	flush := func() { c.acc.mergeBatch(batch, c.order) }

	for {
		start := c.nextBatch.Add(batchSize) - batchSize
		if start >= total {
			flush()
			return nil
		}
		end := start + batchSize
		if end > total {
			end = total
		}

		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		default:
		}
		if c.stop.Load() {
			flush()
			return nil
		}

		for i := start; i < end; i++ {
			idx := i
			if randomize {
				idx = walker.Next(i)
			}

			d, ok := decodePreflopIndex(c.combined, idx)
			if !ok {
				batch.skippedPreflopCombos++
				continue
			}

			perm := canonicalSuitPermutation(c.board, c.opts.DeadCards, holesBySeat(d, c.order, c.players))
			key := canonicalPreflopID(d, c.players, perm)
			sortedHist, hit := c.cache.get(key.id)
			if !hit {
				localHist := c.enumeratePostflopHistogram(d)
				sortedHist = permuteHistogram(localHist, key.sortedFromLocal)
				c.cache.put(key.id, sortedHist)
				batch.uniquePreflopCombos++
			}
			batch.addHistogram(permuteHistogram(sortedHist, invertPermutation(key.sortedFromLocal)))

			if batch.evalCount >= mergeBatchSize {
				flush()
			}
		}

		if c.shouldStop() {
			flush()
			c.Stop()
			return nil
		}
	}
}

// suitClass is a group of remaining deck cards that enumeratePostflopHistogram
// treats as interchangeable: either a single relevant-suit card (size 1) or
// every undealt card of one rank drawn from suits that can no longer
// possibly complete a flush for anyone.
type suitClass struct {
	cards []card.Card
}

// buildSuitClasses partitions the undealt deck into classes for one
// enumeratePostflopHistogram call. A suit is "irrelevant" — can never be
// part of any player's flush — once its final board count, even if every
// remaining board slot went to it, still couldn't reach 3 (a flush needs 5
// across a player's 2 hole cards + the 5-card board, so the board alone
// must supply at least 3). Irrelevant suits' cards collapse into one class
// per rank, since with no flush in play only rank affects the evaluated
// hand; relevant suits keep one class per card. This single mechanism
// covers both the general mid-board "irrelevant suit" collapse and, when
// only one board card remains, the degenerate case of it (the "river
// special case": a rank-only loop, weighted by how many same-rank cards
// are lumped into each class, falls out of it automatically rather than
// needing separate code).
func buildSuitClasses(avail []card.Card, fixedSuitCount [4]int, boardNeeded int) []suitClass {
	var classes []suitClass
	var irrelevantByRank [card.RankCount][]card.Card
	for _, cd := range avail {
		s := int(cd.Suit())
		if fixedSuitCount[s]+boardNeeded >= 3 {
			classes = append(classes, suitClass{cards: []card.Card{cd}})
			continue
		}
		irrelevantByRank[cd.Rank()] = append(irrelevantByRank[cd.Rank()], cd)
	}
	for r := 0; r < card.RankCount; r++ {
		if len(irrelevantByRank[r]) > 0 {
			classes = append(classes, suitClass{cards: irrelevantByRank[r]})
		}
	}
	return classes
}

// enumeratePostflopHistogram runs the full postflop enumeration for one
// conflict-free preflop deal: every way to complete the remaining board,
// weighted by how many physically distinct boards a collapsed suit class
// stands in for, folded into a winsByPlayerMask histogram.
func (c *Calculator) enumeratePostflopHistogram(d deal) []uint64 {
	hist := make([]uint64, 1<<uint(c.players))
	boardHand := boardHandOf(c.board)

	if c.boardNeeded == 0 {
		ranks := make([]uint16, c.players)
		for p := 0; p < c.players; p++ {
			ranks[p] = evalengine.Evaluate(d.evalHands[p].Add(boardHand), true)
		}
		creditHistogram(hist, ranks, 1)
		return hist
	}

	var fixedSuitCount [4]int
	for _, bc := range c.board {
		fixedSuitCount[int(bc.Suit())]++
	}

	avail := make([]card.Card, 0, len(c.deckAvailable))
	for _, cd := range c.deckAvailable {
		if cd.Mask()&d.usedMask == 0 {
			avail = append(avail, cd)
		}
	}
	classes := buildSuitClasses(avail, fixedSuitCount, c.boardNeeded)

	var rec func(ci, remaining int, partial evalengine.Hand, weight uint64)
	rec = func(ci, remaining int, partial evalengine.Hand, weight uint64) {
		if remaining == 0 {
			full := boardHand.Add(partial)
			ranks := make([]uint16, c.players)
			for p := 0; p < c.players; p++ {
				ranks[p] = evalengine.Evaluate(d.evalHands[p].Add(full), true)
			}
			creditHistogram(hist, ranks, weight)
			return
		}
		if ci == len(classes) {
			return
		}

		cl := classes[ci]
		maxTake := remaining
		if maxTake > len(cl.cards) {
			maxTake = len(cl.cards)
		}
		for take := 0; take <= maxTake; take++ {
			if take == 0 {
				rec(ci+1, remaining, partial, weight)
				continue
			}
			h := partial
			for _, rc := range cl.cards[:take] {
				h = h.Add(evalengine.Of(rc))
			}
			rec(ci+1, remaining-take, h, weight*binomial(len(cl.cards), take))
		}
	}
	rec(0, c.boardNeeded, evalengine.Hand{}, 1)
	return hist
}

// creditHistogram folds one evaluated deal into hist, weighted by weight,
// crediting every player tied for the best hand.
func creditHistogram(hist []uint64, ranks []uint16, weight uint64) {
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r > best {
			best = r
		}
	}
	var mask uint64
	for i, r := range ranks {
		if r == best {
			mask |= 1 << uint(i)
		}
	}
	hist[mask] += weight
}
