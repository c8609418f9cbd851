package equity

import (
	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/combinedrange"
	"github.com/lox/equityprobe/internal/evalengine"
)

// deal is one fully-assigned, conflict-free set of hole cards across every
// seated player, positioned contiguously by playerOrder so it can be fed
// straight into canonicalPreflopID without remapping.
type deal struct {
	hole      [combinedrange.MaxPlayers]combinedrange.HoleCards
	evalHands [combinedrange.MaxPlayers]evalengine.Hand
	usedMask  uint64
}

// iterateDeals walks the cartesian product of every combined-range group's
// combos, skipping any assignment that overlaps another group's cards or
// boardMask, and calls visit once per surviving deal. visit returns false
// to stop the walk early (used to honor the stop flag without a channel).
func iterateDeals(groups []combinedrange.CombinedRange, boardMask uint64, visit func(d deal) bool) {
	n := len(groups)
	var d deal

	var rec func(gi int, usedMask uint64, pos int) bool
	rec = func(gi int, usedMask uint64, pos int) bool {
		if gi == n {
			d.usedMask = usedMask
			return visit(d)
		}
		g := groups[gi]
		np := len(g.Players)
		for _, combo := range g.Combos {
			if combo.CardMask&usedMask != 0 || combo.CardMask&boardMask != 0 {
				continue
			}
			copy(d.hole[pos:pos+np], combo.HoleCards[:np])
			copy(d.evalHands[pos:pos+np], combo.EvalHands[:np])
			if !rec(gi+1, usedMask|combo.CardMask, pos+np) {
				return false
			}
		}
		return true
	}
	rec(0, 0, 0)
}

// playerOrder returns the actual player indices in the same contiguous
// order iterateDeals/decodePreflopIndex pack deal.hole/evalHands into.
func playerOrder(groups []combinedrange.CombinedRange) []int {
	var order []int
	for _, g := range groups {
		order = append(order, g.Players...)
	}
	return order
}

// holesBySeat returns d's hole cards ordered by actual seat number
// (0..players-1) rather than by local deal position, using order (as
// returned by playerOrder) to locate each seat's position.
func holesBySeat(d deal, order []int, players int) [][2]card.Card {
	out := make([][2]card.Card, players)
	for pos, seat := range order {
		out[seat] = [2]card.Card{d.hole[pos][0], d.hole[pos][1]}
	}
	return out
}

// totalPreflopIndexSpace is the raw cartesian product of every
// combined-range group's combo count: the size of the mixed-radix index
// space decodePreflopIndex addresses. It counts cross-group conflicts as
// ordinary (skippable) indices rather than excluding them, so a worker can
// unrank any index in [0, totalPreflopIndexSpace) without first knowing
// which ones are conflict-free.
func totalPreflopIndexSpace(groups []combinedrange.CombinedRange) uint64 {
	total := uint64(1)
	for _, g := range groups {
		total *= uint64(len(g.Combos))
	}
	return total
}

// decodePreflopIndex unranks a mixed-radix preflop index into the deal it
// names, one digit per combined-range group (radix = that group's combo
// count), and reports ok=false if the named combos conflict with one
// another. Every range combo was already filtered against the board and
// dead cards in NewCalculator, so the only conflicts left to detect here
// are between groups.
func decodePreflopIndex(groups []combinedrange.CombinedRange, idx uint64) (deal, bool) {
	var d deal
	var usedMask uint64
	pos := 0
	for _, g := range groups {
		n := uint64(len(g.Combos))
		comboIdx := idx % n
		idx /= n

		combo := g.Combos[comboIdx]
		if combo.CardMask&usedMask != 0 {
			return d, false
		}
		usedMask |= combo.CardMask
		np := len(g.Players)
		copy(d.hole[pos:pos+np], combo.HoleCards[:np])
		copy(d.evalHands[pos:pos+np], combo.EvalHands[:np])
		pos += np
	}
	d.usedMask = usedMask
	return d, true
}
