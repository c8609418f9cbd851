package equity

import (
	"sort"

	"github.com/lox/equityprobe/internal/card"
)

// canonicalSuitPermutation assigns each suit a label in first-occurrence
// order (0,1,2,3), walking the board, then the dead cards, then every
// seated player's hole cards in seat order — the full card-visiting order
// one decoded deal's suit-isomorphism class is defined over. It is
// recomputed for every deal rather than once per Calculator: the board and
// dead cards are fixed across a run, but the hole cards that finish the
// walk are not, so two deals that are suit permutations of one another can
// still reach their shared suits in different orders and must be walked
// individually to land on the same label assignment.
func canonicalSuitPermutation(board, dead []card.Card, holesBySeat [][2]card.Card) [4]int {
	var perm [4]int
	for i := range perm {
		perm[i] = -1
	}
	next := 0
	assign := func(s int) {
		if perm[s] == -1 {
			perm[s] = next
			next++
		}
	}
	for _, c := range board {
		assign(int(c.Suit()))
	}
	for _, c := range dead {
		assign(int(c.Suit()))
	}
	for _, h := range holesBySeat {
		assign(int(h[0].Suit()))
		assign(int(h[1].Suit()))
	}
	for s := 0; s < 4; s++ {
		assign(s)
	}
	return perm
}

func remapCard(c card.Card, perm [4]int) card.Card {
	return card.New(c.Rank(), card.Suit(perm[int(c.Suit())]))
}

// holePairBase is 1 more than C(52,2): every unordered pair of distinct
// cards gets an index in [0,1326), and 0 is reserved so a player slot that
// isn't in play (fewer than MaxPlayers seated) encodes to a distinguishable
// id rather than colliding with card pair 0.
const holePairBase = 1327

// holePairIndex returns a's and b's unordered-pair index in [1,1326],
// via the standard combinadic-of-2 formula, offset by one to keep 0 free.
func holePairIndex(a, b card.Card) uint64 {
	hi, lo := int(a), int(b)
	if lo > hi {
		hi, lo = lo, hi
	}
	return uint64(hi*(hi-1)/2+lo) + 1
}

// preflopKey is the suit- and player-order-isomorphism-reduced cache key
// for one decoded deal, plus the permutation needed to translate a cached
// histogram (stored in sorted-combo order) back into this deal's actual
// local-position order.
type preflopKey struct {
	id uint64
	// sortedFromLocal[sortedPos] is the local deal position whose combo
	// landed at sortedPos once every seated player's remapped pair index
	// was sorted ascending.
	sortedFromLocal []int
}

// canonicalPreflopID derives preflopKey for one decoded deal: every seated
// player's hole-card pair, remapped through perm (the deal's own canonical
// suit permutation), then sorted ascending by pair index so that two deals
// differing only in which position holds which otherwise-identical combo
// collapse to the same key. Because evalengine.Evaluate depends only on
// rank multisets and same-suit groupings — never on a suit's or a
// position's identity — the whole postflop histogram computed for one
// member of this combined isomorphism class is the correct histogram for
// every member of it, once its bits are permuted back into the querying
// deal's own local-position order via sortedFromLocal. This canonicalization
// is purely a cache-key optimization: enumeratePostflopHistogram always
// enumerates the real, unpermuted deal.
func canonicalPreflopID(d deal, players int, perm [4]int) preflopKey {
	type entry struct {
		pairIdx uint64
		local   int
	}
	entries := make([]entry, players)
	for p := 0; p < players; p++ {
		h := d.hole[p]
		entries[p] = entry{
			pairIdx: holePairIndex(remapCard(h[0], perm), remapCard(h[1], perm)),
			local:   p,
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].pairIdx < entries[j].pairIdx })

	var id uint64
	sortedFromLocal := make([]int, players)
	for sortedPos, e := range entries {
		id = id*holePairBase + e.pairIdx
		sortedFromLocal[sortedPos] = e.local
	}
	return preflopKey{id: id, sortedFromLocal: sortedFromLocal}
}

// invertPermutation returns inv such that inv[p[i]] == i for every i.
func invertPermutation(p []int) []int {
	inv := make([]int, len(p))
	for i, v := range p {
		inv[v] = i
	}
	return inv
}

// permuteHistogram builds a histogram where bit dst of every mask is read
// from bit srcOfDst[dst] of hist's mask. Used both to fold a freshly
// enumerated histogram into sorted-combo order before caching it, and to
// unfold a cached one back into a particular deal's own local-position
// order on a hit.
func permuteHistogram(hist []uint64, srcOfDst []int) []uint64 {
	n := len(srcOfDst)
	out := make([]uint64, 1<<uint(n))
	for mask, w := range hist {
		if w == 0 {
			continue
		}
		var newMask int
		for dst, src := range srcOfDst {
			if mask&(1<<uint(src)) != 0 {
				newMask |= 1 << uint(dst)
			}
		}
		out[newMask] += w
	}
	return out
}
