package evalengine

import "sort"

const rankCount = 13

// Hand category constants. A hand's evaluated value is category*4096 +
// tiebreak, so dividing by 4096 recovers the category.
const (
	categoryShift = 12
	HighCard      = 1 << categoryShift
	Pair          = 2 << categoryShift
	TwoPair       = 3 << categoryShift
	ThreeOfAKind  = 4 << categoryShift
	Straight      = 5 << categoryShift
	Flush         = 6 << categoryShift
	FullHouse     = 7 << categoryShift
	FourOfAKind   = 8 << categoryShift
	StraightFlush = 9 << categoryShift
)

// Category extracts the hand category (1=high card .. 9=straight flush)
// from an evaluated value.
func Category(value uint16) int { return int(value) >> categoryShift }

// nonFlushRanks are rank multipliers chosen so that summing one per held
// card produces a collision-free key for any rank multiset of up to 7
// cards with at most 4 cards of any rank.
var nonFlushRanks = [rankCount]uint32{
	0x2000, 0x8001, 0x11000, 0x3a000, 0x91000, 0x176005, 0x366000,
	0x41a013, 0x47802e, 0x479068, 0x48c0e4, 0x48f211, 0x494493,
}

// flushRanks are powers of two: a flush/straight key only needs to record
// which ranks are present, one bit per rank.
var flushRanks = [rankCount]uint32{
	1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096,
}

var maxKey = uint32(4*nonFlushRanks[12] + 3*nonFlushRanks[11])

const (
	perfHashRowShift  = 11
	perfHashColumnBit = 1 << perfHashRowShift
	perfHashColumnMsk = perfHashColumnBit - 1
	flushLookupSize   = 1 << rankCount
)

var (
	lookup          []uint16
	perfHashOffsets []uint32
	flushLookup     [flushLookupSize]uint16
)

func init() {
	origLookup := make([]uint16, maxKey+1)
	buildLookups(origLookup, flushLookup[:])
	lookup, perfHashOffsets = buildPerfectHash(origLookup)
}

func perfHash(key uint32) uint32 {
	return key + perfHashOffsets[key>>perfHashRowShift]
}

// Evaluate ranks a hand of up to 7 cards into a 16-bit strength value.
// Higher is better. Hands with fewer than 5 cards are ranked as the worst
// kickers of their category. flushPossible lets a caller skip the flush
// check when it already knows a flush is impossible (e.g. a 2-card hole
// pair before the board is known).
func Evaluate(h Hand, flushPossible bool) uint16 {
	if flushPossible && h.HasFlush() {
		return flushLookup[h.FlushKey()]
	}
	return lookup[perfHash(h.RankKey())]
}

// buildLookups walks every reachable (rankCounts, ncards<=7) multiset in
// hand-category order, assigning each a strictly increasing value, and
// writes it into the non-flush table (by rank key, later perfect-hashed)
// or the flush table (by 13-bit rank bitmask).
func buildLookups(origLookup []uint16, flushLookupOut []uint16) {
	const rc = rankCount

	handValue := uint32(HighCard)
	handValue = populateLookup(origLookup, flushLookupOut, 0, 0, handValue, rc, 0, 0, 0, false)

	handValue = Pair
	for r := 0; r < rc; r++ {
		handValue = populateLookup(origLookup, flushLookupOut, 2<<uint(4*r), 2, handValue, rc, 0, 0, 0, false)
	}

	handValue = TwoPair
	for r1 := 0; r1 < rc; r1++ {
		for r2 := 0; r2 < r1; r2++ {
			ranks := uint64(2)<<uint(4*r1) + uint64(2)<<uint(4*r2)
			handValue = populateLookup(origLookup, flushLookupOut, ranks, 4, handValue, rc, r2, 0, 0, false)
		}
	}

	handValue = ThreeOfAKind
	for r := 0; r < rc; r++ {
		handValue = populateLookup(origLookup, flushLookupOut, 3<<uint(4*r), 3, handValue, rc, 0, r, 0, false)
	}

	handValue = Straight
	handValue = populateLookup(origLookup, flushLookupOut, 0x1000000001111, 5, handValue, rc, rc, rc, 3, false) // wheel
	for r := 4; r < rc; r++ {
		handValue = populateLookup(origLookup, flushLookupOut, 0x11111<<uint(4*(r-4)), 5, handValue, rc, rc, rc, r, false)
	}

	handValue = Flush
	handValue = populateLookup(origLookup, flushLookupOut, 0, 0, handValue, rc, 0, 0, 0, true)

	handValue = FullHouse
	for r1 := 0; r1 < rc; r1++ {
		for r2 := 0; r2 < rc; r2++ {
			if r2 == r1 {
				continue
			}
			ranks := uint64(3)<<uint(4*r1) + uint64(2)<<uint(4*r2)
			handValue = populateLookup(origLookup, flushLookupOut, ranks, 5, handValue, rc, r2, r1, rc, false)
		}
	}

	handValue = FourOfAKind
	for r := 0; r < rc; r++ {
		handValue = populateLookup(origLookup, flushLookupOut, 4<<uint(4*r), 4, handValue, rc, rc, rc, rc, false)
	}

	handValue = StraightFlush
	handValue = populateLookup(origLookup, flushLookupOut, 0x1000000001111, 5, handValue, rc, 0, 0, 3, true)
	for r := 4; r < rc; r++ {
		handValue = populateLookup(origLookup, flushLookupOut, 0x11111<<uint(4*(r-4)), 5, handValue, rc, 0, 0, r, true)
	}
}

// populateLookup recurses over the remaining rank slots of a partial hand,
// writing a table entry for every combination of up to 7 cards it visits and
// refusing to improve on maxPair/maxTrips/maxStraight (so that, for
// example, a pair table entry's recursion never silently becomes trips).
func populateLookup(origLookup, flushLookupOut []uint16, ranks uint64, ncards int, handValue uint32,
	endRank, maxPair, maxTrips, maxStraight int, flush bool) uint32 {

	// Every node visited with 5 or fewer cards gets a strictly increasing
	// value, including the very first (0-card, i.e. empty-hand) call —
	// that is what makes evaluate(Empty()) rank one above the bare
	// category floor, and what ranks an incomplete hand below any 5-card
	// hand in the same category.
	if ncards <= 5 {
		handValue++
	}

	// Every depth of the recursion, including hands with fewer than 5
	// cards, gets a table entry so that short hands (e.g. a lone hole
	// pair before the flop) can still be ranked.
	key := getKey(ranks, flush)
	if flush {
		flushLookupOut[key] = uint16(handValue)
	} else {
		origLookup[key] = uint16(handValue)
	}
	if ncards == 7 {
		return handValue
	}

	for r := 0; r < endRank; r++ {
		newRanks := ranks + (1 << uint(4*r))
		rankCountAtR := (newRanks >> uint(r*4)) & 0xf
		if rankCountAtR == 2 && r >= maxPair {
			continue
		}
		if rankCountAtR == 3 && r >= maxTrips {
			continue
		}
		if rankCountAtR >= 4 {
			continue
		}
		if getBiggestStraight(newRanks) > maxStraight {
			continue
		}
		handValue = populateLookup(origLookup, flushLookupOut, newRanks, ncards+1, handValue, r+1, maxPair, maxTrips, maxStraight, flush)
	}

	return handValue
}

func getKey(ranks uint64, flush bool) uint32 {
	var key uint32
	for r := 0; r < rankCount; r++ {
		count := uint32((ranks >> uint(r*4)) & 0xf)
		if flush {
			key += count * flushRanks[r]
		} else {
			key += count * nonFlushRanks[r]
		}
	}
	return key
}

// getBiggestStraight returns the index (4=six-high .. 12=ace-high) of the
// highest straight present, 3 for the wheel (A-2-3-4-5), or 0 for none.
func getBiggestStraight(ranks uint64) int {
	rankMask := (0x1111111111111 & ranks) | (0x2222222222222&ranks)>>1 | (0x4444444444444&ranks)>>2
	for i := 8; i >= 0; i-- {
		if (rankMask>>uint(4*i))&0x11111 == 0x11111 {
			return i + 4
		}
	}
	if rankMask&0x1000000001111 == 0x1000000001111 {
		return 3
	}
	return 0
}

// buildPerfectHash implements the greedy row-packing perfect hash: group
// the non-flush table's nonzero entries by row (key >> perfHashRowShift);
// fit the densest rows first; for each row brute-force the smallest offset
// that places every entry in that row without colliding with an
// already-placed, differently-valued entry. Based on the algorithm from
// "Generating Perfect Hash Functions" (Dr. Dobb's).
func buildPerfectHash(origLookup []uint16) (lookupOut []uint16, offsetsOut []uint32) {
	type row struct {
		idx  int
		keys []uint32
	}
	var rows []row
	for key, v := range origLookup {
		if v == 0 {
			continue
		}
		rowIdx := key >> perfHashRowShift
		for len(rows) <= rowIdx {
			rows = append(rows, row{idx: len(rows)})
		}
		rows[rowIdx].keys = append(rows[rowIdx].keys, uint32(key))
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(rows[order[a]].keys) > len(rows[order[b]].keys)
	})

	offsets := make([]uint32, len(rows))
	table := make([]uint16, perfHashColumnBit)
	maxIdx := 0

	for _, ri := range order {
		r := rows[ri]
		var offset uint32
		for {
			ok := true
			for _, key := range r.keys {
				idx := int((key & perfHashColumnMsk) + offset)
				if idx < len(table) {
					if v := table[idx]; v != 0 && v != origLookup[key] {
						ok = false
						break
					}
				}
			}
			if ok {
				break
			}
			offset++
		}
		offsets[ri] = offset - uint32(ri<<perfHashRowShift)
		for _, key := range r.keys {
			idx := int((key & perfHashColumnMsk) + offset)
			for idx >= len(table) {
				table = append(table, make([]uint16, len(table))...)
			}
			if idx > maxIdx {
				maxIdx = idx
			}
			table[idx] = origLookup[key]
		}
	}

	return table[:maxIdx+1], offsets
}
