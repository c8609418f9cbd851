// Package rangetext parses the compact range notation poker tools use to
// describe a player's possible hole cards ("AKs,22+,ThTc") into the
// concrete two-card combos the equity engine operates on. It sits outside
// the core engine as an external collaborator: the engine only ever sees
// combinedrange.HoleCards slices, never this package's grammar.
package rangetext

import (
	"fmt"
	"strings"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/combinedrange"
)

// suitedness constrains which suit combinations a two-rank class expands to.
type suitedness int

const (
	any suitedness = iota
	suited
	offsuit
)

// Parse expands a comma-separated range expression into its concrete
// combos, deduplicated. Each token may be:
//
//   - a specific hand, e.g. "AhKd" (exactly one combo)
//   - a pair class, e.g. "TT" (all 6 combos), "TT+" (TT up through AA),
//     "99-TT" (all pairs between the two, inclusive)
//   - a two-rank class, e.g. "AK" (suited+offsuit), "AKs" (suited only),
//     "AKo" (offsuit only), each with the same "+"/"-" range forms, where
//     "+" raises the second card up to one below the first and "-" spans
//     the two given second cards
func Parse(s string) ([]combinedrange.HoleCards, error) {
	seen := make(map[combinedrange.HoleCards]bool)
	var out []combinedrange.HoleCards

	add := func(combos []combinedrange.HoleCards) {
		for _, c := range combos {
			key := canonicalPair(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, key)
		}
	}

	for _, rawTok := range strings.Split(s, ",") {
		tok := strings.TrimSpace(rawTok)
		if tok == "" {
			continue
		}
		combos, err := parseToken(tok)
		if err != nil {
			return nil, fmt.Errorf("rangetext: token %q: %w", tok, err)
		}
		add(combos)
	}
	return out, nil
}

// canonicalPair orders a HoleCards' two cards so that two parses of the
// same combo in either order dedupe against each other.
func canonicalPair(h combinedrange.HoleCards) combinedrange.HoleCards {
	if h[0] > h[1] {
		h[0], h[1] = h[1], h[0]
	}
	return h
}

func parseToken(tok string) ([]combinedrange.HoleCards, error) {
	if strings.EqualFold(tok, "random") {
		return allCombos(), nil
	}

	if len(tok) == 4 {
		if cards, err := card.Parse(tok); err == nil {
			if cards[0] == cards[1] {
				return nil, fmt.Errorf("a hand cannot repeat the same card twice")
			}
			return []combinedrange.HoleCards{{cards[0], cards[1]}}, nil
		}
	}

	if strings.HasSuffix(tok, "+") {
		return parseOpenEnded(strings.TrimSuffix(tok, "+"))
	}
	if dash := strings.Index(tok, "-"); dash > 0 {
		return parseDashRange(tok[:dash], tok[dash+1:])
	}
	return parseClass(tok)
}

// splitClass separates a class token's two rank letters and its optional
// trailing suitedness marker ('s' or 'o').
func splitClass(tok string) (card.Rank, card.Rank, suitedness, error) {
	if len(tok) < 2 {
		return 0, 0, any, fmt.Errorf("class %q too short", tok)
	}
	r1, err := card.ParseRank(tok[0])
	if err != nil {
		return 0, 0, any, err
	}
	r2, err := card.ParseRank(tok[1])
	if err != nil {
		return 0, 0, any, err
	}

	suitMark := any
	rest := tok[2:]
	switch rest {
	case "":
	case "s":
		suitMark = suited
	case "o":
		suitMark = offsuit
	default:
		return 0, 0, any, fmt.Errorf("unrecognized suffix %q", rest)
	}
	return r1, r2, suitMark, nil
}

func parseClass(tok string) ([]combinedrange.HoleCards, error) {
	r1, r2, s, err := splitClass(tok)
	if err != nil {
		return nil, err
	}
	if r1 == r2 {
		if s != any {
			return nil, fmt.Errorf("a pair cannot be marked suited or offsuit")
		}
		return expandPair(r1), nil
	}
	return expandTwoRank(r1, r2, s), nil
}

// parseOpenEnded handles "+" ranges: a pair class raises toward aces; a
// two-rank class raises its second card toward (but never reaching) the
// first.
func parseOpenEnded(tok string) ([]combinedrange.HoleCards, error) {
	r1, r2, s, err := splitClass(tok)
	if err != nil {
		return nil, err
	}
	var out []combinedrange.HoleCards
	if r1 == r2 {
		for r := r1; r <= card.Ace; r++ {
			out = append(out, expandPair(r)...)
		}
		return out, nil
	}
	hi, lo := r1, r2
	if lo > hi {
		hi, lo = lo, hi
	}
	for r := lo; r < hi; r++ {
		out = append(out, expandTwoRank(hi, r, s)...)
	}
	return out, nil
}

// parseDashRange handles "XX-YY" pair ranges and "AJs-ATs" two-rank ranges:
// both ends share the same high card (or are both pairs), and every rank
// between the two seconds, inclusive, is expanded.
func parseDashRange(fromTok, toTok string) ([]combinedrange.HoleCards, error) {
	fr1, fr2, fs, err := splitClass(fromTok)
	if err != nil {
		return nil, err
	}
	tr1, tr2, ts, err := splitClass(toTok)
	if err != nil {
		return nil, err
	}
	if fs != ts {
		return nil, fmt.Errorf("range endpoints %q and %q disagree on suitedness", fromTok, toTok)
	}

	if fr1 == fr2 && tr1 == tr2 {
		lo, hi := fr1, tr1
		if lo > hi {
			lo, hi = hi, lo
		}
		var out []combinedrange.HoleCards
		for r := lo; r <= hi; r++ {
			out = append(out, expandPair(r)...)
		}
		return out, nil
	}
	if fr1 == tr1 && fr1 != fr2 && tr1 != tr2 {
		lo, hi := fr2, tr2
		if lo > hi {
			lo, hi = hi, lo
		}
		var out []combinedrange.HoleCards
		for r := lo; r <= hi; r++ {
			out = append(out, expandTwoRank(fr1, r, fs)...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("range %q-%q must share a high card or both be pairs", fromTok, toTok)
}

// allCombos returns every two-card combo in the deck, for the "random"
// token that stands in for an unknown/unspecified range.
func allCombos() []combinedrange.HoleCards {
	var out []combinedrange.HoleCards
	for r1 := card.Two; r1 <= card.Ace; r1++ {
		for s1 := card.Spade; s1 <= card.Diamond; s1++ {
			c1 := card.New(r1, s1)
			for r2 := r1; r2 <= card.Ace; r2++ {
				for s2 := card.Spade; s2 <= card.Diamond; s2++ {
					c2 := card.New(r2, s2)
					if c1 >= c2 {
						continue
					}
					out = append(out, combinedrange.HoleCards{c1, c2})
				}
			}
		}
	}
	return out
}

// expandPair returns all 6 combos of a pocket pair.
func expandPair(r card.Rank) []combinedrange.HoleCards {
	var out []combinedrange.HoleCards
	for s1 := card.Spade; s1 <= card.Diamond; s1++ {
		for s2 := s1 + 1; s2 <= card.Diamond; s2++ {
			out = append(out, combinedrange.HoleCards{card.New(r, s1), card.New(r, s2)})
		}
	}
	return out
}

// expandTwoRank returns the combos of two distinct ranks matching the
// requested suitedness: 4 suited combos, 12 offsuit combos, or all 16.
func expandTwoRank(hi, lo card.Rank, s suitedness) []combinedrange.HoleCards {
	var out []combinedrange.HoleCards
	for s1 := card.Spade; s1 <= card.Diamond; s1++ {
		for s2 := card.Spade; s2 <= card.Diamond; s2++ {
			matchSuited := s1 == s2
			switch s {
			case suited:
				if !matchSuited {
					continue
				}
			case offsuit:
				if matchSuited {
					continue
				}
			}
			out = append(out, combinedrange.HoleCards{card.New(hi, s1), card.New(lo, s2)})
		}
	}
	return out
}
