package equity

import (
	"fmt"
	"strings"
)

// String renders a human-readable summary, one line per player.
func (r Results) String() string {
	var b strings.Builder
	mode := "monte carlo"
	if r.Exact {
		mode = "exact"
	}
	fmt.Fprintf(&b, "%s, %d hands evaluated, %s, %.0f hands/sec\n", mode, r.HandsEvaluated, r.Elapsed, r.HandsPerSecond)
	if r.Exact {
		fmt.Fprintf(&b, "preflop combos %d (unique %d, skipped %d), %.1f%% complete\n",
			r.PreflopCombos, r.UniquePreflopCombos, r.SkippedPreflopCombos, r.Progress*100)
	}
	if r.Starved {
		b.WriteString("warning: gave up after too many consecutive failed samples\n")
	}
	for p := 0; p < r.Players; p++ {
		fmt.Fprintf(&b, "player %d: win %.2f%% (%d) tie %.2f%% (%d)\n",
			p, r.Win[p]*100, r.WinCount[p], r.Tie[p]*100, r.TieCount[p])
	}
	return b.String()
}

// CSV renders the same results as a header row plus one data row per player.
func (r Results) CSV() string {
	var b strings.Builder
	b.WriteString("player,win,tie,win_count,tie_count,stdev\n")
	for p := 0; p < r.Players; p++ {
		var stdev float64
		if p < len(r.Stdev) {
			stdev = r.Stdev[p]
		}
		fmt.Fprintf(&b, "%d,%.6f,%.6f,%d,%d,%.6f\n", p, r.Win[p], r.Tie[p], r.WinCount[p], r.TieCount[p], stdev)
	}
	return b.String()
}
