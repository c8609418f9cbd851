// Package equity implements the all-in equity engine (C5): it merges
// per-player hole-card ranges through a combined range, then computes each
// player's win/tie probability either by exhaustive enumeration of the
// remaining board or by Monte Carlo sampling, parallelized across workers
// that share a mutex-guarded result accumulator and a suit-isomorphism
// preflop cache.
package equity

import (
	"context"
	"fmt"
	"math/bits"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/combinedrange"
	"github.com/lox/equityprobe/internal/randutil"
)

// Mode selects exact enumeration, Monte Carlo sampling, or lets the
// calculator pick based on the size of the remaining enumeration space.
type Mode int

const (
	Auto Mode = iota
	Enumerate
	MonteCarlo
)

// SamplingMode selects how Monte Carlo draws its samples.
type SamplingMode int

const (
	// UniformRejection draws an independent uniform sample every time,
	// discarding and redrawing on card conflicts.
	UniformRejection SamplingMode = iota
	// RandomWalk shuffles each combined range once, then advances every
	// range's cursor one combo per sample while drawing a fresh board each
	// time; a sample with any card conflict is discarded whole and the walk
	// moves on to the next step. Cheaper per sample, at the cost of
	// adjacent samples being correlated.
	RandomWalk
)

// autoEnumerationLimit is the largest exact-enumeration deal count Auto
// mode will run before falling back to Monte Carlo.
const autoEnumerationLimit = 50_000_000

// Options configures a Calculator.
type Options struct {
	Board     []card.Card
	DeadCards []card.Card
	// Ranges holds one hole-card range per seated player, in seat order.
	Ranges [][]combinedrange.HoleCards

	Mode     Mode
	Sampling SamplingMode

	// MaxJoinSize bounds CombinedRange merging (see combinedrange.JoinRanges).
	// Zero uses a generous default.
	MaxJoinSize uint64

	// StdevTarget, if nonzero, stops Monte Carlo sampling once every
	// player's win+tie equity standard error drops below it.
	StdevTarget float64
	TimeLimit   time.Duration
	HandLimit   uint64

	Workers        int
	UpdateInterval time.Duration
	Callback       func(Results)

	// Clock is used for elapsed-time stop conditions (TimeLimit). Nil uses
	// quartz.NewReal(); tests inject a quartz.Mock for determinism.
	Clock quartz.Clock
}

// Results is a point-in-time snapshot of accumulated equity.
type Results struct {
	Players int

	// Win and Tie are each player's equity share (clean win, or an even
	// split of a tied pot), normalized to [0,1] and summing to 1 across
	// all players combined.
	Win []float64
	Tie []float64

	// WinCount and TieCount are the raw hand counts behind Win/Tie: how
	// many evaluated hands each player won outright, or tied for best in.
	WinCount []uint64
	TieCount []uint64

	// WinsByPlayerMask is the full histogram this engine accumulates
	// internally: index by a bitmask of which players tied for best hand
	// (bit p set means player p was among the winners), value is the
	// weighted hand count. Index 0 is always 0 — there is always at least
	// one winner. Win/Tie/WinCount/TieCount are all derived from this.
	WinsByPlayerMask []uint64

	HandsEvaluated uint64

	// PreflopCombos, UniquePreflopCombos and SkippedPreflopCombos only
	// apply to exact enumeration: the total conflict-free preflop deals
	// this calculation covers, how many distinct suit-canonicalized
	// preflop ids actually required a postflop enumeration (as opposed to
	// a cache hit), and how many decoded preflop indices were discarded
	// for conflicting with another combined-range group.
	PreflopCombos        uint64
	UniquePreflopCombos  uint64
	SkippedPreflopCombos uint64

	// Stdev is each player's running standard error of its win+tie equity
	// estimate, meaningful for Monte Carlo's StdevTarget stop condition.
	Stdev []float64

	// Progress is the fraction of the exact-enumeration preflop space
	// visited so far, in [0,1]. Always 0 for Monte Carlo, which has no
	// fixed amount of work to divide by.
	Progress float64

	Elapsed        time.Duration
	HandsPerSecond float64

	Exact    bool
	Finished bool
	// Starved reports that Monte Carlo gave up after
	// maxConsecutiveSampleFailures consecutive failed draws rather than
	// running out its stop condition normally — the configured ranges are
	// too narrow (relative to the board and each other) to ever produce a
	// conflict-free sample.
	Starved bool
}

type accumulator struct {
	mu                   sync.Mutex
	players              int
	winsByPlayerMask     []uint64
	hands                uint64
	uniquePreflopCombos  uint64
	skippedPreflopCombos uint64
	starved              bool
}

func newAccumulator(players int) *accumulator {
	return &accumulator{players: players, winsByPlayerMask: make([]uint64, 1<<uint(players))}
}

func (a *accumulator) snapshot() Results {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Results{
		Players:              a.players,
		Win:                  make([]float64, a.players),
		Tie:                  make([]float64, a.players),
		WinCount:             make([]uint64, a.players),
		TieCount:             make([]uint64, a.players),
		WinsByPlayerMask:     append([]uint64(nil), a.winsByPlayerMask...),
		HandsEvaluated:       a.hands,
		UniquePreflopCombos:  a.uniquePreflopCombos,
		SkippedPreflopCombos: a.skippedPreflopCombos,
		Starved:              a.starved,
	}
	if a.hands == 0 {
		return r
	}

	for mask, w := range a.winsByPlayerMask {
		if w == 0 {
			continue
		}
		popcount := bits.OnesCount(uint(mask))
		for p := 0; p < a.players; p++ {
			if mask&(1<<uint(p)) == 0 {
				continue
			}
			if popcount == 1 {
				r.WinCount[p] += w
				r.Win[p] += float64(w)
			} else {
				r.TieCount[p] += w
				r.Tie[p] += float64(w) / float64(popcount)
			}
		}
	}
	for p := 0; p < a.players; p++ {
		r.Win[p] /= float64(a.hands)
		r.Tie[p] /= float64(a.hands)
	}
	return r
}

func (a *accumulator) handsCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hands
}

func (a *accumulator) markStarved() {
	a.mu.Lock()
	a.starved = true
	a.mu.Unlock()
}

// stderr returns player p's standard error of its win+tie equity estimate,
// using the running hand count as the sample size. Used by Monte Carlo's
// StdevTarget stop condition and reported on Results as Stdev.
func (a *accumulator) stderr(p int) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.hands < 2 {
		return 1
	}
	var sum float64
	for mask, w := range a.winsByPlayerMask {
		if w == 0 || mask&(1<<uint(p)) == 0 {
			continue
		}
		share := float64(w)
		if popcount := bits.OnesCount(uint(mask)); popcount > 1 {
			share /= float64(popcount)
		}
		sum += share
	}
	mean := sum / float64(a.hands)
	variance := mean * (1 - mean)
	if variance < 0 {
		variance = 0
	}
	return sqrt(variance / float64(a.hands))
}

func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	// Newton's method: callers only need a handful of correct digits to
	// compare against a user-supplied StdevTarget, and pulling in a whole
	// math import's worth of floating point machinery for one sqrt isn't
	// worth it when a few iterations converges to full float64 precision.
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// Calculator computes equity for a fixed board/dead-card state and a set
// of per-player ranges.
type Calculator struct {
	opts     Options
	players  int
	combined []combinedrange.CombinedRange
	order    []int

	board     []card.Card
	boardMask uint64
	deadMask  uint64

	deckAvailable []card.Card // full deck minus board and dead cards
	boardNeeded   int

	acc   *accumulator
	cache *preflopCache

	stop      atomic.Bool
	nextBatch atomic.Uint64
	exact     bool

	preflopCombosTotal uint64
	preflopSpaceTotal  uint64

	g         *errgroup.Group
	clock     quartz.Clock
	startedAt time.Time
}

// NewCalculator validates opts, filters every player's range against the
// known board and dead cards, and builds the merged combined ranges. It
// does no enumeration or sampling work itself.
func NewCalculator(opts Options) (*Calculator, error) {
	players := len(opts.Ranges)
	if players < 1 || players > combinedrange.MaxPlayers {
		return nil, fmt.Errorf("equity: player count %d out of range [1,%d]", players, combinedrange.MaxPlayers)
	}
	if len(opts.Board) > 5 {
		return nil, fmt.Errorf("equity: board has %d cards, max 5", len(opts.Board))
	}

	var known uint64
	for _, c := range opts.Board {
		if known&c.Mask() != 0 {
			return nil, fmt.Errorf("equity: duplicate board card %s", c)
		}
		known |= c.Mask()
	}
	var deadMask uint64
	for _, c := range opts.DeadCards {
		if known&c.Mask() != 0 {
			return nil, fmt.Errorf("equity: dead card %s conflicts with another known card", c)
		}
		known |= c.Mask()
		deadMask |= c.Mask()
	}
	var boardMask uint64
	for _, c := range opts.Board {
		boardMask |= c.Mask()
	}
	for p, rng := range opts.Ranges {
		if len(rng) == 0 {
			return nil, fmt.Errorf("equity: player %d has an empty range", p)
		}
	}

	// Static feasibility: every seated player needs 2 hole cards and the
	// board needs 5, and dead cards consume deck too — all from the same
	// 52-card deck. Checked before any deck/deal accounting, since a
	// configuration that fails it can still slip past the per-range and
	// board-size checks above (e.g. too many players with only one or two
	// dead cards and no board dealt yet).
	if need := 2*players + bits.OnesCount64(deadMask) + 5; need > 52 {
		return nil, fmt.Errorf("equity: %d players plus dead cards and a full board need %d cards, only 52 available", players, need)
	}

	// A hole-card combo that overlaps a known (board or dead) card can
	// never be dealt, so it is dropped from its player's range entirely
	// before ranges are joined — not rejected later, once it has already
	// conflicted its way through a deal.
	excluded := boardMask | deadMask
	filteredRanges := make([][]combinedrange.HoleCards, players)
	for p, rng := range opts.Ranges {
		filtered := make([]combinedrange.HoleCards, 0, len(rng))
		for _, hc := range rng {
			if (hc[0].Mask()|hc[1].Mask())&excluded != 0 {
				continue
			}
			filtered = append(filtered, hc)
		}
		if len(filtered) == 0 {
			return nil, fmt.Errorf("equity: player %d's range is empty after removing board/dead-card conflicts", p)
		}
		filteredRanges[p] = filtered
	}

	maxJoin := opts.MaxJoinSize
	if maxJoin == 0 {
		maxJoin = 10_000
	}
	combined := combinedrange.JoinRanges(filteredRanges, maxJoin)
	for _, g := range combined {
		if len(g.Combos) == 0 {
			return nil, fmt.Errorf("equity: players %v have no conflict-free combination of hole cards between them", g.Players)
		}
	}

	usedForDeck := boardMask | deadMask
	deck := make([]card.Card, 0, card.Count)
	for c := card.Card(0); c < card.Count; c++ {
		if usedForDeck&c.Mask() == 0 {
			deck = append(deck, c)
		}
	}
	boardNeeded := 5 - len(opts.Board)
	if len(deck) < boardNeeded {
		return nil, fmt.Errorf("equity: not enough undealt cards (%d) to complete a %d-card board", len(deck), boardNeeded)
	}

	clock := opts.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	fixedBoard := append([]card.Card{}, opts.Board...)

	calc := &Calculator{
		opts:          opts,
		players:       players,
		combined:      combined,
		order:         playerOrder(combined),
		board:         fixedBoard,
		boardMask:     boardMask,
		deadMask:      deadMask,
		deckAvailable: deck,
		boardNeeded:   boardNeeded,
		acc:           newAccumulator(players),
		cache:         newPreflopCache(),
		clock:         clock,
	}
	return calc, nil
}

// dealCount estimates the total number of (board, combo) pairs exact
// enumeration would have to visit, used to pick Auto mode.
func (c *Calculator) dealCount() uint64 {
	boards := binomial(len(c.deckAvailable), c.boardNeeded)
	var combos uint64 = 1
	for _, g := range c.combined {
		combos *= uint64(len(g.Combos))
	}
	return boards * combos
}

// Start launches the configured number of worker goroutines and returns
// immediately; call Wait to block for completion.
func (c *Calculator) Start(ctx context.Context) error {
	switch c.opts.Mode {
	case Enumerate:
		c.exact = true
	case MonteCarlo:
		c.exact = false
	default:
		c.exact = c.dealCount() <= autoEnumerationLimit
	}

	if c.exact {
		c.preflopCombosTotal = c.PreflopCombinationCount()
		c.preflopSpaceTotal = totalPreflopIndexSpace(c.combined)
	}

	workers := c.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	c.g = g
	c.startedAt = c.clock.Now()

	if !c.exact && c.opts.Sampling == RandomWalk {
		rng := randutil.NewXoroshiro128Plus(uint64(c.startedAt.UnixNano()))
		for i := range c.combined {
			c.combined[i].Shuffle(xoroshiroAsRand(rng))
		}
	}

	for w := 0; w < workers; w++ {
		seed := uint64(w)*0x9e3779b97f4a7c15 + uint64(c.clock.Now().UnixNano())
		if c.exact {
			g.Go(func() error { return c.runEnumerationWorker(gctx) })
		} else {
			g.Go(func() error { return c.runMonteCarloWorker(gctx, seed) })
		}
	}

	if c.opts.Callback != nil && c.opts.UpdateInterval > 0 {
		g.Go(func() error { return c.runProgressReporter(gctx) })
	}

	return nil
}

// Stop requests every worker to finish its current batch and return.
func (c *Calculator) Stop() { c.stop.Store(true) }

// Wait blocks until every worker has returned, then returns the first
// worker error (if any) and the final results snapshot.
func (c *Calculator) Wait() (Results, error) {
	if c.g == nil {
		return c.acc.snapshot(), fmt.Errorf("equity: Wait called before Start")
	}
	err := c.g.Wait()
	res := c.finalize(c.acc.snapshot())
	res.Finished = true
	return res, err
}

// Results returns a snapshot of accumulated equity without stopping the
// calculator.
func (c *Calculator) Results() Results {
	return c.finalize(c.acc.snapshot())
}

// finalize fills in the fields a snapshot can't compute on its own: mode,
// preflop-combo totals, elapsed time/throughput, per-player stdev and
// overall progress.
func (c *Calculator) finalize(r Results) Results {
	r.Exact = c.exact
	r.PreflopCombos = c.preflopCombosTotal
	r.Elapsed = c.clock.Now().Sub(c.startedAt)
	if r.Elapsed > 0 {
		r.HandsPerSecond = float64(r.HandsEvaluated) / r.Elapsed.Seconds()
	}
	r.Stdev = make([]float64, c.players)
	for p := 0; p < c.players; p++ {
		r.Stdev[p] = c.acc.stderr(p)
	}
	r.Progress = c.progressFraction()
	return r
}

// progressFraction returns the exact-enumeration preflop space completion
// ratio. Monte Carlo has no fixed amount of work, so it always reports 0.
func (c *Calculator) progressFraction() float64 {
	if !c.exact || c.preflopSpaceTotal == 0 {
		return 0
	}
	f := float64(c.nextBatch.Load()) / float64(c.preflopSpaceTotal)
	if f > 1 {
		f = 1
	}
	return f
}

// SetTimeLimit overrides the configured time limit. A non-positive value
// disables it. Must be called before Start; the engine reads it once per
// worker loop iteration, not continuously.
func (c *Calculator) SetTimeLimit(d time.Duration) { c.opts.TimeLimit = d }

// SetHandLimit overrides the configured hand limit. A value of 0 disables it.
func (c *Calculator) SetHandLimit(n uint64) { c.opts.HandLimit = n }

// SetStdevTarget overrides the configured Monte Carlo standard-error stop
// threshold. A non-positive value disables it.
func (c *Calculator) SetStdevTarget(target float64) { c.opts.StdevTarget = target }

// SetCallback overrides the periodic progress callback. Must be called
// before Start.
func (c *Calculator) SetCallback(fn func(Results)) { c.opts.Callback = fn }

// SetUpdateInterval overrides how often the progress callback fires.
// Must be called before Start.
func (c *Calculator) SetUpdateInterval(d time.Duration) { c.opts.UpdateInterval = d }

// SetClock overrides the clock used for elapsed-time stop conditions. Must
// be called before Start.
func (c *Calculator) SetClock(clock quartz.Clock) { c.clock = clock }

// HandRanges returns the per-player hole-card ranges this calculator was
// built from, in seat order.
func (c *Calculator) HandRanges() [][]combinedrange.HoleCards { return c.opts.Ranges }

// PreflopCombinationCount returns how many distinct (conflict-free)
// preflop deals the combined ranges produce, before any board is dealt.
func (c *Calculator) PreflopCombinationCount() uint64 {
	var total uint64
	iterateDeals(c.combined, 0, func(deal) bool { total++; return true })
	return total
}

// PostflopCombinationCount returns how many board completions exact
// enumeration would visit for the configured board.
func (c *Calculator) PostflopCombinationCount() uint64 {
	return binomial(len(c.deckAvailable), c.boardNeeded)
}

func (c *Calculator) runProgressReporter(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.UpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if c.stop.Load() {
				return nil
			}
			c.opts.Callback(c.finalize(c.acc.snapshot()))
			if c.shouldStop() {
				c.Stop()
				return nil
			}
		}
	}
}

// shouldStop evaluates the hand-limit, time-limit and stdev-target stop
// conditions shared by every worker kind.
func (c *Calculator) shouldStop() bool {
	if c.opts.HandLimit > 0 && c.acc.handsCount() >= c.opts.HandLimit {
		return true
	}
	if c.opts.TimeLimit > 0 && c.clock.Now().Sub(c.startedAt) >= c.opts.TimeLimit {
		return true
	}
	if !c.exact && c.opts.StdevTarget > 0 {
		for p := 0; p < c.players; p++ {
			if c.acc.stderr(p) > c.opts.StdevTarget {
				return false
			}
		}
		return true
	}
	return false
}
