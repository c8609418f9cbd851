// Command equity computes Texas Hold'em all-in equity for two or more
// players given their hole-card ranges and the current board/dead cards,
// by exact enumeration or Monte Carlo sampling.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/equityprobe/internal/card"
	"github.com/lox/equityprobe/internal/combinedrange"
	"github.com/lox/equityprobe/internal/eqconfig"
	"github.com/lox/equityprobe/internal/equity"
	"github.com/lox/equityprobe/internal/rangetext"
)

// CLI is the command-line interface for the equity calculator, following
// the same kong-driven, argument-plus-flags shape as poker-odds.
type CLI struct {
	Hands []string `arg:"" help:"Per-player ranges, space separated, e.g. 'AKs 22+' or 'AhKd 2c2d'" required:"true"`

	Board string `short:"b" help:"Community board cards, e.g. 'Td7s8h'"`
	Dead  string `short:"d" help:"Dead/removed cards not in anyone's hand or the board"`

	Config string `help:"Path to an HCL config file with range presets and defaults" default:".equity.hcl"`

	Mode     string        `help:"enumerate, montecarlo, or auto" enum:"enumerate,montecarlo,auto" default:"auto"`
	Sampling string        `help:"uniform or randomwalk (montecarlo only)" enum:"uniform,randomwalk" default:"uniform"`
	Stdev    float64       `help:"Monte Carlo standard-error stop threshold (0 uses the config's stdev_target)"`
	HandLim  uint64        `name:"hand-limit" help:"Stop after this many hands (0 disables)"`
	TimeLim  time.Duration `name:"time-limit" help:"Stop after this long (0 disables)"`
	Workers  int           `help:"Worker goroutines (0 uses the config's workers, where 0 means all CPUs)"`

	Format  string `help:"table or csv" enum:"table,csv" default:"table"`
	Watch   bool   `help:"Show a live-updating terminal view while the calculation runs"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli)

	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := eqconfig.Load(cli.Config)
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", "error", err)
	}

	ranges, err := parseRanges(cli.Hands, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		ctx.Exit(1)
	}

	var board, dead []card.Card
	if cli.Board != "" {
		board, err = card.Parse(cli.Board)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error parsing board: %v\n", err)
			ctx.Exit(1)
		}
	}
	if cli.Dead != "" {
		dead, err = card.Parse(cli.Dead)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error parsing dead cards: %v\n", err)
			ctx.Exit(1)
		}
	}

	stdev := cli.Stdev
	if stdev == 0 {
		stdev = cfg.Defaults.StdevTarget
	}
	workers := cli.Workers
	if workers == 0 {
		workers = cfg.Defaults.Workers
	}

	opts := equity.Options{
		Board:       board,
		DeadCards:   dead,
		Ranges:      ranges,
		Mode:        parseMode(cli.Mode),
		Sampling:    parseSampling(cli.Sampling),
		StdevTarget: stdev,
		TimeLimit:   cli.TimeLim,
		HandLimit:   cli.HandLim,
		Workers:     workers,
		MaxJoinSize: uint64(cfg.Defaults.MaxJoinSize),
	}

	calc, err := equity.NewCalculator(opts)
	if err != nil {
		log.Fatal("invalid calculation", "error", err)
	}
	log.Debug("combined ranges built", "preflop_combos", calc.PreflopCombinationCount(), "board_runouts", calc.PostflopCombinationCount())

	if cli.Watch {
		runWatch(calc)
		return
	}

	if err := calc.Start(context.Background()); err != nil {
		log.Fatal("failed to start calculation", "error", err)
	}
	res, err := calc.Wait()
	if err != nil {
		log.Fatal("calculation failed", "error", err)
	}
	printResults(res, cli.Format)
}

func parseMode(s string) equity.Mode {
	switch s {
	case "enumerate":
		return equity.Enumerate
	case "montecarlo":
		return equity.MonteCarlo
	default:
		return equity.Auto
	}
}

func parseSampling(s string) equity.SamplingMode {
	if s == "randomwalk" {
		return equity.RandomWalk
	}
	return equity.UniformRejection
}

// parseRanges turns each positional hand argument into a player range,
// checking config presets by name before falling back to range-text
// syntax.
func parseRanges(hands []string, cfg *eqconfig.Config) ([][]combinedrange.HoleCards, error) {
	ranges := make([][]combinedrange.HoleCards, len(hands))
	for i, h := range hands {
		h = strings.TrimSpace(h)
		if r, ok := cfg.PresetRange(h); ok {
			h = r
		}
		combos, err := rangetext.Parse(h)
		if err != nil {
			return nil, fmt.Errorf("player %d range %q: %w", i+1, hands[i], err)
		}
		ranges[i] = combos
	}
	return ranges, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	winStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	tieStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func printResults(res equity.Results, format string) {
	if format == "csv" {
		fmt.Print(res.CSV())
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", headerStyle.Render("player"), headerStyle.Render("win"), headerStyle.Render("tie"))
	for p := 0; p < res.Players; p++ {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p, winStyle.Render(fmt.Sprintf("%.2f%%", res.Win[p]*100)), tieStyle.Render(fmt.Sprintf("%.2f%%", res.Tie[p]*100)))
	}
	w.Flush()
	mode := "monte carlo"
	if res.Exact {
		mode = "exact"
	}
	fmt.Printf("\n%s, %d hands evaluated\n", mode, res.HandsEvaluated)
}

func runWatch(calc *equity.Calculator) {
	model := newEquityModel(calc)
	p := tea.NewProgram(model)

	calc.SetUpdateInterval(150 * time.Millisecond)
	calc.SetCallback(func(r equity.Results) { p.Send(resultsMsg(r)) })

	go func() {
		if err := calc.Start(context.Background()); err != nil {
			p.Send(errMsg(err))
			return
		}
		res, err := calc.Wait()
		if err != nil {
			p.Send(errMsg(err))
			return
		}
		p.Send(doneMsg(res))
	}()

	if _, err := p.Run(); err != nil {
		log.Fatal("tui error", "error", err)
	}
}
