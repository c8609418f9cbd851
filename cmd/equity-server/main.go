// Command equity-server exposes the equity calculator over a websocket so
// remote clients can stream live progress for an all-in calculation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/lox/equityprobe/internal/eqconfig"
	"github.com/lox/equityprobe/internal/eqserver"
)

// CLI is the command-line interface for the equity websocket server.
type CLI struct {
	Addr    string `short:"a" help:"Address to listen on" default:":8765"`
	Config  string `help:"Path to an HCL config file with range presets and defaults" default:".equity.hcl"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
}

func main() {
	var cli CLI
	kong.Parse(&cli)

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

	srv := eqserver.NewServer(cli.Addr, cfg, log.Default())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatal("server error", "error", err)
	}
}
