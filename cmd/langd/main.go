// Command langd runs the IDE daemon: a single-threaded request loop that
// speaks the length-prefixed framed protocol (internal/transport) over its
// own stdin/stdout. It is started once per editor session and torn down on
// Shutdown; everything configurable per-session (project root, watch
// settings, saved-state path) arrives later, over the wire, in the
// Initialize request.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/langd/internal/daemon"
	"github.com/standardbeagle/langd/internal/debug"
	"github.com/standardbeagle/langd/internal/transport"
	"github.com/standardbeagle/langd/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "langd",
		Usage:                  "IDE daemon: framed-pipe request loop over stdio",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log to the rotated debug log file instead of discarding",
			},
		},
		Action: runDaemon,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "langd: %v\n", err)
		os.Exit(1)
	}
}

// runDaemon is the only real action: it wires stdio into the framed
// transport and hands the daemon loop its reader/writer pair. Debug output
// must never reach stdout/stderr here — the pipe client reads raw frames
// on stdout — so PipeMode is set before anything else runs.
func runDaemon(c *cli.Context) error {
	debug.SetPipeMode(true)

	if c.Bool("debug") {
		logPath, err := debug.InitDebugLogFile()
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer debug.CloseDebugLog()
		debug.Log("startup", "langd %s, debug log at %s", version.Version, logPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		debug.LogTransport("received shutdown signal")
		cancel()
	}()

	reader := transport.NewReader(os.Stdin)
	writer := transport.NewWriter(os.Stdout)

	log := debug.Logger()
	if log == nil {
		log = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	d := daemon.New(reader, writer, log)

	return d.Run(ctx)
}
