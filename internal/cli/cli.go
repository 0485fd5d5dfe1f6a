// Package cli implements the planner command dispatch.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rlazarev/planner-go/internal/config"
	"github.com/rlazarev/planner-go/internal/logging"
	"github.com/rlazarev/planner-go/internal/server"
	"github.com/rlazarev/planner-go/internal/snapshot"
	"github.com/rlazarev/planner-go/internal/storage"
	"github.com/rlazarev/planner-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the planner CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		fmt.Println("planner", Version)
		return nil
	}

	subcommand := "serve"
	remaining := fs.Args()
	if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
		subcommand = remaining[0]
		remaining = remaining[1:]
	}

	switch subcommand {
	case "serve":
		return serveCommand(ctx, cfg)
	case "tui":
		return tuiCommand(ctx, cfg)
	case "demo":
		return demoCommand()
	case "export":
		return exportCommand(cfg, remaining)
	case "import":
		return importCommand(cfg, remaining)
	case "version":
		fmt.Println("planner", Version)
		return nil
	case "help":
		printUsage(fs, os.Stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// serveCommand runs the HTTP server until the context is cancelled.
func serveCommand(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel)

	store, err := storage.Open(cfg.DataFile)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(store, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "data", cfg.DataFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("stopped")
	return nil
}

func tuiCommand(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(cfg.DataFile)
	if err != nil {
		return err
	}
	return ui.Run(ctx, store)
}

// exportCommand writes the board as a JSON document.
func exportCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("planner export", flag.ContinueOnError)
	out := fs.String("o", "board.json", "Output file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.Open(cfg.DataFile)
	if err != nil {
		return err
	}
	board := snapshot.Export(store.Manager())
	if err := snapshot.WriteFile(*out, board); err != nil {
		return err
	}
	fmt.Printf("exported %d entities to %s\n", len(board.Entities), *out)
	return nil
}

// importCommand validates a JSON board document and replaces the data
// file with its contents.
func importCommand(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: planner import <board.json>")
	}
	data, err := snapshot.ReadFile(args[0])
	if err != nil {
		return err
	}

	store := storage.NewFileStore(cfg.DataFile)
	if err := snapshot.Import(store.Manager(), data); err != nil {
		return err
	}
	if err := store.Flush(); err != nil {
		return err
	}
	fmt.Printf("imported %s into %s\n", args[0], cfg.DataFile)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Usage: planner [flags] <command>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Run the HTTP API server (default)")
	fmt.Fprintln(w, "  tui      Browse the board in the terminal")
	fmt.Fprintln(w, "  demo     Run a seeded walk-through against an in-memory store")
	fmt.Fprintln(w, "  export   Write the board as a JSON document")
	fmt.Fprintln(w, "  import   Replace the data file from a JSON document")
	fmt.Fprintln(w, "  version  Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
