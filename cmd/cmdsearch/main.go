// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/cmdsearch/cmd/cmdsearch/cli"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/palette"
	"github.com/bureau-foundation/cmdsearch/lib/paletteui"
	"github.com/bureau-foundation/cmdsearch/lib/recency"
	"github.com/bureau-foundation/cmdsearch/lib/searchservice"
	"github.com/bureau-foundation/cmdsearch/lib/shortcut"
	"github.com/bureau-foundation/cmdsearch/lib/version"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

type options struct {
	configPath    string
	corpus        string
	socketPath    string
	query         string
	logOutput     string
	metricsListen string
	startClosed   bool
	stay          bool
	status        bool
	showVersion   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("cmdsearch", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "configuration file (default: $CMDSEARCH_CONFIG, then built-in defaults)")
	flags.StringVar(&opts.corpus, "corpus", "", "search this JSONL corpus in process instead of the index service")
	flags.StringVar(&opts.socketPath, "socket", "", "index service socket (overrides service.socket_path)")
	flags.StringVarP(&opts.query, "query", "q", "", "initial query")
	flags.StringVar(&opts.logOutput, "log-output", "", "also write every log record to this file as JSON lines")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "serve palette metrics on this address while running")
	flags.BoolVar(&opts.startClosed, "closed", false, "start with the palette closed")
	flags.BoolVar(&opts.stay, "stay", false, "keep running after a result is chosen")
	flags.BoolVar(&opts.status, "status", false, "print the index service status and exit")
	flags.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: cmdsearch [flags]

Open the command palette. Type to search, ctrl+t to filter, enter to
open the selected result. The chosen URL is printed on exit.

Flags:
`)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return options{}, cli.Validation("%w", err)
	}
	if flags.NArg() > 0 {
		return options{}, cli.Validation("unexpected arguments: %v", flags.Args()).
			WithHint("Pass the initial query with --query.")
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "cmdsearch %s\n", version.Info())
		return nil
	}

	cfg, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.socketPath != "" {
		cfg.Service.SocketPath = opts.socketPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.status {
		return printStatus(ctx, stdout, cfg.Service.SocketPath)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return cli.Validation("cmdsearch needs an interactive terminal").
			WithHint("Use --status for a non-interactive check of the index service.")
	}

	// Stderr belongs to the alt screen while the program runs, so
	// warnings go to the status bar (and the file, if asked).
	tuiHandler := paletteui.NewTUILogHandler(slog.LevelWarn)
	logger := slog.New(tuiHandler)
	if opts.logOutput != "" {
		fileHandler, closeFile, err := cli.OpenFileLogHandler(opts.logOutput)
		if err != nil {
			return cli.Validation("cannot open log file %s: %w", opts.logOutput, err)
		}
		defer closeFile()
		logger = slog.New(paletteui.FanoutHandler{tuiHandler, fileHandler})
	}

	backend, err := openBackend(ctx, cfg, opts.corpus, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	store, closeStore, err := openRecentStore(cfg.Recent, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	compression, err := recency.ParseCompression(cfg.Recent.Compression)
	if err != nil {
		return cli.Validation("recent.compression: %w", err)
	}
	recent := recency.Open(ctx, store, recency.Options{
		Capacity:    cfg.Recent.Capacity,
		Compression: compression,
		Logger:      logger,
	})

	quickActions, err := loadQuickActions(cfg.QuickActions.Catalog)
	if err != nil {
		return err
	}

	debounceDelay, err := cfg.DebounceDelay()
	if err != nil {
		return cli.Validation("%w", err)
	}
	requestTimeout, err := cfg.RequestTimeout()
	if err != nil {
		return cli.Validation("%w", err)
	}

	registry := prometheus.NewRegistry()
	paletteMetrics := metrics.NewPalette(registry)
	if opts.metricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, opts.metricsListen, registry, logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	keys := shortcut.NewKeyMap(cfg.Shortcuts.Open, cfg.Shortcuts.Close)
	router := shortcut.NewRouter()
	notifier := paletteui.NewNotifier()
	navigator := paletteui.NewNavigator()

	controller, err := palette.New(palette.Options{
		Gateway:        backend.gateway,
		Users:          backend.users,
		Navigator:      navigator,
		Recent:         recent,
		QuickActions:   quickActions,
		Shortcuts:      shortcut.NewManager(router, keys, logger),
		Debounce:       debounceDelay,
		MinQueryLength: cfg.Search.MinQueryLength,
		Limit:          cfg.Search.Limit,
		RecentShown:    cfg.Search.RecentShown,
		RequestTimeout: requestTimeout,
		ClosePolicy:    closePolicy(cfg.Search.ClosePolicy),
		Observer:       notifier.Observe,
		Logger:         logger,
		Metrics:        paletteMetrics,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	defer controller.Shutdown()

	if !opts.startClosed {
		controller.Open()
		if opts.query != "" {
			controller.SetQuery(opts.query)
		}
	}

	model, err := paletteui.NewModel(paletteui.Options{
		Controller:     controller,
		Router:         router,
		Notifier:       notifier,
		Navigator:      navigator,
		QuitOnNavigate: !opts.stay,
		Shortcuts:      keys,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	tuiHandler.SetProgram(program)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return cli.Internal("running palette: %w", err)
	}

	if url := navigator.Last(); url != "" {
		fmt.Fprintln(stdout, url)
	}
	return nil
}

// printStatus asks the index service for its corpus summary.
func printStatus(ctx context.Context, stdout io.Writer, socketPath string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status, err := searchservice.NewClient(socketPath).Status(ctx)
	if err != nil {
		return cli.Transient("querying index service at %s: %w", socketPath, err).
			WithHint("Is cmdsearch-index running? Start it with: cmdsearch-index --corpus <file>")
	}
	fmt.Fprintf(stdout, "socket:    %s\ndocuments: %d\nusers:     %d\nloaded:    %s\n",
		socketPath, status.Documents, status.Users, status.LoadedAt.Format(time.RFC3339))
	return nil
}
