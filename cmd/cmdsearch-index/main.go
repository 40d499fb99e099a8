// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/cmdsearch/cmd/cmdsearch/cli"
	"github.com/bureau-foundation/cmdsearch/lib/config"
	"github.com/bureau-foundation/cmdsearch/lib/metrics"
	"github.com/bureau-foundation/cmdsearch/lib/searchindex"
	"github.com/bureau-foundation/cmdsearch/lib/searchservice"
	"github.com/bureau-foundation/cmdsearch/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}

type options struct {
	configPath    string
	corpus        string
	socketPath    string
	metricsListen string
	logLevel      string
	noWatch       bool
	showVersion   bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet("cmdsearch-index", pflag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "configuration file (default: $CMDSEARCH_CONFIG, then built-in defaults)")
	flags.StringVar(&opts.corpus, "corpus", "", "JSONL corpus to serve (overrides service.corpus)")
	flags.StringVar(&opts.socketPath, "socket", "", "socket to listen on (overrides service.socket_path)")
	flags.StringVar(&opts.metricsListen, "metrics-listen", "", "Prometheus endpoint address (overrides service.metrics_listen)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	flags.BoolVar(&opts.noWatch, "no-watch", false, "do not reload the corpus when the file changes")
	flags.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flags.Parse(args); err != nil {
		return options{}, cli.Validation("%w", err)
	}
	if flags.NArg() > 0 {
		return options{}, cli.Validation("unexpected arguments: %v", flags.Args())
	}
	return opts, nil
}

// settings is the configuration after flag overrides.
type settings struct {
	corpus        string
	socketPath    string
	metricsListen string
	watch         bool
}

func resolve(cfg *config.Config, opts options) (settings, error) {
	resolved := settings{
		corpus:        cfg.Service.Corpus,
		socketPath:    cfg.Service.SocketPath,
		metricsListen: cfg.Service.MetricsListen,
		watch:         cfg.WatchCorpus() && !opts.noWatch,
	}
	if opts.corpus != "" {
		resolved.corpus = opts.corpus
	}
	if opts.socketPath != "" {
		resolved.socketPath = opts.socketPath
	}
	if opts.metricsListen != "" {
		resolved.metricsListen = opts.metricsListen
	}
	if resolved.corpus == "" {
		return settings{}, cli.Validation("no corpus to serve").
			WithHint("Pass --corpus <file> or set service.corpus in the configuration.")
	}
	return resolved, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "cmdsearch-index %s\n", version.Info())
		return nil
	}
	level, err := cli.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	logger := cli.NewLogger(level)
	slog.SetDefault(logger)

	cfg, err := cli.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	resolved, err := resolve(cfg, opts)
	if err != nil {
		return err
	}
	return serve(ctx, resolved, logger, nil)
}

// serve runs until ctx is cancelled. ready, when set, is called once
// the socket accepts connections.
func serve(ctx context.Context, resolved settings, logger *slog.Logger, ready func()) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	indexMetrics := metrics.NewIndex(registry)

	corpus, err := searchindex.LoadCorpus(resolved.corpus)
	if errors.Is(err, fs.ErrNotExist) {
		return cli.NotFound("corpus %s does not exist", resolved.corpus)
	}
	if err != nil {
		return cli.Validation("%w", err)
	}
	index := searchindex.New(corpus, searchindex.Options{Logger: logger, Metrics: indexMetrics})
	logger.Info("corpus loaded",
		"path", resolved.corpus,
		"documents", len(corpus.Documents),
		"users", len(corpus.Users),
		"version", version.Short(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The first fatal error from any component stops the others.
	failures := make(chan error, 3)

	if resolved.watch {
		go func() {
			if err := searchindex.Watch(ctx, resolved.corpus, index, searchindex.WatchOptions{Logger: logger}); err != nil {
				failures <- cli.Internal("watching corpus: %w", err)
			}
		}()
	}

	if resolved.metricsListen != "" {
		go func() {
			if err := metrics.Serve(ctx, resolved.metricsListen, registry, logger); err != nil {
				failures <- cli.Transient("metrics endpoint: %w", err)
			}
		}()
	}

	server := searchservice.NewSocketServer(resolved.socketPath, logger)
	searchservice.Register(server, index, searchservice.HandlerOptions{Logger: logger, Metrics: indexMetrics})

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ctx)
	}()
	if ready != nil {
		go func() {
			select {
			case <-server.Ready():
				ready()
			case <-ctx.Done():
			}
		}()
	}

	select {
	case err := <-served:
		if err != nil {
			return cli.Transient("%w", err)
		}
		return nil
	case err := <-failures:
		cancel()
		<-served
		return err
	}
}
