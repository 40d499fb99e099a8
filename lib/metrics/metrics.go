// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus collectors exported by the
// palette and by the search index service, plus the HTTP endpoint
// that serves them.
//
// Constructors take a prometheus.Registerer. A nil registerer gives
// working collectors that are simply never exported, which is what
// tests and the interactive binary without --metrics-listen use.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cmdsearch"

// latencyBuckets cover a local index (sub-millisecond) through a slow
// remote backend (seconds).
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Palette counts what the search controller does with each dispatch.
type Palette struct {
	Dispatches     prometheus.Counter
	StaleDiscards  prometheus.Counter
	Failures       prometheus.Counter
	ShortQueries   prometheus.Counter
	Selections     prometheus.Counter
	GatewayLatency prometheus.Histogram
}

// NewPalette creates the controller collectors and registers them
// with reg when it is non-nil.
func NewPalette(reg prometheus.Registerer) *Palette {
	m := &Palette{
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "dispatches_total",
			Help:      "Searches sent to the gateway.",
		}),
		StaleDiscards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "stale_discards_total",
			Help:      "Gateway responses dropped because a newer search had been issued.",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "failures_total",
			Help:      "Current searches that failed or timed out.",
		}),
		ShortQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "short_queries_total",
			Help:      "Queries rejected for being shorter than the minimum length.",
		}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "selections_total",
			Help:      "Results, recent items and quick actions selected.",
		}),
		GatewayLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "palette",
			Name:      "gateway_duration_seconds",
			Help:      "Gateway call duration, including calls whose response was discarded.",
			Buckets:   latencyBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Dispatches, m.StaleDiscards, m.Failures, m.ShortQueries, m.Selections, m.GatewayLatency)
	}
	return m
}

// Index covers the search index service.
type Index struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Documents       prometheus.Gauge
	Users           prometheus.Gauge
	Reloads         *prometheus.CounterVec
}

// NewIndex creates the index service collectors and registers them
// with reg when it is non-nil.
func NewIndex(reg prometheus.Registerer) *Index {
	m := &Index{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "requests_total",
			Help:      "Socket requests by action and outcome.",
		}, []string{"action", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "request_duration_seconds",
			Help:      "Socket request handling time.",
			Buckets:   latencyBuckets,
		}, []string{"action"}),
		Documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "documents",
			Help:      "Documents in the loaded corpus.",
		}),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "users",
			Help:      "Users in the loaded corpus.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "reloads_total",
			Help:      "Corpus reloads by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.RequestDuration, m.Documents, m.Users, m.Reloads)
	}
	return m
}

// Serve exposes gatherer on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownContext)
	}()

	logger.Info("metrics listening", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
