package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/usrn-labs/streetwise/internal/analysis"
	"github.com/usrn-labs/streetwise/internal/collection"
	"github.com/usrn-labs/streetwise/internal/coordinator"
	"github.com/usrn-labs/streetwise/internal/merge"
	"github.com/usrn-labs/streetwise/internal/normalize"
	"github.com/usrn-labs/streetwise/internal/resolver"
	"github.com/usrn-labs/streetwise/internal/store"
	"github.com/usrn-labs/streetwise/internal/summary"
	"github.com/usrn-labs/streetwise/pkg/nuar"
	"github.com/usrn-labs/streetwise/pkg/osngd"
)

// initStore opens the configured analytical store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// buildService wires the full analysis pipeline from config. The caller owns
// the returned store and must close it.
func buildService(ctx context.Context) (*analysis.Service, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	ngdClient := osngd.NewClient(cfg.OS.Key,
		osngd.WithBaseURL(cfg.OS.BaseURL),
		osngd.WithRateLimit(cfg.OS.RateLimit, int(cfg.OS.RateLimit)),
	)

	var nuarClient nuar.Client
	if cfg.NUAR.Token != "" {
		nuarClient = nuar.NewClient(cfg.NUAR.Token, nuar.WithBaseURL(cfg.NUAR.BaseURL))
	}

	rules, err := merge.LoadRules(cfg.Rules.Path)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	res := resolver.New(st, cfg.Resolver.BufferMetres)
	fetchers := collection.NewSet(ngdClient, st, nuarClient, cfg.OS.PageSize)
	coord := coordinator.New(res, fetchers, time.Duration(cfg.Fetch.TimeoutSecs)*time.Second)

	svc := analysis.NewService(coord, normalize.New(normalize.DefaultMapping()), merge.NewEngine(rules))
	return svc, st, nil
}

// buildSummarizer returns nil when no Anthropic key is configured.
func buildSummarizer() *summary.Summarizer {
	if cfg.Anthropic.Key == "" {
		return nil
	}
	return summary.New(summary.NewCompleter(cfg.Anthropic.Key, cfg.Anthropic.Model))
}
