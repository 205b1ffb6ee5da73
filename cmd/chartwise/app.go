package main

import (
	"github.com/casualjim/chartwise"
	"github.com/casualjim/chartwise/analysis"
	"github.com/casualjim/chartwise/internal/config"
	"github.com/casualjim/chartwise/pkg/natsx"
	"github.com/casualjim/chartwise/provider"
	"github.com/casualjim/chartwise/providers"
	"github.com/casualjim/chartwise/secrets"
	"github.com/fogfish/opts"
)

func buildApp(cfg config.Config, flags globalFlags) (*chartwise.App, func(), error) {
	options := appOptions(cfg)
	options = append(options,
		chartwise.WithSecrets(secrets.Env(flags.envFile)),
		chartwise.WithTemplateFiles(flags.templates...),
	)

	cleanup := func() {}
	if cfg.NATSURL != "" {
		conn, err := natsx.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, chartwise.WithNATS(conn))
		cleanup = func() { _ = conn.Drain() }
	}

	app, err := chartwise.New(options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return app, cleanup, nil
}

// appOptions maps the environment configuration onto application options.
func appOptions(cfg config.Config) []opts.Option[chartwise.App] {
	engine := []opts.Option[analysis.Engine]{
		analysis.WithHistoryLimit(cfg.HistoryLimit),
		analysis.WithCallTimeout(cfg.CallTimeout),
	}

	var vendors []providers.BuiltInOption
	for _, id := range providers.BuiltInIDs() {
		v, ok := cfg.Vendors[id]
		if !ok {
			continue
		}
		var po []opts.Option[provider.Config]
		if v.BaseURL != "" {
			po = append(po, provider.WithBaseURL(v.BaseURL))
		}
		if v.RPS > 0 {
			po = append(po, provider.WithRateLimit(v.RPS, config.DefaultRateBurst))
		}
		vendors = append(vendors, providers.WithProviderConfig(id, po...))
	}

	return []opts.Option[chartwise.App]{
		chartwise.WithEngineOptions(engine...),
		chartwise.WithProviderOptions(vendors...),
		chartwise.WithEventsSubject(cfg.EventsSubject),
	}
}
