/*
Copyright 2025 The CertSentry Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
	"github.com/certsentry/certsentry/pkg/certsentry/constants"
	"github.com/certsentry/certsentry/pkg/certsentry/coordinator"
	"github.com/certsentry/certsentry/pkg/certsentry/cursor"
	"github.com/certsentry/certsentry/pkg/certsentry/database"
	"github.com/certsentry/certsentry/pkg/certsentry/dedupe"
	"github.com/certsentry/certsentry/pkg/certsentry/filter"
	"github.com/certsentry/certsentry/pkg/certsentry/health"
	"github.com/certsentry/certsentry/pkg/certsentry/instrumentation"
	"github.com/certsentry/certsentry/pkg/certsentry/loglist"
	"github.com/certsentry/certsentry/pkg/certsentry/platform"
	"github.com/certsentry/certsentry/pkg/certsentry/sink"
	"github.com/certsentry/certsentry/pkg/certsentry/stats"
	"github.com/certsentry/certsentry/pkg/certsentry/watchlist"
)

// NewCmdRun describes the CLI command to run the monitor.
func NewCmdRun(out io.Writer) *cobra.Command {
	return NewCmd(out, "run").
		WithDescription("Monitors CT logs and reports watchlist matches").
		WithFlags(func(f *pflag.FlagSet) {
			f.StringVar(&opts.WebhookURL, "webhook-url", "", "POST every match to this URL, overriding the configuration")
			f.StringVar(&opts.WebhookSecret, "webhook-secret", "", "HMAC-SHA256 secret for webhook signatures")
			f.IntVar(&opts.WebhookTimeoutSecs, "webhook-timeout", 0, "Webhook delivery timeout in seconds")
			f.BoolVar(&opts.NoWebhook, "no-webhook", false, "Disable the webhook sink even when configured")
			f.BoolVar(&opts.NoDedupe, "no-dedupe", false, "Report every occurrence of a certificate, including duplicates")
			f.BoolVar(&opts.ShowStats, "stats", false, "Log periodic throughput statistics")
			f.IntVar(&opts.StatsIntervalSecs, "stats-interval", 0, "Seconds between statistics reports")
			f.StringVar(&opts.RootDomainsFile, "root-domains", "", "File of root domains; matches outside it are dropped")
			f.StringVarP(&opts.OutputFormat, "output", "o", "", "Match output format (human, json, csv, silent)")
			f.StringVar(&opts.OutputFile, "output-file", "", "Write matches to this file instead of stdout")
			f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
		}).
		NoArgs(doRun)
}

func doRun(out io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}
	cfg.ApplyOptions(opts)
	applyConfigLogLevel(cfg)

	return runMonitor(ctx, out, cfg)
}

func runMonitor(ctx context.Context, out io.Writer, cfg *config.Config) error {
	logs, err := loglist.FromConfig(ctx, &cfg.CTLogs, loglist.Fetch)
	if err != nil {
		return errors.Wrap(err, "discovering logs")
	}
	if len(logs) == 0 {
		return errors.New("no logs to monitor")
	}

	w, err := watchlist.FromConfig(cfg)
	if err != nil {
		return err
	}
	if global, programs := w.Size(); global+programs == 0 && !platformsEnabled(cfg) {
		logrus.Warnf("watchlist is empty; nothing will ever match")
	}

	var db *database.Store
	if cfg.Database.Enabled {
		db, err = database.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return errors.Wrap(err, "connecting to database")
		}
		defer db.Close()
		if err := db.Init(ctx); err != nil {
			return errors.Wrap(err, "initializing database schema")
		}
	}

	store, err := cursorStore(cfg, db)
	if err != nil {
		return err
	}
	defer store.Close()

	sinks, closeSinks, err := buildSinks(ctx, out, cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	dedupeSet, err := dedupeFromConfig(cfg)
	if err != nil {
		return err
	}

	var rootFilter *filter.RootFilter
	if opts.RootDomainsFile != "" {
		rootFilter, err = filter.Load(opts.RootDomainsFile)
		if err != nil {
			return errors.Wrap(err, "loading root domains")
		}
		logrus.Infof("root filter active with %d domains", rootFilter.Size())
	}

	tracker := health.NewTracker()

	var metrics *instrumentation.Metrics
	if cfg.Metrics.Enabled {
		metrics = instrumentation.New()
		sinks.SetObserver(metrics)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, tracker.Stats); err != nil {
				logrus.Errorf("metrics server: %v", err)
			}
		}()
	}

	collector := stats.New()
	if cfg.Stats.Enabled {
		go collector.Run(ctx, cfg.Stats.StatsInterval())
	}

	if sources := platformSources(cfg); len(sources) > 0 {
		go platform.NewSyncManager(sources, w, cfg.Platforms.SyncInterval()).Run(ctx)
	}

	return coordinator.New(coordinator.Options{
		Logs:          logs,
		Watchlist:     w,
		Cursor:        store,
		Sinks:         sinks,
		Stats:         collector,
		Health:        tracker,
		Dedupe:        dedupeSet,
		RootFilter:    rootFilter,
		DB:            db,
		Metrics:       metrics,
		ParsePrecerts: cfg.ParsePrecertsEnabled(),
		BatchSize:     cfg.CTLogs.BatchSize,
		PollInterval:  cfg.CTLogs.PollInterval(),
	}).Run(ctx)
}

func cursorStore(cfg *config.Config, db *database.Store) (cursor.Store, error) {
	if cfg.CTLogs.StateBackend == constants.StateBackendDatabase {
		return cursor.NewDatabaseStore(db), nil
	}
	store, err := cursor.NewFileStore(cfg.CTLogs.StateFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening state file")
	}
	return store, nil
}

// buildSinks assembles the terminal sink plus the optional webhook and
// Redis sinks. The returned closer releases the output file, if any.
func buildSinks(ctx context.Context, out io.Writer, cfg *config.Config) (*sink.Multi, func(), error) {
	closer := func() {}
	if cfg.Output.File != "" {
		f, err := os.OpenFile(cfg.Output.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening output file")
		}
		out = f
		closer = func() { f.Close() }
	}

	var terminal sink.Sink
	switch cfg.Output.Format {
	case constants.OutputFormatJSON:
		terminal = sink.NewJSON(out)
	case constants.OutputFormatCSV:
		terminal = sink.NewCSV(out)
	case constants.OutputFormatSilent:
		terminal = sink.Silent{}
	default:
		terminal = sink.NewHuman(out, cfg.Output.NoColor)
	}

	sinks := sink.NewMulti(terminal)

	if cfg.Webhook != nil {
		sinks.Register(sink.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.WebhookTimeout()))
	}

	if cfg.Redis.Enabled {
		r, err := sink.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.Channel, cfg.Redis.QueueKey, cfg.Redis.MaxQueueSize)
		if err != nil {
			closer()
			return nil, nil, errors.Wrap(err, "connecting to redis")
		}
		sinks.Register(r)
	}
	return sinks, closer, nil
}

func dedupeFromConfig(cfg *config.Config) (dedupe.Set, error) {
	if !cfg.DedupeEnabled() {
		return nil, nil
	}
	if cfg.Dedupe.MaxEntries > 0 {
		return dedupe.NewLRUSet(cfg.Dedupe.MaxEntries)
	}
	return dedupe.NewSet(), nil
}

func platformSources(cfg *config.Config) []platform.Source {
	var sources []platform.Source
	if cfg.Platforms.HackerOne.Enabled {
		sources = append(sources, platform.NewHackerOne(cfg.Platforms.HackerOne.Username, cfg.Platforms.HackerOne.APIToken))
	}
	if cfg.Platforms.Intigriti.Enabled {
		sources = append(sources, platform.NewIntigriti(cfg.Platforms.Intigriti.APIToken))
	}
	return sources
}

func platformsEnabled(cfg *config.Config) bool {
	return cfg.Platforms.HackerOne.Enabled || cfg.Platforms.Intigriti.Enabled
}
