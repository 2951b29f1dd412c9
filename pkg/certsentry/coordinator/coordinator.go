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

// Package coordinator runs the monitor: it spawns one poller per log,
// drains their shared queue on a single consumer, and drives the match
// pipeline of dedupe, watchlist, root filter and sink fan-out.
package coordinator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/certsentry/certsentry/pkg/certsentry/constants"
	"github.com/certsentry/certsentry/pkg/certsentry/ctlog"
	"github.com/certsentry/certsentry/pkg/certsentry/cursor"
	"github.com/certsentry/certsentry/pkg/certsentry/database"
	"github.com/certsentry/certsentry/pkg/certsentry/decoder"
	"github.com/certsentry/certsentry/pkg/certsentry/dedupe"
	"github.com/certsentry/certsentry/pkg/certsentry/filter"
	"github.com/certsentry/certsentry/pkg/certsentry/health"
	"github.com/certsentry/certsentry/pkg/certsentry/instrumentation"
	"github.com/certsentry/certsentry/pkg/certsentry/loglist"
	"github.com/certsentry/certsentry/pkg/certsentry/poller"
	"github.com/certsentry/certsentry/pkg/certsentry/sink"
	"github.com/certsentry/certsentry/pkg/certsentry/stats"
	"github.com/certsentry/certsentry/pkg/certsentry/watchlist"
)

// Options wire the pipeline. Watchlist, Cursor and Sinks are required;
// Dedupe, RootFilter, DB and Metrics are optional.
type Options struct {
	Logs          []loglist.Log
	Watchlist     *watchlist.Watchlist
	Cursor        cursor.Store
	Sinks         *sink.Multi
	Stats         *stats.Collector
	Health        *health.Tracker
	Dedupe        dedupe.Set
	RootFilter    *filter.RootFilter
	DB            *database.Store
	Metrics       *instrumentation.Metrics
	ParsePrecerts bool
	BatchSize     uint64
	PollInterval  time.Duration
}

// Coordinator owns the queue and the consumer.
type Coordinator struct {
	opts  Options
	queue chan *decoder.Certificate
}

// New builds a coordinator with the bounded shared queue.
func New(opts Options) *Coordinator {
	if opts.Stats == nil {
		opts.Stats = stats.New()
	}
	if opts.Health == nil {
		opts.Health = health.NewTracker()
	}
	return &Coordinator{
		opts:  opts,
		queue: make(chan *decoder.Certificate, constants.QueueCapacity),
	}
}

// Run monitors until the context is cancelled, then drains and flushes.
// The consumer finishes every record that reached the queue before Run
// returns.
func (c *Coordinator) Run(ctx context.Context) error {
	logrus.Infof("monitoring %d logs", len(c.opts.Logs))

	group, groupCtx := errgroup.WithContext(ctx)
	dec := &decoder.Decoder{ParsePrecerts: c.opts.ParsePrecerts}

	for _, l := range c.opts.Logs {
		p := poller.New(l, ctlog.NewClient(l.URL), dec, c.opts.Health, c.opts.Cursor, c.queue, poller.Options{
			BatchSize:    c.opts.BatchSize,
			PollInterval: c.opts.PollInterval,
		})
		group.Go(func() error { return p.Run(groupCtx) })
	}

	// The queue closes once every producer is done, which ends the
	// consumer loop naturally.
	go func() {
		group.Wait()
		close(c.queue)
	}()

	summaryDone := make(chan struct{})
	go c.healthSummaryLoop(groupCtx, summaryDone)

	for cert := range c.queue {
		c.process(cert)
	}
	<-summaryDone

	if err := c.opts.Cursor.Flush(); err != nil {
		logrus.Warnf("final cursor flush: %v", err)
	}
	if err := c.opts.Sinks.Flush(); err != nil {
		logrus.Warnf("final sink flush: %v", err)
	}
	c.opts.Stats.LogFinal()
	return nil
}

// process runs the match pipeline for one certificate. At most one
// match is emitted per certificate, attributed to the first matching
// domain.
func (c *Coordinator) process(cert *decoder.Certificate) {
	c.opts.Stats.IncProcessed()
	if c.opts.Metrics != nil {
		c.opts.Metrics.EntriesProcessed.Inc()
		c.opts.Metrics.QueueDepth.Set(float64(len(c.queue)))
	}

	if c.opts.Dedupe != nil && !c.opts.Dedupe.ShouldEmit(cert) {
		return
	}
	if len(cert.AllDomains) == 0 {
		return
	}

	domain, owner, found := c.opts.Watchlist.FirstMatch(cert.AllDomains, c.allowDomain)
	if !found {
		return
	}

	match := sink.NewMatch(cert, domain, owner, owner.Name != "")
	c.opts.Stats.IncMatches()
	if c.opts.Metrics != nil {
		c.opts.Metrics.Matches.Inc()
	}

	if err := c.opts.Sinks.Emit(match); err != nil {
		logrus.Warnf("emitting match for %s: %v", domain, err)
	}

	if c.opts.DB != nil {
		if err := c.opts.DB.SaveMatch(context.Background(), match); err != nil {
			logrus.Warnf("persisting match for %s: %v", domain, err)
		}
	}
}

func (c *Coordinator) allowDomain(domain string) bool {
	return c.opts.RootFilter == nil || c.opts.RootFilter.ShouldEmit(domain)
}

func (c *Coordinator) healthSummaryLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(constants.HealthSummaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.opts.Health.LogSummary()
			if c.opts.Metrics != nil {
				c.opts.Metrics.SetHealthCounts(c.opts.Health.Stats())
			}
		}
	}
}
