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

// Package poller drives the per-log fetch loop: health gate, STH, entry
// range, decode, enqueue, cursor advance, sleep.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/certsentry/certsentry/pkg/certsentry/ctlog"
	"github.com/certsentry/certsentry/pkg/certsentry/cursor"
	"github.com/certsentry/certsentry/pkg/certsentry/decoder"
	"github.com/certsentry/certsentry/pkg/certsentry/health"
	"github.com/certsentry/certsentry/pkg/certsentry/loglist"
	"github.com/certsentry/certsentry/pkg/certsentry/output/log"
)

// Options tune one poller.
type Options struct {
	BatchSize    uint64
	PollInterval time.Duration
}

// Poller polls a single log and feeds decoded certificates into the
// shared queue. One goroutine runs one poller; the cursor for its log is
// touched by nobody else.
type Poller struct {
	ctLog   loglist.Log
	client  *ctlog.Client
	decoder *decoder.Decoder
	health  *health.Tracker
	cursor  cursor.Store
	out     chan<- *decoder.Certificate
	opts    Options
}

// New wires a poller for one log.
func New(ctLog loglist.Log, client *ctlog.Client, dec *decoder.Decoder, tracker *health.Tracker, store cursor.Store, out chan<- *decoder.Certificate, opts Options) *Poller {
	return &Poller{
		ctLog:   ctLog,
		client:  client,
		decoder: dec,
		health:  tracker,
		cursor:  store,
		out:     out,
		opts:    opts,
	}
}

// Run polls until the context ends. It always returns nil: a log that
// keeps failing is backed off by the health tracker, never abandoned.
func (p *Poller) Run(ctx context.Context) error {
	ctx = log.WithLogURL(ctx, p.ctLog.URL)
	log.Entry(ctx).Debugf("poller started")

	for {
		if p.health.ShouldPoll(p.ctLog.URL) {
			if err := p.pollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					break
				}
				p.health.RecordFailure(p.ctLog.URL, err.Error())
				if errors.Is(err, ctlog.ErrRateLimited) {
					log.Entry(ctx).Warnf("poll rate limited")
				} else {
					log.Entry(ctx).Warnf("poll failed: %v", err)
				}
			}
		}

		select {
		case <-ctx.Done():
			log.Entry(ctx).Debugf("poller stopped")
			return nil
		case <-time.After(p.opts.PollInterval):
		}
	}

	log.Entry(ctx).Debugf("poller stopped")
	return nil
}

// pollOnce runs one cycle: STH, range, decode, enqueue, advance.
func (p *Poller) pollOnce(ctx context.Context) error {
	sth, err := p.client.GetSTH(ctx)
	if err != nil {
		return err
	}

	next, _, err := p.cursor.Load(p.ctLog.URL)
	if err != nil {
		// A cursor read problem is a persistence issue, not a log issue;
		// skip the cycle and let the next one retry.
		log.Entry(ctx).Warnf("loading cursor: %v", err)
		return nil
	}

	if next >= sth.TreeSize {
		log.Entry(ctx).Debugf("up to date (cursor=%d, tree_size=%d)", next, sth.TreeSize)
		p.health.RecordSuccess(p.ctLog.URL)
		return nil
	}

	end := next + p.opts.BatchSize
	if end > sth.TreeSize {
		end = sth.TreeSize
	}
	end--

	entries, err := p.client.GetEntries(ctx, next, end)
	if err != nil {
		return err
	}
	p.health.RecordSuccess(p.ctLog.URL)

	for i, raw := range entries {
		index := next + uint64(i)

		cert, err := p.decoder.Decode(raw, index, p.ctLog.URL)
		if err != nil {
			// Malformed entries exist in every public log; skip them and
			// move on so one bad leaf cannot stall the whole log. Precerts
			// skipped by configuration are not worth a log line.
			if !errors.Is(err, decoder.ErrPrecertSkipped) {
				log.Entry(ctx).Warnf("skipping entry %d: %v", index, err)
			}
			p.advance(ctx, index+1)
			continue
		}

		// The cursor moves only after the queue accepted the entry, so a
		// shutdown mid-batch re-processes instead of skipping.
		select {
		case p.out <- cert:
		case <-ctx.Done():
			return ctx.Err()
		}
		p.advance(ctx, index+1)
	}
	return nil
}

func (p *Poller) advance(ctx context.Context, next uint64) {
	if err := p.cursor.Advance(p.ctLog.URL, next); err != nil {
		log.Entry(ctx).Warnf("advancing cursor to %d: %v", next, err)
	}
}
