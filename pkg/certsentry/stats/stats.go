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

// Package stats counts pipeline throughput and reports it periodically.
package stats

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Collector accumulates counters from the consumer goroutine. Counters
// are atomic so the metrics endpoint can read them concurrently.
type Collector struct {
	processed atomic.Uint64
	matches   atomic.Uint64
	start     time.Time
}

// New starts the uptime clock.
func New() *Collector {
	return &Collector{start: time.Now()}
}

// IncProcessed counts one certificate through the pipeline.
func (c *Collector) IncProcessed() {
	c.processed.Add(1)
}

// IncMatches counts one emitted match.
func (c *Collector) IncMatches() {
	c.matches.Add(1)
}

// Snapshot returns the current counters and uptime.
func (c *Collector) Snapshot() (processed, matches uint64, uptime time.Duration) {
	return c.processed.Load(), c.matches.Load(), time.Since(c.start)
}

// Run logs a throughput line every interval until the context ends.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.log()
		}
	}
}

// LogFinal writes the end-of-run summary.
func (c *Collector) LogFinal() {
	processed, matches, uptime := c.Snapshot()
	logrus.Infof("final stats: %s certificates processed, %s matches in %s",
		humanize.Comma(int64(processed)), humanize.Comma(int64(matches)), FormatUptime(uptime))
}

func (c *Collector) log() {
	processed, matches, uptime := c.Snapshot()
	perMinute := float64(0)
	if mins := uptime.Minutes(); mins > 0 {
		perMinute = float64(processed) / mins
	}
	logrus.Infof("stats: %s processed (%.0f/min), %s matches, up %s",
		humanize.Comma(int64(processed)), perMinute, humanize.Comma(int64(matches)), FormatUptime(uptime))
}

// FormatUptime renders a duration as "1h 2m 3s", dropping leading zero
// units.
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 || h > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", s))
	return strings.Join(parts, " ")
}
