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

// Package health tracks per-log poll outcomes and decides when a failing
// log has earned a backoff pause.
package health

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Status classifies a log by its recent poll outcomes.
type Status int

const (
	// Healthy logs had no recent failures.
	Healthy Status = iota
	// Degraded logs failed recently but are still below the threshold.
	Degraded
	// Failed logs crossed the threshold and are polled on a backoff schedule.
	Failed
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

const (
	// FailureThreshold is how many consecutive failures move a log from
	// Degraded to Failed.
	FailureThreshold = 3

	baseBackoff = time.Minute
	maxBackoff  = time.Hour
)

// Entry is the tracked state of one log.
type Entry struct {
	Status              Status
	ConsecutiveFailures int
	LastSuccess         time.Time
	LastFailure         time.Time
	LastError           string
	Backoff             time.Duration
}

// Tracker keeps one Entry per log URL. Each poller writes its own log's
// entry; readers take snapshots for summaries.
type Tracker struct {
	mu   sync.RWMutex
	logs map[string]*Entry

	now func() time.Time
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		logs: map[string]*Entry{},
		now:  time.Now,
	}
}

// RecordSuccess resets the log's failure state.
func (t *Tracker) RecordSuccess(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(url)
	recovered := e.Status == Failed
	e.Status = Healthy
	e.ConsecutiveFailures = 0
	e.LastSuccess = t.now()
	e.LastError = ""
	e.Backoff = 0

	if recovered {
		logrus.WithField("log", url).Infof("log recovered")
	}
}

// RecordFailure counts one more failure and recomputes status and backoff.
func (t *Tracker) RecordFailure(url, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.entry(url)
	e.ConsecutiveFailures++
	e.LastFailure = t.now()
	e.LastError = message
	e.Backoff = backoffFor(e.ConsecutiveFailures)

	prev := e.Status
	if e.ConsecutiveFailures >= FailureThreshold {
		e.Status = Failed
	} else {
		e.Status = Degraded
	}

	switch {
	case e.Status == Failed && prev != Failed:
		logrus.WithField("log", url).Warnf("log marked failed after %d consecutive failures, backing off %s: %s",
			e.ConsecutiveFailures, e.Backoff, message)
	case e.Status == Degraded && prev == Healthy:
		logrus.WithField("log", url).Warnf("log degraded: %s", message)
	}
}

// ShouldPoll reports whether the log may be polled now. Failed logs are
// held back until their backoff window has elapsed.
func (t *Tracker) ShouldPoll(url string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.logs[url]
	if !ok || e.Status != Failed {
		return true
	}
	return t.now().Sub(e.LastFailure) >= e.Backoff
}

// Snapshot returns a copy of every tracked entry.
func (t *Tracker) Snapshot() map[string]Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Entry, len(t.logs))
	for url, e := range t.logs {
		out[url] = *e
	}
	return out
}

// Stats counts logs by status.
func (t *Tracker) Stats() (healthy, degraded, failed int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.logs {
		switch e.Status {
		case Healthy:
			healthy++
		case Degraded:
			degraded++
		case Failed:
			failed++
		}
	}
	return healthy, degraded, failed
}

// LogSummary writes a one-line overview plus a warn line per failed log.
func (t *Tracker) LogSummary() {
	healthy, degraded, failed := t.Stats()
	logrus.Infof("log health: %d healthy, %d degraded, %d failed", healthy, degraded, failed)

	if failed == 0 {
		return
	}
	for url, e := range t.Snapshot() {
		if e.Status != Failed {
			continue
		}
		logrus.WithField("log", url).Warnf("failed %d times, backoff %s, last error: %s",
			e.ConsecutiveFailures, e.Backoff, e.LastError)
	}
}

func (t *Tracker) entry(url string) *Entry {
	e, ok := t.logs[url]
	if !ok {
		e = &Entry{}
		t.logs[url] = e
	}
	return e
}

// backoffFor doubles from one minute per consecutive failure, capped at
// one hour.
func backoffFor(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	b := baseBackoff << (failures - 1)
	if b > maxBackoff || b <= 0 {
		return maxBackoff
	}
	return b
}
