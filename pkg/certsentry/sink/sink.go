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

// Package sink delivers match records to their destinations: terminal
// formats, files, webhooks and a Redis channel. A Multi fans one record
// out to every registered sink and keeps one bad sink from silencing the
// rest.
package sink

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink receives match records. Emit may be called from the single
// consumer goroutine only; Flush is called once at shutdown.
type Sink interface {
	Name() string
	Emit(match *Match) error
	Flush() error
}

// Observer is notified of every sink emission, for metrics.
type Observer interface {
	ObserveEmit(sink string, duration time.Duration, err error)
}

// Multi dispatches to sinks in registration order.
type Multi struct {
	sinks    []Sink
	observer Observer
}

// NewMulti builds a fan-out over the given sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Register appends a sink. Emission order is registration order.
func (m *Multi) Register(s Sink) {
	m.sinks = append(m.sinks, s)
}

// SetObserver installs a metrics hook for emissions.
func (m *Multi) SetObserver(o Observer) {
	m.observer = o
}

// Sinks returns the registered sink names in order.
func (m *Multi) Sinks() []string {
	var names []string
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Emit hands the match to every sink. A failing sink is logged and
// skipped; the emit as a whole fails only when every sink failed.
func (m *Multi) Emit(match *Match) error {
	if len(m.sinks) == 0 {
		return nil
	}

	failures := 0
	for _, s := range m.sinks {
		err := m.emitOne(s, match)
		if err != nil {
			failures++
			logrus.Warnf("sink %s failed to emit match for %s: %v", s.Name(), match.MatchedDomain, err)
		}
	}

	if failures == len(m.sinks) {
		return fmt.Errorf("all %d sinks failed", failures)
	}
	return nil
}

func (m *Multi) emitOne(s Sink, match *Match) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()

	start := time.Now()
	err = s.Emit(match)
	if m.observer != nil {
		m.observer.ObserveEmit(s.Name(), time.Since(start), err)
	}
	return err
}

// Flush flushes every sink, returning the first error after trying all.
func (m *Multi) Flush() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Flush(); err != nil {
			logrus.Warnf("sink %s failed to flush: %v", s.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
