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

package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/certsentry/certsentry/pkg/certsentry/watchlist"
)

// SyncManager refreshes the watchlist from the configured platforms on a
// fixed interval. A failing platform is logged and retried on the next
// interval; sync never stops the monitor.
type SyncManager struct {
	sources   []Source
	watchlist *watchlist.Watchlist
	interval  time.Duration
}

// NewSyncManager wires the sources to the watchlist.
func NewSyncManager(sources []Source, w *watchlist.Watchlist, interval time.Duration) *SyncManager {
	return &SyncManager{
		sources:   sources,
		watchlist: w,
		interval:  interval,
	}
}

// Run syncs immediately, then on every interval tick until the context
// is cancelled.
func (m *SyncManager) Run(ctx context.Context) {
	if len(m.sources) == 0 {
		return
	}
	logrus.Infof("platform sync started (%d sources, interval %s)", len(m.sources), m.interval)

	m.syncAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Debugf("platform sync stopped")
			return
		case <-ticker.C:
			m.syncAll(ctx)
		}
	}
}

func (m *SyncManager) syncAll(ctx context.Context) {
	for _, source := range m.sources {
		if err := m.syncOne(ctx, source); err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.Errorf("syncing %s: %v", source.Name(), err)
		}
	}
}

func (m *SyncManager) syncOne(ctx context.Context, source Source) error {
	if err := source.TestConnection(ctx); err != nil {
		return fmt.Errorf("connection test: %w", err)
	}

	programs, err := source.FetchPrograms(ctx)
	if err != nil {
		return err
	}

	added := 0
	for _, program := range programs {
		for _, domain := range program.Domains {
			if m.watchlist.AddDomainToProgram(domain, program.Name, source.Name()) {
				added++
			}
		}
	}
	logrus.Infof("synced %s: %d programs, %d new domains", source.Name(), len(programs), added)
	return nil
}
