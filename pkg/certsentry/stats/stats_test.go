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

package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/certsentry/certsentry/testutil"
)

func TestCounters(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		c := New()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 250; j++ {
					c.IncProcessed()
				}
				c.IncMatches()
			}()
		}
		wg.Wait()

		processed, matches, uptime := c.Snapshot()
		t.CheckDeepEqual(uint64(1000), processed)
		t.CheckDeepEqual(uint64(4), matches)
		if uptime < 0 {
			t.Errorf("negative uptime %s", uptime)
		}
	})
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{duration: 0, expected: "0s"},
		{duration: 42 * time.Second, expected: "42s"},
		{duration: 5 * time.Minute, expected: "5m 0s"},
		{duration: 61 * time.Second, expected: "1m 1s"},
		{duration: time.Hour + time.Minute + time.Second, expected: "1h 1m 1s"},
		{duration: 2*time.Hour + 3*time.Second, expected: "2h 0m 3s"},
		{duration: 25 * time.Hour, expected: "25h 0m 0s"},
	}
	for _, test := range tests {
		testutil.Run(t, test.expected, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, FormatUptime(test.duration))
		})
	}
}
