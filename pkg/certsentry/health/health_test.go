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

package health

import (
	"fmt"
	"testing"
	"time"

	"github.com/certsentry/certsentry/testutil"
)

const logURL = "https://ct.example.com/log"

// fakeClock lets tests walk time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	tracker := NewTracker()
	tracker.now = clock.now
	return tracker, clock
}

func TestBackoffLaw(t *testing.T) {
	tests := []struct {
		failures int
		expected time.Duration
	}{
		{failures: 0, expected: 0},
		{failures: 1, expected: 60 * time.Second},
		{failures: 2, expected: 120 * time.Second},
		{failures: 3, expected: 240 * time.Second},
		{failures: 4, expected: 480 * time.Second},
		{failures: 7, expected: 3600 * time.Second},
		{failures: 10, expected: 3600 * time.Second},
		{failures: 100, expected: 3600 * time.Second},
	}
	for _, test := range tests {
		testutil.Run(t, fmt.Sprintf("%d failures", test.failures), func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, backoffFor(test.failures))
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tracker, _ := newTestTracker()

		t.CheckDeepEqual(true, tracker.ShouldPoll(logURL))

		tracker.RecordFailure(logURL, "timeout")
		e := tracker.Snapshot()[logURL]
		t.CheckDeepEqual(Degraded, e.Status)
		t.CheckDeepEqual(1, e.ConsecutiveFailures)

		tracker.RecordFailure(logURL, "timeout")
		t.CheckDeepEqual(Degraded, tracker.Snapshot()[logURL].Status)

		tracker.RecordFailure(logURL, "timeout")
		e = tracker.Snapshot()[logURL]
		t.CheckDeepEqual(Failed, e.Status)
		t.CheckDeepEqual(240*time.Second, e.Backoff)

		tracker.RecordSuccess(logURL)
		e = tracker.Snapshot()[logURL]
		t.CheckDeepEqual(Healthy, e.Status)
		t.CheckDeepEqual(0, e.ConsecutiveFailures)
		t.CheckDeepEqual(time.Duration(0), e.Backoff)
		t.CheckDeepEqual("", e.LastError)
	})
}

func TestShouldPollHonorsBackoffWindow(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tracker, clock := newTestTracker()

		for i := 0; i < 3; i++ {
			tracker.RecordFailure(logURL, "connection refused")
		}
		t.CheckDeepEqual(Failed, tracker.Snapshot()[logURL].Status)

		// Backoff after three failures is 240s.
		t.CheckDeepEqual(false, tracker.ShouldPoll(logURL))

		clock.advance(239 * time.Second)
		t.CheckDeepEqual(false, tracker.ShouldPoll(logURL))

		clock.advance(2 * time.Second)
		t.CheckDeepEqual(true, tracker.ShouldPoll(logURL))

		tracker.RecordSuccess(logURL)
		t.CheckDeepEqual(true, tracker.ShouldPoll(logURL))
		t.CheckDeepEqual(Healthy, tracker.Snapshot()[logURL].Status)
	})
}

func TestDegradedLogsStillPoll(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tracker, _ := newTestTracker()

		tracker.RecordFailure(logURL, "503")
		tracker.RecordFailure(logURL, "503")

		t.CheckDeepEqual(true, tracker.ShouldPoll(logURL))
	})
}

func TestStats(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tracker, _ := newTestTracker()

		tracker.RecordSuccess("https://a.example.com")
		tracker.RecordSuccess("https://b.example.com")
		tracker.RecordFailure("https://c.example.com", "x")
		for i := 0; i < 5; i++ {
			tracker.RecordFailure("https://d.example.com", "y")
		}

		healthy, degraded, failed := tracker.Stats()
		t.CheckDeepEqual(2, healthy)
		t.CheckDeepEqual(1, degraded)
		t.CheckDeepEqual(1, failed)
	})
}
