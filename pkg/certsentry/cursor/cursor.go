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

// Package cursor persists per-log resume positions.
//
// The stored value is the NEXT index to fetch: a log whose cursor equals
// its tree size is fully consumed, and a missing cursor means "start at
// zero". Values only move forward.
package cursor

// Store persists one cursor per log URL. Implementations must tolerate
// concurrent Advance calls from different pollers; advances for a single
// log come from its one poller only.
type Store interface {
	// Load returns the next index to fetch for the log, with found=false
	// when no cursor exists yet.
	Load(logURL string) (index uint64, found bool, err error)

	// Advance moves the log's cursor forward. Regressions are ignored.
	Advance(logURL string, next uint64) error

	// Flush forces pending state out, where the backend buffers.
	Flush() error

	// List returns every log URL with a stored cursor.
	List() ([]string, error)

	// Close flushes and releases the backend.
	Close() error
}
