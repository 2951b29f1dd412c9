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

package cursor

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v3"
)

// saveEvery batches disk writes: one save per this many advances, plus
// the final Flush. Restarting loses at most saveEvery-1 advances per
// log, which only causes re-processing, never skipped entries.
const saveEvery = 100

// FileStore keeps all cursors in one YAML map, replaced atomically via
// a temp file and rename.
type FileStore struct {
	path string

	mu      sync.Mutex
	cursors map[string]uint64
	pending int
}

// NewFileStore loads the cursor file at path. A missing file is an empty
// cursor set; an existing but unreadable one is a fatal startup error.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		cursors: map[string]uint64{},
	}

	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cursor state %q: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &s.cursors); err != nil {
		return nil, fmt.Errorf("parsing cursor state %q: %w", path, err)
	}
	if s.cursors == nil {
		s.cursors = map[string]uint64{}
	}
	return s, nil
}

func (s *FileStore) Load(logURL string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, found := s.cursors[logURL]
	return index, found, nil
}

// Advance records the new position and saves every saveEvery advances.
// A failed save is logged and retried at the next opportunity; it never
// fails the poller.
func (s *FileStore) Advance(logURL string, next uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.cursors[logURL]; ok && next <= current {
		return nil
	}
	s.cursors[logURL] = next
	s.pending++

	if s.pending >= saveEvery {
		if err := s.save(); err != nil {
			logrus.Warnf("saving cursor state: %v", err)
			return nil
		}
		s.pending = 0
	}
	return nil
}

func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(); err != nil {
		return err
	}
	s.pending = 0
	return nil
}

func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, 0, len(s.cursors))
	for url := range s.cursors {
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *FileStore) Close() error {
	return s.Flush()
}

// save writes the full map to a temp file in the same directory and
// renames it over the target, so readers never see a partial state.
func (s *FileStore) save() error {
	buf, err := yaml.Marshal(s.cursors)
	if err != nil {
		return fmt.Errorf("marshaling cursor state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing state file %q: %w", s.path, err)
	}
	return nil
}
