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

// Package dedupe suppresses repeat emissions of the same certificate.
//
// Keys prefer log position over content: a record from a known log is
// keyed idx:<log_url>:<cert_index>, one without a log falls back to
// fp:<fingerprint>, and a record with neither always emits. Eviction from
// the bounded variant can re-emit an old certificate; it can never
// suppress a new one.
package dedupe

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/certsentry/certsentry/pkg/certsentry/decoder"
)

// Set decides whether a certificate was seen before. ShouldEmit is an
// atomic contains-then-insert: the first caller with a key gets true,
// everyone after gets false.
type Set interface {
	ShouldEmit(cert *decoder.Certificate) bool
	Len() int
}

// Key computes the dedupe key for a certificate. The second return is
// false when the record has no usable key and must always be emitted.
func Key(cert *decoder.Certificate) (string, bool) {
	if cert.LogURL != "" {
		return fmt.Sprintf("idx:%s:%d", cert.LogURL, cert.CertIndex), true
	}
	if cert.Fingerprint != "" {
		return "fp:" + cert.Fingerprint, true
	}
	return "", false
}

// NewSet returns the unbounded variant. It grows for the lifetime of the
// run, which is the deliberate default.
func NewSet() Set {
	return &memorySet{keys: map[string]struct{}{}}
}

type memorySet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (s *memorySet) ShouldEmit(cert *decoder.Certificate) bool {
	key, ok := Key(cert)
	if !ok {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.keys[key]; seen {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *memorySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// NewLRUSet returns a bounded variant capped at max keys, evicting the
// least recently seen.
func NewLRUSet(max int) (Set, error) {
	cache, err := lru.New[string, struct{}](max)
	if err != nil {
		return nil, fmt.Errorf("creating dedupe cache: %w", err)
	}
	return &lruSet{cache: cache}, nil
}

type lruSet struct {
	mu    sync.Mutex
	cache *lru.Cache[string, struct{}]
}

func (s *lruSet) ShouldEmit(cert *decoder.Certificate) bool {
	key, ok := Key(cert)
	if !ok {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.cache.Get(key); seen {
		return false
	}
	s.cache.Add(key, struct{}{})
	return true
}

func (s *lruSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
