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

// Package filter narrows emissions to a set of allowed apex domains,
// applied after the watchlist match and before any sink sees the record.
package filter

import (
	"fmt"
	"os"
	"strings"
)

// RootFilter allows only domains under configured roots.
type RootFilter struct {
	roots []string
}

// New builds a filter from root domains, normalizing each entry.
func New(roots []string) *RootFilter {
	f := &RootFilter{}
	for _, r := range roots {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || strings.HasPrefix(r, "#") {
			continue
		}
		f.roots = append(f.roots, r)
	}
	return f
}

// Load reads a filter file: one root per line, # comments and blank
// lines skipped.
func Load(path string) (*RootFilter, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading root domains %q: %w", path, err)
	}
	return New(strings.Split(string(buf), "\n")), nil
}

// ShouldEmit reports whether domain equals one of the roots or sits
// under one.
func (f *RootFilter) ShouldEmit(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, root := range f.roots {
		if domain == root || strings.HasSuffix(domain, "."+root) {
			return true
		}
	}
	return false
}

// Size returns the number of configured roots.
func (f *RootFilter) Size() int {
	return len(f.roots)
}
