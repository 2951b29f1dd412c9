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

// Package platform pulls bug-bounty program scopes from external
// platforms and feeds them into the watchlist.
package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// apiError is a non-2xx platform API response.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("unexpected status %d", e.status)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// Program is one bug-bounty program with its in-scope domains.
type Program struct {
	ID      string
	Name    string
	Handle  string
	Domains []string
}

// Source fetches program scopes from one platform.
type Source interface {
	// Name labels the platform, e.g. "hackerone".
	Name() string

	// FetchPrograms returns every accessible program that has at least
	// one in-scope domain.
	FetchPrograms(ctx context.Context) ([]Program, error)

	// TestConnection verifies the configured credentials.
	TestConnection(ctx context.Context) error
}

// ExtractDomain turns a scope asset identifier into a watchlist pattern.
// Wildcards pass through unchanged, URLs reduce to their host, anything
// else is assumed to already be a domain.
func ExtractDomain(asset string) string {
	trimmed := strings.TrimSpace(asset)

	if strings.HasPrefix(trimmed, "*.") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if u, err := url.Parse(trimmed); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}
	return trimmed
}
