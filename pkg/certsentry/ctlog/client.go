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

// Package ctlog speaks the RFC 6962 read API: get-sth for the current
// tree size and get-entries for ranges of leaves. Signatures are carried
// through but never verified; this is a monitor, not an auditor.
package ctlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/certsentry/certsentry/pkg/certsentry/output/log"
	"github.com/certsentry/certsentry/pkg/certsentry/version"
)

const (
	requestTimeout = 30 * time.Second

	retryInitialInterval = time.Second
	retryMaxInterval     = 60 * time.Second

	// DefaultMaxRetries bounds how often one call is retried before the
	// failure is reported to the health tracker.
	DefaultMaxRetries = 3

	bodyExcerptLimit = 200
)

// SignedTreeHead is the get-sth response. Only TreeSize is consumed
// downstream; the hash and signature are kept for diagnostics.
type SignedTreeHead struct {
	TreeSize          uint64 `json:"tree_size"`
	Timestamp         uint64 `json:"timestamp"`
	SHA256RootHash    string `json:"sha256_root_hash"`
	TreeHeadSignature string `json:"tree_head_signature,omitempty"`
}

// RawEntry is one undecoded leaf from get-entries, both fields base64.
type RawEntry struct {
	LeafInput string `json:"leaf_input"`
	ExtraData string `json:"extra_data"`
}

type entriesResponse struct {
	Entries []RawEntry `json:"entries"`
}

// Client talks to a single CT log.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	maxRetries   uint64
	retryInitial time.Duration
}

// NewClient returns a client for the log at baseURL (no trailing slash
// required; one is trimmed).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		maxRetries:   DefaultMaxRetries,
		retryInitial: retryInitialInterval,
	}
}

// WithMaxRetries overrides the retry budget, mainly for tests.
func (c *Client) WithMaxRetries(n uint64) *Client {
	c.maxRetries = n
	return c
}

// BaseURL returns the log URL this client polls.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetSTH fetches the signed tree head, retrying transient failures.
func (c *Client) GetSTH(ctx context.Context) (*SignedTreeHead, error) {
	var sth SignedTreeHead
	err := c.withRetry(ctx, "get-sth", func() error {
		return c.getJSON(ctx, c.baseURL+"/ct/v1/get-sth", &sth)
	})
	if err != nil {
		return nil, err
	}
	return &sth, nil
}

// GetEntries fetches leaves in [start, end], retrying transient failures.
// Logs may return fewer entries than requested; callers must handle a
// short result.
func (c *Client) GetEntries(ctx context.Context, start, end uint64) ([]RawEntry, error) {
	if start > end {
		return nil, fmt.Errorf("invalid range: start %d > end %d", start, end)
	}

	var resp entriesResponse
	url := fmt.Sprintf("%s/ct/v1/get-entries?start=%d&end=%d", c.baseURL, start, end)
	err := c.withRetry(ctx, "get-entries", func() error {
		resp = entriesResponse{}
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return err
		}
		if len(resp.Entries) == 0 {
			// A 200 with no entries would spin the poller forever.
			return &LogError{Status: http.StatusOK, Body: "empty entries response"}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit))
		return &LogError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}

// withRetry runs fn with exponential backoff: 1s, 2s, 4s, ... capped at
// 60s, up to maxRetries attempts after the first. Cancelling the context
// stops the retries.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0

	attempt := 0
	notify := func(err error, next time.Duration) {
		attempt++
		log.Entry(ctx).Debugf("%s %s attempt %d failed, retrying in %s: %v", op, c.baseURL, attempt, next, err)
	}

	return backoff.RetryNotify(fn, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx), notify)
}
