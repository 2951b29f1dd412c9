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

// Package loglist discovers which CT logs to monitor from the public log
// list manifest and from configuration overrides.
package loglist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
)

// Lifecycle states a log can be in, per the log list schema. Anything the
// manifest reports that we do not recognize becomes StateUnknown.
const (
	StateUsable    = "usable"
	StateQualified = "qualified"
	StateReadonly  = "readonly"
	StatePending   = "pending"
	StateRetired   = "retired"
	StateRejected  = "rejected"
	StateUnknown   = "unknown"
)

// Log describes one monitored log for the lifetime of a run.
type Log struct {
	// URL is the canonical base for get-sth/get-entries, no trailing slash.
	URL string
	// Description is the human name from the manifest.
	Description string
	// Operator runs the log.
	Operator string
	// State is one of the lifecycle constants above.
	State string
}

type manifest struct {
	Operators []struct {
		Name string `json:"name"`
		Logs []struct {
			Description string                     `json:"description"`
			URL         string                     `json:"url"`
			State       map[string]json.RawMessage `json:"state"`
		} `json:"logs"`
	} `json:"operators"`
}

// Parse decodes a log list manifest into Log descriptors.
func Parse(buf []byte) ([]Log, error) {
	var m manifest
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, fmt.Errorf("parsing log list: %w", err)
	}

	var logs []Log
	for _, op := range m.Operators {
		for _, l := range op.Logs {
			logs = append(logs, Log{
				URL:         NormalizeURL(l.URL),
				Description: l.Description,
				Operator:    op.Name,
				State:       stateOf(l.State),
			})
		}
	}
	return logs, nil
}

// stateOf maps the manifest's state sub-object, which holds exactly one
// lifecycle key, to our state string.
func stateOf(state map[string]json.RawMessage) string {
	for _, s := range []string{StateUsable, StateQualified, StateReadonly, StatePending, StateRetired, StateRejected} {
		if _, ok := state[s]; ok {
			return s
		}
	}
	return StateUnknown
}

// SelectionOptions control which lifecycle states are monitored.
type SelectionOptions struct {
	IncludeReadonly bool
	IncludePending  bool
	IncludeAll      bool
}

// Select filters logs to the ones worth polling. Usable and qualified
// logs are always kept; readonly and pending only on request; IncludeAll
// keeps everything that has a URL.
func Select(logs []Log, opts SelectionOptions) []Log {
	var out []Log
	for _, l := range logs {
		if l.URL == "" {
			continue
		}
		switch {
		case opts.IncludeAll:
		case l.State == StateUsable || l.State == StateQualified:
		case opts.IncludeReadonly && l.State == StateReadonly:
		case opts.IncludePending && l.State == StatePending:
		default:
			continue
		}
		out = append(out, l)
	}
	return out
}

// FromConfig resolves the final list of logs to monitor. custom_logs
// replaces discovery entirely; additional_logs are merged in afterwards,
// deduplicated by URL; the result is truncated to max_concurrent_logs.
func FromConfig(ctx context.Context, cfg *config.CTLogsConfig, fetch func(context.Context, string) ([]byte, error)) ([]Log, error) {
	var logs []Log

	if len(cfg.CustomLogs) > 0 {
		for _, url := range cfg.CustomLogs {
			logs = append(logs, customLog(url))
		}
	} else {
		buf, err := fetch(ctx, cfg.LogListURL)
		if err != nil {
			return nil, fmt.Errorf("fetching log list %q: %w", cfg.LogListURL, err)
		}
		all, err := Parse(buf)
		if err != nil {
			return nil, err
		}
		logs = Select(all, SelectionOptions{
			IncludeReadonly: cfg.IncludeReadonlyLogs,
			IncludePending:  cfg.IncludePendingLogs,
			IncludeAll:      cfg.IncludeAllLogs,
		})
	}

	logs = merge(logs, cfg.AdditionalLogs)

	if len(logs) > cfg.MaxConcurrentLogs {
		logs = logs[:cfg.MaxConcurrentLogs]
	}
	return logs, nil
}

func merge(logs []Log, additional []string) []Log {
	seen := make(map[string]bool, len(logs))
	for _, l := range logs {
		seen[l.URL] = true
	}
	for _, url := range additional {
		l := customLog(url)
		if l.URL == "" || seen[l.URL] {
			continue
		}
		seen[l.URL] = true
		logs = append(logs, l)
	}
	return logs
}

func customLog(url string) Log {
	return Log{
		URL:         NormalizeURL(url),
		Description: "custom log",
		State:       StateUnknown,
	}
}

// NormalizeURL trims whitespace and trailing slashes and defaults the
// scheme to https.
func NormalizeURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" {
		return ""
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}
	return url
}
