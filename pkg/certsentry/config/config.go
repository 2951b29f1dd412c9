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

package config

import (
	"time"

	"github.com/certsentry/certsentry/pkg/certsentry/constants"
)

// Config is the top-level configuration for the monitor.
type Config struct {
	// CTLogs configures log discovery and polling.
	CTLogs CTLogsConfig `yaml:"ct_logs"`

	// Dedupe configures cross-certificate duplicate suppression.
	Dedupe DedupeConfig `yaml:"dedupe"`

	// Watchlist holds the global matching rules.
	Watchlist WatchlistConfig `yaml:"watchlist"`

	// Programs are named sub-watchlists, typically bug-bounty scopes.
	Programs []ProgramConfig `yaml:"programs,omitempty"`

	// Webhook, when set, POSTs every match to an HTTP endpoint.
	Webhook *WebhookConfig `yaml:"webhook,omitempty"`

	// Redis, when enabled, publishes every match to a pub/sub channel.
	Redis RedisConfig `yaml:"redis"`

	// Database configures optional PostgreSQL persistence.
	Database DatabaseConfig `yaml:"database"`

	// Platforms configures bug-bounty platform scope synchronization.
	Platforms PlatformsConfig `yaml:"platforms"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Output selects the terminal sink and its destination.
	Output OutputConfig `yaml:"output"`

	// Stats configures periodic throughput reporting.
	Stats StatsConfig `yaml:"stats"`

	// Logging controls diagnostic output.
	Logging LoggingConfig `yaml:"logging"`
}

// CTLogsConfig controls which logs are monitored and how they are polled.
type CTLogsConfig struct {
	// PollIntervalSecs is the pause between poll cycles on each log.
	// Defaults to `10`.
	PollIntervalSecs int `yaml:"poll_interval_secs"`

	// BatchSize is the maximum number of entries requested per get-entries
	// call. Logs may return fewer. Defaults to `256`.
	BatchSize uint64 `yaml:"batch_size"`

	// LogListURL is the JSON manifest of known logs.
	// Defaults to the Google all_logs list.
	LogListURL string `yaml:"log_list_url"`

	// CustomLogs replaces the fetched log list entirely when non-empty.
	CustomLogs []string `yaml:"custom_logs,omitempty"`

	// AdditionalLogs are merged into the fetched list, deduplicated by URL.
	AdditionalLogs []string `yaml:"additional_logs,omitempty"`

	// StateFile is where per-log cursors are kept with the file backend.
	// Defaults to `~/.certsentry/state.yaml`.
	StateFile string `yaml:"state_file"`

	// StateBackend selects cursor persistence: `file` or `database`.
	// Defaults to `file`.
	StateBackend string `yaml:"state_backend"`

	// MaxConcurrentLogs caps how many logs are polled. Defaults to `100`.
	MaxConcurrentLogs int `yaml:"max_concurrent_logs"`

	// ParsePrecerts extracts domains from precertificate entries.
	// Defaults to `true`.
	ParsePrecerts *bool `yaml:"parse_precerts,omitempty"`

	// IncludeReadonlyLogs also monitors logs in the readonly state.
	IncludeReadonlyLogs bool `yaml:"include_readonly_logs"`

	// IncludePendingLogs also monitors logs in the pending state.
	IncludePendingLogs bool `yaml:"include_pending_logs"`

	// IncludeAllLogs monitors every log with a URL regardless of state.
	IncludeAllLogs bool `yaml:"include_all_logs"`
}

// DedupeConfig controls duplicate suppression.
type DedupeConfig struct {
	// Enabled turns deduplication on. Defaults to `true`.
	Enabled *bool `yaml:"enabled,omitempty"`

	// MaxEntries caps the remembered keys; the oldest are evicted past the
	// cap and may be emitted again. `0` keeps every key for the lifetime
	// of the run. Defaults to `0`.
	MaxEntries int `yaml:"max_entries"`
}

// WatchlistConfig holds global matching rules.
type WatchlistConfig struct {
	// Domains are suffix patterns: `*.x` (subdomains only), `.x` or plain
	// `x` (the domain and its subdomains).
	Domains []string `yaml:"domains,omitempty"`

	// Hosts match on exact FQDN equality, case-insensitive.
	Hosts []string `yaml:"hosts,omitempty"`

	// IPs match exactly, v4 or v6.
	IPs []string `yaml:"ips,omitempty"`

	// CIDRs match by network containment.
	CIDRs []string `yaml:"cidrs,omitempty"`
}

// ProgramConfig is one named sub-watchlist.
type ProgramConfig struct {
	// Name identifies the program in match records.
	Name string `yaml:"name"`

	// Platform labels where the program lives, e.g. `hackerone`.
	Platform string `yaml:"platform,omitempty"`

	Domains []string `yaml:"domains,omitempty"`
	Hosts   []string `yaml:"hosts,omitempty"`
	IPs     []string `yaml:"ips,omitempty"`
	CIDRs   []string `yaml:"cidrs,omitempty"`
}

// WebhookConfig describes the match webhook.
type WebhookConfig struct {
	// URL receives a POST per match.
	URL string `yaml:"url"`

	// Secret, when set, signs the body with HMAC-SHA256; the lowercase hex
	// digest is sent in the X-CertSentry-Signature header.
	Secret string `yaml:"secret,omitempty"`

	// TimeoutSecs bounds each delivery. Defaults to `5`.
	TimeoutSecs int `yaml:"timeout_secs"`
}

// RedisConfig describes the pub/sub sink.
type RedisConfig struct {
	// Enabled turns the Redis sink on.
	Enabled bool `yaml:"enabled"`

	// URL is a redis:// connection string.
	URL string `yaml:"url,omitempty"`

	// Channel receives a PUBLISH per match.
	// Defaults to `certsentry:matches`.
	Channel string `yaml:"channel"`

	// QueueKey, when set, also LPUSHes each match onto a capped list.
	QueueKey string `yaml:"queue_key,omitempty"`

	// MaxQueueSize trims the list to this many entries. Defaults to `10000`.
	MaxQueueSize int64 `yaml:"max_queue_size"`
}

// DatabaseConfig describes PostgreSQL persistence.
type DatabaseConfig struct {
	// Enabled turns persistence on.
	Enabled bool `yaml:"enabled"`

	// URL is a postgres:// connection string.
	URL string `yaml:"url,omitempty"`

	// MaxConnections caps the connection pool. Defaults to `20`.
	MaxConnections int32 `yaml:"max_connections"`
}

// PlatformsConfig configures bug-bounty platform synchronization.
type PlatformsConfig struct {
	// SyncIntervalHours is the pause between scope refreshes.
	// Defaults to `6`.
	SyncIntervalHours int `yaml:"sync_interval_hours"`

	// HackerOne pulls program scopes from the HackerOne API.
	HackerOne HackerOneConfig `yaml:"hackerone"`

	// Intigriti pulls program scopes from the Intigriti API.
	Intigriti IntigritiConfig `yaml:"intigriti"`
}

// HackerOneConfig holds HackerOne API credentials.
type HackerOneConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Username string `yaml:"username,omitempty"`
	APIToken string `yaml:"api_token,omitempty"`
}

// IntigritiConfig holds Intigriti API credentials.
type IntigritiConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIToken string `yaml:"api_token,omitempty"`
}

// MetricsConfig configures the Prometheus HTTP endpoint.
type MetricsConfig struct {
	// Enabled starts the metrics server.
	Enabled bool `yaml:"enabled"`

	// Listen is the address to bind. Defaults to `:9464`.
	Listen string `yaml:"listen"`
}

// OutputConfig selects the terminal sink.
type OutputConfig struct {
	// Format is one of `human`, `json`, `csv` or `silent`.
	// Defaults to `human`.
	Format string `yaml:"format"`

	// File redirects sink output from stdout to a file.
	File string `yaml:"file,omitempty"`

	// NoColor disables ANSI colors in human output.
	NoColor bool `yaml:"no_color"`
}

// StatsConfig configures periodic throughput reporting.
type StatsConfig struct {
	// Enabled turns the periodic report on.
	Enabled bool `yaml:"enabled"`

	// IntervalSecs is the pause between reports. Defaults to `60`.
	IntervalSecs int `yaml:"interval_secs"`
}

// LoggingConfig controls diagnostics.
type LoggingConfig struct {
	// Level is a logrus level name. Defaults to `info`.
	Level string `yaml:"level"`
}

// Default returns a configuration with every default applied and no
// watchlist entries.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.CTLogs.PollIntervalSecs == 0 {
		c.CTLogs.PollIntervalSecs = constants.DefaultPollIntervalSecs
	}
	if c.CTLogs.BatchSize == 0 {
		c.CTLogs.BatchSize = constants.DefaultBatchSize
	}
	if c.CTLogs.LogListURL == "" {
		c.CTLogs.LogListURL = constants.DefaultLogListURL
	}
	if c.CTLogs.StateFile == "" {
		c.CTLogs.StateFile = constants.DefaultStateFile
	}
	if c.CTLogs.StateBackend == "" {
		c.CTLogs.StateBackend = constants.StateBackendFile
	}
	if c.CTLogs.MaxConcurrentLogs == 0 {
		c.CTLogs.MaxConcurrentLogs = constants.DefaultMaxConcurrentLogs
	}
	if c.CTLogs.ParsePrecerts == nil {
		c.CTLogs.ParsePrecerts = boolPtr(true)
	}
	if c.Dedupe.Enabled == nil {
		c.Dedupe.Enabled = boolPtr(true)
	}
	if c.Webhook != nil && c.Webhook.TimeoutSecs == 0 {
		c.Webhook.TimeoutSecs = constants.DefaultWebhookTimeoutSecs
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = constants.DefaultRedisChannel
	}
	if c.Redis.MaxQueueSize == 0 {
		c.Redis.MaxQueueSize = constants.DefaultRedisMaxQueueSize
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = constants.DefaultDatabaseMaxConns
	}
	if c.Platforms.SyncIntervalHours == 0 {
		c.Platforms.SyncIntervalHours = constants.DefaultPlatformSyncHours
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = constants.DefaultMetricsListen
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatHuman
	}
	if c.Stats.IntervalSecs == 0 {
		c.Stats.IntervalSecs = constants.DefaultStatsIntervalSecs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = constants.DefaultLogLevel.String()
	}
}

// PollInterval returns the poll pause as a duration.
func (c *CTLogsConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSecs) * time.Second
}

// WebhookTimeout returns the delivery bound as a duration.
func (w *WebhookConfig) WebhookTimeout() time.Duration {
	return time.Duration(w.TimeoutSecs) * time.Second
}

// SyncInterval returns the scope refresh pause as a duration.
func (p *PlatformsConfig) SyncInterval() time.Duration {
	return time.Duration(p.SyncIntervalHours) * time.Hour
}

// StatsInterval returns the report pause as a duration.
func (s *StatsConfig) StatsInterval() time.Duration {
	return time.Duration(s.IntervalSecs) * time.Second
}

// DedupeEnabled reports whether duplicate suppression is on.
func (c *Config) DedupeEnabled() bool {
	return c.Dedupe.Enabled == nil || *c.Dedupe.Enabled
}

// ParsePrecertsEnabled reports whether precertificate entries are decoded.
func (c *Config) ParsePrecertsEnabled() bool {
	return c.CTLogs.ParsePrecerts == nil || *c.CTLogs.ParsePrecerts
}

func boolPtr(b bool) *bool {
	return &b
}
