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

package constants

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogLevel is the default global verbosity
	DefaultLogLevel = logrus.InfoLevel

	// DefaultLogListURL is the Google-maintained list of all known CT logs,
	// including ones that are not yet (or no longer) usable.
	DefaultLogListURL = "https://www.gstatic.com/ct/log_list/v3/all_logs_list.json"

	// DefaultConfigFile is where the monitor looks for its configuration
	// when --config is not given.
	DefaultConfigFile = "certsentry.yaml"

	// DefaultStateFile keeps per-log resume positions between runs.
	DefaultStateFile = "~/.certsentry/state.yaml"

	DefaultPollIntervalSecs = 10
	DefaultBatchSize        = 256
	DefaultMaxConcurrentLogs = 100

	DefaultWebhookTimeoutSecs = 5

	DefaultDatabaseMaxConns = 20

	DefaultRedisChannel      = "certsentry:matches"
	DefaultRedisMaxQueueSize = 10000

	DefaultStatsIntervalSecs = 60

	DefaultMetricsListen = ":9464"

	DefaultPlatformSyncHours = 6

	// QueueCapacity bounds the shared certificate queue. Pollers block on a
	// full queue, which throttles fast logs when the consumer lags.
	QueueCapacity = 1000

	// HealthSummaryInterval is how often the coordinator reports per-log
	// health while running.
	HealthSummaryInterval = 5 * time.Minute
)

// StateBackend values accepted by ct_logs.state_backend.
const (
	StateBackendFile     = "file"
	StateBackendDatabase = "database"
)

// Output format names accepted by output.format and --output.
const (
	OutputFormatHuman  = "human"
	OutputFormatJSON   = "json"
	OutputFormatCSV    = "csv"
	OutputFormatSilent = "silent"
)
