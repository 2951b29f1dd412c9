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

package loglist

import (
	"context"
	"fmt"
	"testing"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
	"github.com/certsentry/certsentry/testutil"
)

const sampleManifest = `{
  "operators": [
    {
      "name": "Google",
      "logs": [
        {"description": "Argon", "url": "https://ct.googleapis.com/logs/argon2025/", "state": {"usable": {"timestamp": "2023-01-01T00:00:00Z"}}},
        {"description": "Xenon", "url": "https://ct.googleapis.com/logs/xenon2025/", "state": {"qualified": {"timestamp": "2023-01-01T00:00:00Z"}}},
        {"description": "Old", "url": "https://ct.googleapis.com/logs/old/", "state": {"retired": {"timestamp": "2020-01-01T00:00:00Z"}}}
      ]
    },
    {
      "name": "Cloudflare",
      "logs": [
        {"description": "Nimbus RO", "url": "https://ct.cloudflare.com/logs/nimbus-ro/", "state": {"readonly": {"timestamp": "2022-01-01T00:00:00Z"}}},
        {"description": "Nimbus Pending", "url": "https://ct.cloudflare.com/logs/nimbus-pending/", "state": {"pending": {"timestamp": "2025-01-01T00:00:00Z"}}},
        {"description": "No URL", "url": "", "state": {"usable": {"timestamp": "2023-01-01T00:00:00Z"}}},
        {"description": "Stateless", "url": "https://ct.cloudflare.com/logs/stateless/"}
      ]
    }
  ]
}`

func TestParse(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		logs, err := Parse([]byte(sampleManifest))
		t.RequireNoError(err)

		t.CheckDeepEqual(7, len(logs))
		t.CheckDeepEqual(Log{
			URL:         "https://ct.googleapis.com/logs/argon2025",
			Description: "Argon",
			Operator:    "Google",
			State:       StateUsable,
		}, logs[0])
		t.CheckDeepEqual(StateQualified, logs[1].State)
		t.CheckDeepEqual(StateRetired, logs[2].State)
		t.CheckDeepEqual(StateReadonly, logs[3].State)
		t.CheckDeepEqual(StatePending, logs[4].State)
		t.CheckDeepEqual(StateUnknown, logs[6].State)
	})
}

func TestParseRejectsBadJSON(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		_, err := Parse([]byte("{"))
		t.CheckError(true, err)
	})
}

func TestSelect(t *testing.T) {
	logs, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatal(err)
	}

	urls := func(logs []Log) []string {
		var out []string
		for _, l := range logs {
			out = append(out, l.URL)
		}
		return out
	}

	tests := []struct {
		description string
		opts        SelectionOptions
		expected    int
	}{
		{description: "default keeps usable and qualified", opts: SelectionOptions{}, expected: 2},
		{description: "readonly opt-in", opts: SelectionOptions{IncludeReadonly: true}, expected: 3},
		{description: "pending opt-in", opts: SelectionOptions{IncludePending: true}, expected: 3},
		{description: "all keeps every log with a url", opts: SelectionOptions{IncludeAll: true}, expected: 6},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			selected := Select(logs, test.opts)

			t.CheckDeepEqual(test.expected, len(selected))
			for _, url := range urls(selected) {
				if url == "" {
					t.Errorf("selected a log without a URL")
				}
			}
		})
	}
}

func TestFromConfigCustomLogsReplaceDiscovery(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cfg := config.Default()
		cfg.CTLogs.CustomLogs = []string{"ct.example.com/log/", "https://other.example.com/ct"}

		fetch := func(context.Context, string) ([]byte, error) {
			t.Fatalf("discovery must not run with custom_logs set")
			return nil, nil
		}

		logs, err := FromConfig(context.Background(), &cfg.CTLogs, fetch)
		t.RequireNoError(err)

		t.CheckDeepEqual(2, len(logs))
		t.CheckDeepEqual("https://ct.example.com/log", logs[0].URL)
		t.CheckDeepEqual("https://other.example.com/ct", logs[1].URL)
	})
}

func TestFromConfigMergesAdditionalLogs(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cfg := config.Default()
		cfg.CTLogs.AdditionalLogs = []string{
			"https://ct.googleapis.com/logs/argon2025", // already discovered
			"https://extra.example.com/log",
		}

		fetch := func(context.Context, string) ([]byte, error) {
			return []byte(sampleManifest), nil
		}

		logs, err := FromConfig(context.Background(), &cfg.CTLogs, fetch)
		t.RequireNoError(err)

		t.CheckDeepEqual(3, len(logs))
		t.CheckDeepEqual("https://extra.example.com/log", logs[2].URL)
	})
}

func TestFromConfigTruncatesToMaxConcurrent(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cfg := config.Default()
		cfg.CTLogs.MaxConcurrentLogs = 3
		for i := 0; i < 10; i++ {
			cfg.CTLogs.CustomLogs = append(cfg.CTLogs.CustomLogs, fmt.Sprintf("https://log%d.example.com", i))
		}

		logs, err := FromConfig(context.Background(), &cfg.CTLogs, nil)
		t.RequireNoError(err)

		t.CheckDeepEqual(3, len(logs))
	})
}

func TestFromConfigPropagatesFetchFailure(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cfg := config.Default()

		fetch := func(context.Context, string) ([]byte, error) {
			return nil, fmt.Errorf("network down")
		}

		_, err := FromConfig(context.Background(), &cfg.CTLogs, fetch)
		t.CheckErrorContains("network down", err)
	})
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{in: "https://ct.example.com/log/", expected: "https://ct.example.com/log"},
		{in: "  ct.example.com ", expected: "https://ct.example.com"},
		{in: "http://ct.example.com", expected: "http://ct.example.com"},
		{in: "", expected: ""},
		{in: "///", expected: ""},
	}
	for _, test := range tests {
		testutil.Run(t, test.in, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, NormalizeURL(test.in))
		})
	}
}
