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

package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
	"github.com/certsentry/certsentry/testutil"
)

func TestDedupeFromConfig(t *testing.T) {
	testutil.Run(t, "enabled by default", func(t *testutil.T) {
		set, err := dedupeFromConfig(config.Default())

		t.CheckNoError(err)
		if set == nil {
			t.Errorf("expected a dedupe set")
		}
	})

	testutil.Run(t, "disabled", func(t *testutil.T) {
		cfg := config.Default()
		cfg.ApplyOptions(config.Options{NoDedupe: true})

		set, err := dedupeFromConfig(cfg)

		t.CheckNoError(err)
		if set != nil {
			t.Errorf("expected no dedupe set")
		}
	})

	testutil.Run(t, "bounded", func(t *testutil.T) {
		cfg := config.Default()
		cfg.Dedupe.MaxEntries = 10

		set, err := dedupeFromConfig(cfg)

		t.CheckNoError(err)
		if set == nil {
			t.Errorf("expected a dedupe set")
		}
	})
}

func TestPlatformSources(t *testing.T) {
	testutil.Run(t, "none configured", func(t *testutil.T) {
		t.CheckDeepEqual(0, len(platformSources(config.Default())))
	})

	testutil.Run(t, "both configured", func(t *testutil.T) {
		cfg := config.Default()
		cfg.Platforms.HackerOne.Enabled = true
		cfg.Platforms.Intigriti.Enabled = true

		sources := platformSources(cfg)

		t.CheckDeepEqual(2, len(sources))
		t.CheckDeepEqual("hackerone", sources[0].Name())
		t.CheckDeepEqual("intigriti", sources[1].Name())
	})
}

func TestBuildSinksSelectsFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{format: "human", expected: "human"},
		{format: "json", expected: "json"},
		{format: "csv", expected: "csv"},
		{format: "silent", expected: "silent"},
	}
	for _, test := range tests {
		testutil.Run(t, test.format, func(t *testutil.T) {
			cfg := config.Default()
			cfg.Output.Format = test.format

			var buf bytes.Buffer
			sinks, closer, err := buildSinks(context.Background(), &buf, cfg)
			t.RequireNoError(err)
			defer closer()

			t.CheckDeepEqual([]string{test.expected}, sinks.Sinks())
		})
	}
}

func TestBuildSinksRegistersWebhook(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cfg := config.Default()
		cfg.Webhook = &config.WebhookConfig{URL: "https://hooks.example.com/ct", TimeoutSecs: 5}

		var buf bytes.Buffer
		sinks, closer, err := buildSinks(context.Background(), &buf, cfg)
		t.RequireNoError(err)
		defer closer()

		t.CheckDeepEqual([]string{"human", "webhook"}, sinks.Sinks())
	})
}

func TestBuildSinksWritesToFile(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		path := t.NewTempDir().Path("matches.jsonl")
		cfg := config.Default()
		cfg.Output.Format = "json"
		cfg.Output.File = path

		sinks, closer, err := buildSinks(context.Background(), nil, cfg)
		t.RequireNoError(err)
		closer()

		t.CheckDeepEqual([]string{"json"}, sinks.Sinks())
		if _, err := os.Stat(path); err != nil {
			t.Errorf("output file was not created: %v", err)
		}
	})
}
