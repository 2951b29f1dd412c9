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
	"bytes"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	yaml "gopkg.in/yaml.v3"

	"github.com/certsentry/certsentry/pkg/certsentry/constants"
)

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration %q: %w", path, err)
	}

	cfg, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals a configuration document, rejecting unknown keys, then
// applies defaults and validates.
func Parse(buf []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) expandPaths() error {
	stateFile, err := homedir.Expand(c.CTLogs.StateFile)
	if err != nil {
		return fmt.Errorf("expanding state file path: %w", err)
	}
	c.CTLogs.StateFile = stateFile

	if c.Output.File != "" {
		outputFile, err := homedir.Expand(c.Output.File)
		if err != nil {
			return fmt.Errorf("expanding output file path: %w", err)
		}
		c.Output.File = outputFile
	}
	return nil
}

// Validate rejects configurations the monitor cannot run with. Validation
// failures are fatal at startup.
func (c *Config) Validate() error {
	if c.CTLogs.PollIntervalSecs <= 0 {
		return fmt.Errorf("ct_logs.poll_interval_secs must be positive, got %d", c.CTLogs.PollIntervalSecs)
	}
	if c.CTLogs.BatchSize == 0 {
		return fmt.Errorf("ct_logs.batch_size must be positive")
	}
	if c.CTLogs.MaxConcurrentLogs <= 0 {
		return fmt.Errorf("ct_logs.max_concurrent_logs must be positive, got %d", c.CTLogs.MaxConcurrentLogs)
	}

	switch c.CTLogs.StateBackend {
	case constants.StateBackendFile, constants.StateBackendDatabase:
	default:
		return fmt.Errorf("ct_logs.state_backend must be %q or %q, got %q",
			constants.StateBackendFile, constants.StateBackendDatabase, c.CTLogs.StateBackend)
	}
	if c.CTLogs.StateBackend == constants.StateBackendDatabase && !c.Database.Enabled {
		return fmt.Errorf("ct_logs.state_backend %q requires database.enabled", constants.StateBackendDatabase)
	}

	if c.Webhook != nil && c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required when a webhook section is present")
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when redis.enabled")
	}
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("database.url is required when database.enabled")
	}
	if c.Platforms.HackerOne.Enabled && (c.Platforms.HackerOne.Username == "" || c.Platforms.HackerOne.APIToken == "") {
		return fmt.Errorf("platforms.hackerone requires username and api_token")
	}
	if c.Platforms.Intigriti.Enabled && c.Platforms.Intigriti.APIToken == "" {
		return fmt.Errorf("platforms.intigriti requires api_token")
	}

	switch c.Output.Format {
	case constants.OutputFormatHuman, constants.OutputFormatJSON, constants.OutputFormatCSV, constants.OutputFormatSilent:
	default:
		return fmt.Errorf("output.format must be one of human, json, csv, silent; got %q", c.Output.Format)
	}

	for i, p := range c.Programs {
		if p.Name == "" {
			return fmt.Errorf("programs[%d].name is required", i)
		}
	}
	return nil
}
