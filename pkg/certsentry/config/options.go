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

// Options are the command-line overrides applied on top of a loaded
// configuration. Zero values leave the configuration untouched.
type Options struct {
	ConfigFile string

	WebhookURL         string
	WebhookSecret      string
	WebhookTimeoutSecs int
	NoWebhook          bool

	NoDedupe bool

	ShowStats         bool
	StatsIntervalSecs int

	RootDomainsFile string

	OutputFormat string
	OutputFile   string
	NoColor      bool
}

// ApplyOptions overlays command-line overrides onto the configuration.
func (c *Config) ApplyOptions(opts Options) {
	if opts.NoWebhook {
		c.Webhook = nil
	} else if opts.WebhookURL != "" {
		if c.Webhook == nil {
			c.Webhook = &WebhookConfig{}
		}
		c.Webhook.URL = opts.WebhookURL
	}
	if c.Webhook != nil {
		if opts.WebhookSecret != "" {
			c.Webhook.Secret = opts.WebhookSecret
		}
		if opts.WebhookTimeoutSecs > 0 {
			c.Webhook.TimeoutSecs = opts.WebhookTimeoutSecs
		}
		if c.Webhook.TimeoutSecs == 0 {
			c.Webhook.TimeoutSecs = 5
		}
	}

	if opts.NoDedupe {
		c.Dedupe.Enabled = boolPtr(false)
	}

	if opts.ShowStats {
		c.Stats.Enabled = true
	}
	if opts.StatsIntervalSecs > 0 {
		c.Stats.IntervalSecs = opts.StatsIntervalSecs
	}

	if opts.OutputFormat != "" {
		c.Output.Format = opts.OutputFormat
	}
	if opts.OutputFile != "" {
		c.Output.File = opts.OutputFile
	}
	if opts.NoColor {
		c.Output.NoColor = true
	}
}
