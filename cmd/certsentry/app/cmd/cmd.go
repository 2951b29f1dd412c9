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
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
	"github.com/certsentry/certsentry/pkg/certsentry/constants"
)

var (
	opts  = config.Options{}
	v     string
	quiet bool

	// rootCmd is the command built by the latest NewCertSentryCommand
	// call; subcommands consult its flags.
	rootCmd *cobra.Command
)

// NewCertSentryCommand builds the root command with out for command
// output and stderr for logs.
func NewCertSentryCommand(out, stderr io.Writer) *cobra.Command {
	opts = config.Options{}

	cmd := &cobra.Command{
		Use:   "certsentry",
		Short: "Watches Certificate Transparency logs for certificates matching your domains.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if quiet {
				v = logrus.WarnLevel.String()
			}
			return SetUpLogs(stderr, v)
		},
	}
	cmd.SetOut(out)

	cmd.AddCommand(NewCmdRun(out))
	cmd.AddCommand(NewCmdLogs(out))
	cmd.AddCommand(NewCmdVersion(out))

	cmd.PersistentFlags().StringVarP(&v, "verbosity", "v", constants.DefaultLogLevel.String(), "Log level (debug, info, warn, error, fatal, panic)")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress logs below the warning level")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", constants.DefaultConfigFile, "Path to the configuration file")

	rootCmd = cmd
	return cmd
}

// SetUpLogs routes diagnostics to stderr and applies the verbosity flag.
func SetUpLogs(stderr io.Writer, level string) error {
	logrus.SetOutput(stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "parsing log level")
	}
	logrus.SetLevel(lvl)
	return nil
}

// applyConfigLogLevel lets the configuration raise or lower verbosity
// when the --verbosity flag was not given.
func applyConfigLogLevel(cfg *config.Config) {
	if cfg.Logging.Level == "" {
		return
	}
	if rootCmd != nil && (rootCmd.PersistentFlags().Changed("verbosity") || rootCmd.PersistentFlags().Changed("quiet")) {
		return
	}
	lvl, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logrus.Warnf("ignoring invalid logging.level %q: %v", cfg.Logging.Level, err)
		return
	}
	logrus.SetLevel(lvl)
}
