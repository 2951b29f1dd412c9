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
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/certsentry/certsentry/pkg/certsentry/config"
	"github.com/certsentry/certsentry/pkg/certsentry/loglist"
)

// NewCmdLogs describes the CLI command to list the monitored logs.
func NewCmdLogs(out io.Writer) *cobra.Command {
	return NewCmd(out, "logs").
		WithDescription("Lists the CT logs the current configuration would monitor").
		NoArgs(doLogs)
}

func doLogs(out io.Writer) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	logs, err := loglist.FromConfig(context.Background(), &cfg.CTLogs, loglist.Fetch)
	if err != nil {
		return errors.Wrap(err, "discovering logs")
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "STATE\tOPERATOR\tURL")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.State, l.Operator, l.URL)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d logs\n", len(logs))
	return nil
}
