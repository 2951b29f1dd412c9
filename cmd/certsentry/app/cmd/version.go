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
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/certsentry/certsentry/pkg/certsentry/version"
)

// NewCmdVersion describes the CLI command to print the version.
func NewCmdVersion(out io.Writer) *cobra.Command {
	return NewCmd(out, "version").
		WithDescription("Prints the version of certsentry").
		NoArgs(doVersion)
}

func doVersion(out io.Writer) error {
	info := version.Get()
	fmt.Fprintf(out, "certsentry %s\n", orDev(info.Version))
	fmt.Fprintf(out, "  commit: %s\n", orDev(info.GitCommit))
	fmt.Fprintf(out, "  built:  %s\n", orDev(info.BuildDate))
	fmt.Fprintf(out, "  go:     %s %s\n", info.GoVersion, info.Platform)
	return nil
}

func orDev(s string) string {
	if s == "" {
		return "(dev)"
	}
	return s
}
