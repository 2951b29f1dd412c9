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

package sink

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/certsentry/certsentry/pkg/certsentry/output"
)

// Human prints matches for people watching a terminal. Colors are
// applied only when the writer supports them.
type Human struct {
	out   io.Writer
	color bool
}

// NewHuman wraps out, auto-detecting color support unless noColor forces
// plain text.
func NewHuman(out io.Writer, noColor bool) *Human {
	w, useColor := output.SetupColors(out, noColor)
	return &Human{out: w, color: useColor}
}

func (h *Human) Name() string { return "human" }

func (h *Human) Emit(match *Match) error {
	kind := "cert"
	if match.IsPrecert {
		kind = "precert"
	}

	header := fmt.Sprintf("[%s] %s", match.Timestamp.Format("2006-01-02 15:04:05"), match.MatchedDomain)
	if h.color {
		header = fmt.Sprintf("[%s] %s", match.Timestamp.Format("2006-01-02 15:04:05"), output.LightGreen.Sprint(match.MatchedDomain))
	}
	if match.ProgramName != nil {
		program := *match.ProgramName
		if match.Platform != nil {
			program += "@" + *match.Platform
		}
		if h.color {
			program = output.LightBlue.Sprint(program)
		}
		header += fmt.Sprintf(" (%s)", program)
	}
	if _, err := fmt.Fprintln(h.out, header); err != nil {
		return err
	}

	var details []string
	if match.CertIndex != nil {
		details = append(details, fmt.Sprintf("%s #%d", kind, *match.CertIndex))
	} else {
		details = append(details, kind)
	}
	if match.NotBefore != nil && match.NotAfter != nil {
		details = append(details, fmt.Sprintf("valid %s to %s",
			time.Unix(*match.NotBefore, 0).UTC().Format("2006-01-02"),
			time.Unix(*match.NotAfter, 0).UTC().Format("2006-01-02")))
	}
	if match.Issuer != nil {
		details = append(details, "issuer "+*match.Issuer)
	}
	if _, err := fmt.Fprintf(h.out, "  %s\n", strings.Join(details, ", ")); err != nil {
		return err
	}

	if len(match.AllDomains) > 1 {
		if _, err := fmt.Fprintf(h.out, "  domains: %s\n", strings.Join(match.AllDomains, ", ")); err != nil {
			return err
		}
	}
	if match.Fingerprint != nil {
		fp := *match.Fingerprint
		if h.color {
			fp = output.Cyan.Sprint(fp)
		}
		if _, err := fmt.Fprintf(h.out, "  sha256 %s  %s\n", fp, match.LogURL); err != nil {
			return err
		}
	}
	return nil
}

func (h *Human) Flush() error { return nil }
