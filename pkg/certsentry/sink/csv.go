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
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp", "matched_domain", "all_domains", "cert_index",
	"not_before", "not_after", "fingerprint", "program_name", "platform",
	"issuer", "is_precert", "log_url",
}

// CSV writes one row per match. The header goes out once, before the
// first record, so an empty run produces an empty file. Multi-domain
// lists are joined with ';' inside one field; quoting of commas, quotes
// and newlines is the csv writer's job.
type CSV struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSV wraps out in a CSV sink.
func NewCSV(out io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(out)}
}

func (c *CSV) Name() string { return "csv" }

func (c *CSV) Emit(match *Match) error {
	if !c.wroteHeader {
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}

	row := []string{
		match.Timestamp.UTC().Format(time.RFC3339),
		match.MatchedDomain,
		strings.Join(match.AllDomains, ";"),
		uintField(match.CertIndex),
		intField(match.NotBefore),
		intField(match.NotAfter),
		stringField(match.Fingerprint),
		stringField(match.ProgramName),
		stringField(match.Platform),
		stringField(match.Issuer),
		strconv.FormatBool(match.IsPrecert),
		match.LogURL,
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSV) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

func uintField(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func intField(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func stringField(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
