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

package database

import (
	"context"
	"strings"
	"testing"

	"github.com/certsentry/certsentry/testutil"
)

func TestConnectRejectsMalformedURL(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		_, err := Connect(context.Background(), "://not-a-url", 5)

		t.CheckError(true, err)
	})
}

func TestSchemaCoversAllTables(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		for _, stmt := range []string{
			"CREATE TABLE IF NOT EXISTS ct_log_state",
			"CREATE TABLE IF NOT EXISTS matches",
			"CREATE INDEX IF NOT EXISTS idx_matches_domain",
			"CREATE INDEX IF NOT EXISTS idx_matches_timestamp",
			"CREATE INDEX IF NOT EXISTS idx_matches_program",
		} {
			if !strings.Contains(schema, stmt) {
				t.Errorf("schema is missing %q", stmt)
			}
		}
	})
}
