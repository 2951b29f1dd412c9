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

package cursor

import (
	"context"

	"github.com/certsentry/certsentry/pkg/certsentry/database"
)

// DatabaseStore keeps cursors in the ct_log_state table, upserting on
// every advance. Flush is a no-op since nothing is buffered.
type DatabaseStore struct {
	db *database.Store
}

// NewDatabaseStore wraps an open database connection. The caller owns
// the connection's lifecycle; Close here does not close it.
func NewDatabaseStore(db *database.Store) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) Load(logURL string) (uint64, bool, error) {
	return s.db.LoadCursor(context.Background(), logURL)
}

func (s *DatabaseStore) Advance(logURL string, next uint64) error {
	return s.db.AdvanceCursor(context.Background(), logURL, next)
}

func (s *DatabaseStore) Flush() error {
	return nil
}

func (s *DatabaseStore) List() ([]string, error) {
	return s.db.ListCursors(context.Background())
}

func (s *DatabaseStore) Close() error {
	return nil
}
