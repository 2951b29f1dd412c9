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

// Package database persists matches and per-log cursors in PostgreSQL.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/certsentry/certsentry/pkg/certsentry/sink"
)

const schema = `
CREATE TABLE IF NOT EXISTS ct_log_state (
	log_url      TEXT PRIMARY KEY,
	last_index   BIGINT NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS matches (
	id             BIGSERIAL PRIMARY KEY,
	timestamp      TIMESTAMPTZ NOT NULL,
	matched_domain TEXT NOT NULL,
	all_domains    TEXT[] NOT NULL,
	cert_index     BIGINT,
	not_before     BIGINT,
	not_after      BIGINT,
	fingerprint    TEXT,
	program_name   TEXT,
	seen_unix      BIGINT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_matches_domain ON matches (matched_domain);
CREATE INDEX IF NOT EXISTS idx_matches_timestamp ON matches (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_matches_program ON matches (program_name) WHERE program_name IS NOT NULL;
`

// Store is a pgx-backed match and cursor store.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against url and verifies the connection.
func Connect(ctx context.Context, url string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Init creates the tables and indexes when they do not exist yet.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// SaveMatch inserts one match record.
func (s *Store) SaveMatch(ctx context.Context, m *sink.Match) error {
	var seenUnix *int64
	if m.SeenAt != nil {
		unix := m.SeenAt.Unix()
		seenUnix = &unix
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO matches (timestamp, matched_domain, all_domains, cert_index,
		                     not_before, not_after, fingerprint, program_name, seen_unix)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.Timestamp, m.MatchedDomain, m.AllDomains, m.CertIndex,
		m.NotBefore, m.NotAfter, m.Fingerprint, m.ProgramName, seenUnix)
	if err != nil {
		return fmt.Errorf("saving match for %s: %w", m.MatchedDomain, err)
	}
	return nil
}

// StoredMatch is one row from the matches table.
type StoredMatch struct {
	ID            int64
	Timestamp     string
	MatchedDomain string
	AllDomains    []string
	CertIndex     *int64
	Fingerprint   *string
	ProgramName   *string
}

// RecentMatches returns the newest matches, newest first.
func (s *Store) RecentMatches(ctx context.Context, limit int) ([]StoredMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp::text, matched_domain, all_domains, cert_index, fingerprint, program_name
		FROM matches ORDER BY timestamp DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent matches: %w", err)
	}
	return scanMatches(rows)
}

// MatchesForDomain returns the newest matches for one domain.
func (s *Store) MatchesForDomain(ctx context.Context, domain string, limit int) ([]StoredMatch, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, timestamp::text, matched_domain, all_domains, cert_index, fingerprint, program_name
		FROM matches WHERE matched_domain = $1 ORDER BY timestamp DESC LIMIT $2`, domain, limit)
	if err != nil {
		return nil, fmt.Errorf("querying matches for %s: %w", domain, err)
	}
	return scanMatches(rows)
}

func scanMatches(rows pgx.Rows) ([]StoredMatch, error) {
	defer rows.Close()

	var out []StoredMatch
	for rows.Next() {
		var m StoredMatch
		if err := rows.Scan(&m.ID, &m.Timestamp, &m.MatchedDomain, &m.AllDomains,
			&m.CertIndex, &m.Fingerprint, &m.ProgramName); err != nil {
			return nil, fmt.Errorf("scanning match row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadCursor returns the next index to fetch for a log.
func (s *Store) LoadCursor(ctx context.Context, logURL string) (uint64, bool, error) {
	var index int64
	err := s.pool.QueryRow(ctx,
		`SELECT last_index FROM ct_log_state WHERE log_url = $1`, logURL).Scan(&index)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("loading cursor for %s: %w", logURL, err)
	}
	return uint64(index), true, nil
}

// AdvanceCursor upserts the log's position, keeping the larger of the
// stored and the new value.
func (s *Store) AdvanceCursor(ctx context.Context, logURL string, next uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ct_log_state (log_url, last_index, last_updated)
		VALUES ($1, $2, now())
		ON CONFLICT (log_url) DO UPDATE
		SET last_index = GREATEST(ct_log_state.last_index, EXCLUDED.last_index),
		    last_updated = now()`,
		logURL, int64(next))
	if err != nil {
		return fmt.Errorf("advancing cursor for %s: %w", logURL, err)
	}
	return nil
}

// ListCursors returns every log URL with a stored cursor.
func (s *Store) ListCursors(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT log_url FROM ct_log_state`)
	if err != nil {
		return nil, fmt.Errorf("listing cursors: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning cursor row: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}
