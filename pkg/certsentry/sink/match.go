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
	"time"

	"github.com/certsentry/certsentry/pkg/certsentry/decoder"
	"github.com/certsentry/certsentry/pkg/certsentry/watchlist"
)

// Match is one watchlist hit, the record every sink receives.
type Match struct {
	Timestamp     time.Time  `json:"timestamp"`
	MatchedDomain string     `json:"matched_domain"`
	AllDomains    []string   `json:"all_domains"`
	CertIndex     *uint64    `json:"cert_index,omitempty"`
	NotBefore     *int64     `json:"not_before,omitempty"`
	NotAfter      *int64     `json:"not_after,omitempty"`
	Fingerprint   *string    `json:"fingerprint,omitempty"`
	ProgramName   *string    `json:"program_name,omitempty"`
	Platform      *string    `json:"platform,omitempty"`
	Issuer        *string    `json:"issuer,omitempty"`
	IsPrecert     bool       `json:"is_precert"`
	LogURL        string     `json:"log_url"`
	SeenAt        *time.Time `json:"seen_at,omitempty"`
}

// NewMatch builds the emitted record for a certificate whose domain
// matched, attributed to owner when the hit came from a program rule.
func NewMatch(cert *decoder.Certificate, matchedDomain string, owner watchlist.Owner, hasOwner bool) *Match {
	m := &Match{
		Timestamp:     time.Now().UTC(),
		MatchedDomain: matchedDomain,
		AllDomains:    cert.AllDomains,
		CertIndex:     ptr(cert.CertIndex),
		NotBefore:     ptr(cert.NotBefore),
		NotAfter:      ptr(cert.NotAfter),
		IsPrecert:     cert.IsPrecert,
		LogURL:        cert.LogURL,
	}
	if cert.Fingerprint != "" {
		m.Fingerprint = ptr(cert.Fingerprint)
	}
	if cert.Issuer != "" {
		m.Issuer = ptr(cert.Issuer)
	}
	if !cert.SeenAt.IsZero() {
		m.SeenAt = ptr(cert.SeenAt)
	}
	if hasOwner {
		m.ProgramName = ptr(owner.Name)
		if owner.Platform != "" {
			m.Platform = ptr(owner.Platform)
		}
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
