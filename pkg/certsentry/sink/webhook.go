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
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/certsentry/certsentry/pkg/certsentry/version"
)

// SignatureHeader carries the HMAC-SHA256 of the request body, lowercase
// hex, when a webhook secret is configured.
const SignatureHeader = "X-CertSentry-Signature"

// webhookPayload is the over-the-wire subset of a Match.
type webhookPayload struct {
	MatchedDomain string    `json:"matched_domain"`
	AllDomains    []string  `json:"all_domains"`
	CertIndex     *uint64   `json:"cert_index,omitempty"`
	NotBefore     *int64    `json:"not_before,omitempty"`
	NotAfter      *int64    `json:"not_after,omitempty"`
	ProgramName   *string   `json:"program_name,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Fingerprint   *string   `json:"fingerprint,omitempty"`
}

// Webhook POSTs each match as JSON. The signature, when enabled, covers
// the exact body bytes sent.
type Webhook struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhook builds a webhook sink with the given delivery timeout.
func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Emit(match *Match) error {
	body, err := json.Marshal(webhookPayload{
		MatchedDomain: match.MatchedDomain,
		AllDomains:    match.AllDomains,
		CertIndex:     match.CertIndex,
		NotBefore:     match.NotBefore,
		NotAfter:      match.NotAfter,
		ProgramName:   match.ProgramName,
		Timestamp:     match.Timestamp,
		Fingerprint:   match.Fingerprint,
	})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if w.secret != "" {
		req.Header.Set(SignatureHeader, sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("delivering webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) Flush() error { return nil }

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
