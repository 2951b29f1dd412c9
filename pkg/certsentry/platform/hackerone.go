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

package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/certsentry/certsentry/pkg/certsentry/version"
)

const (
	hackerOneBaseURL  = "https://api.hackerone.com"
	hackerOnePageSize = 100

	platformRequestTimeout = 30 * time.Second
)

// HackerOne pulls program scopes from the HackerOne hacker API using
// basic auth. Programs the account cannot access return 403 and are
// skipped quietly.
type HackerOne struct {
	username   string
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewHackerOne returns a source for the given API credentials.
func NewHackerOne(username, apiToken string) *HackerOne {
	return &HackerOne{
		username: username,
		apiToken: apiToken,
		baseURL:  hackerOneBaseURL,
		httpClient: &http.Client{
			Timeout: platformRequestTimeout,
		},
	}
}

// WithBaseURL points the source at a different API endpoint, for tests.
func (h *HackerOne) WithBaseURL(url string) *HackerOne {
	h.baseURL = strings.TrimRight(url, "/")
	return h
}

func (h *HackerOne) Name() string { return "hackerone" }

type h1ProgramList struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Handle string `json:"handle"`
			Name   string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type h1ProgramDetail struct {
	Data struct {
		Relationships struct {
			StructuredScopes struct {
				Data []struct {
					Attributes struct {
						AssetType             string `json:"asset_type"`
						AssetIdentifier       string `json:"asset_identifier"`
						EligibleForSubmission bool   `json:"eligible_for_submission"`
					} `json:"attributes"`
				} `json:"data"`
			} `json:"structured_scopes"`
		} `json:"relationships"`
	} `json:"data"`
}

// FetchPrograms lists every enrolled program page by page, then fetches
// each program's structured scope. Only programs with at least one
// in-scope domain are returned.
func (h *HackerOne) FetchPrograms(ctx context.Context) ([]Program, error) {
	var programs []Program
	restricted := 0

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/v1/hackers/programs?page[number]=%d&page[size]=%d", h.baseURL, page, hackerOnePageSize)

		var list h1ProgramList
		if err := h.getJSON(ctx, url, &list); err != nil {
			return nil, fmt.Errorf("listing programs page %d: %w", page, err)
		}
		if len(list.Data) == 0 {
			break
		}

		for _, p := range list.Data {
			if p.Attributes.Handle == "" {
				continue
			}
			domains, err := h.fetchScope(ctx, p.Attributes.Handle)
			if err != nil {
				logrus.Warnf("hackerone: fetching scope for %s: %v", p.Attributes.Handle, err)
				restricted++
				continue
			}
			if len(domains) == 0 {
				continue
			}
			programs = append(programs, Program{
				ID:      p.ID,
				Name:    p.Attributes.Name,
				Handle:  p.Attributes.Handle,
				Domains: domains,
			})
		}

		if list.Links.Next == "" {
			break
		}
	}

	logrus.Infof("hackerone: %d programs with in-scope domains (%d restricted)", len(programs), restricted)
	return programs, nil
}

// fetchScope returns the in-scope domains of one program. Restricted
// programs answer 403; those come back as an empty scope, not an error.
func (h *HackerOne) fetchScope(ctx context.Context, handle string) ([]string, error) {
	var detail h1ProgramDetail
	err := h.getJSON(ctx, h.baseURL+"/v1/hackers/programs/"+handle, &detail)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusForbidden {
			logrus.Debugf("hackerone: program %s is not accessible", handle)
			return nil, nil
		}
		return nil, err
	}

	var domains []string
	for _, scope := range detail.Data.Relationships.StructuredScopes.Data {
		attr := scope.Attributes
		if !attr.EligibleForSubmission {
			continue
		}
		switch attr.AssetType {
		case "URL", "WILDCARD", "DOMAIN":
			if d := ExtractDomain(attr.AssetIdentifier); d != "" {
				domains = append(domains, d)
			}
		}
	}
	return domains, nil
}

// TestConnection lists the first programs page to verify credentials.
func (h *HackerOne) TestConnection(ctx context.Context) error {
	var list h1ProgramList
	if err := h.getJSON(ctx, h.baseURL+"/v1/hackers/programs", &list); err != nil {
		return fmt.Errorf("hackerone connection test: %w", err)
	}
	return nil
}

func (h *HackerOne) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(h.username, h.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return &apiError{status: resp.StatusCode, body: strings.TrimSpace(string(excerpt))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
