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

	"github.com/sirupsen/logrus"

	"github.com/certsentry/certsentry/pkg/certsentry/version"
)

const (
	intigritiBaseURL   = "https://api.intigriti.com/external/researcher"
	intigritiPageLimit = 500

	// Tiers 1 through 4 are in scope; tier id 5 is "Out Of Scope".
	intigritiOutOfScopeTier = 5
)

// Intigriti pulls program scopes from the Intigriti researcher API using
// a bearer token.
type Intigriti struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

// NewIntigriti returns a source for the given API token.
func NewIntigriti(apiToken string) *Intigriti {
	return &Intigriti{
		apiToken: apiToken,
		baseURL:  intigritiBaseURL,
		httpClient: &http.Client{
			Timeout: platformRequestTimeout,
		},
	}
}

// WithBaseURL points the source at a different API endpoint, for tests.
func (i *Intigriti) WithBaseURL(url string) *Intigriti {
	i.baseURL = strings.TrimRight(url, "/")
	return i
}

func (i *Intigriti) Name() string { return "intigriti" }

type intigritiProgramList struct {
	Records []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Handle string `json:"handle"`
	} `json:"records"`
	MaxCount int `json:"maxCount"`
}

type intigritiProgramDetail struct {
	Domains struct {
		Content []struct {
			Endpoint string `json:"endpoint"`
			Type     struct {
				Value string `json:"value"`
			} `json:"type"`
			Tier struct {
				ID    int    `json:"id"`
				Value string `json:"value"`
			} `json:"tier"`
		} `json:"content"`
	} `json:"domains"`
}

// FetchPrograms lists programs with offset pagination, then fetches each
// program's scope. Only programs with at least one in-scope domain are
// returned.
func (i *Intigriti) FetchPrograms(ctx context.Context) ([]Program, error) {
	var programs []Program
	restricted := 0
	seen := 0

	for offset := 0; ; offset += intigritiPageLimit {
		url := fmt.Sprintf("%s/v1/programs?limit=%d&offset=%d", i.baseURL, intigritiPageLimit, offset)

		var list intigritiProgramList
		if err := i.getJSON(ctx, url, &list); err != nil {
			return nil, fmt.Errorf("listing programs at offset %d: %w", offset, err)
		}
		if len(list.Records) == 0 {
			break
		}

		for _, p := range list.Records {
			if p.ID == "" {
				continue
			}
			domains, err := i.fetchScope(ctx, p.ID)
			if err != nil {
				logrus.Warnf("intigriti: fetching scope for %s: %v", p.ID, err)
				restricted++
				continue
			}
			if len(domains) == 0 {
				continue
			}
			programs = append(programs, Program{
				ID:      p.ID,
				Name:    p.Name,
				Handle:  p.Handle,
				Domains: domains,
			})
		}

		seen += len(list.Records)
		if seen >= list.MaxCount {
			break
		}
	}

	logrus.Infof("intigriti: %d programs with in-scope domains (%d restricted)", len(programs), restricted)
	return programs, nil
}

// fetchScope returns the in-scope domains of one program. Restricted
// programs answer 403; those come back as an empty scope, not an error.
func (i *Intigriti) fetchScope(ctx context.Context, programID string) ([]string, error) {
	var detail intigritiProgramDetail
	err := i.getJSON(ctx, i.baseURL+"/v1/programs/"+programID, &detail)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status == http.StatusForbidden {
			logrus.Debugf("intigriti: program %s is not accessible", programID)
			return nil, nil
		}
		return nil, err
	}

	var domains []string
	for _, entry := range detail.Domains.Content {
		if entry.Tier.ID <= 0 || entry.Tier.ID >= intigritiOutOfScopeTier || entry.Tier.Value == "Out Of Scope" {
			continue
		}
		kind := strings.ToLower(entry.Type.Value)
		if kind != "url" && kind != "wildcard" {
			continue
		}
		if d := ExtractDomain(entry.Endpoint); d != "" {
			domains = append(domains, d)
		}
	}
	return domains, nil
}

// TestConnection lists the first programs page to verify the token.
func (i *Intigriti) TestConnection(ctx context.Context) error {
	var list intigritiProgramList
	url := fmt.Sprintf("%s/v1/programs?limit=1&offset=0", i.baseURL)
	if err := i.getJSON(ctx, url, &list); err != nil {
		return fmt.Errorf("intigriti connection test: %w", err)
	}
	return nil
}

func (i *Intigriti) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+i.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := i.httpClient.Do(req)
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
