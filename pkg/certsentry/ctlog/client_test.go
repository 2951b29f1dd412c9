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

package ctlog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/certsentry/certsentry/testutil"
)

func TestGetSTH(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.CheckDeepEqual("/ct/v1/get-sth", r.URL.Path)
			w.Write([]byte(`{"tree_size":1050,"timestamp":1717243200000,"sha256_root_hash":"abc=","tree_head_signature":"sig="}`))
		}))
		defer server.Close()

		sth, err := NewClient(server.URL + "/").GetSTH(context.Background())

		t.CheckNoError(err)
		t.CheckDeepEqual(uint64(1050), sth.TreeSize)
		t.CheckDeepEqual("abc=", sth.SHA256RootHash)
	})
}

func TestGetEntries(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.CheckDeepEqual("/ct/v1/get-entries", r.URL.Path)
			t.CheckDeepEqual("1000", r.URL.Query().Get("start"))
			t.CheckDeepEqual("1049", r.URL.Query().Get("end"))
			w.Write([]byte(`{"entries":[{"leaf_input":"bGVhZg==","extra_data":"ZXh0cmE="}]}`))
		}))
		defer server.Close()

		entries, err := NewClient(server.URL).GetEntries(context.Background(), 1000, 1049)

		t.CheckNoError(err)
		t.CheckDeepEqual(1, len(entries))
		t.CheckDeepEqual("bGVhZg==", entries[0].LeafInput)
		t.CheckDeepEqual("ZXh0cmE=", entries[0].ExtraData)
	})
}

func TestGetEntriesRejectsInvertedRange(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		_, err := NewClient("https://ct.example.com").GetEntries(context.Background(), 10, 9)

		t.CheckErrorContains("invalid range", err)
	})
}

func TestRateLimitedError(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := NewClient(server.URL).WithMaxRetries(0).GetSTH(context.Background())

		t.CheckDeepEqual(true, errors.Is(err, ErrRateLimited))
	})
}

func TestLogErrorCarriesStatusAndBody(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("maintenance window"))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).WithMaxRetries(0).GetSTH(context.Background())

		var logErr *LogError
		if !errors.As(err, &logErr) {
			t.Fatalf("expected *LogError, got %v", err)
		}
		t.CheckDeepEqual(http.StatusServiceUnavailable, logErr.Status)
		t.CheckDeepEqual("maintenance window", logErr.Body)
	})
}

func TestRetriesUntilSuccess(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		calls := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"tree_size":7,"timestamp":0,"sha256_root_hash":""}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		client.retryInitial = time.Millisecond

		sth, err := client.GetSTH(context.Background())

		t.CheckNoError(err)
		t.CheckDeepEqual(uint64(7), sth.TreeSize)
		t.CheckDeepEqual(2, calls)
	})
}

func TestEmptyEntriesIsAnError(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"entries":[]}`))
		}))
		defer server.Close()

		_, err := NewClient(server.URL).WithMaxRetries(0).GetEntries(context.Background(), 0, 10)

		t.CheckErrorContains("empty entries", err)
	})
}

func TestCancellationStopsRetries(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewClient(server.URL).GetSTH(ctx)

		t.CheckError(true, err)
	})
}
