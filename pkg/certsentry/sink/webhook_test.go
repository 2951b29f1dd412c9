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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/certsentry/certsentry/testutil"
)

func TestWebhookDeliversPayload(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		var received []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.CheckDeepEqual(http.MethodPost, r.Method)
			t.CheckDeepEqual("application/json", r.Header.Get("Content-Type"))
			received, _ = io.ReadAll(r.Body)
		}))
		defer server.Close()

		hook := NewWebhook(server.URL, "", 5*time.Second)
		t.CheckNoError(hook.Emit(testMatch()))

		var payload map[string]interface{}
		t.CheckNoError(json.Unmarshal(received, &payload))
		t.CheckDeepEqual("www.example.com", payload["matched_domain"])
		t.CheckDeepEqual("acme", payload["program_name"])
		t.CheckDeepEqual(float64(1234), payload["cert_index"])
		// Fields outside the webhook contract stay off the wire.
		if _, ok := payload["log_url"]; ok {
			t.Errorf("unexpected log_url in webhook payload")
		}
	})
}

func TestWebhookSignsBody(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		const secret = "hunter2"
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			t.CheckDeepEqual(hex.EncodeToString(mac.Sum(nil)), r.Header.Get(SignatureHeader))
		}))
		defer server.Close()

		hook := NewWebhook(server.URL, secret, 5*time.Second)
		t.CheckNoError(hook.Emit(testMatch()))
	})
}

func TestWebhookOmitsSignatureWithoutSecret(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.CheckDeepEqual("", r.Header.Get(SignatureHeader))
		}))
		defer server.Close()

		hook := NewWebhook(server.URL, "", 5*time.Second)
		t.CheckNoError(hook.Emit(testMatch()))
	})
}

func TestWebhookFailsOnNon2xx(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		hook := NewWebhook(server.URL, "", 5*time.Second)
		t.CheckErrorContains("HTTP 400", hook.Emit(testMatch()))
	})
}

func TestWebhookFailsOnUnreachableEndpoint(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		hook := NewWebhook("http://127.0.0.1:1", "", 100*time.Millisecond)
		t.CheckError(true, hook.Emit(testMatch()))
	})
}
