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
	"testing"

	"github.com/certsentry/certsentry/testutil"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		asset    string
		expected string
	}{
		{asset: "https://example.com", expected: "example.com"},
		{asset: "http://www.example.com/path", expected: "www.example.com"},
		{asset: "https://example.com:8443/login", expected: "example.com"},
		{asset: "*.example.com", expected: "*.example.com"},
		{asset: "example.com", expected: "example.com"},
		{asset: "  example.com  ", expected: "example.com"},
		{asset: "", expected: ""},
	}
	for _, test := range tests {
		testutil.Run(t, test.asset, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, ExtractDomain(test.asset))
		})
	}
}
