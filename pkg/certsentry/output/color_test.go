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

package output

import (
	"bytes"
	"io"
	"testing"

	"github.com/certsentry/certsentry/testutil"
)

func TestColorSprint(t *testing.T) {
	tests := []struct {
		description string
		color       Color
		expected    string
	}{
		{
			description: "green wraps in escape codes",
			color:       Green,
			expected:    "\033[32mtext\033[0m",
		},
		{
			description: "light red wraps in escape codes",
			color:       LightRed,
			expected:    "\033[91mtext\033[0m",
		},
		{
			description: "none adds no formatting",
			color:       None,
			expected:    "text",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, test.color.Sprint("text"))
		})
	}
}

func TestColorSprintf(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.CheckDeepEqual("\033[33mn=42\033[0m", Yellow.Sprintf("n=%d", 42))
		t.CheckDeepEqual("n=42", None.Sprintf("n=%d", 42))
	})
}

func TestSetupColors(t *testing.T) {
	tests := []struct {
		description   string
		isTerminal    bool
		forceOff      bool
		expectColors  bool
	}{
		{
			description:  "terminal enables colors",
			isTerminal:   true,
			expectColors: true,
		},
		{
			description:  "non-terminal disables colors",
			isTerminal:   false,
			expectColors: false,
		},
		{
			description:  "forceOff wins over terminal",
			isTerminal:   true,
			forceOff:     true,
			expectColors: false,
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.Override(&IsTerminal, func(io.Writer) (uintptr, bool) { return 0, test.isTerminal })

			var buf bytes.Buffer
			w, colors := SetupColors(&buf, test.forceOff)

			t.CheckDeepEqual(test.expectColors, colors)
			if w == nil {
				t.Errorf("expected a writer")
			}
		})
	}
}
