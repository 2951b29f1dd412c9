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

package cmd

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/certsentry/certsentry/testutil"
)

func TestSetUpLogs(t *testing.T) {
	tests := []struct {
		description string
		level       string
		shouldErr   bool
		expected    logrus.Level
	}{
		{description: "debug", level: "debug", expected: logrus.DebugLevel},
		{description: "info", level: "info", expected: logrus.InfoLevel},
		{description: "warn", level: "warn", expected: logrus.WarnLevel},
		{description: "unknown level", level: "verbose", shouldErr: true},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			err := SetUpLogs(io.Discard, test.level)

			t.CheckError(test.shouldErr, err)
			if !test.shouldErr {
				t.CheckDeepEqual(test.expected, logrus.GetLevel())
			}
		})
	}
}

func TestQuietFlagForcesWarnLevel(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		cmd := NewCertSentryCommand(io.Discard, io.Discard)
		cmd.SetArgs([]string{"version", "-q"})

		t.CheckNoError(cmd.Execute())
		t.CheckDeepEqual(logrus.WarnLevel, logrus.GetLevel())
	})
}
