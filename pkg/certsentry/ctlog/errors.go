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
	"errors"
	"fmt"
)

// ErrRateLimited marks an HTTP 429 from a log. It counts as a failure for
// health tracking but is logged at warn rather than error.
var ErrRateLimited = errors.New("rate limited by log (HTTP 429)")

// LogError is a non-2xx response other than 429.
type LogError struct {
	Status int
	Body   string
}

func (e *LogError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("log returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("log returned HTTP %d: %s", e.Status, e.Body)
}
