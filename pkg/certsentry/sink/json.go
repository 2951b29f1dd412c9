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
	"encoding/json"
	"io"
)

// JSON writes one JSON object per line.
type JSON struct {
	enc *json.Encoder
}

// NewJSON wraps out in a JSON-lines sink.
func NewJSON(out io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(out)}
}

func (j *JSON) Name() string { return "json" }

func (j *JSON) Emit(match *Match) error {
	return j.enc.Encode(match)
}

func (j *JSON) Flush() error { return nil }
