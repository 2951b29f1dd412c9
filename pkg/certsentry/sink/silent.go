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

// Silent discards matches. Useful when only the webhook, Redis or the
// database should receive them.
type Silent struct{}

func (Silent) Name() string      { return "silent" }
func (Silent) Emit(*Match) error { return nil }
func (Silent) Flush() error      { return nil }
