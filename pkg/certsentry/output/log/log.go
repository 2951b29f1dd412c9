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

package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextKey struct{}

var ContextKey = contextKey{}

// EventContext carries the CT log a goroutine is working against, so that
// every diagnostic line can be traced back to its source log.
type EventContext struct {
	LogURL string
}

// WithLogURL returns a context whose log entries carry the given log URL.
func WithLogURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, ContextKey, EventContext{LogURL: url})
}

// Entry takes a context.Context and constructs a logrus.Entry from it,
// adding a field for the CT log URL when one is attached.
func Entry(ctx context.Context) *logrus.Entry {
	val := ctx.Value(ContextKey)
	if eventContext, ok := val.(EventContext); ok {
		return logrus.WithField("log", eventContext.LogURL)
	}

	return logrus.NewEntry(logrus.StandardLogger())
}
