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

package version

import (
	"fmt"
	"runtime"
)

// These are set at link time via -ldflags.
var version, gitCommit, buildDate string

var platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

// Info holds the version information of the running binary.
type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Compiler  string
	Platform  string
}

// Get returns the version and build information about the binary.
func Get() *Info {
	return &Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  platform,
	}
}

// UserAgent identifies this binary on outgoing HTTP requests.
func UserAgent() string {
	if version == "" {
		return "certsentry"
	}
	return "certsentry/" + version
}
