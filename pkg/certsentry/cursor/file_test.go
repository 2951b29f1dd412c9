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

package cursor

import (
	"fmt"
	"sort"
	"testing"

	"github.com/certsentry/certsentry/testutil"
)

const logURL = "https://ct.example.com/log"

func TestMissingFileIsEmptyCursorSet(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		store, err := NewFileStore(t.NewTempDir().Path("state.yaml"))
		t.RequireNoError(err)

		_, found, err := store.Load(logURL)
		t.CheckNoError(err)
		t.CheckDeepEqual(false, found)
	})
}

func TestUnreadableFileIsFatal(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir().Write("state.yaml", "{{{not yaml")

		_, err := NewFileStore(tmpDir.Path("state.yaml"))
		t.CheckError(true, err)
	})
}

func TestAdvanceAndReload(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		path := t.NewTempDir().Path("state.yaml")

		store, err := NewFileStore(path)
		t.RequireNoError(err)
		t.CheckNoError(store.Advance(logURL, 1050))
		t.CheckNoError(store.Close())

		reloaded, err := NewFileStore(path)
		t.RequireNoError(err)
		index, found, err := reloaded.Load(logURL)
		t.CheckNoError(err)
		t.CheckDeepEqual(true, found)
		t.CheckDeepEqual(uint64(1050), index)
	})
}

func TestCursorNeverRegresses(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		store, err := NewFileStore(t.NewTempDir().Path("state.yaml"))
		t.RequireNoError(err)

		var last uint64
		for _, next := range []uint64{10, 20, 15, 20, 25, 5} {
			t.CheckNoError(store.Advance(logURL, next))

			index, _, err := store.Load(logURL)
			t.CheckNoError(err)
			if index < last {
				t.Errorf("cursor regressed from %d to %d", last, index)
			}
			last = index
		}
		t.CheckDeepEqual(uint64(25), last)
	})
}

func TestAutoSaveEveryHundredAdvances(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		path := t.NewTempDir().Path("state.yaml")

		store, err := NewFileStore(path)
		t.RequireNoError(err)

		for i := uint64(1); i <= 99; i++ {
			t.CheckNoError(store.Advance(logURL, i))
		}
		// 99 advances: nothing hit the disk yet.
		fresh, err := NewFileStore(path)
		t.RequireNoError(err)
		_, found, _ := fresh.Load(logURL)
		t.CheckDeepEqual(false, found)

		t.CheckNoError(store.Advance(logURL, 100))

		fresh, err = NewFileStore(path)
		t.RequireNoError(err)
		index, found, _ := fresh.Load(logURL)
		t.CheckDeepEqual(true, found)
		t.CheckDeepEqual(uint64(100), index)
	})
}

func TestSaveFailureDoesNotBlockAdvance(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmpDir := t.NewTempDir()
		store, err := NewFileStore(tmpDir.Path("state.yaml"))
		t.RequireNoError(err)

		// Make the state path a directory so the rename fails.
		tmpDir.Mkdir("state.yaml")

		for i := uint64(1); i <= 150; i++ {
			t.CheckNoError(store.Advance(logURL, i))
		}

		index, found, err := store.Load(logURL)
		t.CheckNoError(err)
		t.CheckDeepEqual(true, found)
		t.CheckDeepEqual(uint64(150), index)
	})
}

func TestList(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		store, err := NewFileStore(t.NewTempDir().Path("state.yaml"))
		t.RequireNoError(err)

		for i := 0; i < 3; i++ {
			t.CheckNoError(store.Advance(fmt.Sprintf("https://log%d.example.com", i), 1))
		}

		urls, err := store.List()
		t.CheckNoError(err)
		sort.Strings(urls)
		t.CheckDeepEqual([]string{
			"https://log0.example.com",
			"https://log1.example.com",
			"https://log2.example.com",
		}, urls)
	})
}
