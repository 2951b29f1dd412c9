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

package testutil

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type BadReader struct{}

func (BadReader) Read([]byte) (int, error) { return 0, fmt.Errorf("bad read") }

type BadWriter struct{}

func (BadWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("bad write") }

// T wraps testing.T with assertion helpers shared across the test suites.
type T struct {
	*testing.T
}

// Run runs f as a subtest wrapped in a *T.
func Run(t *testing.T, name string, f func(t *T)) {
	t.Run(name, func(tt *testing.T) {
		f(&T{T: tt})
	})
}

// Override replaces the value pointed to by dest with tmp for the duration
// of the test, restoring the original value on cleanup.
func (t *T) Override(dest, tmp interface{}) {
	teardown, err := override(dest, tmp)
	if err != nil {
		t.Fatalf("temporary override value is invalid: %v", err)
		return
	}
	t.Cleanup(teardown)
}

func override(dest, tmp interface{}) (func(), error) {
	dValue := reflect.ValueOf(dest)
	if dValue.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("destination must be a pointer")
	}
	dElem := dValue.Elem()
	if !dElem.CanSet() {
		return nil, fmt.Errorf("destination is not settable")
	}

	tValue := reflect.ValueOf(tmp)
	if !tValue.Type().AssignableTo(dElem.Type()) {
		return nil, fmt.Errorf("value of type %v is not assignable to %v", tValue.Type(), dElem.Type())
	}

	saved := reflect.New(dElem.Type()).Elem()
	saved.Set(dElem)
	dElem.Set(tValue)

	return func() { dElem.Set(saved) }, nil
}

func (t *T) CheckDeepEqual(expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", expected, diff)
	}
}

func (t *T) CheckErrorAndDeepEqual(shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
		return
	}
	t.CheckDeepEqual(expected, actual, opts...)
}

func (t *T) CheckError(shouldErr bool, err error) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
	}
}

func (t *T) CheckNoError(err error) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// RequireNoError stops the test on error, for setup steps whose failure
// makes the remaining assertions meaningless.
func (t *T) RequireNoError(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func (t *T) CheckErrorContains(message string, err error) {
	t.Helper()
	if err == nil {
		t.Error("expected error, but returned none")
		return
	}
	if !strings.Contains(err.Error(), message) {
		t.Errorf("expected message [%s] not found in error: %s", message, err.Error())
	}
}

func (t *T) CheckContains(expected, actual string) {
	t.Helper()
	if !strings.Contains(actual, expected) {
		t.Errorf("expected [%s] not found in [%s]", expected, actual)
	}
}

func (t *T) CheckEmpty(actual interface{}, opts ...cmp.Option) {
	t.Helper()
	empty := cmpopts.EquateEmpty()
	if diff := cmp.Diff(nil, actual, append(opts, empty)...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", actual, diff)
	}
}

func CheckDeepEqual(t *testing.T, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", expected, diff)
	}
}

func CheckErrorAndDeepEqual(t *testing.T, shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
		return
	}
	CheckDeepEqual(t, expected, actual, opts...)
}

func CheckError(t *testing.T, shouldErr bool, err error) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
	}
}

func checkErr(shouldErr bool, err error) error {
	if err == nil && shouldErr {
		return fmt.Errorf("expected error, but returned none")
	}
	if err != nil && !shouldErr {
		return fmt.Errorf("unexpected error: %s", err)
	}
	return nil
}
