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
	"fmt"
	"io"
	"os"

	colorable "github.com/mattn/go-colorable"
	"golang.org/x/term"
)

// Color can be used to format text with an ANSI escape code so it is
// printed to the terminal in color.
type Color int

var (
	// LightRed can format text to be displayed to the terminal in light red.
	LightRed = Color(91)
	// LightGreen can format text to be displayed to the terminal in light green.
	LightGreen = Color(92)
	// LightYellow can format text to be displayed to the terminal in light yellow.
	LightYellow = Color(93)
	// LightBlue can format text to be displayed to the terminal in light blue.
	LightBlue = Color(94)
	// LightPurple can format text to be displayed to the terminal in light purple.
	LightPurple = Color(95)
	// Red can format text to be displayed to the terminal in red.
	Red = Color(31)
	// Green can format text to be displayed to the terminal in green.
	Green = Color(32)
	// Yellow can format text to be displayed to the terminal in yellow.
	Yellow = Color(33)
	// Blue can format text to be displayed to the terminal in blue.
	Blue = Color(34)
	// Purple can format text to be displayed to the terminal in purple.
	Purple = Color(35)
	// Cyan can format text to be displayed to the terminal in cyan.
	Cyan = Color(36)
	// White can format text to be displayed to the terminal in white.
	White = Color(37)
	// None uses no color formatting.
	None = Color(0)
)

// Sprint wraps the operands in the color's ANSI escape codes.
func (c Color) Sprint(a ...interface{}) string {
	if c == None {
		return fmt.Sprint(a...)
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", c, fmt.Sprint(a...))
}

// Sprintf formats according to the format specifier and wraps the result
// in the color's ANSI escape codes.
func (c Color) Sprintf(format string, a ...interface{}) string {
	if c == None {
		return fmt.Sprintf(format, a...)
	}
	return fmt.Sprintf("\033[%dm%s\033[0m", c, fmt.Sprintf(format, a...))
}

// IsTerminal reports whether w writes to a terminal, along with the
// underlying descriptor when it does. It can be overridden for testing.
var IsTerminal = isTerminal

func isTerminal(w io.Writer) (uintptr, bool) {
	type descriptor interface {
		Fd() uintptr
	}

	if f, ok := w.(descriptor); ok {
		termFd := f.Fd()
		return termFd, term.IsTerminal(int(termFd))
	}

	return 0, false
}

// SetupColors returns the writer to use for human-facing output and whether
// colors should be applied to it. Colors are enabled when out is a terminal
// and forceOff is false; on Windows the returned writer translates ANSI
// escape codes.
func SetupColors(out io.Writer, forceOff bool) (io.Writer, bool) {
	if forceOff {
		return out, false
	}

	_, isTerm := IsTerminal(out)
	if !isTerm {
		return out, false
	}

	if f, ok := out.(*os.File); ok {
		return colorable.NewColorable(f), true
	}
	return out, true
}
