// Mgmt
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

package util

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func TestSortedKeys(t *testing.T) {
	type name string
	m := map[name]int{"zz": 1, "aa": 2, "mm": 3}
	if diff := pretty.Compare([]name{"aa", "mm", "zz"}, SortedKeys(m)); diff != "" {
		t.Errorf("unexpected result:\n%s", diff)
	}
}

func TestTrimOneNewline(t *testing.T) {
	testCases := []struct{ in, out string }{
		{"", ""},
		{"hello", "hello"},
		{"hello\n", "hello"},
		{"hello\r\n", "hello"},
		{"hello\n\n", "hello\n"},
	}
	for index, tc := range testCases {
		if s := TrimOneNewline(tc.in); s != tc.out {
			t.Errorf("test #%d: expected %q, got %q", index, tc.out, s)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	testCases := []struct {
		a, b string
		d    int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"counter", "conuter", 1}, // transposition
		{"foo", "fo", 1},
	}
	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s/%s)", index, tc.a, tc.b), func(t *testing.T) {
			if d := Levenshtein(tc.a, tc.b); d != tc.d {
				t.Errorf("test #%d: expected %d, got %d", index, tc.d, d)
			}
		})
	}
}

func TestSimilarStrings(t *testing.T) {
	haystack := []string{"counter", "count", "volume", "counters", "cnt"}
	out := SimilarStrings("countr", haystack, 3, 3)
	if diff := pretty.Compare([]string{"count", "counter", "counters"}, out); diff != "" {
		t.Errorf("unexpected result:\n%s", diff)
	}
	if out := SimilarStrings("xyz", haystack, 3, 3); len(out) != 0 {
		t.Errorf("expected no suggestions, got: %+v", out)
	}
}

func TestLogWriter(t *testing.T) {
	lines := []string{}
	w := &LogWriter{
		Prefix: "p: ",
		Logf: func(format string, v ...interface{}) {
			lines = append(lines, fmt.Sprintf(format, v...))
		},
	}
	fmt.Fprint(w, "hello\nwor")
	fmt.Fprint(w, "ld\npartial")
	w.Flush()
	if diff := pretty.Compare([]string{"p: hello", "p: world", "p: partial"}, lines); diff != "" {
		t.Errorf("unexpected result:\n%s", diff)
	}
}

func TestShellCmd(t *testing.T) {
	out, err := ShellCmd(context.Background(), "echo hello; echo oops >&2", &ShellCmdOpts{
		Debug: testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("shell: "+format, v...)
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %+v", err)
		return
	}
	if out != "hello" {
		t.Errorf("unexpected output: %q", out)
	}

	if _, err := ShellCmd(context.Background(), "exit 3", nil); err == nil {
		t.Errorf("expected error")
	} else if !strings.Contains(err.Error(), "exit 3") {
		t.Errorf("unexpected error: %+v", err)
	}
}
