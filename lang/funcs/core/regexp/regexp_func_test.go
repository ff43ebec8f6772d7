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

package coreregexp

import (
	"fmt"
	"testing"

	"github.com/purpleidea/barstate/lang/dynval"
)

func TestRegexpFuncs(t *testing.T) {
	testCases := []struct {
		name string
		fn   func([]dynval.DynVal) (dynval.DynVal, error)
		args []string
		out  string
		fail bool
	}{
		{"matches", Matches, []string{"hello", "^h.*o$"}, "true", false},
		{"matches no", Matches, []string{"hello", "^x"}, "false", false},
		{"matches bad", Matches, []string{"hello", "("}, "", true},
		{"replace", Replace, []string{"a1b22", "[0-9]+", "#"}, "a#b#", false},
		{"replace group", Replace, []string{"ab", "(a)(b)", "$2$1"}, "ba", false},
		{"search", Search, []string{"a1b22", "[0-9]+"}, `["1","22"]`, false},
		{"search none", Search, []string{"abc", "[0-9]+"}, `[]`, false},
		{"captures", Captures, []string{"k=v x=y", `(\w)=(\w)`}, `[["k=v","k","v"],["x=y","x","y"]]`, false},
	}
	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			args := []dynval.DynVal{}
			for _, x := range tc.args {
				args = append(args, dynval.New(x))
			}
			out, err := tc.fn(args)
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: expected error", index)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: unexpected error: %+v", index, err)
				return
			}
			if s := out.String(); s != tc.out {
				t.Errorf("test #%d: expected %s, got %s", index, tc.out, s)
			}
		})
	}
}
