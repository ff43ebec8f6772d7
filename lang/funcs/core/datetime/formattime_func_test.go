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

package coredatetime

import (
	"fmt"
	"testing"
	"time"

	"github.com/purpleidea/barstate/lang/dynval"
)

func TestStrftime(t *testing.T) {
	when := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	testCases := []struct {
		format string
		out    string
		fail   bool
	}{
		{"%Y-%m-%d", "2024-03-05", false},
		{"%H:%M:%S", "14:07:09", false},
		{"%I:%M %p", "02:07 PM", false},
		{"%a %b %e", "Tue Mar  5", false},
		{"%A %B", "Tuesday March", false},
		{"%F %T", "2024-03-05 14:07:09", false},
		{"%j %u %w", "065 2 2", false},
		{"%Z %z %:z", "UTC +0000 +00:00", false},
		{"100%%", "100%", false},
		{"trailing %", "trailing %", false},
		{"%Q", "", true},
	}
	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.format), func(t *testing.T) {
			out, err := Strftime(when, tc.format)
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
			if out != tc.out {
				t.Errorf("test #%d: expected %q, got %q", index, tc.out, out)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	args := []dynval.DynVal{dynval.New("0"), dynval.New("%Y-%m-%d %H:%M"), dynval.New("UTC")}
	out, err := FormatTime(args)
	if err != nil {
		t.Errorf("unexpected error: %+v", err)
		return
	}
	if s := out.String(); s != "1970-01-01 00:00" {
		t.Errorf("unexpected output: %s", s)
	}

	args[2] = dynval.New("Not/AZone")
	if _, err := FormatTime(args); err == nil {
		t.Errorf("expected an invalid timezone error")
	}
}
