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

// Package coredatetime contains the time related built-in functions.
package coredatetime

import (
	"time"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
	"github.com/purpleidea/barstate/util/errwrap"
)

func init() {
	funcs.Register(&funcs.Func{Name: "formattime", MinArgs: 2, MaxArgs: 3, Fn: FormatTime})
}

// FormatTime takes a unix timestamp in seconds and a strftime format, and an
// optional IANA timezone name. Without a timezone the local one is used.
func FormatTime(args []dynval.DynVal) (dynval.DynVal, error) {
	seconds, err := args[0].AsInt64()
	if err != nil {
		return dynval.DynVal{}, err
	}
	loc := time.Local
	if len(args) == 3 {
		if loc, err = time.LoadLocation(args[2].AsString()); err != nil {
			return dynval.DynVal{}, errwrap.Wrapf(err, "invalid timezone")
		}
	}
	s, err := Strftime(time.Unix(seconds, 0).In(loc), args[1].AsString())
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.New(s), nil
}
