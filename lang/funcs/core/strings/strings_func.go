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

// Package corestrings contains the text built-in functions.
package corestrings

import (
	"unicode/utf8"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
)

func init() {
	funcs.Register(&funcs.Func{Name: "strlength", MinArgs: 1, MaxArgs: 1, Fn: StrLength})
	funcs.Register(&funcs.Func{Name: "substring", MinArgs: 3, MaxArgs: 3, Fn: Substring})
}

// StrLength returns the number of characters in a string.
func StrLength(args []dynval.DynVal) (dynval.DynVal, error) {
	return dynval.FromInt(int64(utf8.RuneCountInString(args[0].AsString()))), nil
}

// Substring returns up to length characters starting at start. Negative
// numbers count as zero, and the result stops at the end of the string.
func Substring(args []dynval.DynVal) (dynval.DynVal, error) {
	runes := []rune(args[0].AsString())
	start, err := args[1].AsInt64()
	if err != nil {
		return dynval.DynVal{}, err
	}
	length, err := args[2].AsInt64()
	if err != nil {
		return dynval.DynVal{}, err
	}
	start = min(max(start, 0), int64(len(runes)))
	end := min(start+max(length, 0), int64(len(runes)))
	return dynval.New(string(runes[start:end])), nil
}
