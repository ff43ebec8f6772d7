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

// Package coreregexp contains the regular expression built-in functions.
package coreregexp

import (
	"regexp"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/funcs"
	"github.com/purpleidea/barstate/util/errwrap"
)

func init() {
	funcs.Register(&funcs.Func{Name: "matches", MinArgs: 2, MaxArgs: 2, Fn: Matches})
	funcs.Register(&funcs.Func{Name: "replace", MinArgs: 3, MaxArgs: 3, Fn: Replace})
	funcs.Register(&funcs.Func{Name: "search", MinArgs: 2, MaxArgs: 2, Fn: Search})
	funcs.Register(&funcs.Func{Name: "captures", MinArgs: 2, MaxArgs: 2, Fn: Captures})
}

func compile(pattern dynval.DynVal) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern.AsString())
	if err != nil {
		return nil, errwrap.Wrapf(err, "invalid regex `%s`", pattern)
	}
	return re, nil
}

// Matches returns true if the regex in the second arg matches the first arg.
func Matches(args []dynval.DynVal) (dynval.DynVal, error) {
	re, err := compile(args[1])
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.FromBool(re.MatchString(args[0].AsString())), nil
}

// Replace replaces all matches of the regex with the replacement, which may
// refer to groups with $1 or ${name}.
func Replace(args []dynval.DynVal) (dynval.DynVal, error) {
	re, err := compile(args[1])
	if err != nil {
		return dynval.DynVal{}, err
	}
	return dynval.New(re.ReplaceAllString(args[0].AsString(), args[2].AsString())), nil
}

// Search returns a JSON array of every non-overlapping match.
func Search(args []dynval.DynVal) (dynval.DynVal, error) {
	re, err := compile(args[1])
	if err != nil {
		return dynval.DynVal{}, err
	}
	found := re.FindAllString(args[0].AsString(), -1)
	if found == nil {
		found = []string{}
	}
	return dynval.FromJSON(found)
}

// Captures returns a JSON array with one entry per match, each an array of
// the whole match followed by its groups. Unmatched groups are empty.
func Captures(args []dynval.DynVal) (dynval.DynVal, error) {
	re, err := compile(args[1])
	if err != nil {
		return dynval.DynVal{}, err
	}
	found := re.FindAllStringSubmatch(args[0].AsString(), -1)
	if found == nil {
		found = [][]string{}
	}
	return dynval.FromJSON(found)
}
