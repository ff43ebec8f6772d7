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

// Package util has some CLI related utility code.
package util

import (
	"strings"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util/errwrap"
)

// Error is a constant error type that implements error.
type Error string

// Error fulfills the error interface of this type.
func (e Error) Error() string { return string(e) }

const (
	// MissingEquals means a key=value pair has no equals sign.
	MissingEquals = Error("missing equals sign for list element")
)

// CliParseError returns a consistent error if we have a CLI parsing issue.
func CliParseError(err error) error {
	return errwrap.Wrapf(err, "cli parse error")
}

// Flags are some constant flags which are used throughout the program.
type Flags struct {
	Debug   bool // add additional log messages
	Verbose bool // add extra log message output

	Logf func(format string, v ...interface{})
}

// Data is a struct of values that we usually pass to the main CLI function.
type Data struct {
	Program string
	Version string
	Tagline string
	Flags   Flags
	Args    []string // os.Args usually
}

// ParsePairs splits each `key=value` element. The value may be empty, and may
// contain more equals signs.
func ParsePairs(list []string) (map[string]string, error) {
	m := make(map[string]string)
	for _, x := range list {
		key, value, found := strings.Cut(x, "=")
		if !found || key == "" {
			return nil, errwrap.Wrapf(MissingEquals, "bad pair `%s`", x)
		}
		m[key] = value
	}
	return m, nil
}

// ParseVars is like ParsePairs, but it builds an environment of variables.
func ParseVars(list []string) (map[interfaces.VarName]dynval.DynVal, error) {
	pairs, err := ParsePairs(list)
	if err != nil {
		return nil, err
	}
	env := make(map[interfaces.VarName]dynval.DynVal)
	for k, v := range pairs {
		env[interfaces.VarName(k)] = dynval.New(v)
	}
	return env, nil
}
