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

package config

import (
	"fmt"
	"strings"

	"github.com/purpleidea/barstate/util"
)

// These are the kinds of problems that a config can have.
const (
	ErrInvalidField         = util.Error("invalid field")
	ErrDuplicateName        = util.Error("duplicate name")
	ErrUnknownWidget        = util.Error("unknown widget")
	ErrMissingAttr          = util.Error("missing attribute")
	ErrUnknownVariable      = util.Error("unknown variable")
	ErrRecursiveWidget      = util.Error("recursive widget")
	ErrMisplacedChildren    = util.Error("children outside of a widget definition")
	ErrUnknownWindow        = util.Error("unknown window")
	ErrMissingWindowArg     = util.Error("missing window argument")
	ErrUnexpectedWindowArgs = util.Error("unexpected window arguments")
)

// ConfigErr is a problem with a particular place in the config.
type ConfigErr struct {
	Err util.Error
	Str string

	// Where is a slash separated path to the offending part of the config,
	// such as `widgets/bar/box/label`.
	Where string

	// Similar holds close matches for unknown names.
	Similar []string
}

// Error displays this error with all the relevant state information.
func (e *ConfigErr) Error() string {
	s := fmt.Sprintf("%s: %s", e.Err, e.Str)
	if e.Where != "" {
		s = fmt.Sprintf("%s: %s", e.Where, s)
	}
	if len(e.Similar) > 0 {
		s += fmt.Sprintf(" (did you mean: %s)", strings.Join(e.Similar, ", "))
	}
	return s
}

// Is lets errors.Is match on the kind.
func (e *ConfigErr) Is(target error) bool {
	return target == e.Err
}

func newErr(kind util.Error, where string, format string, v ...interface{}) *ConfigErr {
	return &ConfigErr{
		Err:   kind,
		Str:   fmt.Sprintf(format, v...),
		Where: where,
	}
}
