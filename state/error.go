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

package state

import (
	"fmt"
	"strings"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// These constants are the kinds of scope graph errors. Match them against an
// error with errors.Is.
const (
	ErrDuplicateParent            = util.Error("duplicate parent")
	ErrMissingAncestorForVariable = util.Error("missing ancestor for variable")
	ErrScopeNotFound              = util.Error("scope not found")
	ErrInheritanceLoop            = util.Error("inheritance loop")
	ErrReentrantMutation          = util.Error("reentrant mutation")
)

// GraphErr is returned when an operation on the scope graph fails. The graph
// is left unchanged when this is returned.
type GraphErr struct {
	Err util.Error
	Str string

	// Scope is the scope that the operation was about.
	Scope ScopeIndex

	// Name is the variable involved, if any.
	Name interfaces.VarName

	// Similar holds visible variable names that are close to Name.
	Similar []string

	// Cause is the underlying error, if there is one.
	Cause error
}

// Error displays this error with all the relevant state information.
func (e *GraphErr) Error() string {
	s := fmt.Sprintf("%s: %s", e.Err, e.Str)
	if e.Cause != nil {
		s += fmt.Sprintf(": %s", e.Cause.Error())
	}
	if len(e.Similar) > 0 {
		s += fmt.Sprintf(", did you mean: %s", strings.Join(e.Similar, ", "))
	}
	return s
}

// Is matches the kind of this error.
func (e *GraphErr) Is(target error) bool {
	return target == e.Err
}

// Unwrap returns the cause so that it can be matched as well.
func (e *GraphErr) Unwrap() error {
	return e.Cause
}

func scopeNotFound(index ScopeIndex) *GraphErr {
	return &GraphErr{
		Err:   ErrScopeNotFound,
		Str:   fmt.Sprintf("no scope with index %d", index),
		Scope: index,
	}
}
