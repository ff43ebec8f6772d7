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

package eval

import (
	"fmt"
	"strings"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// These constants are the kinds of evaluation errors. Match them against an
// error with errors.Is.
const (
	ErrUnknownVariable    = util.Error("unknown variable")
	ErrUnknownFunction    = util.Error("unknown function")
	ErrBadRegex           = util.Error("bad regex")
	ErrTypeMismatch       = util.Error("type mismatch")
	ErrIndexOutOfRange    = util.Error("index out of range")
	ErrNoVariablesAllowed = util.Error("no variables allowed")
	ErrDivideByZero       = util.Error("divide by zero")
	ErrFunctionFailed     = util.Error("function failed")
)

// EvalErr is returned when an expression can't be evaluated.
type EvalErr struct {
	Err util.Error
	Str string

	// Where is the region of the source text that failed.
	Where interfaces.Span

	// Similar holds the names of known variables that are close to an
	// unknown one.
	Similar []string

	// Cause is the underlying error, if there is one.
	Cause error
}

// Error displays this error with all the relevant state information.
func (e *EvalErr) Error() string {
	s := fmt.Sprintf("%s: %s %s", e.Err, e.Str, e.Where)
	if e.Cause != nil {
		s += fmt.Sprintf(": %s", e.Cause.Error())
	}
	if len(e.Similar) > 0 {
		s += fmt.Sprintf(", did you mean: %s", strings.Join(e.Similar, ", "))
	}
	return s
}

// Span returns the region of the source text that failed.
func (e *EvalErr) Span() interfaces.Span {
	return e.Where
}

// Is matches the kind of this error.
func (e *EvalErr) Is(target error) bool {
	return target == e.Err
}

// Unwrap returns the cause so that it can be matched as well.
func (e *EvalErr) Unwrap() error {
	return e.Cause
}

func newErr(kind util.Error, span interfaces.Span, format string, v ...interface{}) *EvalErr {
	return &EvalErr{
		Err:   kind,
		Str:   fmt.Sprintf(format, v...),
		Where: span,
	}
}
