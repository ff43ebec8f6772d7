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

package dynval

import (
	"fmt"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// ErrConversion is the kind that all conversion errors match with errors.Is.
const ErrConversion = util.Error("conversion error")

// ConversionError is returned when a value can't be read as the requested
// type. It names the offending text and the target type.
type ConversionError struct {
	Value      DynVal
	TargetType string

	// Err is the underlying cause, if there is one.
	Err error
}

// Error returns a user facing message.
func (obj *ConversionError) Error() string {
	s := fmt.Sprintf("failed to turn `%s` into a value of type %s", obj.Value.String(), obj.TargetType)
	if obj.Err != nil {
		s += ": " + obj.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (obj *ConversionError) Unwrap() error {
	return obj.Err
}

// Is matches ErrConversion.
func (obj *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// Span returns the span of the offending value.
func (obj *ConversionError) Span() interfaces.Span {
	return obj.Value.Span()
}
