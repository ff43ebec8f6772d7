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

package interfaces

import (
	"errors"
	"fmt"
)

// SpanError is implemented by the errors that know which part of the source
// text caused them.
type SpanError interface {
	error

	// Span returns the offending region, or a dummy span.
	Span() Span
}

// Diagnose turns an error into a user facing message that includes the
// position and a caret highlight of the offending source text, if the error
// carries one. Otherwise the plain error message is returned.
func Diagnose(src string, err error) string {
	if err == nil {
		return ""
	}
	var se SpanError
	if !errors.As(err, &se) || se.Span().IsDummy() {
		return err.Error()
	}
	highlight := HighlightText(src, se.Span())
	if highlight == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s @ %s\n\n%s", err.Error(), Byline(src, se.Span()), highlight)
}
