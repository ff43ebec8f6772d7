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
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into some source text. The zero
// value is a valid empty span at the start of the text. A span with a negative
// Start is a dummy that doesn't point anywhere.
type Span struct {
	Start int
	End   int
}

// DummySpan is used for values that didn't come from any source text.
var DummySpan = Span{Start: -1, End: -1}

// IsDummy returns true if this span doesn't point at real source text.
func (obj Span) IsDummy() bool { return obj.Start < 0 }

// Len returns the number of bytes covered.
func (obj Span) Len() int {
	if obj.IsDummy() {
		return 0
	}
	return obj.End - obj.Start
}

// To returns a span covering this one and everything up to the end of other.
func (obj Span) To(other Span) Span {
	if obj.IsDummy() {
		return other
	}
	if other.IsDummy() {
		return obj
	}
	return Span{Start: min(obj.Start, other.Start), End: max(obj.End, other.End)}
}

// Shifted moves the span by offset bytes. This is used when an expression is
// parsed out of a larger document.
func (obj Span) Shifted(offset int) Span {
	if obj.IsDummy() {
		return obj
	}
	return Span{Start: obj.Start + offset, End: obj.End + offset}
}

// String returns a compact representation for log messages.
func (obj Span) String() string {
	if obj.IsDummy() {
		return "@?"
	}
	return fmt.Sprintf("@%d..%d", obj.Start, obj.End)
}

// Textarea is embedded in every AST node to store the region of source text
// that it was parsed from.
type Textarea struct {
	span  Span
	isSet bool
}

// Locate is used by the parser to store the token positions in AST nodes.
func (obj *Textarea) Locate(span Span) {
	obj.span = span
	obj.isSet = true
}

// IsSet returns if the position was already set with Locate already.
func (obj *Textarea) IsSet() bool {
	return obj.isSet
}

// Span returns the stored span, or a dummy span if it was never located.
func (obj *Textarea) Span() Span {
	if !obj.isSet {
		return DummySpan
	}
	return obj.span
}

// Byline gives a succinct representation of a span in some text, with one-based
// line and column numbers. In order to generate pretty error messages, see
// HighlightText.
func Byline(src string, span Span) string {
	if span.IsDummy() || span.Start > len(src) {
		return "<unknown>"
	}
	line, col := lineCol(src, span.Start)
	return fmt.Sprintf("%d:%d", line+1, col+1)
}

// lineCol returns the zero-based line and column for a byte offset.
func lineCol(src string, offset int) (int, int) {
	before := src[:offset]
	line := strings.Count(before, "\n")
	col := offset
	if i := strings.LastIndex(before, "\n"); i >= 0 {
		col = offset - i - 1
	}
	return line, col
}

// HighlightText generates a generic description that visually indicates the
// part of the line described by a span. If the span covers multiple lines,
// only the first line is shown with a marker to the end of it. If it can't
// generate a valid snippet, then it returns the empty string.
func HighlightText(src string, span Span) string {
	if span.IsDummy() || span.Start > len(src) || span.End > len(src) || span.End < span.Start {
		return ""
	}
	line, col := lineCol(src, span.Start)
	lines := strings.Split(src, "\n")
	text := lines[line]

	width := span.End - span.Start
	if rest := len(text) - col; width > rest {
		width = rest // multi-line, stop at the end of the first line
	}
	if width < 1 {
		width = 1 // always show something, even for eof
	}

	result := &strings.Builder{}
	result.WriteString(text)
	result.WriteString("\n")
	for _, c := range text[:col] { // keep tabs so the caret lines up
		if c == '\t' {
			result.WriteString("\t")
			continue
		}
		result.WriteString(" ")
	}
	result.WriteString(strings.Repeat("^", width))
	result.WriteString("\n")
	return result.String()
}
