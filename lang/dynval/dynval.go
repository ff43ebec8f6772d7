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

// Package dynval implements the dynamically typed value that flows through the
// expression language and the scope graph. A value is always stored as its
// canonical text, and typed views of it are computed on demand.
package dynval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util/errwrap"
)

// numberRegexp is the accepted grammar for a number. It's stricter than what
// strconv accepts, because we don't want hex floats or underscores to count.
var numberRegexp = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// DynVal is a value with a canonical string form, and an optional source span
// pointing at where it came from. The zero value is the empty string.
type DynVal struct {
	s    string
	span *interfaces.Span
}

// New builds a value from some text.
func New(s string) DynVal {
	return DynVal{s: s}
}

// FromBool builds a boolean value.
func FromBool(b bool) DynVal {
	return New(strconv.FormatBool(b))
}

// FromInt builds an integer value.
func FromInt(i int64) DynVal {
	return New(strconv.FormatInt(i, 10))
}

// FromBigInt builds an integer value that may not fit in an int64.
func FromBigInt(i *big.Int) DynVal {
	return New(i.String())
}

// FromFloat builds a numeric value. Integral floats display without a decimal
// point, and the shortest representation that reads back identically is used.
func FromFloat(f float64) DynVal {
	switch {
	case math.IsNaN(f):
		return New("NaN")
	case math.IsInf(f, 1):
		return New("+Inf")
	case math.IsInf(f, -1):
		return New("-Inf")
	}
	return New(strconv.FormatFloat(f, 'f', -1, 64))
}

// FromJSON builds a value by serializing arbitrary data as JSON. Reading it
// back with AsJSON gives the same data.
func FromJSON(v interface{}) (DynVal, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return DynVal{}, errwrap.Wrapf(err, "can't serialize json")
	}
	return New(string(b)), nil
}

// FromJSONElement builds a value from a decoded JSON element, the way that a
// lookup into a JSON document returns it: strings lose their quotes and
// everything else is serialized.
func FromJSONElement(v interface{}) DynVal {
	switch x := v.(type) {
	case string:
		return New(x)
	case json.Number:
		return New(x.String())
	case nil:
		return New("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return New("<invalid json value>")
	}
	return New(string(b))
}

// FromList builds a JSON array of the canonical strings of the elements. The
// span covers the spans of the first and last element.
func FromList(list []DynVal) DynVal {
	elements := []string{}
	span := interfaces.DummySpan
	for i, x := range list {
		elements = append(elements, x.String())
		if i == 0 {
			span = x.Span()
			continue
		}
		span = span.To(x.Span())
	}
	b, _ := json.Marshal(elements) // can't fail on []string
	return New(string(b)).At(span)
}

// Concat joins the canonical strings of the values.
func Concat(list ...DynVal) DynVal {
	var b strings.Builder
	for _, x := range list {
		b.WriteString(x.s)
	}
	return New(b.String())
}

// At returns a copy of the value that points at the given span.
func (obj DynVal) At(span interfaces.Span) DynVal {
	if span.IsDummy() {
		obj.span = nil
		return obj
	}
	obj.span = &span
	return obj
}

// AtIfDummy sets the span only if the value doesn't have one already.
func (obj DynVal) AtIfDummy(span interfaces.Span) DynVal {
	if obj.span != nil {
		return obj
	}
	return obj.At(span)
}

// Span returns where this value came from, or a dummy span.
func (obj DynVal) Span() interfaces.Span {
	if obj.span == nil {
		return interfaces.DummySpan
	}
	return *obj.span
}

// String returns the canonical text of the value. This is the total
// conversion that never fails.
func (obj DynVal) String() string {
	return obj.s
}

// AsString is an alias of String that reads better next to the other As*
// methods.
func (obj DynVal) AsString() string {
	return obj.s
}

// IsEmpty returns true for the empty string.
func (obj DynVal) IsEmpty() bool {
	return obj.s == ""
}

// Equal compares two values numerically if both are numbers, so that "1" and
// "1.0" are the same, and by their canonical text otherwise. Spans are
// ignored.
func (obj DynVal) Equal(other DynVal) bool {
	if x, errX := obj.AsBigInt(); errX == nil {
		if y, errY := other.AsBigInt(); errY == nil {
			return x.Cmp(y) == 0
		}
	}
	a, errA := obj.AsFloat()
	b, errB := other.AsFloat()
	if errA == nil && errB == nil {
		return a == b
	}
	return obj.s == other.s
}

// IsNumber returns true if AsFloat would succeed.
func (obj DynVal) IsNumber() bool {
	_, err := obj.AsFloat()
	return err == nil
}

// IsInt returns true if AsInt64 would succeed.
func (obj DynVal) IsInt() bool {
	_, err := obj.AsInt64()
	return err == nil
}

// AsFloat parses the value as a signed decimal number.
func (obj DynVal) AsFloat() (float64, error) {
	switch obj.s {
	case "NaN":
		return math.NaN(), nil
	case "Inf", "+Inf":
		return math.Inf(1), nil
	case "-Inf":
		return math.Inf(-1), nil
	}
	if !numberRegexp.MatchString(obj.s) {
		return 0, obj.conversionError("number", nil)
	}
	f, err := strconv.ParseFloat(obj.s, 64)
	if err != nil {
		return 0, obj.conversionError("number", err)
	}
	return f, nil
}

// AsInt64 parses the value as a base ten integer.
func (obj DynVal) AsInt64() (int64, error) {
	i, err := strconv.ParseInt(obj.s, 10, 64)
	if err != nil {
		return 0, obj.conversionError("i64", err)
	}
	return i, nil
}

// AsBigInt parses the value as a base ten integer of any size.
func (obj DynVal) AsBigInt() (*big.Int, error) {
	i, ok := new(big.Int).SetString(obj.s, 10)
	if !ok {
		return nil, obj.conversionError("integer", nil)
	}
	return i, nil
}

// AsInt32 parses the value as a base ten integer that fits in 32 bits.
func (obj DynVal) AsInt32() (int32, error) {
	i, err := strconv.ParseInt(obj.s, 10, 32)
	if err != nil {
		return 0, obj.conversionError("i32", err)
	}
	return int32(i), nil
}

// AsBool accepts only the words true and false, in any case.
func (obj DynVal) AsBool() (bool, error) {
	switch {
	case strings.EqualFold(obj.s, "true"):
		return true, nil
	case strings.EqualFold(obj.s, "false"):
		return false, nil
	}
	return false, obj.conversionError("bool", nil)
}

// AsJSON decodes the value as a single JSON document. Numbers are decoded as
// json.Number so that their text is preserved.
func (obj DynVal) AsJSON() (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(obj.s)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, obj.conversionError("json-value", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, obj.conversionError("json-value", fmt.Errorf("trailing data"))
	}
	return v, nil
}

// AsJSONArray decodes the value as a JSON array.
func (obj DynVal) AsJSONArray() ([]interface{}, error) {
	v, err := obj.AsJSON()
	if err != nil {
		return nil, err
	}
	a, ok := v.([]interface{})
	if !ok {
		return nil, obj.conversionError("json-array", nil)
	}
	return a, nil
}

// AsJSONObject decodes the value as a JSON object.
func (obj DynVal) AsJSONObject() (map[string]interface{}, error) {
	v, err := obj.AsJSON()
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, obj.conversionError("json-object", nil)
	}
	return m, nil
}

func (obj DynVal) conversionError(target string, err error) error {
	return &ConversionError{
		Value:      obj,
		TargetType: target,
		Err:        err,
	}
}
