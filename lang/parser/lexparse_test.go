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

package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

func TestLexParse0(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		exp  string // canonical form of the expected ast
	}
	testCases := []test{}

	add := func(name, code, exp string) {
		testCases = append(testCases, test{name: name, code: code, exp: exp})
	}

	add("number", `1`, `"1"`)
	add("float", `12.5`, `"12.5"`)
	add("simple plus", `2 + 5`, `("2" + "5")`)
	add("precedence", `2 * 5 + 1 * 1 + 3`, `((("2" * "5") + ("1" * "1")) + "3")`)
	add("parens", `(1 + 2) * 2`, `(("1" + "2") * "2")`)
	add("ternary", `1 + true ? 2 : 5`, `(if ("1" + "true") then "2" else "5")`)
	add("nested ternary", `a ? b : c ? d : e`, `(if a then b else (if c then d else e))`)
	add("if then else", `if a then b else c`, `(if a then b else c)`)
	add("call", `foo(1, 2)`, `foo("1", "2")`)
	add("call no args", `foo()`, `foo()`)
	add("not", `! false || ! true`, `(!"false" || !"true")`)
	add("string plus float", `"foo" + 12.4`, `("foo" + "12.4")`)
	add("index", `hi["ho"]`, `hi["ho"]`)
	add("dotted", `foo.bar.baz`, `foo["bar"]["baz"]`)
	add("mixed access", `foo.bar[2 + 2] * asdf[foo.bar]`, `(foo["bar"][("2" + "2")] * asdf[foo["bar"]])`)
	add("array", `[1, 2, 3 + 4, "bla", [blub, blo]]`, `["1", "2", ("3" + "4"), "bla", [blub, blo]]`)
	add("array trailing comma", `[1, 2,]`, `["1", "2"]`)
	add("object", `{ "key": "value", 5: 1+2, true: false }`, `{"key": "value", "5": ("1" + "2"), "true": "false"}`)
	add("interpolation", `"a${b}c"`, `concat("a", b, "c")`)
	add("interpolation only", `"${x + 1}"`, `concat((x + "1"))`)
	add("interpolation with object", `"${ {"a": 1}.a }"`, `concat({"a": "1"}["a"])`)
	add("nested interpolation", `"a${ "b${c}" }"`, `concat("a", concat("b", c))`)
	add("elvis", `a ?: b`, `(a ?: b)`)
	add("dashed ident", `my-var`, `my-var`)
	add("minus not ident", `x-1`, `(x - "1")`)
	add("negative", `-x * 2`, `(-x * "2")`)
	add("equality and logic", `a == b && c != d`, `((a == b) && (c != d))`)
	add("comparisons", `a >= 1 || b <= 2`, `((a >= "1") || (b <= "2"))`)
	add("regex", `a =~ "^b"`, `(a =~ "^b")`)
	add("escapes", `"esc\n\"q\""`, `"esc\n\"q\""`)
	add("single quotes", `'it\'s'`, `"it's"`)
	add("backticks", "`x` + 'y'", `("x" + "y")`)
	add("escaped dollar", `"\${x}"`, `"${x}"`)
	add("keyword field", `a.if`, `a["if"]`)

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if util.StrInList(tc.name, names) {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			expr, err := Parse(tc.code)
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: parse failed with: %+v", index, err)
				return
			}
			if s := expr.String(); s != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Logf("test #%d:   code: %s", index, tc.code)
				t.Logf("test #%d: actual: %s", index, s)
				t.Logf("test #%d: expect: %s", index, tc.exp)
			}
		})
	}
}

func TestLexParseErrors(t *testing.T) {
	testCases := []struct {
		name    string
		code    string
		lexical bool
		kind    util.Error
		span    interfaces.Span
	}{
		{"unterminated string", `"abc`, true, ErrLexerUnterminatedString, interfaces.Span{Start: 0, End: 4}},
		{"bad escape", `"\q"`, true, ErrLexerStringBadEscaping, interfaces.Span{Start: 1, End: 3}},
		{"unrecognized", `1 + #`, true, ErrLexerUnrecognized, interfaces.Span{Start: 4, End: 5}},
		{"unterminated interpolation", `"${1`, true, ErrLexerUnterminatedInterpolation, interfaces.Span{Start: 4, End: 4}},
		{"missing operand", `1 +`, false, ErrParseError, interfaces.Span{Start: 3, End: 3}},
		{"missing paren", `(1`, false, ErrParseError, interfaces.Span{Start: 2, End: 2}},
		{"missing comma", `foo(1 2)`, false, ErrParseError, interfaces.Span{Start: 6, End: 7}},
		{"trailing garbage", `1 2`, false, ErrParseError, interfaces.Span{Start: 2, End: 3}},
		{"empty interpolation", `"a${}"`, false, ErrParseError, interfaces.Span{Start: 4, End: 4}},
		{"bad interpolation", `"${1 + }"`, false, ErrParseError, interfaces.Span{Start: 7, End: 7}},
		{"empty", ``, false, ErrParseError, interfaces.Span{Start: 0, End: 0}},
		{"incomplete if", `if a then b`, false, ErrParseError, interfaces.Span{Start: 11, End: 11}},
	}
	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			_, err := Parse(tc.code)
			if err == nil {
				t.Errorf("test #%d: expected error", index)
				return
			}
			var e *LexParseErr
			if !errors.As(err, &e) {
				t.Errorf("test #%d: unexpected error type: %T", index, err)
				return
			}
			if e.IsLexical() != tc.lexical {
				t.Errorf("test #%d: expected lexical: %t, got: %+v", index, tc.lexical, err)
			}
			if !errors.Is(err, tc.kind) {
				t.Errorf("test #%d: expected kind %s, got: %+v", index, tc.kind, err)
			}
			if tc.lexical && !errors.Is(err, ErrLexError) || !tc.lexical && !errors.Is(err, ErrParseError) {
				t.Errorf("test #%d: wrong category: %+v", index, err)
			}
			if e.Span() != tc.span {
				t.Errorf("test #%d: expected span %v, got %v", index, tc.span, e.Span())
			}
		})
	}
}

func TestParseExpected(t *testing.T) {
	_, err := Parse(`foo(1 2)`)
	var e *LexParseErr
	if !errors.As(err, &e) {
		t.Errorf("expected a parse error, got: %+v", err)
		return
	}
	if len(e.Expected) != 2 || e.Expected[0] != "`,`" || e.Expected[1] != "`)`" {
		t.Errorf("unexpected expected tokens: %+v", e.Expected)
	}
	if s := e.Error(); s != "parser: unexpected `2` @6..7, expected one of: `,` `)`" {
		t.Errorf("unexpected message: %s", s)
	}
}

func TestSpans(t *testing.T) {
	code := `a + foo(b)`
	expr, err := Parse(code)
	if err != nil {
		t.Errorf("parse failed with: %+v", err)
		return
	}
	if s := expr.Span(); s != (interfaces.Span{Start: 0, End: 10}) {
		t.Errorf("unexpected span: %v", s)
	}
	nodes := ast.VarRefNodes(expr)
	if len(nodes) != 2 {
		t.Errorf("expected two variables, got: %d", len(nodes))
		return
	}
	if s := nodes[1].Span(); s != (interfaces.Span{Start: 8, End: 9}) {
		t.Errorf("unexpected span: %v", s)
	}

	shifted, err := ParseWithOffset(100, code)
	if err != nil {
		t.Errorf("parse failed with: %+v", err)
		return
	}
	if s := shifted.Span(); s != (interfaces.Span{Start: 100, End: 110}) {
		t.Errorf("unexpected span: %v", s)
	}
}

func TestParseInterpolated(t *testing.T) {
	testCases := []struct {
		in  string
		exp string
	}{
		{`hello`, `"hello"`},
		{`no \escapes "here"`, `"no \\escapes \"here\""`},
		{`${a} and ${b + 1}`, `concat(a, " and ", (b + "1"))`},
		{`cost: $5`, `"cost: $5"`},
		{``, `""`},
	}
	for index, tc := range testCases {
		expr, err := ParseInterpolated(0, tc.in)
		if err != nil {
			t.Errorf("test #%d: parse failed with: %+v", index, err)
			continue
		}
		if s := expr.String(); s != tc.exp {
			t.Errorf("test #%d: expected %s, got %s", index, tc.exp, s)
		}
	}
	if _, err := ParseInterpolated(0, `${`); !errors.Is(err, ErrLexError) {
		t.Errorf("expected a lexer error, got: %+v", err)
	}
}
