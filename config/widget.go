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
	"strings"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util/errwrap"
)

// UseKind says which of the three shapes a WidgetUse has.
type UseKind int

// The shapes of a widget use.
const (
	UseBasic UseKind = iota
	UseLoop
	UseChildren
)

// ChildrenType is the widget type that stands for the children that were
// passed to a custom widget.
const ChildrenType = "children"

// BuiltinWidgets are the widget types that need no definition.
var BuiltinWidgets = []string{
	"box",
	"button",
	"calendar",
	"centerbox",
	"checkbox",
	"circular-progress",
	"color-button",
	"color-chooser",
	"combo-box-text",
	"eventbox",
	"expander",
	"graph",
	"image",
	"input",
	"label",
	"literal",
	"overlay",
	"progress",
	"revealer",
	"scale",
	"scroll",
	"stack",
	"systray",
	"tooltip",
	"transform",
}

// AttrSpec is a declared argument of a widget or window. In yaml it's written
// as a plain name, with a leading `?` if it's optional.
type AttrSpec struct {
	Name     interfaces.AttrName
	Optional bool
}

// UnmarshalYAML is the custom unmarshal handler for the AttrSpec struct. Inside
// a flow sequence like `[label, ?unit]` yaml reads `?unit` as an explicit key
// with no value, so a single key map with a null value is an optional name.
func (obj *AttrSpec) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		var m map[string]interface{}
		if e := unmarshal(&m); e != nil || len(m) != 1 {
			return err
		}
		for k, v := range m {
			if v != nil {
				return err
			}
			s = "?" + strings.TrimPrefix(k, "?")
		}
	}
	if strings.HasPrefix(s, "?") {
		obj.Optional = true
		s = s[1:]
	}
	if s == "" {
		return newErr(ErrInvalidField, "args", "empty argument name")
	}
	obj.Name = NormalizeAttrName(s)
	return nil
}

// MarshalYAML is the custom marshal handler for the AttrSpec struct.
func (obj *AttrSpec) MarshalYAML() (interface{}, error) {
	if obj.Optional {
		return "?" + string(obj.Name), nil
	}
	return string(obj.Name), nil
}

// WidgetDefinition is a custom widget. Its body sees the arguments as
// variables.
type WidgetDefinition struct {
	Name   string      `yaml:"name"`
	Args   []*AttrSpec `yaml:"args"`
	Widget *WidgetUse  `yaml:"widget"`
}

// Init compiles the body.
func (obj *WidgetDefinition) Init() error {
	if obj.Widget == nil {
		return newErr(ErrInvalidField, "widgets/"+obj.Name, "missing widget body")
	}
	if err := checkArgs(obj.Args, "widgets/"+obj.Name); err != nil {
		return err
	}
	return obj.Widget.Init("widgets/" + obj.Name)
}

// Arg returns the declared argument with that name.
func (obj *WidgetDefinition) Arg(name interfaces.AttrName) (*AttrSpec, bool) {
	for _, x := range obj.Args {
		if x.Name == name {
			return x, true
		}
	}
	return nil, false
}

func checkArgs(args []*AttrSpec, where string) error {
	seen := make(map[interfaces.AttrName]struct{})
	for _, x := range args {
		if _, exists := seen[x.Name]; exists {
			return newErr(ErrDuplicateName, where, "argument `%s` is declared twice", x.Name)
		}
		seen[x.Name] = struct{}{}
	}
	return nil
}

// WidgetUse is one node of a widget tree. It's either a basic use of a widget
// type with attributes and children, a loop that repeats its body for each
// element of a json array, or the placeholder for the children that were
// passed to the enclosing custom widget. A plain string in yaml is short for a
// label with that text.
type WidgetUse struct {
	Type     string            `yaml:"type"`
	Attrs    map[string]string `yaml:"attrs"`
	Children []*WidgetUse      `yaml:"children"`

	For  string     `yaml:"for"`
	In   string     `yaml:"in"`
	Body *WidgetUse `yaml:"body"`

	Nth string `yaml:"nth"`

	kind  UseKind
	attrs map[interfaces.AttrName]ast.Expr
	in    ast.Expr
	nth   ast.Expr
}

// UnmarshalYAML is the custom unmarshal handler for the WidgetUse struct. It
// accepts the plain string short form.
func (obj *WidgetUse) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var text string
	if err := unmarshal(&text); err == nil {
		*obj = WidgetUse{
			Type:  "label",
			Attrs: map[string]string{"text": text},
		}
		return nil
	}

	type indirect WidgetUse // avoid recursion
	raw := indirect{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*obj = WidgetUse(raw)
	return nil
}

// Init figures out the shape and compiles the expressions of this node and of
// everything below it. The where argument is used for error messages.
func (obj *WidgetUse) Init(where string) error {
	switch {
	case obj.For != "" || obj.Body != nil:
		obj.kind = UseLoop
		where += "/for"
		if obj.Type != "" || len(obj.Attrs) > 0 || len(obj.Children) > 0 {
			return newErr(ErrInvalidField, where, "a loop can't have a type, attrs or children")
		}
		if obj.For == "" || obj.In == "" || obj.Body == nil {
			return newErr(ErrInvalidField, where, "a loop needs `for`, `in` and `body`")
		}
		expr, err := ParseAttr(obj.In)
		if err != nil {
			return errwrap.Wrapf(err, "%s: field `in`", where)
		}
		obj.in = expr
		return obj.Body.Init(where)

	case obj.Type == ChildrenType:
		obj.kind = UseChildren
		where += "/" + ChildrenType
		if len(obj.Attrs) > 0 || len(obj.Children) > 0 {
			return newErr(ErrInvalidField, where, "the children placeholder only takes `nth`")
		}
		if obj.Nth != "" {
			expr, err := ParseAttr(obj.Nth)
			if err != nil {
				return errwrap.Wrapf(err, "%s: field `nth`", where)
			}
			obj.nth = expr
		}
		return nil
	}

	obj.kind = UseBasic
	if obj.Type == "" {
		return newErr(ErrInvalidField, where, "missing widget type")
	}
	where += "/" + obj.Type
	if obj.In != "" || obj.Nth != "" {
		return newErr(ErrInvalidField, where, "`in` and `nth` are only valid for loops and children")
	}
	attrs, err := compileAttrs(obj.Attrs, where)
	if err != nil {
		return err
	}
	obj.attrs = attrs
	for _, child := range obj.Children {
		if child == nil {
			return newErr(ErrInvalidField, where, "empty child")
		}
		if err := child.Init(where); err != nil {
			return err
		}
	}
	return nil
}

// Kind returns the shape of this node. Only valid after Init.
func (obj *WidgetUse) Kind() UseKind { return obj.kind }

// CompiledAttrs returns the attribute expressions of a basic use.
func (obj *WidgetUse) CompiledAttrs() map[interfaces.AttrName]ast.Expr { return obj.attrs }

// ElementsExpr returns the expression that a loop iterates over.
func (obj *WidgetUse) ElementsExpr() ast.Expr { return obj.in }

// ElementName returns the variable that a loop binds each element to.
func (obj *WidgetUse) ElementName() interfaces.VarName { return interfaces.VarName(obj.For) }

// NthExpr returns the index expression of a children placeholder, or nil if
// every child should be shown.
func (obj *WidgetUse) NthExpr() ast.Expr { return obj.nth }
