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
	"github.com/purpleidea/barstate/pgraph"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// widgetVertex is a custom widget definition in the dependency graph.
type widgetVertex string

func (obj widgetVertex) String() string { return string(obj) }

// usesEdge says that one definition uses another in its body.
type usesEdge struct{}

func (obj *usesEdge) String() string { return "uses" }

// validator holds what's needed while walking the definitions.
type validator struct {
	config  *Config
	globals map[interfaces.VarName]struct{}
	graph   *pgraph.Graph
}

// Validate checks that the pieces of the config fit together. Every widget
// type that is used must be defined or builtin, custom widgets get all of
// their required arguments, every variable that is referenced is visible
// where it's used, and no custom widget contains itself.
func (obj *Config) Validate() error {
	return obj.ValidateWith(nil)
}

// ValidateWith is like Validate, but builtins are accepted as globals too.
func (obj *Config) ValidateWith(builtins []interfaces.VarName) error {
	if obj.widgets == nil { // not initialized
		if err := obj.Init(); err != nil {
			return err
		}
	}
	graph, err := pgraph.NewGraph("widgets")
	if err != nil {
		return err
	}
	v := &validator{
		config:  obj,
		globals: make(map[interfaces.VarName]struct{}),
		graph:   graph,
	}

	var reterr error
	for _, name := range builtins {
		v.globals[name] = struct{}{}
	}
	for _, x := range obj.Variables {
		reterr = errwrap.Append(reterr, v.addGlobal(x.Name, "variables"))
	}
	for _, x := range obj.ScriptVars {
		reterr = errwrap.Append(reterr, v.addGlobal(x.Name, "script-vars"))
	}
	for _, x := range obj.ScriptVars {
		if x.Poll == nil || x.Poll.runWhile == nil {
			continue
		}
		reterr = errwrap.Append(reterr, v.checkVars(x.Poll.runWhile, nil, "script-vars/"+x.Name+"/run-while"))
	}

	for _, def := range obj.Widgets {
		v.graph.AddVertex(widgetVertex(def.Name))
		locals := make(map[interfaces.VarName]struct{})
		for _, arg := range def.Args {
			locals[arg.Name.ToVarName()] = struct{}{}
		}
		if def.Widget == nil {
			continue
		}
		reterr = errwrap.Append(reterr, v.checkUse(def.Widget, locals, "widgets/"+def.Name, def.Name))
	}

	for _, win := range obj.Windows {
		locals := make(map[interfaces.VarName]struct{})
		for _, arg := range win.Args {
			locals[arg.Name.ToVarName()] = struct{}{}
		}
		where := "windows/" + win.Name
		exprs := win.exprs()
		for _, key := range util.SortedKeys(exprs) {
			// window placement only sees the arguments
			reterr = errwrap.Append(reterr, v.checkVarsIn(exprs[key], locals, false, where+"/"+key))
		}
		if win.Widget == nil {
			continue
		}
		reterr = errwrap.Append(reterr, v.checkUse(win.Widget, locals, where, ""))
	}

	if _, err := v.graph.TopologicalSort(); err != nil {
		cycle := []string{}
		for _, x := range v.graph.InCycle() {
			cycle = append(cycle, x.String())
		}
		reterr = errwrap.Append(reterr, newErr(ErrRecursiveWidget, "widgets", "widgets use each other in a loop: %s", strings.Join(cycle, ", ")))
	}

	return reterr
}

func (obj *validator) addGlobal(name, where string) error {
	if name == "" {
		return newErr(ErrInvalidField, where, "empty name")
	}
	vn := interfaces.VarName(name)
	if _, exists := obj.globals[vn]; exists {
		return newErr(ErrDuplicateName, where, "variable `%s` is defined twice", name)
	}
	obj.globals[vn] = struct{}{}
	return nil
}

// checkUse walks a widget tree. The owner is the name of the definition that
// the tree belongs to, or empty for a window.
func (obj *validator) checkUse(use *WidgetUse, locals map[interfaces.VarName]struct{}, where, owner string) error {
	switch use.Kind() {
	case UseLoop:
		where += "/for"
		reterr := obj.checkVars(use.ElementsExpr(), locals, where+"/in")
		inner := make(map[interfaces.VarName]struct{}, len(locals)+1)
		for k := range locals {
			inner[k] = struct{}{}
		}
		inner[use.ElementName()] = struct{}{}
		return errwrap.Append(reterr, obj.checkUse(use.Body, inner, where, owner))

	case UseChildren:
		where += "/" + ChildrenType
		if owner == "" {
			return newErr(ErrMisplacedChildren, where, "the children placeholder can only be used inside of a widget definition")
		}
		if nth := use.NthExpr(); nth != nil {
			return obj.checkVars(nth, locals, where+"/nth")
		}
		return nil
	}

	where += "/" + use.Type
	var reterr error
	if def, exists := obj.config.Widget(use.Type); exists {
		if owner != "" {
			obj.graph.AddEdge(widgetVertex(owner), widgetVertex(def.Name), &usesEdge{})
		}
		attrs := use.CompiledAttrs()
		for _, arg := range def.Args {
			if _, exists := attrs[arg.Name]; exists || arg.Optional {
				continue
			}
			reterr = errwrap.Append(reterr, newErr(ErrMissingAttr, where, "missing attribute `%s` in use of widget `%s`", arg.Name, def.Name))
		}
	} else if !util.StrInList(use.Type, BuiltinWidgets) {
		known := append([]string{}, BuiltinWidgets...)
		for _, x := range obj.config.Widgets {
			known = append(known, x.Name)
		}
		e := newErr(ErrUnknownWidget, where, "unknown widget `%s` referenced", use.Type)
		e.Similar = util.SimilarStrings(use.Type, known, 3, 3)
		reterr = errwrap.Append(reterr, e)
	}

	attrs := use.CompiledAttrs()
	for _, key := range util.SortedKeys(attrs) {
		reterr = errwrap.Append(reterr, obj.checkVars(attrs[key], locals, where+"/"+string(key)))
	}
	for _, child := range use.Children {
		reterr = errwrap.Append(reterr, obj.checkUse(child, locals, where, owner))
	}
	return reterr
}

func (obj *validator) checkVars(expr ast.Expr, locals map[interfaces.VarName]struct{}, where string) error {
	return obj.checkVarsIn(expr, locals, true, where)
}

// checkVarsIn makes sure that every variable in expr is a local, or a global
// when those are allowed.
func (obj *validator) checkVarsIn(expr ast.Expr, locals map[interfaces.VarName]struct{}, globals bool, where string) error {
	var reterr error
	for _, name := range ast.VarRefs(expr) {
		if _, exists := locals[name]; exists {
			continue
		}
		if _, exists := obj.globals[name]; exists && globals {
			continue
		}
		visible := []string{}
		for k := range locals {
			visible = append(visible, string(k))
		}
		if globals {
			for k := range obj.globals {
				visible = append(visible, string(k))
			}
		}
		e := newErr(ErrUnknownVariable, where, "unknown variable `%s`", name)
		e.Similar = util.SimilarStrings(string(name), visible, 3, 3)
		reterr = errwrap.Append(reterr, e)
	}
	return reterr
}
