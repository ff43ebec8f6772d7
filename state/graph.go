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

// Package state contains the scope graph. Scopes hold variables, inherit
// variables from a superscope, and are owned by another scope which controls
// their lifetime. Listeners hooked to variables are run when those change.
//
// The graph is not safe for concurrent use. A single goroutine owns it and
// every other producer of changes sends them to that goroutine.
package state

import (
	"fmt"
	"sort"
	"time"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"

	"golang.org/x/time/rate"
)

// MaxQueuedOps bounds how many queued commands one top level operation may
// run. Listeners that keep triggering each other get cut off there.
const MaxQueuedOps = 10000

// Observer is told about the work the graph does. It's used for metrics.
type Observer interface {
	// Dispatched is called once per changed variable with the number of
	// listeners that were run.
	Dispatched(name interfaces.VarName, listeners int)

	// ListenerFailed is called whenever an effect returns an error.
	ListenerFailed(name interfaces.VarName)

	// Scopes is called with the number of live scopes after it changes.
	Scopes(count int)
}

// Graph is the scope graph. Build it with NewGraph, or fill in the public
// fields and run Init.
type Graph struct {
	Debug bool
	Logf  func(format string, v ...interface{})

	// Observer is optional.
	Observer Observer

	root      ScopeIndex
	lastIndex ScopeIndex
	scopes    map[ScopeIndex]*Scope

	// inheritance links a subscope to its superscope.
	inheritance *OneToNMap[ScopeIndex, *Inherits]

	// ownership links an owned scope to its owner.
	ownership *OneToNMap[ScopeIndex, *Provides]

	lastListener ListenerID
	listeners    map[ListenerID]*listener

	depth   int
	pending []pendingOp

	sometimes *rate.Sometimes
}

// NewGraph builds a graph whose root scope holds the globals.
func NewGraph(globals map[interfaces.VarName]dynval.DynVal) *Graph {
	obj := &Graph{}
	obj.Init(globals) // can't fail
	return obj
}

// Init prepares the graph and creates the root scope that holds the globals.
// Running it again drops every scope and listener, but indexes that were
// handed out before stay invalid.
func (obj *Graph) Init(globals map[interfaces.VarName]dynval.DynVal) error {
	obj.scopes = make(map[ScopeIndex]*Scope)
	obj.inheritance = NewOneToNMap[ScopeIndex, *Inherits]()
	obj.ownership = NewOneToNMap[ScopeIndex, *Provides]()
	obj.listeners = make(map[ListenerID]*listener)
	obj.pending = nil
	obj.depth = 0
	if obj.sometimes == nil {
		obj.sometimes = &rate.Sometimes{First: 5, Interval: 10 * time.Second}
	}
	obj.root = obj.newScope(interfaces.GlobalScopeName, globals)
	obj.observeScopes()
	return nil
}

func (obj *Graph) logf(format string, v ...interface{}) {
	if obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}

func (obj *Graph) observeScopes() {
	if obj.Observer != nil {
		obj.Observer.Scopes(len(obj.scopes))
	}
}

func (obj *Graph) newScope(name string, data map[interfaces.VarName]dynval.DynVal) ScopeIndex {
	obj.lastIndex++
	scope := &Scope{
		Name:      name,
		Index:     obj.lastIndex,
		Data:      make(map[interfaces.VarName]dynval.DynVal),
		listeners: make(map[interfaces.VarName][]*listener),
	}
	for k, v := range data {
		scope.Data[k] = v
	}
	obj.scopes[scope.Index] = scope
	return scope.Index
}

// Root returns the index of the root scope which holds the globals.
func (obj *Graph) Root() ScopeIndex {
	return obj.root
}

// ScopeCount returns the number of live scopes, including the root.
func (obj *Graph) ScopeCount() int {
	return len(obj.scopes)
}

// Exists returns true if the index names a live scope.
func (obj *Graph) Exists(index ScopeIndex) bool {
	_, exists := obj.scopes[index]
	return exists
}

// Scopes returns the indexes of all the live scopes in increasing order.
func (obj *Graph) Scopes() []ScopeIndex {
	indexes := []ScopeIndex{}
	for index := range obj.scopes {
		indexes = append(indexes, index)
	}
	sortIndexes(indexes)
	return indexes
}

// ScopeName returns the name a scope was created with.
func (obj *Graph) ScopeName(index ScopeIndex) (string, error) {
	scope, exists := obj.scopes[index]
	if !exists {
		return "", scopeNotFound(index)
	}
	return scope.Name, nil
}

// ScopeData returns a copy of the variables a scope defines itself.
func (obj *Graph) ScopeData(index ScopeIndex) (map[interfaces.VarName]dynval.DynVal, error) {
	scope, exists := obj.scopes[index]
	if !exists {
		return nil, scopeNotFound(index)
	}
	data := make(map[interfaces.VarName]dynval.DynVal)
	for k, v := range scope.Data {
		data[k] = v
	}
	return data, nil
}

// Superscope returns the scope that index inherits from.
func (obj *Graph) Superscope(index ScopeIndex) (ScopeIndex, bool) {
	return obj.inheritance.Parent(index)
}

// Owner returns the scope that owns index.
func (obj *Graph) Owner(index ScopeIndex) (ScopeIndex, bool) {
	return obj.ownership.Parent(index)
}

// Owned returns the scopes owned by index in increasing order.
func (obj *Graph) Owned(index ScopeIndex) []ScopeIndex {
	children := obj.ownership.Children(index)
	sortIndexes(children)
	return children
}

// AddScope creates a scope that defines data. It inherits from superscope
// unless that is NoScope, and it's owned by owner, which must be live.
func (obj *Graph) AddScope(name string, superscope, owner ScopeIndex, data map[interfaces.VarName]dynval.DynVal) (ScopeIndex, error) {
	if err := obj.begin(); err != nil {
		return NoScope, err
	}
	defer obj.end()

	if !obj.Exists(owner) {
		return NoScope, scopeNotFound(owner)
	}
	if superscope != NoScope && !obj.Exists(superscope) {
		return NoScope, scopeNotFound(superscope)
	}
	return obj.addScope(name, superscope, owner, data), nil
}

func (obj *Graph) addScope(name string, superscope, owner ScopeIndex, data map[interfaces.VarName]dynval.DynVal) ScopeIndex {
	index := obj.newScope(name, data)
	// a brand new child can't already have a parent, nor close a loop
	_ = obj.ownership.Insert(index, owner, &Provides{})
	if superscope != NoScope {
		_ = obj.inheritance.Insert(index, superscope, &Inherits{References: make(map[interfaces.VarName]int)})
	}
	obj.observeScopes()
	if obj.Debug {
		obj.logf("added scope %s (%s), superscope: %d, owner: %d", name, index, superscope, owner)
	}
	return index
}

// RegisterNewScope evaluates each attribute in the calling scope and creates a
// scope that defines the results as variables. The new scope is owned by the
// calling scope and inherits from superscope unless that is NoScope. Whenever
// a variable used by an attribute changes, the attribute is re-evaluated and
// the variable in the new scope is updated. Nothing is changed if any
// attribute fails to evaluate.
func (obj *Graph) RegisterNewScope(name string, superscope, callingScope ScopeIndex, attrs map[interfaces.AttrName]ast.Expr) (ScopeIndex, error) {
	if err := obj.begin(); err != nil {
		return NoScope, err
	}
	defer obj.end()

	if !obj.Exists(callingScope) {
		return NoScope, scopeNotFound(callingScope)
	}
	if superscope != NoScope && !obj.Exists(superscope) {
		return NoScope, scopeNotFound(superscope)
	}

	// get all the values first so that a failure leaves nothing behind
	names := util.SortedKeys(attrs)
	data := make(map[interfaces.VarName]dynval.DynVal)
	for _, attr := range names {
		v, err := obj.evaluateInScope(callingScope, attrs[attr])
		if err != nil {
			return NoScope, errwrap.Wrapf(err, "can't evaluate attribute `%s` of `%s`", attr, name)
		}
		data[attr.ToVarName()] = v
	}

	index := obj.addScope(name, superscope, callingScope, data)
	provides, _ := obj.ownership.Edge(index)
	for _, attr := range names {
		expr := attrs[attr]
		if ast.IsStatic(expr) {
			continue
		}
		provides.Attrs = append(provides.Attrs, ProvidedAttr{Attr: attr, Expr: expr})
		target, targetVar := index, attr.ToVarName()
		effect := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
			v, err := eval.Eval(expr, values)
			if err != nil {
				return err
			}
			h.UpdateValue(target, targetVar, v)
			return nil
		}
		// the values were just resolved, so every variable is reachable
		if _, err := obj.registerListener(callingScope, index, ast.VarRefs(expr), effect, false); err != nil {
			obj.logf("could not track attribute `%s` of `%s`: %+v", attr, name, err)
		}
	}
	return index, nil
}

// SetAncestor makes child inherit from parent. It fails without changing
// anything if child already has a superscope or if the link would close a
// loop.
func (obj *Graph) SetAncestor(child, parent ScopeIndex) error {
	if err := obj.begin(); err != nil {
		return err
	}
	defer obj.end()

	if !obj.Exists(child) {
		return scopeNotFound(child)
	}
	if !obj.Exists(parent) {
		return scopeNotFound(parent)
	}
	if p, exists := obj.inheritance.Parent(child); exists {
		return &GraphErr{
			Err:   ErrDuplicateParent,
			Str:   fmt.Sprintf("scope %d already inherits from %d", child, p),
			Scope: child,
		}
	}
	for s, ok := parent, true; ok; s, ok = obj.inheritance.Parent(s) {
		if s == child {
			return &GraphErr{
				Err:   ErrInheritanceLoop,
				Str:   fmt.Sprintf("scope %d can't inherit from %d", child, parent),
				Scope: child,
			}
		}
	}
	return obj.inheritance.Insert(child, parent, &Inherits{References: make(map[interfaces.VarName]int)})
}

// FindAncestorOrSelf walks the inheritance chain from index, starting with
// index itself, and returns the first scope that satisfies fn.
func (obj *Graph) FindAncestorOrSelf(index ScopeIndex, fn func(*Scope) bool) (ScopeIndex, bool) {
	for s, ok := index, true; ok; s, ok = obj.inheritance.Parent(s) {
		scope, exists := obj.scopes[s]
		if !exists {
			return NoScope, false
		}
		if fn(scope) {
			return s, true
		}
	}
	return NoScope, false
}

// FindScopeWithVariable returns the closest scope on the inheritance chain of
// index, including index itself, that defines the variable.
func (obj *Graph) FindScopeWithVariable(index ScopeIndex, name interfaces.VarName) (ScopeIndex, bool) {
	return obj.FindAncestorOrSelf(index, func(scope *Scope) bool {
		_, exists := scope.Data[name]
		return exists
	})
}

// Resolve returns the value of a variable as seen from index.
func (obj *Graph) Resolve(index ScopeIndex, name interfaces.VarName) (dynval.DynVal, bool) {
	s, exists := obj.FindScopeWithVariable(index, name)
	if !exists {
		return dynval.DynVal{}, false
	}
	return obj.scopes[s].Data[name], true
}

// visible returns every variable name that can be resolved from index.
func (obj *Graph) visible(index ScopeIndex) []string {
	seen := make(map[string]struct{})
	for s, ok := index, true; ok; s, ok = obj.inheritance.Parent(s) {
		scope, exists := obj.scopes[s]
		if !exists {
			break
		}
		for k := range scope.Data {
			seen[k.String()] = struct{}{}
		}
	}
	return util.SortedKeys(seen)
}

func (obj *Graph) missing(index ScopeIndex, name interfaces.VarName) *GraphErr {
	return &GraphErr{
		Err:     ErrMissingAncestorForVariable,
		Str:     fmt.Sprintf("variable `%s` is not defined in scope %d or its superscopes", name, index),
		Scope:   index,
		Name:    name,
		Similar: util.SimilarStrings(name.String(), obj.visible(index), 3, 3),
		Cause:   eval.ErrUnknownVariable,
	}
}

// LookupVariablesInScope resolves each variable from index.
func (obj *Graph) LookupVariablesInScope(index ScopeIndex, names []interfaces.VarName) (map[interfaces.VarName]dynval.DynVal, error) {
	if !obj.Exists(index) {
		return nil, scopeNotFound(index)
	}
	values := make(map[interfaces.VarName]dynval.DynVal)
	for _, name := range names {
		v, exists := obj.Resolve(index, name)
		if !exists {
			return nil, obj.missing(index, name)
		}
		values[name] = v
	}
	return values, nil
}

// EvaluateInScope evaluates an expression with the variables visible from
// index.
func (obj *Graph) EvaluateInScope(index ScopeIndex, expr ast.Expr) (dynval.DynVal, error) {
	return obj.evaluateInScope(index, expr)
}

func (obj *Graph) evaluateInScope(index ScopeIndex, expr ast.Expr) (dynval.DynVal, error) {
	values, err := obj.LookupVariablesInScope(index, ast.VarRefs(expr))
	if err != nil {
		return dynval.DynVal{}, err
	}
	return eval.Eval(expr, values)
}

func sortIndexes(indexes []ScopeIndex) {
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
}
