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

package widgets

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/state"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// These are the errors that can happen while building.
const (
	ErrNoInvocation  = util.Error("children used outside of a custom widget")
	ErrNoSuchChild   = util.Error("no child at index")
	ErrNotAnArray    = util.Error("loop elements are not a json array")
	ErrNotRealizable = util.Error("can't realize widget")
)

// invocation is a use of a custom widget, as seen from inside its body.
type invocation struct {
	scope    state.ScopeIndex // where the custom widget was used
	children []*config.WidgetUse
	outer    *invocation // the invocation that the use itself was inside of
}

// Builder turns widget uses into nodes. Custom widget bodies get a scope that
// inherits from the root and is owned by the calling scope, so they only see
// their arguments and the globals. Loop bodies get one scope per element that
// inherits from and is owned by the calling scope. The children of a custom
// widget are built in a scope that inherits from where the widget was used,
// and is owned by the body scope.
type Builder struct {
	Graph    *state.Graph
	Config   *config.Config
	Renderer Renderer

	Debug bool
	Logf  func(format string, v ...interface{})

	lastID uint64
}

func (obj *Builder) logf(format string, v ...interface{}) {
	if obj.Logf != nil {
		obj.Logf(format, v...)
	}
}

// Build realizes use in scope, below parent. The parent may be nil for the
// top of a tree.
func (obj *Builder) Build(scope state.ScopeIndex, use *config.WidgetUse, parent *Node) (*Node, error) {
	return obj.build(scope, use, parent, nil)
}

func (obj *Builder) newNode(typ string, scope state.ScopeIndex, parent *Node) *Node {
	obj.lastID++
	return &Node{
		ID:     obj.lastID,
		Type:   typ,
		Scope:  scope,
		Attrs:  make(map[interfaces.AttrName]dynval.DynVal),
		Parent: parent,
	}
}

// attach adds a finished node to its parent and tells the renderer.
func (obj *Builder) attach(node *Node) {
	if node.Parent != nil {
		node.Parent.Children = append(node.Parent.Children, node)
	}
	node.created = true
	if obj.Renderer != nil {
		obj.Renderer.Create(node)
	}
}

func (obj *Builder) build(scope state.ScopeIndex, use *config.WidgetUse, parent *Node, inv *invocation) (*Node, error) {
	switch use.Kind() {
	case config.UseLoop:
		return obj.buildLoop(scope, use, parent, inv)
	case config.UseChildren:
		return nil, errwrap.Wrapf(ErrNotRealizable, "children must be inside of another widget")
	}

	if def, exists := obj.Config.Widget(use.Type); exists {
		return obj.buildCustom(scope, def, use, parent, inv)
	}

	node := obj.newNode(use.Type, scope, parent)
	if err := obj.watchAttrs(node, use.CompiledAttrs()); err != nil {
		return nil, err
	}
	obj.attach(node)

	for _, child := range use.Children {
		var err error
		if child.Kind() == config.UseChildren {
			err = obj.buildChildren(scope, child, node, inv)
		} else {
			_, err = obj.build(scope, child, node, inv)
		}
		if err != nil {
			obj.Destroy(node)
			return nil, err
		}
	}
	return node, nil
}

// buildCustom realizes the body of a custom widget in a fresh scope.
func (obj *Builder) buildCustom(scope state.ScopeIndex, def *config.WidgetDefinition, use *config.WidgetUse, parent *Node, inv *invocation) (*Node, error) {
	attrs := make(map[interfaces.AttrName]ast.Expr)
	for k, v := range use.CompiledAttrs() {
		attrs[k] = v
	}
	for _, arg := range def.Args {
		if _, exists := attrs[arg.Name]; !exists && arg.Optional {
			attrs[arg.Name] = ast.Synth(dynval.New(""))
		}
	}
	body, err := obj.Graph.RegisterNewScope(def.Name, obj.Graph.Root(), scope, attrs)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't build widget `%s`", def.Name)
	}
	next := &invocation{
		scope:    scope,
		children: use.Children,
		outer:    inv,
	}
	node, err := obj.build(body, def.Widget, parent, next)
	if err != nil {
		obj.removeScope(body)
		return nil, errwrap.Wrapf(err, "in widget `%s`", def.Name)
	}
	node.scopes = append(node.scopes, body)
	return node, nil
}

// watchAttrs evaluates the attributes of node now, and again whenever one of
// the variables they use changes. The listener lives in the node scope.
func (obj *Builder) watchAttrs(node *Node, attrs map[interfaces.AttrName]ast.Expr) error {
	needed := []interfaces.VarName{}
	for _, attr := range util.SortedKeys(attrs) {
		needed = append(needed, ast.VarRefs(attrs[attr])...)
	}
	effect := func(h *state.Handle, values map[interfaces.VarName]dynval.DynVal) error {
		if node.destroyed {
			return nil
		}
		changed := []interfaces.AttrName{}
		var reterr error
		for _, attr := range util.SortedKeys(attrs) {
			v, err := eval.Eval(attrs[attr], values)
			if err != nil {
				reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "attribute `%s` of %s", attr, node))
				continue
			}
			if old, exists := node.Attrs[attr]; exists && old.String() == v.String() {
				continue
			}
			node.Attrs[attr] = v
			changed = append(changed, attr)
		}
		if node.created && len(changed) > 0 && obj.Renderer != nil {
			obj.Renderer.Update(node, changed)
		}
		return reterr
	}
	id, err := obj.Graph.RegisterListener(node.Scope, needed, effect)
	if err != nil {
		return errwrap.Wrapf(err, "can't watch attributes of %s", node)
	}
	node.listeners = append(node.listeners, id)
	return nil
}

// buildLoop makes a loop node, whose children are rebuilt whenever the json
// array it iterates over changes.
func (obj *Builder) buildLoop(scope state.ScopeIndex, use *config.WidgetUse, parent *Node, inv *invocation) (*Node, error) {
	node := obj.newNode(LoopType, scope, parent)
	node.Attrs["in"] = dynval.New("")
	obj.attach(node)

	expr := use.ElementsExpr()
	effect := func(h *state.Handle, values map[interfaces.VarName]dynval.DynVal) error {
		v, err := eval.Eval(expr, values)
		if err != nil {
			return err
		}
		items, err := v.AsJSONArray()
		if err != nil {
			return errwrap.Wrapf(ErrNotAnArray, "%s: %s", node, v)
		}
		h.Defer(func() error {
			return obj.rebuildLoop(node, use, v.String(), items, inv)
		})
		return nil
	}
	id, err := obj.Graph.RegisterListener(scope, ast.VarRefs(expr), effect)
	if err != nil {
		obj.Destroy(node)
		return nil, errwrap.Wrapf(err, "can't watch loop elements")
	}
	node.listeners = append(node.listeners, id)
	return node, nil
}

func (obj *Builder) rebuildLoop(node *Node, use *config.WidgetUse, text string, items []interface{}, inv *invocation) error {
	if node.destroyed || node.last == text && len(node.Children) == len(items) {
		return nil
	}
	obj.clear(node)
	node.last = text
	if old := node.Attrs["in"]; old.String() != text {
		node.Attrs["in"] = dynval.New(text)
		if obj.Renderer != nil {
			obj.Renderer.Update(node, []interfaces.AttrName{"in"})
		}
	}

	var reterr error
	for i, item := range items {
		data := map[interfaces.VarName]dynval.DynVal{
			use.ElementName(): dynval.FromJSONElement(item),
		}
		name := fmt.Sprintf("for %s[%d]", use.ElementName(), i)
		elem, err := obj.Graph.AddScope(name, node.Scope, node.Scope, data)
		if err != nil {
			return err // the loop scope is gone
		}
		child, err := obj.build(elem, use.Body, node, inv)
		if err != nil {
			obj.removeScope(elem)
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "loop element %d", i))
			continue
		}
		child.scopes = append(child.scopes, elem)
	}
	return reterr
}

// buildChildren expands the children placeholder of a custom widget body. The
// scope is the body scope.
func (obj *Builder) buildChildren(scope state.ScopeIndex, use *config.WidgetUse, parent *Node, inv *invocation) error {
	if inv == nil {
		return ErrNoInvocation
	}
	nth := use.NthExpr()
	if nth == nil {
		for _, child := range inv.children {
			if child.Kind() == config.UseChildren {
				// passed down from an outer custom widget
				if err := obj.buildChildren(inv.scope, child, parent, inv.outer); err != nil {
					return err
				}
				continue
			}
			exp, err := obj.Graph.AddScope("children", inv.scope, scope, nil)
			if err != nil {
				return err
			}
			node, err := obj.build(exp, child, parent, inv.outer)
			if err != nil {
				obj.removeScope(exp)
				return err
			}
			node.scopes = append(node.scopes, exp)
		}
		return nil
	}

	node := obj.newNode(SlotType, scope, parent)
	node.Attrs["nth"] = dynval.New("")
	obj.attach(node)
	effect := func(h *state.Handle, values map[interfaces.VarName]dynval.DynVal) error {
		v, err := eval.Eval(nth, values)
		if err != nil {
			return err
		}
		index, err := v.AsInt32()
		if err != nil {
			return err
		}
		if index < 0 || int(index) >= len(inv.children) {
			return errwrap.Wrapf(ErrNoSuchChild, "%d of %d", index, len(inv.children))
		}
		h.Defer(func() error {
			return obj.rebuildSlot(node, scope, int(index), inv)
		})
		return nil
	}
	id, err := obj.Graph.RegisterListener(scope, ast.VarRefs(nth), effect)
	if err != nil {
		obj.Destroy(node)
		return errwrap.Wrapf(err, "can't watch `nth`")
	}
	node.listeners = append(node.listeners, id)
	return nil
}

func (obj *Builder) rebuildSlot(node *Node, scope state.ScopeIndex, index int, inv *invocation) error {
	text := strconv.Itoa(index)
	if node.destroyed || node.last == text {
		return nil
	}
	obj.clear(node)
	node.last = text
	node.Attrs["nth"] = dynval.New(text)
	if obj.Renderer != nil {
		obj.Renderer.Update(node, []interfaces.AttrName{"nth"})
	}

	use := inv.children[index]
	if use.Kind() == config.UseChildren {
		return obj.buildChildren(inv.scope, use, node, inv.outer)
	}
	exp, err := obj.Graph.AddScope("children", inv.scope, scope, nil)
	if err != nil {
		return err
	}
	child, err := obj.build(exp, use, node, inv.outer)
	if err != nil {
		obj.removeScope(exp)
		return err
	}
	child.scopes = append(child.scopes, exp)
	return nil
}

// clear destroys every child of node.
func (obj *Builder) clear(node *Node) {
	for len(node.Children) > 0 {
		obj.Destroy(node.Children[len(node.Children)-1])
	}
}

// Destroy tears down a node and everything below it, children first. The
// scopes that were made for them are removed from the graph.
func (obj *Builder) Destroy(node *Node) {
	if node.destroyed {
		return
	}
	obj.clear(node)
	node.destroyed = true
	if node.created && obj.Renderer != nil {
		obj.Renderer.Destroy(node)
	}
	for _, id := range node.listeners {
		// the scope may have taken it with it already
		_ = obj.Graph.UnregisterListener(id)
	}
	for i := len(node.scopes) - 1; i >= 0; i-- {
		obj.removeScope(node.scopes[i])
	}
	if node.Parent != nil {
		node.Parent.removeChild(node)
	}
}

func (obj *Builder) removeScope(index state.ScopeIndex) {
	if _, err := obj.Graph.RemoveScope(index); err != nil && !errors.Is(err, state.ErrScopeNotFound) {
		obj.logf("can't remove %s: %+v", index, err)
	}
}
