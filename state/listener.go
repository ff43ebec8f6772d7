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

package state

import (
	"errors"
	"fmt"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
)

type opKind int

const (
	opUpdate opKind = iota
	opRemove
	opCall
)

type pendingOp struct {
	kind  opKind
	scope ScopeIndex
	name  interfaces.VarName
	value dynval.DynVal
	fn    func() error
}

// Handle is what an effect gets to talk to the graph. It can read, and it can
// queue changes which run after the current dispatch is done.
type Handle struct {
	graph *Graph
}

// UpdateValue queues a change to a variable, as seen from scope.
func (obj *Handle) UpdateValue(scope ScopeIndex, name interfaces.VarName, value dynval.DynVal) {
	obj.graph.pending = append(obj.graph.pending, pendingOp{kind: opUpdate, scope: scope, name: name, value: value})
}

// RemoveScope queues the removal of a scope and everything it owns.
func (obj *Handle) RemoveScope(scope ScopeIndex) {
	obj.graph.pending = append(obj.graph.pending, pendingOp{kind: opRemove, scope: scope})
}

// Defer queues a function that runs once the current dispatch is done, in
// order with the other queued commands. It may use the graph freely.
func (obj *Handle) Defer(fn func() error) {
	obj.graph.pending = append(obj.graph.pending, pendingOp{kind: opCall, fn: fn})
}

// Resolve returns the current value of a variable as seen from scope.
func (obj *Handle) Resolve(scope ScopeIndex, name interfaces.VarName) (dynval.DynVal, bool) {
	return obj.graph.Resolve(scope, name)
}

// begin is called at the start of every public mutating operation.
func (obj *Graph) begin() error {
	if obj.dispatching() {
		return &GraphErr{
			Err: ErrReentrantMutation,
			Str: "effects must queue changes on their handle",
		}
	}
	obj.depth++
	return nil
}

// end runs the queued commands once the outermost operation is done.
func (obj *Graph) end() {
	if obj.depth > 1 {
		obj.depth--
		return
	}
	defer func() { obj.depth-- }()

	count := 0
	for len(obj.pending) > 0 {
		if count >= MaxQueuedOps {
			obj.logf("dropping %d queued commands, listeners keep triggering each other", len(obj.pending))
			obj.pending = nil
			break
		}
		count++
		op := obj.pending[0]
		obj.pending = obj.pending[1:]
		obj.apply(op)
	}
}

func (obj *Graph) dispatching() bool {
	return obj.depth < 0
}

func (obj *Graph) apply(op pendingOp) {
	var err error
	switch op.kind {
	case opUpdate:
		err = obj.updateValue(op.scope, op.name, op.value)
	case opRemove:
		_, err = obj.removeScope(op.scope)
	case opCall:
		err = op.fn()
	}
	if err == nil {
		return
	}
	if errors.Is(err, ErrScopeNotFound) {
		// the scope went away after the command was queued
		if obj.Debug {
			obj.logf("dropping queued command for stale %s", op.scope)
		}
		return
	}
	obj.logf("queued command failed: %+v", err)
}

// RegisterListener hooks effect to every variable in needed, as seen from
// scope, and runs it once right away. Each variable is hooked at the closest
// scope on the inheritance chain that defines it. The listener is dropped
// when scope is removed. Nothing is registered if any variable can't be
// found.
func (obj *Graph) RegisterListener(scope ScopeIndex, needed []interfaces.VarName, effect Effect) (ListenerID, error) {
	if err := obj.begin(); err != nil {
		return 0, err
	}
	defer obj.end()

	return obj.registerListener(scope, scope, needed, effect, true)
}

func (obj *Graph) registerListener(through, owner ScopeIndex, needed []interfaces.VarName, effect Effect, initial bool) (ListenerID, error) {
	if !obj.Exists(through) {
		return 0, scopeNotFound(through)
	}
	if !obj.Exists(owner) {
		return 0, scopeNotFound(owner)
	}

	l := &listener{
		effect:  effect,
		through: through,
		owner:   owner,
	}
	seen := make(map[interfaces.VarName]struct{})
	for _, name := range needed {
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		d, exists := obj.FindScopeWithVariable(through, name)
		if !exists {
			return 0, obj.missing(through, name)
		}
		l.needed = append(l.needed, name)
		l.attached = append(l.attached, attachment{scope: d, name: name})
	}

	// everything is reachable, so now we can change the graph
	obj.lastListener++
	l.id = obj.lastListener
	for i := range l.attached {
		a := &l.attached[i]
		scope := obj.scopes[a.scope]
		scope.listeners[a.name] = append(scope.listeners[a.name], l)
		for s := through; s != a.scope; {
			edge, _ := obj.inheritance.Edge(s)
			edge.References[a.name]++
			a.path = append(a.path, s)
			s, _ = obj.inheritance.Parent(s)
		}
	}
	obj.listeners[l.id] = l
	if obj.Debug {
		obj.logf("registered listener %d on %v through %s", l.id, l.needed, through)
	}

	if initial {
		name := interfaces.VarName("")
		if len(l.needed) > 0 {
			name = l.needed[0]
		}
		obj.fire(l, name)
	}
	return l.id, nil
}

// UnregisterListener drops a listener so that it never runs again.
func (obj *Graph) UnregisterListener(id ListenerID) error {
	if err := obj.begin(); err != nil {
		return err
	}
	defer obj.end()

	l, exists := obj.listeners[id]
	if !exists {
		return fmt.Errorf("no listener with id %d", id)
	}
	obj.unregister(l)
	return nil
}

func (obj *Graph) unregister(l *listener) {
	l.dead = true
	for _, a := range l.attached {
		obj.release(a)
		scope, exists := obj.scopes[a.scope]
		if !exists {
			continue
		}
		list := scope.listeners[a.name]
		for i, x := range list {
			if x == l {
				list = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(scope.listeners, a.name)
			continue
		}
		scope.listeners[a.name] = list
	}
	delete(obj.listeners, l.id)
}

// release drops the references that an attachment counted on the inheritance
// edges it resolved through. Edges that are already gone are skipped.
func (obj *Graph) release(a attachment) {
	for _, s := range a.path {
		edge, exists := obj.inheritance.Edge(s)
		if !exists {
			continue
		}
		if edge.References[a.name]--; edge.References[a.name] <= 0 {
			delete(edge.References, a.name)
		}
	}
}

// ListenerCount returns the number of registered listeners.
func (obj *Graph) ListenerCount() int {
	return len(obj.listeners)
}

// fire runs one listener with freshly resolved values. A failure is logged and
// doesn't stop anything else.
func (obj *Graph) fire(l *listener, name interfaces.VarName) {
	values, err := obj.LookupVariablesInScope(l.through, l.needed)
	if err == nil {
		err = obj.runEffect(l, values)
	}
	if err == nil {
		return
	}
	if obj.Observer != nil {
		obj.Observer.ListenerFailed(name)
	}
	if obj.Debug {
		obj.logf("listener %d failed on `%s`: %+v", l.id, name, err)
		return
	}
	obj.sometimes.Do(func() {
		obj.logf("listener %d failed on `%s`: %+v", l.id, name, err)
	})
}

func (obj *Graph) runEffect(l *listener, values map[interfaces.VarName]dynval.DynVal) error {
	depth := obj.depth
	obj.depth = -1 // mark that we're inside of an effect
	defer func() { obj.depth = depth }()
	return l.effect(&Handle{graph: obj}, values)
}

// UpdateValue sets a variable, as seen from scope, and runs every listener
// that depends on it in registration order. The variable is changed in the
// closest scope on the inheritance chain that defines it.
func (obj *Graph) UpdateValue(scope ScopeIndex, name interfaces.VarName, value dynval.DynVal) error {
	if err := obj.begin(); err != nil {
		return err
	}
	defer obj.end()

	return obj.updateValue(scope, name, value)
}

// UpdateGlobal sets a variable in the root scope.
func (obj *Graph) UpdateGlobal(name interfaces.VarName, value dynval.DynVal) error {
	return obj.UpdateValue(obj.root, name, value)
}

func (obj *Graph) updateValue(scope ScopeIndex, name interfaces.VarName, value dynval.DynVal) error {
	if !obj.Exists(scope) {
		return scopeNotFound(scope)
	}
	d, exists := obj.FindScopeWithVariable(scope, name)
	if !exists {
		return obj.missing(scope, name)
	}
	obj.scopes[d].Data[name] = value
	obj.notify(d, name)
	return nil
}

// notify runs the listeners attached to a variable of a scope.
func (obj *Graph) notify(index ScopeIndex, name interfaces.VarName) {
	// snapshot, since unregistering edits the list in place
	list := append([]*listener(nil), obj.scopes[index].listeners[name]...)
	count := 0
	for _, l := range list {
		if l.dead {
			continue
		}
		count++
		obj.fire(l, name)
	}
	if obj.Observer != nil {
		obj.Observer.Dispatched(name, count)
	}
	if obj.Debug {
		obj.logf("updated `%s` in %s, ran %d listener(s)", name, index, count)
	}
}
