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
	"fmt"
	"sort"
)

// RemoveScope removes a scope together with every scope it owns, directly or
// not. Owned scopes go first, depth first, so the scope itself is removed
// last. Every listener owned by a removed scope is dropped and can't run
// again. The removal order is returned.
func (obj *Graph) RemoveScope(index ScopeIndex) ([]ScopeIndex, error) {
	if err := obj.begin(); err != nil {
		return nil, err
	}
	defer obj.end()

	return obj.removeScope(index)
}

func (obj *Graph) removeScope(index ScopeIndex) ([]ScopeIndex, error) {
	if !obj.Exists(index) {
		return nil, scopeNotFound(index)
	}
	if index == obj.root {
		return nil, fmt.Errorf("can't remove the root scope")
	}

	order := obj.ownedDepthFirst(index, nil)
	for _, s := range order {
		obj.dropScope(s)
	}
	obj.observeScopes()
	if obj.Debug {
		obj.logf("removed scopes: %v", order)
	}
	return order, nil
}

// ownedDepthFirst appends the ownership subtree of index to order, children
// before their owner.
func (obj *Graph) ownedDepthFirst(index ScopeIndex, order []ScopeIndex) []ScopeIndex {
	for _, child := range obj.Owned(index) {
		order = obj.ownedDepthFirst(child, order)
	}
	return append(order, index)
}

func (obj *Graph) dropScope(index ScopeIndex) {
	ids := []ListenerID{}
	for id, l := range obj.listeners {
		if l.owner == index || l.through == index {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		obj.unregister(obj.listeners[id])
	}

	// listeners owned elsewhere that were hooked to variables of this scope
	for name, list := range obj.scopes[index].listeners {
		for _, l := range list {
			kept := []attachment{}
			for _, a := range l.attached {
				if a.scope != index {
					kept = append(kept, a)
					continue
				}
				obj.release(a)
			}
			l.attached = kept
			obj.logf("listener %d through %s lost variable `%s` of removed %s", l.id, l.through, name, index)
		}
	}

	for _, sub := range obj.inheritance.Children(index) {
		obj.logf("%s inherited from removed %s and is now detached", sub, index)
	}

	obj.inheritance.Remove(index)
	obj.ownership.Remove(index)
	delete(obj.scopes, index)
}
