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

	"github.com/purpleidea/barstate/util"
)

// errChildHasParent is returned by OneToNMap.Insert for a child that is
// already linked.
const errChildHasParent = util.Error("this child already has a parent")

type parentEdge[K comparable, E any] struct {
	parent K
	edge   E
}

// OneToNMap stores a relation where every child has at most one parent and a
// parent can have any number of children. Each link carries an edge value.
type OneToNMap[K comparable, E any] struct {
	childToParent    map[K]parentEdge[K, E]
	parentToChildren map[K]map[K]struct{}
}

// NewOneToNMap returns an empty relation.
func NewOneToNMap[K comparable, E any]() *OneToNMap[K, E] {
	return &OneToNMap[K, E]{
		childToParent:    make(map[K]parentEdge[K, E]),
		parentToChildren: make(map[K]map[K]struct{}),
	}
}

// Insert links child to parent. It fails without changing anything if child
// already has a parent.
func (obj *OneToNMap[K, E]) Insert(child, parent K, edge E) error {
	if _, exists := obj.childToParent[child]; exists {
		return errChildHasParent
	}
	obj.childToParent[child] = parentEdge[K, E]{parent: parent, edge: edge}
	if _, exists := obj.parentToChildren[parent]; !exists {
		obj.parentToChildren[parent] = make(map[K]struct{})
	}
	obj.parentToChildren[parent][child] = struct{}{}
	return nil
}

// Remove drops every link that k takes part in, both as a child and as a
// parent. Its former children are left without a parent.
func (obj *OneToNMap[K, E]) Remove(k K) {
	for child := range obj.parentToChildren[k] {
		delete(obj.childToParent, child)
	}
	delete(obj.parentToChildren, k)

	pe, exists := obj.childToParent[k]
	if !exists {
		return
	}
	delete(obj.childToParent, k)
	if children, exists := obj.parentToChildren[pe.parent]; exists {
		delete(children, k)
		if len(children) == 0 {
			delete(obj.parentToChildren, pe.parent)
		}
	}
}

// Parent returns the parent of child.
func (obj *OneToNMap[K, E]) Parent(child K) (K, bool) {
	pe, exists := obj.childToParent[child]
	return pe.parent, exists
}

// Edge returns the value stored on the link from child to its parent.
func (obj *OneToNMap[K, E]) Edge(child K) (E, bool) {
	pe, exists := obj.childToParent[child]
	return pe.edge, exists
}

// Children returns the children of parent in no particular order.
func (obj *OneToNMap[K, E]) Children(parent K) []K {
	children := []K{}
	for child := range obj.parentToChildren[parent] {
		children = append(children, child)
	}
	return children
}

// Len returns the number of links.
func (obj *OneToNMap[K, E]) Len() int {
	return len(obj.childToParent)
}

// Each calls fn once per link.
func (obj *OneToNMap[K, E]) Each(fn func(child, parent K, edge E)) {
	for child, pe := range obj.childToParent {
		fn(child, pe.parent, pe.edge)
	}
}

// Clear drops every link.
func (obj *OneToNMap[K, E]) Clear() {
	obj.childToParent = make(map[K]parentEdge[K, E])
	obj.parentToChildren = make(map[K]map[K]struct{})
}

// Validate checks that both directions of the relation agree.
func (obj *OneToNMap[K, E]) Validate() error {
	for parent, children := range obj.parentToChildren {
		for child := range children {
			pe, exists := obj.childToParent[child]
			if !exists {
				return fmt.Errorf("parent %v lists child %v which has no parent", parent, child)
			}
			if pe.parent != parent {
				return fmt.Errorf("parent %v lists child %v whose parent is %v", parent, child, pe.parent)
			}
		}
	}
	for child, pe := range obj.childToParent {
		if _, exists := obj.parentToChildren[pe.parent][child]; !exists {
			return fmt.Errorf("child %v has parent %v which doesn't list it", child, pe.parent)
		}
	}
	return nil
}
