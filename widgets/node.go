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

// Package widgets realizes widget trees from the config into scopes and
// listeners of the scope graph. Rendering is left to a Renderer, which is told
// about every node that is created, changed or destroyed.
package widgets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/state"
	"github.com/purpleidea/barstate/util"
)

// These are the types of the nodes that hold the dynamic parts of a tree.
const (
	// LoopType is a node whose children are one body per loop element.
	LoopType = "for"

	// SlotType is a node that holds the one selected child of a custom
	// widget.
	SlotType = "children"
)

// Node is one realized widget.
type Node struct {
	ID   uint64
	Type string

	// Scope is where the attributes of this node are evaluated.
	Scope state.ScopeIndex

	// Attrs holds the current attribute values.
	Attrs map[interfaces.AttrName]dynval.DynVal

	Parent   *Node
	Children []*Node

	scopes    []state.ScopeIndex // made for this node, removed with it
	listeners []state.ListenerID
	created   bool // the renderer knows about it
	destroyed bool
	last      string // last loop elements or slot index, to skip rebuilds
}

// String returns a short name for the node, such as `label#4`.
func (obj *Node) String() string {
	return fmt.Sprintf("%s#%d", obj.Type, obj.ID)
}

// Destroyed returns true once the node was torn down.
func (obj *Node) Destroyed() bool {
	return obj.destroyed
}

// Attr returns the current value of an attribute.
func (obj *Node) Attr(name interfaces.AttrName) (dynval.DynVal, bool) {
	v, exists := obj.Attrs[name]
	return v, exists
}

// Walk runs fn on this node and every node below it, parents first.
func (obj *Node) Walk(fn func(*Node)) {
	fn(obj)
	for _, child := range obj.Children {
		child.Walk(fn)
	}
}

// Dump returns an indented listing of the tree with the attributes. It's
// stable so it can be compared in tests.
func (obj *Node) Dump() string {
	var b strings.Builder
	obj.dump(&b, 0)
	return b.String()
}

func (obj *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(obj.Type)
	for _, k := range util.SortedKeys(obj.Attrs) {
		fmt.Fprintf(b, " %s=%q", k, obj.Attrs[k].String())
	}
	b.WriteString("\n")
	for _, child := range obj.Children {
		child.dump(b, depth+1)
	}
}

// removeChild detaches child from this node.
func (obj *Node) removeChild(child *Node) {
	for i, x := range obj.Children {
		if x == child {
			obj.Children = append(obj.Children[:i], obj.Children[i+1:]...)
			return
		}
	}
}

// Renderer displays the realized widgets. The calls come from the goroutine
// that owns the scope graph and must not block.
type Renderer interface {
	// Create is called once the node has its first attribute values. Its
	// parent was created before it.
	Create(node *Node)

	// Update is called when some attributes changed, with their names.
	Update(node *Node, changed []interfaces.AttrName)

	// Destroy is called when the node goes away. Its children were
	// destroyed before it.
	Destroy(node *Node)
}

// LogRenderer is a Renderer that logs what happens. With no Logf, it's silent.
type LogRenderer struct {
	Logf func(format string, v ...interface{})
}

func (obj *LogRenderer) logf(format string, v ...interface{}) {
	if obj.Logf != nil {
		obj.Logf(format, v...)
	}
}

// Create logs the new node.
func (obj *LogRenderer) Create(node *Node) {
	parent := "none"
	if node.Parent != nil {
		parent = node.Parent.String()
	}
	obj.logf("create %s (parent: %s)%s", node, parent, formatAttrs(node.Attrs, nil))
}

// Update logs the changed attributes.
func (obj *LogRenderer) Update(node *Node, changed []interfaces.AttrName) {
	obj.logf("update %s%s", node, formatAttrs(node.Attrs, changed))
}

// Destroy logs the removal.
func (obj *LogRenderer) Destroy(node *Node) {
	obj.logf("destroy %s", node)
}

// formatAttrs shows the named attributes, or all of them if names is nil.
func formatAttrs(attrs map[interfaces.AttrName]dynval.DynVal, names []interfaces.AttrName) string {
	if names == nil {
		names = util.SortedKeys(attrs)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	s := ""
	for _, k := range names {
		s += fmt.Sprintf(" %s=%q", k, attrs[k].String())
	}
	return s
}
