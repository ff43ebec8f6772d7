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
	"strings"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/pgraph"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// Validate checks that the graph is consistent: both relations only link live
// scopes, neither has a loop, and every listener is hooked where it should
// be. It returns every problem it finds.
func (obj *Graph) Validate() error {
	var reterr error
	if err := obj.inheritance.Validate(); err != nil {
		reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "inheritance"))
	}
	if err := obj.ownership.Validate(); err != nil {
		reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "ownership"))
	}

	check := func(relation string, child, parent ScopeIndex) {
		if !obj.Exists(child) {
			reterr = errwrap.Append(reterr, fmt.Errorf("%s lists missing child %d", relation, child))
		}
		if !obj.Exists(parent) {
			reterr = errwrap.Append(reterr, fmt.Errorf("%s lists missing parent %d", relation, parent))
		}
	}
	obj.inheritance.Each(func(child, parent ScopeIndex, _ *Inherits) { check("inheritance", child, parent) })
	obj.ownership.Each(func(child, parent ScopeIndex, _ *Provides) { check("ownership", child, parent) })

	for _, index := range obj.Scopes() {
		if _, exists := obj.ownership.Parent(index); !exists && index != obj.root {
			reterr = errwrap.Append(reterr, fmt.Errorf("scope %d has no owner", index))
		}
	}

	for name, g := range map[string]*pgraph.Graph{"inheritance": obj.inheritanceGraph(), "ownership": obj.ownershipGraph()} {
		if _, err := g.TopologicalSort(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "%s", name))
		}
	}

	for id, l := range obj.listeners {
		if l.dead {
			reterr = errwrap.Append(reterr, fmt.Errorf("listener %d is dead but registered", id))
		}
		if !obj.Exists(l.owner) {
			reterr = errwrap.Append(reterr, fmt.Errorf("listener %d has missing owner %d", id, l.owner))
		}
		if !obj.Exists(l.through) {
			reterr = errwrap.Append(reterr, fmt.Errorf("listener %d resolves through missing %d", id, l.through))
		}
		for _, a := range l.attached {
			scope, exists := obj.scopes[a.scope]
			if !exists {
				reterr = errwrap.Append(reterr, fmt.Errorf("listener %d is hooked to missing %d", id, a.scope))
				continue
			}
			if _, exists := scope.Data[a.name]; !exists {
				reterr = errwrap.Append(reterr, fmt.Errorf("listener %d is hooked to `%s` which %d doesn't define", id, a.name, a.scope))
			}
			found := false
			for _, x := range scope.listeners[a.name] {
				found = found || x == l
			}
			if !found {
				reterr = errwrap.Append(reterr, fmt.Errorf("listener %d is missing from `%s` of %d", id, a.name, a.scope))
			}
		}
	}
	for _, index := range obj.Scopes() {
		for name, list := range obj.scopes[index].listeners {
			for _, l := range list {
				if _, exists := obj.listeners[l.id]; !exists {
					reterr = errwrap.Append(reterr, fmt.Errorf("`%s` of %d has unregistered listener %d", name, index, l.id))
				}
			}
		}
	}
	return reterr
}

// scopeVertex is how a scope is shown in a pgraph.
type scopeVertex struct {
	index ScopeIndex
	name  string
}

// String is a required method of the Vertex interface that we must fulfill.
func (obj *scopeVertex) String() string {
	return fmt.Sprintf("%s #%d", obj.name, obj.index)
}

// relationEdge is how a link of a relation is shown in a pgraph.
type relationEdge struct {
	labels []string
}

// String is a required method of the Edge interface that we must fulfill.
func (obj *relationEdge) String() string {
	return strings.Join(obj.labels, ", ")
}

func (obj *Graph) vertices() map[ScopeIndex]pgraph.Vertex {
	vertices := make(map[ScopeIndex]pgraph.Vertex)
	for index, scope := range obj.scopes {
		vertices[index] = &scopeVertex{index: index, name: scope.Name}
	}
	return vertices
}

func (obj *Graph) inheritanceGraph() *pgraph.Graph {
	g := &pgraph.Graph{Name: "inheritance"}
	vertices := obj.vertices()
	obj.inheritance.Each(func(child, parent ScopeIndex, _ *Inherits) {
		if vertices[child] != nil && vertices[parent] != nil {
			g.AddEdge(vertices[child], vertices[parent], &relationEdge{})
		}
	})
	return g
}

func (obj *Graph) ownershipGraph() *pgraph.Graph {
	g := &pgraph.Graph{Name: "ownership"}
	vertices := obj.vertices()
	obj.ownership.Each(func(child, parent ScopeIndex, _ *Provides) {
		if vertices[child] != nil && vertices[parent] != nil {
			g.AddEdge(vertices[parent], vertices[child], &relationEdge{})
		}
	})
	return g
}

// PGraph returns both relations in one pgraph. Owners point at what they own,
// and subscopes point at their superscope.
func (obj *Graph) PGraph() *pgraph.Graph {
	g := &pgraph.Graph{Name: "scopes"}
	vertices := obj.vertices()
	for _, v := range vertices {
		g.AddVertex(v)
	}
	link := func(a, b ScopeIndex, label string) {
		if e, ok := g.FindEdge(vertices[a], vertices[b]).(*relationEdge); ok {
			e.labels = append(e.labels, label)
			return
		}
		g.AddEdge(vertices[a], vertices[b], &relationEdge{labels: []string{label}})
	}
	obj.ownership.Each(func(child, parent ScopeIndex, edge *Provides) {
		attrs := []string{}
		for _, x := range edge.Attrs {
			attrs = append(attrs, fmt.Sprintf(":%s %s", x.Attr, x.Expr))
		}
		link(parent, child, strings.TrimSpace("owns "+strings.Join(attrs, " ")))
	})
	obj.inheritance.Each(func(child, parent ScopeIndex, edge *Inherits) {
		refs := util.SortedKeys(edge.References)
		s := []string{}
		for _, r := range refs {
			s = append(s, r.String())
		}
		link(child, parent, fmt.Sprintf("inherits(%s)", strings.Join(s, " ")))
	})
	return g
}

// Visualize returns the graph in graphviz dot format.
func (obj *Graph) Visualize() string {
	return obj.PGraph().Graphviz()
}

// UsedGlobals returns the globals that some listener depends on, sorted.
func (obj *Graph) UsedGlobals() []interfaces.VarName {
	used := []interfaces.VarName{}
	for name, list := range obj.scopes[obj.root].listeners {
		if len(list) > 0 {
			used = append(used, name)
		}
	}
	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })
	return used
}

// UnusedGlobals returns the globals that no listener depends on, sorted.
func (obj *Graph) UnusedGlobals() []interfaces.VarName {
	root := obj.scopes[obj.root]
	unused := []interfaces.VarName{}
	for _, name := range util.SortedKeys(root.Data) {
		if len(root.listeners[name]) == 0 {
			unused = append(unused, name)
		}
	}
	return unused
}
