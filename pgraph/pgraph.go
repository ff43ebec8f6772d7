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

// Package pgraph represents the internal "pointer graph" that we use. It is
// used to check and display the relations between the scopes at runtime.
package pgraph

import (
	"fmt"
	"sort"

	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// ErrNotAcyclic is returned when a topological sort finds a cycle.
const ErrNotAcyclic = util.Error("not a dag")

// Graph is the graph structure in this library. The graph abstract data type
// (ADT) is defined as follows:
// * the directed graph arrows point from left to right ( -> )
// * the arrows point away from their dependencies (eg: arrows mean "before")
// * IOW, you might see parent -> child (where the parent must exist first)
type Graph struct {
	Name string

	adjacency map[Vertex]map[Vertex]Edge // Vertex -> Vertex (edge)
}

// Vertex is the primary vertex struct in this library. It can be anything that
// implements Stringer. The string output must be stable and unique in the
// graph.
type Vertex interface {
	fmt.Stringer // String() string
}

// Edge is the primary edge struct in this library. It can be anything that
// implements Stringer. The string output must be stable and unique in the
// graph.
type Edge interface {
	fmt.Stringer // String() string
}

// NewGraph builds a new graph.
func NewGraph(name string) (*Graph, error) {
	obj := &Graph{
		Name: name,
	}
	return obj, obj.Init()
}

// Init initializes the graph which populates all the internal structures.
func (obj *Graph) Init() error {
	if obj.Name == "" {
		return fmt.Errorf("can't initialize graph with empty name")
	}
	obj.adjacency = make(map[Vertex]map[Vertex]Edge)
	return nil
}

// lazy lets the zero value of the graph be used directly.
func (obj *Graph) lazy() {
	if obj.adjacency == nil {
		obj.adjacency = make(map[Vertex]map[Vertex]Edge)
	}
}

// String makes the graph pretty print.
func (obj *Graph) String() string {
	return fmt.Sprintf("%s: Vertices(%d), Edges(%d)", obj.Name, obj.NumVertices(), obj.NumEdges())
}

// AddVertex uses variadic input to add all listed vertices to the graph.
func (obj *Graph) AddVertex(xv ...Vertex) {
	obj.lazy()
	for _, v := range xv {
		if _, exists := obj.adjacency[v]; !exists {
			obj.adjacency[v] = make(map[Vertex]Edge)
		}
	}
}

// AddEdge adds a directed edge to the graph from v1 to v2. Any missing vertex
// is added as well.
func (obj *Graph) AddEdge(v1, v2 Vertex, e Edge) {
	obj.AddVertex(v1, v2)
	obj.adjacency[v1][v2] = e
}

// FindEdge returns the edge from v1 to v2, or nil if there isn't one.
func (obj *Graph) FindEdge(v1, v2 Vertex) Edge {
	if m, exists := obj.adjacency[v1]; exists {
		return m[v2]
	}
	return nil
}

// NumVertices returns the number of vertices in the graph.
func (obj *Graph) NumVertices() int {
	return len(obj.adjacency)
}

// NumEdges returns the number of edges in the graph.
func (obj *Graph) NumEdges() int {
	count := 0
	for k := range obj.adjacency {
		count += len(obj.adjacency[k])
	}
	return count
}

// Vertices returns a randomly sorted slice of all vertices in the graph.
func (obj *Graph) Vertices() []Vertex {
	var vertices []Vertex
	for k := range obj.adjacency {
		vertices = append(vertices, k)
	}
	return vertices
}

// VertexSlice is a linear list of vertices. It can be sorted.
type VertexSlice []Vertex

// Len returns the length of the slice of vertices.
func (vs VertexSlice) Len() int { return len(vs) }

// Swap swaps two elements in the slice.
func (vs VertexSlice) Swap(i, j int) { vs[i], vs[j] = vs[j], vs[i] }

// Less returns the smaller element in the sort order.
func (vs VertexSlice) Less(i, j int) bool { return vs[i].String() < vs[j].String() }

// VerticesSorted returns a sorted slice of all vertices in the graph. The sort
// is implemented by the String() method of each vertex.
func (obj *Graph) VerticesSorted() []Vertex {
	vertices := obj.Vertices()
	sort.Sort(VertexSlice(vertices))
	return vertices
}

// OutgoingGraphVertices returns an array (slice) of all vertices that vertex v
// points to (v -> ???).
func (obj *Graph) OutgoingGraphVertices(v Vertex) []Vertex {
	var s []Vertex
	for k := range obj.adjacency[v] { // forward paths
		s = append(s, k)
	}
	return s
}

// DFS returns a depth first search for the graph, starting at the input
// vertex.
func (obj *Graph) DFS(start Vertex) []Vertex {
	var d []Vertex // discovered
	var s []Vertex // stack
	if _, exists := obj.adjacency[start]; !exists {
		return nil // TODO: error
	}
	v := start
	s = append(s, v)
	for len(s) > 0 {
		v, s = s[len(s)-1], s[:len(s)-1] // s.pop()

		if !VertexContains(v, d) { // if not discovered
			d = append(d, v) // label as discovered

			for _, w := range obj.OutgoingGraphVertices(v) {
				s = append(s, w)
			}
		}
	}
	return d
}

// InDegree returns the count of vertices that point to me in one big lookup
// map.
func (obj *Graph) InDegree() map[Vertex]int {
	result := make(map[Vertex]int)
	for k := range obj.adjacency {
		result[k] = 0 // initialize
	}

	for k := range obj.adjacency {
		for z := range obj.adjacency[k] {
			result[z]++
		}
	}
	return result
}

// TopologicalSort returns the sort of graph vertices in that order. It is
// based on descriptions and code from wikipedia and rosetta code. The output
// is stable because the ready set is processed in sorted order.
func (obj *Graph) TopologicalSort() ([]Vertex, error) { // kahn's algorithm
	var L []Vertex                    // empty list that will contain the sorted elements
	var S []Vertex                    // set of all nodes with no incoming edges
	remaining := make(map[Vertex]int) // amount of edges remaining

	indegree := obj.InDegree()
	for _, v := range obj.VerticesSorted() {
		if d := indegree[v]; d == 0 {
			// accumulate set of all nodes with no incoming edges
			S = append(S, v)
		} else {
			// initialize remaining edge count from indegree
			remaining[v] = d
		}
	}

	for len(S) > 0 {
		v := S[0] // remove a node v from S
		S = S[1:]
		L = append(L, v) // add v to tail of L
		next := obj.OutgoingGraphVertices(v)
		sort.Sort(VertexSlice(next))
		for _, n := range next {
			// for each node n remaining in the graph, consume from
			// remaining, so for remaining[n] > 0
			if remaining[n] > 0 {
				remaining[n]--         // remove edge from the graph
				if remaining[n] == 0 { // if n has no other incoming edges
					S = append(S, n) // insert n into S
				}
			}
		}
	}

	// if graph has edges, eg if any value in rem is > 0
	for c, in := range remaining {
		if in > 0 {
			return nil, errwrap.Wrapf(ErrNotAcyclic, "vertex %s is in a cycle", c)
		}
	}

	return L, nil
}

// InCycle returns the vertices that can reach themselves, sorted. It's empty
// if the graph is a dag.
func (obj *Graph) InCycle() []Vertex {
	result := []Vertex{}
	for _, v := range obj.VerticesSorted() {
		for _, next := range obj.OutgoingGraphVertices(v) {
			if VertexContains(v, obj.DFS(next)) {
				result = append(result, v)
				break
			}
		}
	}
	return result
}

// VertexContains is an "in array" function to test for a vertex in a slice of
// vertices.
func VertexContains(needle Vertex, haystack []Vertex) bool {
	for _, v := range haystack {
		if needle == v {
			return true
		}
	}
	return false
}
