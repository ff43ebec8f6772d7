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

package pgraph

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"

	"github.com/purpleidea/barstate/util/errwrap"
)

// Graphviz outputs the graph in graphviz format. The output is sorted so that
// it is stable between runs.
// https://en.wikipedia.org/wiki/DOT_%28graph_description_language%29
func (obj *Graph) Graphviz() (out string) {
	//digraph g {
	//	label="hello world";
	//	node [shape=box];
	//	A [label="A"];
	//	B [label="B"];
	//	A -> B [label=f];
	//}
	out += fmt.Sprintf("digraph %s {\n", strconv.Quote(obj.Name))
	out += fmt.Sprintf("\tlabel=%s;\n", strconv.Quote(obj.Name))
	out += "\tnode [shape=box];\n"
	str := ""
	for _, i := range obj.VerticesSorted() {
		v1 := strconv.Quote(i.String()) // 1st vertex
		out += fmt.Sprintf("\t%s [label=%s];\n", v1, v1)
		next := obj.OutgoingGraphVertices(i)
		sort.Sort(VertexSlice(next))
		for _, j := range next {
			v2 := strconv.Quote(j.String())                     // 2nd vertex
			e := strconv.Quote(obj.adjacency[i][j].String()) // edge
			// use str for clearer output ordering
			str += fmt.Sprintf("\t%s -> %s [label=%s];\n", v1, v2, e)
		}
	}
	out += str
	out += "}\n"
	return
}

// ExecGraphviz writes out the graphviz data and runs the correct graphviz
// filter command to render a png next to it. The data usually comes from the
// Graphviz method.
func ExecGraphviz(ctx context.Context, program, filename, data string) error {
	switch program {
	case "dot", "neato", "twopi", "circo", "fdp":
	default:
		return fmt.Errorf("invalid graphviz program selected")
	}

	if filename == "" {
		return fmt.Errorf("no filename given")
	}

	if err := os.WriteFile(filename, []byte(data), 0644); err != nil {
		return errwrap.Wrapf(err, "error writing to filename")
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return errwrap.Wrapf(err, "the graphviz program is missing")
	}

	out := fmt.Sprintf("%s.png", filename)
	cmd := exec.CommandContext(ctx, path, "-Tpng", fmt.Sprintf("-o%s", out), filename)
	if _, err := cmd.Output(); err != nil {
		return errwrap.Wrapf(err, "error writing to image")
	}
	return nil
}
