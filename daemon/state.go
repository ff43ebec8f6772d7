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

package daemon

import (
	"fmt"
	"strings"

	"github.com/purpleidea/barstate/util"

	"github.com/sanity-io/litter"
)

// State returns the values of the globals that are in use, one per line as
// `name: value`. With all, every global is shown, followed by a dump of every
// scope and its local data.
func (obj *App) State(all bool) string {
	root := obj.graph.Root()
	data, _ := obj.graph.ScopeData(root) // root always exists

	names := obj.graph.UsedGlobals()
	if all {
		names = util.SortedKeys(data)
	}
	lines := []string{}
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, data[name]))
	}
	if !all {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "", litter.Sdump(obj.scopeDump()))
	return strings.Join(lines, "\n")
}

// scopeInfo is what the dump shows for each scope.
type scopeInfo struct {
	Index      uint64
	Name       string
	Superscope uint64 // zero is none
	Owner      uint64
	Data       map[string]string
}

func (obj *App) scopeDump() []scopeInfo {
	dump := []scopeInfo{}
	for _, index := range obj.graph.Scopes() {
		if index == obj.graph.Root() {
			continue // already shown
		}
		name, err := obj.graph.ScopeName(index)
		if err != nil {
			continue
		}
		info := scopeInfo{
			Index: uint64(index),
			Name:  name,
			Data:  make(map[string]string),
		}
		if super, ok := obj.graph.Superscope(index); ok {
			info.Superscope = uint64(super)
		}
		if owner, ok := obj.graph.Owner(index); ok {
			info.Owner = uint64(owner)
		}
		data, _ := obj.graph.ScopeData(index)
		for k, v := range data {
			info.Data[string(k)] = v.String()
		}
		dump = append(dump, info)
	}
	return dump
}
