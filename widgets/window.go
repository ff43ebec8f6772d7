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
	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/state"
	"github.com/purpleidea/barstate/util/errwrap"
)

// Window is an open instance of a window definition.
type Window struct {
	ID   string
	Name string

	// Scope holds the window arguments. It inherits from the root.
	Scope state.ScopeIndex
	Args  map[interfaces.VarName]dynval.DynVal

	Geometry *config.Geometry
	Monitor  string
	Stacking config.Stacking

	Root *Node
}

// OpenWindow realizes a window definition with the given raw arguments.
func (obj *Builder) OpenWindow(def *config.WindowDefinition, id string, raw map[string]string) (*Window, error) {
	args, err := def.Arguments(id, raw)
	if err != nil {
		return nil, err
	}
	geometry, err := def.Place(args)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't place window `%s`", def.Name)
	}
	monitor, err := def.MonitorName(args)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't place window `%s`", def.Name)
	}

	root := obj.Graph.Root()
	scope, err := obj.Graph.AddScope("window "+id, root, root, args)
	if err != nil {
		return nil, err
	}
	node, err := obj.Build(scope, def.Widget, nil)
	if err != nil {
		obj.removeScope(scope)
		return nil, errwrap.Wrapf(err, "can't build window `%s`", def.Name)
	}
	if obj.Debug {
		obj.logf("opened window %s (%s) in %s", id, def.Name, scope)
	}
	return &Window{
		ID:       id,
		Name:     def.Name,
		Scope:    scope,
		Args:     args,
		Geometry: geometry,
		Monitor:  monitor,
		Stacking: def.StackingMode(),
		Root:     node,
	}, nil
}

// CloseWindow destroys the widgets of a window and removes its scope, with
// everything that it owns.
func (obj *Builder) CloseWindow(w *Window) {
	obj.Destroy(w.Root)
	obj.removeScope(w.Scope)
	if obj.Debug {
		obj.logf("closed window %s (%s)", w.ID, w.Name)
	}
}
