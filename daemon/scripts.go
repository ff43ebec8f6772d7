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
	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
)

// wantedScripts returns the script vars and builtin variables that should be
// running. Only globals that some listener depends on are wanted, and a poll
// whose run-while is false is not.
func (obj *App) wantedScripts() map[interfaces.VarName]struct{} {
	wanted := make(map[interfaces.VarName]struct{})
	for _, name := range obj.graph.UsedGlobals() {
		if def, exists := obj.config.ScriptVar(name); exists {
			if def.Poll != nil && !obj.runWhile(def) {
				continue
			}
			wanted[name] = struct{}{}
			continue
		}
		if _, exists := obj.system[name]; exists {
			wanted[name] = struct{}{}
		}
	}
	return wanted
}

// runWhile evaluates the run-while expression of a poll against the globals.
// If it fails, the poll keeps running.
func (obj *App) runWhile(def *config.ScriptVarDefinition) bool {
	expr := def.Poll.RunWhileExpr()
	if expr == nil {
		return true
	}
	value, err := obj.graph.EvaluateInScope(obj.graph.Root(), expr)
	if err != nil {
		obj.logf("run-while of `%s` failed: %+v", def.Name, err)
		return true
	}
	b, err := value.AsBool()
	if err != nil {
		obj.logf("run-while of `%s` is not a bool: %+v", def.Name, err)
		return true
	}
	return b
}

// syncScripts starts the sources that are wanted and stops the others.
func (obj *App) syncScripts() {
	wanted := obj.wantedScripts()
	for _, name := range obj.scripts.Running() {
		if _, exists := wanted[name]; !exists {
			obj.scripts.StopFor(name)
		}
	}
	for _, name := range util.SortedKeys(wanted) {
		if obj.scripts.IsRunning(name) {
			continue
		}
		if def, exists := obj.config.ScriptVar(name); exists {
			obj.scripts.Add(def)
			continue
		}
		if err := obj.scripts.AddSystem(name); err != nil {
			obj.logf("can't start `%s`: %+v", name, err)
		}
	}
}
