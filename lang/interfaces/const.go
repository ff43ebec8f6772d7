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

// Package interfaces contains the common types and interfaces that are shared
// between the expression language packages and the scope graph.
package interfaces

// VarName is the name of a variable. It's a distinct type from AttrName so
// that the two namespaces can't be mixed up by accident.
type VarName string

// String returns the name as a plain string.
func (obj VarName) String() string { return string(obj) }

// AttrName is the name of a widget or window attribute.
type AttrName string

// String returns the name as a plain string.
func (obj AttrName) String() string { return string(obj) }

// ToVarName converts an attribute name into the variable it binds to inside
// of a widget definition. Arguments of a definition are visible as variables.
func (obj AttrName) ToVarName() VarName { return VarName(obj) }

const (
	// GlobalScopeName is the name of the root scope that holds the global
	// variables.
	GlobalScopeName = "global"
)
