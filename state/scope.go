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

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
)

// ScopeIndex identifies a scope in a graph. Indexes are handed out in
// increasing order and are never reused, so an index of a removed scope stays
// invalid forever.
type ScopeIndex uint64

// NoScope is the zero index. It never names a scope.
const NoScope ScopeIndex = 0

// String returns a short representation of this index.
func (obj ScopeIndex) String() string {
	return fmt.Sprintf("ScopeIndex(%d)", uint64(obj))
}

// Scope is one variable binding environment. Data only holds the variables
// that this scope defines itself. Anything else is found through the
// inheritance chain.
type Scope struct {
	Name  string
	Index ScopeIndex
	Data  map[interfaces.VarName]dynval.DynVal

	// listeners are the listeners attached here, by the variable of this
	// scope they depend on. Each list is in registration order.
	listeners map[interfaces.VarName][]*listener
}

// ListenerID identifies a registered listener.
type ListenerID uint64

// Effect is run when a variable a listener depends on changes. It receives the
// values of all the variables the listener needs, resolved at call time. It
// must not block, and may only change the graph by queueing commands on the
// handle.
type Effect func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error

type attachment struct {
	scope ScopeIndex
	name  interfaces.VarName

	// path lists the subscopes whose inheritance edge counts this reference.
	path []ScopeIndex
}

type listener struct {
	id     ListenerID
	needed []interfaces.VarName
	effect Effect

	// through is the scope the variables are resolved from.
	through ScopeIndex

	// owner is the scope whose removal unregisters this listener.
	owner ScopeIndex

	// attached lists where this listener was hooked in, one per needed
	// variable, at the scope defining it.
	attached []attachment

	dead bool
}

// Inherits is the edge from a subscope to its superscope. References counts,
// per variable, the listeners in or under the subscope that resolve it through
// this edge. A variable is dropped when its count reaches zero.
type Inherits struct {
	References map[interfaces.VarName]int
}

// ProvidedAttr is an attribute that an owner scope computes for one of its
// owned scopes, re-evaluated whenever a variable it uses changes.
type ProvidedAttr struct {
	Attr interfaces.AttrName
	Expr ast.Expr
}

// Provides is the edge from an owned scope to its owner.
type Provides struct {
	Attrs []ProvidedAttr
}
