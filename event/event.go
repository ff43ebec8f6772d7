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

// Package event provides the commands that are sent over the single channel
// into the goroutine that owns the scope graph, and the primitives used to
// acknowledge them.
package event

import (
	"fmt"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/state"
)

// Kind represents the type of command being passed.
type Kind int

// The different command kinds.
const (
	KindNil Kind = iota
	KindUpdateVars
	KindUpdateValue
	KindRemoveScope
	KindOpenWindow
	KindCloseWindow
	KindCloseAll
	KindReloadConfig
	KindPrintState
	KindPrintGraph
	KindStop
)

var kindStrings = map[Kind]string{
	KindNil:          "Nil",
	KindUpdateVars:   "UpdateVars",
	KindUpdateValue:  "UpdateValue",
	KindRemoveScope:  "RemoveScope",
	KindOpenWindow:   "OpenWindow",
	KindCloseWindow:  "CloseWindow",
	KindCloseAll:     "CloseAll",
	KindReloadConfig: "ReloadConfig",
	KindPrintState:   "PrintState",
	KindPrintGraph:   "PrintGraph",
	KindStop:         "Stop",
}

// String returns the name of the kind.
func (obj Kind) String() string {
	if s, exists := kindStrings[obj]; exists {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(obj))
}

// Command is a message for the owner of the graph.
type Command interface {
	// Kind returns which command this is.
	Kind() Kind

	// ACKNACK answers the sender, if it asked for an answer. A nil error is
	// an ACK.
	ACKNACK(err error)
}

// Resp is a channel to be used for responses. A nil represents an ACK, and a
// non-nil represents a NACK. This also lets us use custom errors.
type Resp chan error

// NewResp is just a helper to return the right type of response channel. It's
// buffered so that the owner never blocks when answering.
func NewResp() Resp {
	return make(chan error, 1)
}

// ACK sends a true value to resp.
func (resp Resp) ACK() {
	if resp != nil {
		resp <- nil
	}
}

// NACK sends a false value to resp.
func (resp Resp) NACK() {
	if resp != nil {
		resp <- fmt.Errorf("NACK")
	}
}

// ACKNACK sends a custom ACK or NACK. The ACK value is always nil, the NACK can
// be any non-nil error value.
func (resp Resp) ACKNACK(err error) {
	if resp != nil {
		resp <- err
	}
}

// Wait waits for any response from a Resp channel and returns it.
func (resp Resp) Wait() error {
	return <-resp
}

// Base is embedded in every command to carry the optional response channel.
type Base struct {
	Resp Resp // channel to send an ack response on, nil to skip
}

// ACKNACK sends a custom ACK or NACK message on the channel if one was
// requested.
func (obj *Base) ACKNACK(err error) {
	obj.Resp.ACKNACK(err)
}

// UpdateVars sets global variables. Script vars send this.
type UpdateVars struct {
	Base
	Vars map[interfaces.VarName]dynval.DynVal
}

// Kind returns which command this is.
func (obj *UpdateVars) Kind() Kind { return KindUpdateVars }

// UpdateValue sets a variable as seen from a particular scope. It's dropped if
// the scope is gone by the time it arrives.
type UpdateValue struct {
	Base
	Scope state.ScopeIndex
	Name  interfaces.VarName
	Value dynval.DynVal
}

// Kind returns which command this is.
func (obj *UpdateValue) Kind() Kind { return KindUpdateValue }

// RemoveScope removes a scope and everything it owns.
type RemoveScope struct {
	Base
	Scope state.ScopeIndex
}

// Kind returns which command this is.
func (obj *RemoveScope) Kind() Kind { return KindRemoveScope }

// OpenWindow realizes a window definition. If ID is empty, a new one is made
// up. Args are the raw argument values, which are checked against the
// arguments the window declares.
type OpenWindow struct {
	Base
	Name string
	ID   string
	Args map[string]string

	// Toggle closes the window instead if it is already open.
	Toggle bool
}

// Kind returns which command this is.
func (obj *OpenWindow) Kind() Kind { return KindOpenWindow }

// CloseWindow closes an open window by id.
type CloseWindow struct {
	Base
	ID string
}

// Kind returns which command this is.
func (obj *CloseWindow) Kind() Kind { return KindCloseWindow }

// CloseAll closes every open window.
type CloseAll struct {
	Base
}

// Kind returns which command this is.
func (obj *CloseAll) Kind() Kind { return KindCloseAll }

// ReloadConfig swaps in a new configuration and reopens the windows that were
// open. A nil Config means that the configuration should be read again from
// where it came from.
type ReloadConfig struct {
	Base
	Config *config.Config
}

// Kind returns which command this is.
func (obj *ReloadConfig) Kind() Kind { return KindReloadConfig }

// PrintState asks for a dump of the variables. If Out is nil it is logged.
type PrintState struct {
	Base
	All bool // include unused globals
	Out chan<- string
}

// Kind returns which command this is.
func (obj *PrintState) Kind() Kind { return KindPrintState }

// PrintGraph asks for the scope graph in graphviz format. If Out is nil it is
// logged.
type PrintGraph struct {
	Base
	Out chan<- string
}

// Kind returns which command this is.
func (obj *PrintGraph) Kind() Kind { return KindPrintGraph }

// Stop makes the owner close every window and return.
type Stop struct {
	Base
}

// Kind returns which command this is.
func (obj *Stop) Kind() Kind { return KindStop }
