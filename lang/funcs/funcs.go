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

// Package funcs provides a framework for the built-in functions that can be
// called from expressions. The actual functions live in the core packages and
// register themselves here when they are imported.
package funcs

import (
	"fmt"
	"sort"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/util"
)

const (
	// ErrFuncNotFound is returned by Lookup for an unknown name.
	ErrFuncNotFound = util.Error("func not found")

	// ErrWrongArgCount is returned when a function is called with a number
	// of arguments that it doesn't accept.
	ErrWrongArgCount = util.Error("wrong number of arguments")

	// Variadic is used as MaxArgs to accept any number of arguments.
	Variadic = -1
)

// registeredFuncs is a global map of all possible funcs which can be used. You
// should never touch this map directly. Use methods like Register instead.
var registeredFuncs = make(map[string]*Func) // must initialize

// Func is a simple, static, pure function over values.
type Func struct {
	// Name is what the function is called by in expressions.
	Name string

	// MinArgs and MaxArgs bound the number of arguments. Use Variadic for
	// MaxArgs to accept any number.
	MinArgs int
	MaxArgs int

	// Fn is the implementation. It receives the right number of args.
	Fn func(args []dynval.DynVal) (dynval.DynVal, error)
}

// Call checks the number of arguments and runs the function.
func (obj *Func) Call(args []dynval.DynVal) (dynval.DynVal, error) {
	if n := len(args); n < obj.MinArgs || (obj.MaxArgs != Variadic && n > obj.MaxArgs) {
		return dynval.DynVal{}, fmt.Errorf("%w: %s takes %s, got %d", ErrWrongArgCount, obj.Name, obj.arity(), n)
	}
	return obj.Fn(args)
}

func (obj *Func) arity() string {
	switch {
	case obj.MaxArgs == Variadic:
		return fmt.Sprintf("at least %d", obj.MinArgs)
	case obj.MinArgs == obj.MaxArgs:
		return fmt.Sprintf("%d", obj.MinArgs)
	}
	return fmt.Sprintf("%d to %d", obj.MinArgs, obj.MaxArgs)
}

// Register takes a func and adds it to our registry. It must be called from
// an init() function, and will panic on a duplicate name.
func Register(fn *Func) {
	if fn == nil || fn.Fn == nil {
		panic("can't register an empty func")
	}
	if _, exists := registeredFuncs[fn.Name]; exists {
		panic(fmt.Sprintf("a func named %s is already registered", fn.Name))
	}
	registeredFuncs[fn.Name] = fn
}

// Lookup returns the function with that name.
func Lookup(name string) (*Func, error) {
	fn, exists := registeredFuncs[name]
	if !exists {
		return nil, ErrFuncNotFound
	}
	return fn, nil
}

// Names returns the names of all the registered functions in sorted order.
func Names() []string {
	names := []string{}
	for name := range registeredFuncs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
