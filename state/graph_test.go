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
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/lang/parser"

	"github.com/davecgh/go-spew/spew"
	"github.com/kylelemons/godebug/pretty"
)

type vars = map[interfaces.VarName]dynval.DynVal

func newTestGraph(t *testing.T, globals map[string]string) *Graph {
	g := &Graph{
		Debug: testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("graph: "+format, v...)
		},
	}
	data := vars{}
	for k, v := range globals {
		data[interfaces.VarName(k)] = dynval.New(v)
	}
	if err := g.Init(data); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	return g
}

func mustParse(t *testing.T, code string) ast.Expr {
	expr, err := parser.Parse(code)
	if err != nil {
		t.Fatalf("parse of `%s` failed: %+v", code, err)
	}
	return expr
}

// recorder is an effect that remembers what it saw.
type recorder struct {
	name string
	seen []string
}

func (obj *recorder) effect(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
	obj.seen = append(obj.seen, values[interfaces.VarName(obj.name)].String())
	return nil
}

// chain builds S0 (the root, with x) <- S1 <- S2, where each scope also owns
// the next one.
func chain(t *testing.T, g *Graph) (ScopeIndex, ScopeIndex) {
	s1, err := g.AddScope("s1", g.Root(), g.Root(), nil)
	if err != nil {
		t.Fatalf("add failed: %+v", err)
	}
	s2, err := g.AddScope("s2", s1, s1, nil)
	if err != nil {
		t.Fatalf("add failed: %+v", err)
	}
	return s1, s2
}

func TestResolveChain(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	s1, s2 := chain(t, g)

	v, exists := g.Resolve(s2, "x")
	if !exists || v.String() != "1" {
		t.Errorf("resolve gave: %s, %t", v, exists)
	}
	if _, exists := g.Resolve(s2, "y"); exists {
		t.Errorf("y should not resolve")
	}
	if s, _ := g.FindScopeWithVariable(s2, "x"); s != g.Root() {
		t.Errorf("x should be found in the root, not: %s", s)
	}
	found, ok := g.FindAncestorOrSelf(s2, func(scope *Scope) bool { return scope.Name == "s1" })
	if !ok || found != s1 {
		t.Errorf("unexpected ancestor: %s", found)
	}
	if found, _ := g.FindAncestorOrSelf(s2, func(*Scope) bool { return true }); found != s2 {
		t.Errorf("the scope itself should match first, got: %s", found)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestUpdateThroughChain(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	_, s2 := chain(t, g)

	r := &recorder{name: "x"}
	if _, err := g.RegisterListener(s2, []interfaces.VarName{"x"}, r.effect); err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}
	if diff := pretty.Compare(r.seen, []string{"1"}); diff != "" {
		t.Errorf("the listener should run once on registration: %s", diff)
	}

	if err := g.UpdateValue(g.Root(), "x", dynval.New("2")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if diff := pretty.Compare(r.seen, []string{"1", "2"}); diff != "" {
		t.Errorf("the listener should run exactly once more: %s", diff)
	}

	// updating from below changes the defining scope
	if err := g.UpdateValue(s2, "x", dynval.New("3")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	data, _ := g.ScopeData(s2)
	if _, exists := data["x"]; exists {
		t.Errorf("s2 should not get its own copy of x")
	}
	if v, _ := g.Resolve(g.Root(), "x"); v.String() != "3" {
		t.Errorf("root x should be 3, got: %s", v)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestDuplicateParent(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	s1, s2 := chain(t, g)
	other, err := g.AddScope("other", NoScope, g.Root(), nil)
	if err != nil {
		t.Errorf("add failed: %+v", err)
		return
	}

	before := g.Visualize()
	err = g.SetAncestor(s2, other)
	if !errors.Is(err, ErrDuplicateParent) {
		t.Errorf("expected ErrDuplicateParent, got: %+v", err)
	}
	if after := g.Visualize(); after != before {
		t.Errorf("graph changed:\n%s\n%s", before, after)
	}
	if p, _ := g.Superscope(s2); p != s1 {
		t.Errorf("superscope changed to: %s", p)
	}

	// a loop is also refused
	if err := g.SetAncestor(g.Root(), s2); !errors.Is(err, ErrInheritanceLoop) {
		t.Errorf("expected ErrInheritanceLoop, got: %+v", err)
	}
	if err := g.SetAncestor(other, s2); err != nil {
		t.Errorf("set ancestor failed: %+v", err)
	}
	if v, _ := g.Resolve(other, "x"); v.String() != "1" {
		t.Errorf("other should now see x")
	}
	if err := g.SetAncestor(s2, 999); !errors.Is(err, ErrScopeNotFound) {
		t.Errorf("expected ErrScopeNotFound, got: %+v", err)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestRemoveRecursively(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	s1, s2 := chain(t, g)

	r := &recorder{name: "x"}
	if _, err := g.RegisterListener(s2, []interfaces.VarName{"x"}, r.effect); err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}

	order, err := g.RemoveScope(s1)
	if err != nil {
		t.Errorf("remove failed: %+v", err)
		return
	}
	if diff := pretty.Compare(order, []ScopeIndex{s2, s1}); diff != "" {
		t.Errorf("unexpected removal order: %s", diff)
	}
	if g.ScopeCount() != 1 || g.ListenerCount() != 0 {
		t.Errorf("unexpected leftovers: %d scopes, %d listeners", g.ScopeCount(), g.ListenerCount())
	}

	if err := g.UpdateGlobal("x", dynval.New("2")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if diff := pretty.Compare(r.seen, []string{"1"}); diff != "" {
		t.Errorf("a removed listener ran: %s", diff)
	}

	// stale indexes are reported, and never reused
	if err := g.UpdateValue(s2, "x", dynval.New("3")); !errors.Is(err, ErrScopeNotFound) {
		t.Errorf("expected ErrScopeNotFound, got: %+v", err)
	}
	if _, err := g.RemoveScope(s1); !errors.Is(err, ErrScopeNotFound) {
		t.Errorf("expected ErrScopeNotFound, got: %+v", err)
	}
	s3, _ := g.AddScope("s3", g.Root(), g.Root(), nil)
	if s3 == s1 || s3 == s2 {
		t.Errorf("index %s was reused", s3)
	}
	if _, err := g.RemoveScope(g.Root()); err == nil {
		t.Errorf("removing the root should fail")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestRemoveDetachesSubscopes(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	owner, err := g.AddScope("owner", g.Root(), g.Root(), vars{"y": dynval.New("a")})
	if err != nil {
		t.Errorf("add failed: %+v", err)
		return
	}
	// inherits from owner, but is owned by the root
	sub, err := g.AddScope("sub", owner, g.Root(), nil)
	if err != nil {
		t.Errorf("add failed: %+v", err)
		return
	}
	if _, err := g.RemoveScope(owner); err != nil {
		t.Errorf("remove failed: %+v", err)
	}
	if !g.Exists(sub) {
		t.Errorf("sub is not owned by the removed scope and should stay")
	}
	if _, exists := g.Superscope(sub); exists {
		t.Errorf("sub should be detached")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestCounterEndToEnd(t *testing.T) {
	g := newTestGraph(t, map[string]string{"counter": "0"})
	widget, err := g.AddScope("label", g.Root(), g.Root(), nil)
	if err != nil {
		t.Errorf("add failed: %+v", err)
		return
	}

	expr := mustParse(t, "counter + 1")
	shown := []string{}
	effect := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		v, err := eval.Eval(expr, values)
		if err != nil {
			return err
		}
		shown = append(shown, v.String())
		return nil
	}
	if _, err := g.RegisterListener(widget, ast.VarRefs(expr), effect); err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}
	if err := g.UpdateGlobal("counter", dynval.New("5")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if diff := pretty.Compare(shown, []string{"1", "6"}); diff != "" {
		t.Errorf("unexpected values: %s", diff)
	}
}

func TestRegisterUnknownVariable(t *testing.T) {
	g := newTestGraph(t, map[string]string{"counter": "0"})
	widget, _ := g.AddScope("label", g.Root(), g.Root(), nil)

	ran := false
	effect := func(*Handle, map[interfaces.VarName]dynval.DynVal) error {
		ran = true
		return nil
	}
	_, err := g.RegisterListener(widget, []interfaces.VarName{"counter", "countr"}, effect)
	if !errors.Is(err, ErrMissingAncestorForVariable) {
		t.Errorf("expected ErrMissingAncestorForVariable, got: %+v", err)
	}
	if !errors.Is(err, eval.ErrUnknownVariable) {
		t.Errorf("expected ErrUnknownVariable, got: %+v", err)
	}
	var e *GraphErr
	if errors.As(err, &e) {
		if diff := pretty.Compare(e.Similar, []string{"counter"}); diff != "" {
			t.Errorf("unexpected suggestions: %s", diff)
		}
	}
	if ran || g.ListenerCount() != 0 {
		t.Errorf("a failed registration left something behind")
	}
	if used := g.UsedGlobals(); len(used) != 0 {
		t.Errorf("nothing should be used, got: %v", used)
	}
}

func TestListenerErrorIsolated(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	failures := 0
	broken := func(*Handle, map[interfaces.VarName]dynval.DynVal) error {
		failures++
		return fmt.Errorf("broken")
	}
	r := &recorder{name: "x"}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, broken); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, r.effect); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if err := g.UpdateGlobal("x", dynval.New("2")); err != nil {
		t.Errorf("a failing listener should not fail the update: %+v", err)
	}
	if failures != 2 {
		t.Errorf("expected 2 failures, got: %d", failures)
	}
	if diff := pretty.Compare(r.seen, []string{"1", "2"}); diff != "" {
		t.Errorf("the second listener should still run: %s", diff)
	}
	if v, _ := g.Resolve(g.Root(), "x"); v.String() != "2" {
		t.Errorf("the update should have been applied")
	}
}

func TestProvidedAttributes(t *testing.T) {
	g := newTestGraph(t, map[string]string{"counter": "2", "title": "hi"})
	attrs := map[interfaces.AttrName]ast.Expr{
		"double": mustParse(t, "counter * 2"),
		"label":  mustParse(t, "'fixed'"),
	}
	scope, err := g.RegisterNewScope("custom", g.Root(), g.Root(), attrs)
	if err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}
	data, _ := g.ScopeData(scope)
	if data["double"].String() != "4" || data["label"].String() != "fixed" {
		t.Errorf("unexpected data: %s", spew.Sdump(data))
	}

	r := &recorder{name: "double"}
	if _, err := g.RegisterListener(scope, []interfaces.VarName{"double"}, r.effect); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if err := g.UpdateGlobal("counter", dynval.New("5")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if diff := pretty.Compare(r.seen, []string{"4", "10"}); diff != "" {
		t.Errorf("unexpected values: %s", diff)
	}
	if diff := pretty.Compare(g.UsedGlobals(), []interfaces.VarName{"counter"}); diff != "" {
		t.Errorf("unexpected used globals: %s", diff)
	}
	if diff := pretty.Compare(g.UnusedGlobals(), []interfaces.VarName{"title"}); diff != "" {
		t.Errorf("unexpected unused globals: %s", diff)
	}

	// once the scope is gone nothing is queued for it anymore
	if _, err := g.RemoveScope(scope); err != nil {
		t.Errorf("remove failed: %+v", err)
	}
	if err := g.UpdateGlobal("counter", dynval.New("6")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if len(g.UsedGlobals()) != 0 {
		t.Errorf("no globals should be used anymore")
	}

	// a failing attribute creates nothing
	count := g.ScopeCount()
	bad := map[interfaces.AttrName]ast.Expr{"oops": mustParse(t, "nope + 1")}
	if _, err := g.RegisterNewScope("bad", g.Root(), g.Root(), bad); !errors.Is(err, eval.ErrUnknownVariable) {
		t.Errorf("expected ErrUnknownVariable, got: %+v", err)
	}
	if g.ScopeCount() != count {
		t.Errorf("a failed scope was left behind")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

func TestQueuedCommands(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1", "y": "0"})
	child, _ := g.AddScope("child", g.Root(), g.Root(), nil)

	order := []string{}
	// copies x into y, but only once the dispatch of x is done
	copier := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		order = append(order, "copier")
		h.UpdateValue(g.Root(), "y", values["x"])
		return nil
	}
	watcher := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		order = append(order, "watcher:"+values["y"].String())
		return nil
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, copier); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"y"}, watcher); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	order = nil

	if err := g.UpdateGlobal("x", dynval.New("7")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if diff := pretty.Compare(order, []string{"copier", "watcher:7"}); diff != "" {
		t.Errorf("unexpected order: %s", diff)
	}

	// queued commands for a scope that's gone are dropped quietly
	remover := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		h.RemoveScope(child)
		h.UpdateValue(child, "x", dynval.New("9"))
		return nil
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, remover); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if g.Exists(child) {
		t.Errorf("child should have been removed")
	}
	if v, _ := g.Resolve(g.Root(), "x"); v.String() != "7" {
		t.Errorf("the stale update leaked into x: %s", v)
	}
}

func TestReentrantMutation(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	var inner error
	effect := func(*Handle, map[interfaces.VarName]dynval.DynVal) error {
		inner = g.UpdateGlobal("x", dynval.New("2"))
		return nil
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, effect); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if !errors.Is(inner, ErrReentrantMutation) {
		t.Errorf("expected ErrReentrantMutation, got: %+v", inner)
	}
	if err := g.UpdateGlobal("x", dynval.New("3")); err != nil {
		t.Errorf("the graph should still work afterwards: %+v", err)
	}
}

func TestRunawayListeners(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "0"})
	runs := 0
	effect := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		runs++
		h.UpdateValue(g.Root(), "x", dynval.FromInt(int64(runs)))
		return nil
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x"}, effect); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	if runs != MaxQueuedOps+1 {
		t.Errorf("expected the loop to be cut off, ran: %d", runs)
	}
}

func TestUnregisterListener(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1"})
	r := &recorder{name: "x"}
	id, err := g.RegisterListener(g.Root(), []interfaces.VarName{"x", "x"}, r.effect)
	if err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}
	if err := g.UnregisterListener(id); err != nil {
		t.Errorf("unregister failed: %+v", err)
	}
	if err := g.UnregisterListener(id); err == nil {
		t.Errorf("second unregister should fail")
	}
	_ = g.UpdateGlobal("x", dynval.New("2"))
	if len(r.seen) != 1 {
		t.Errorf("listener ran after unregister: %v", r.seen)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}

type countingObserver struct {
	dispatched int
	failed     int
	scopes     int
}

func (obj *countingObserver) Dispatched(name interfaces.VarName, listeners int) {
	obj.dispatched += listeners
}
func (obj *countingObserver) ListenerFailed(name interfaces.VarName) { obj.failed++ }
func (obj *countingObserver) Scopes(count int)                       { obj.scopes = count }

func TestObserverAndVisualize(t *testing.T) {
	o := &countingObserver{}
	g := &Graph{Observer: o}
	if err := g.Init(vars{"x": dynval.New("1")}); err != nil {
		t.Errorf("init failed: %+v", err)
		return
	}
	_, s2 := chain(t, g)
	if o.scopes != 3 {
		t.Errorf("expected 3 scopes, got: %d", o.scopes)
	}
	r := &recorder{name: "x"}
	if _, err := g.RegisterListener(s2, []interfaces.VarName{"x"}, r.effect); err != nil {
		t.Errorf("register failed: %+v", err)
	}
	_ = g.UpdateGlobal("x", dynval.New("2"))
	if o.dispatched != 1 || o.failed != 0 {
		t.Errorf("unexpected counts: %+v", o)
	}

	out := g.Visualize()
	for _, s := range []string{`"global #1"`, `"s1 #2" -> "global #1" [label="inherits(x)"]`, `"s2 #3" -> "s1 #2"`, "owns"} {
		if !strings.Contains(out, s) {
			t.Errorf("missing %s in:\n%s", s, out)
		}
	}
}

func TestDeferredCall(t *testing.T) {
	g := newTestGraph(t, map[string]string{"n": "0"})

	created := []ScopeIndex{}
	effect := func(h *Handle, values map[interfaces.VarName]dynval.DynVal) error {
		n := values["n"].String()
		h.Defer(func() error {
			// the graph can be changed directly from a deferred call
			index, err := g.AddScope("made-"+n, g.Root(), g.Root(), nil)
			if err != nil {
				return err
			}
			created = append(created, index)
			return nil
		})
		return nil
	}
	if _, err := g.RegisterListener(g.Root(), []interfaces.VarName{"n"}, effect); err != nil {
		t.Errorf("register failed: %+v", err)
		return
	}
	if len(created) != 1 {
		t.Errorf("the initial run should have made one scope, got %d", len(created))
	}
	if err := g.UpdateGlobal("n", dynval.New("1")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if len(created) != 2 {
		t.Errorf("expected two scopes, got %d", len(created))
		return
	}
	if name, _ := g.ScopeName(created[1]); name != "made-1" {
		t.Errorf("wrong scope name: %s", name)
	}
}

func TestInheritsReferences(t *testing.T) {
	g := newTestGraph(t, map[string]string{"x": "1", "y": "2"})
	s1, s2 := chain(t, g)

	refs := func(s ScopeIndex) map[interfaces.VarName]int {
		edge, exists := g.inheritance.Edge(s)
		if !exists {
			t.Fatalf("no inheritance edge from %s", s)
		}
		result := make(map[interfaces.VarName]int)
		for k, v := range edge.References {
			result[k] = v
		}
		return result
	}
	register := func(through ScopeIndex, names ...interfaces.VarName) ListenerID {
		id, err := g.RegisterListener(through, names, (&recorder{name: "x"}).effect)
		if err != nil {
			t.Fatalf("register failed: %+v", err)
		}
		return id
	}

	a := register(s2, "x")
	b := register(s2, "x", "y")
	c := register(s1, "x")
	if diff := pretty.Compare(map[interfaces.VarName]int{"x": 2, "y": 1}, refs(s2)); diff != "" {
		t.Errorf("s2 references differ: (-want +got)\n%s", diff)
	}
	if diff := pretty.Compare(map[interfaces.VarName]int{"x": 3, "y": 1}, refs(s1)); diff != "" {
		t.Errorf("s1 references differ: (-want +got)\n%s", diff)
	}

	if err := g.UnregisterListener(a); err != nil {
		t.Errorf("unregister failed: %+v", err)
	}
	if err := g.UnregisterListener(b); err != nil {
		t.Errorf("unregister failed: %+v", err)
	}
	if diff := pretty.Compare(map[interfaces.VarName]int{}, refs(s2)); diff != "" {
		t.Errorf("s2 should reference nothing: (-want +got)\n%s", diff)
	}
	if diff := pretty.Compare(map[interfaces.VarName]int{"x": 1}, refs(s1)); diff != "" {
		t.Errorf("s1 references differ: (-want +got)\n%s", diff)
	}
	if s := g.Visualize(); !strings.Contains(s, "inherits(x)") || strings.Contains(s, "inherits(x y)") {
		t.Errorf("unexpected graph:\n%s", s)
	}

	if err := g.UnregisterListener(c); err != nil {
		t.Errorf("unregister failed: %+v", err)
	}
	if diff := pretty.Compare(map[interfaces.VarName]int{}, refs(s1)); diff != "" {
		t.Errorf("s1 should reference nothing: (-want +got)\n%s", diff)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("validate failed: %+v", err)
	}
}
