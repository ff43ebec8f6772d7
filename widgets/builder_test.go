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
	"errors"
	"testing"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/state"

	"github.com/kylelemons/godebug/pretty"
)

const testConfig = `
variables:
  - {name: title, initial: hello}
  - {name: items, initial: "{[1, 2]}"}
  - {name: pick, initial: "0"}
widgets:
  - name: labeled
    args: [text, ?suffix]
    widget:
      type: box
      children:
        - "${text}${suffix}"
        - type: children
  - name: chooser
    args: [which]
    widget:
      type: box
      children:
        - type: children
          nth: "{which}"
windows:
  - name: main
    args: [id, greeting]
    widget:
      type: box
      attrs: {class: "{greeting}"}
      children:
        - type: labeled
          attrs: {text: "{title}"}
          children:
            - "${greeting}!"
        - for: x
          in: "{items}"
          body: "item ${x}"
        - type: chooser
          attrs: {which: "{pick}"}
          children:
            - zero
            - one
`

// countingRenderer counts the calls it gets.
type countingRenderer struct {
	created   int
	updated   int
	destroyed int
}

func (obj *countingRenderer) Create(node *Node)                                 { obj.created++ }
func (obj *countingRenderer) Update(node *Node, changed []interfaces.AttrName) { obj.updated++ }
func (obj *countingRenderer) Destroy(node *Node)                                { obj.destroyed++ }

func newTestBuilder(t *testing.T, yaml string) (*Builder, *countingRenderer) {
	cfg := &config.Config{}
	if err := cfg.Parse([]byte(yaml)); err != nil {
		t.Fatalf("parse failed: %+v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate failed: %+v", err)
	}
	logf := func(format string, v ...interface{}) {
		t.Logf("widgets: "+format, v...)
	}
	g := &state.Graph{
		Debug: testing.Verbose(),
		Logf:  logf,
	}
	if err := g.Init(cfg.Globals()); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	r := &countingRenderer{}
	return &Builder{
		Graph:    g,
		Config:   cfg,
		Renderer: r,
		Debug:    testing.Verbose(),
		Logf:     logf,
	}, r
}

func openMain(t *testing.T, b *Builder) *Window {
	def, exists := b.Config.Window("main")
	if !exists {
		t.Fatalf("no main window")
	}
	w, err := b.OpenWindow(def, "main-1", map[string]string{"greeting": "hi"})
	if err != nil {
		t.Fatalf("open failed: %+v", err)
	}
	return w
}

func compareDump(t *testing.T, expected string, node *Node) {
	t.Helper()
	if diff := pretty.Compare(expected, node.Dump()); diff != "" {
		t.Errorf("tree differs: (-want +got)\n%s", diff)
	}
}

func TestBuild0(t *testing.T) {
	b, r := newTestBuilder(t, testConfig)
	w := openMain(t, b)

	compareDump(t, `box class="hi"
  box
    label text="hello"
    label text="hi!"
  for in="[\"1\",\"2\"]"
    label text="item 1"
    label text="item 2"
  box
    children nth="0"
      label text="zero"
`, w.Root)

	if err := b.Graph.Validate(); err != nil {
		t.Errorf("graph is not valid: %+v", err)
	}
	if r.created != 10 {
		t.Errorf("expected 10 created nodes, got %d", r.created)
	}

	// the window scope only has the arguments it declared
	data, err := b.Graph.ScopeData(w.Scope)
	if err != nil {
		t.Errorf("no window scope: %+v", err)
		return
	}
	if data["id"].String() != "main-1" || data["greeting"].String() != "hi" || len(data) != 2 {
		t.Errorf("unexpected window data: %v", data)
	}
}

func TestBuildUpdates(t *testing.T) {
	b, _ := newTestBuilder(t, testConfig)
	w := openMain(t, b)

	if err := b.Graph.UpdateGlobal("title", dynval.New("bye")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if err := b.Graph.UpdateGlobal("items", dynval.New(`["a"]`)); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if err := b.Graph.UpdateGlobal("pick", dynval.New("1")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	// out of range, logged and ignored
	if err := b.Graph.UpdateGlobal("pick", dynval.New("5")); err != nil {
		t.Errorf("update failed: %+v", err)
	}

	compareDump(t, `box class="hi"
  box
    label text="bye"
    label text="hi!"
  for in="[\"a\"]"
    label text="item a"
  box
    children nth="1"
      label text="one"
`, w.Root)

	if err := b.Graph.Validate(); err != nil {
		t.Errorf("graph is not valid: %+v", err)
	}
}

func TestCloseWindow(t *testing.T) {
	b, r := newTestBuilder(t, testConfig)
	w := openMain(t, b)
	if err := b.Graph.UpdateGlobal("items", dynval.New(`["a", "b", "c"]`)); err != nil {
		t.Errorf("update failed: %+v", err)
	}

	b.CloseWindow(w)
	if !w.Root.Destroyed() {
		t.Errorf("root should be destroyed")
	}
	if r.created != r.destroyed {
		t.Errorf("created %d nodes but destroyed %d", r.created, r.destroyed)
	}
	if n := b.Graph.ScopeCount(); n != 1 {
		t.Errorf("only the root scope should be left, got %d", n)
	}
	if n := b.Graph.ListenerCount(); n != 0 {
		t.Errorf("no listeners should be left, got %d", n)
	}
	if err := b.Graph.Validate(); err != nil {
		t.Errorf("graph is not valid: %+v", err)
	}

	// updates after the close reach nobody
	before := r.updated
	if err := b.Graph.UpdateGlobal("title", dynval.New("late")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if r.updated != before {
		t.Errorf("a closed window was updated")
	}
}

func TestUnchangedAttrs(t *testing.T) {
	b, r := newTestBuilder(t, testConfig)
	openMain(t, b)
	before := r.updated
	// same value, no renderer update
	if err := b.Graph.UpdateGlobal("title", dynval.New("hello")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	if r.updated != before {
		t.Errorf("expected no updates, got %d", r.updated-before)
	}
}

func TestOpenWindowErrors(t *testing.T) {
	b, _ := newTestBuilder(t, testConfig)
	def, _ := b.Config.Window("main")
	if _, err := b.OpenWindow(def, "x", map[string]string{}); !errors.Is(err, config.ErrMissingWindowArg) {
		t.Errorf("expected a missing argument error, got: %+v", err)
	}
	if n := b.Graph.ScopeCount(); n != 1 {
		t.Errorf("a failed open must not leave scopes, got %d", n)
	}
}

func TestNestedChildren(t *testing.T) {
	yaml := `
variables: [{name: v, initial: "1"}]
widgets:
  - name: outer
    widget:
      type: inner
      children:
        - type: children
  - name: inner
    widget:
      type: box
      children:
        - type: children
windows:
  - name: w
    widget:
      type: outer
      children:
        - "v=${v}"
`
	b, _ := newTestBuilder(t, yaml)
	def, _ := b.Config.Window("w")
	w, err := b.OpenWindow(def, "w", nil)
	if err != nil {
		t.Errorf("open failed: %+v", err)
		return
	}
	compareDump(t, `box
  label text="v=1"
`, w.Root)

	if err := b.Graph.UpdateGlobal("v", dynval.New("2")); err != nil {
		t.Errorf("update failed: %+v", err)
	}
	compareDump(t, `box
  label text="v=2"
`, w.Root)

	b.CloseWindow(w)
	if n := b.Graph.ScopeCount(); n != 1 {
		t.Errorf("only the root scope should be left, got %d", n)
	}
}
