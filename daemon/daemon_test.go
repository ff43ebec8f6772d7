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
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/widgets"
)

const testConfig = `
variables:
  - {name: counter, initial: "1"}
  - {name: unused, initial: "x"}
  - {name: enabled, initial: "false"}
script-vars:
  - name: greeting
    poll:
      command: echo hello
      interval: 1h
      initial: "..."
  - name: sleepy
    poll:
      command: echo zzz
      interval: 1h
      run-while: "{enabled}"
windows:
  - name: main
    widget:
      type: box
      children:
        - type: label
          attrs: {text: "{counter + 5}"}
        - type: label
          attrs: {text: "${greeting} ${sleepy}"}
  - name: plain
    args: [?title]
    widget:
      type: label
      attrs: {text: "${title}"}
`

// countingRenderer counts the nodes that are alive.
type countingRenderer struct {
	mutex     sync.Mutex
	created   int
	destroyed int
}

func (obj *countingRenderer) Create(node *widgets.Node) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.created++
}

func (obj *countingRenderer) Update(node *widgets.Node, changed []interfaces.AttrName) {}

func (obj *countingRenderer) Destroy(node *widgets.Node) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.destroyed++
}

func parseConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Parse([]byte(yaml)); err != nil {
		t.Fatalf("parse failed: %+v", err)
	}
	return cfg
}

// startApp runs an app in the background. The returned func stops it and waits
// for it to return.
func startApp(t *testing.T, yaml string) (*App, *countingRenderer, func()) {
	t.Helper()
	r := &countingRenderer{}
	app := &App{
		Config:   parseConfig(t, yaml),
		Renderer: r,
		Debug:    testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("daemon: "+format, v...)
		},
	}
	if err := app.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := app.Run(ctx); err != nil {
			t.Errorf("run failed: %+v", err)
		}
	}()
	return app, r, func() {
		cancel()
		<-done
	}
}

// send sends cmd and waits for the answer.
func send(app *App, cmd event.Command) error {
	app.Events <- cmd
	switch c := cmd.(type) {
	case *event.UpdateVars:
		return c.Resp.Wait()
	case *event.UpdateValue:
		return c.Resp.Wait()
	case *event.RemoveScope:
		return c.Resp.Wait()
	case *event.OpenWindow:
		return c.Resp.Wait()
	case *event.CloseWindow:
		return c.Resp.Wait()
	case *event.CloseAll:
		return c.Resp.Wait()
	case *event.ReloadConfig:
		return c.Resp.Wait()
	case *event.Stop:
		return c.Resp.Wait()
	}
	return fmt.Errorf("can't wait for %s", cmd.Kind())
}

func base() event.Base {
	return event.Base{Resp: event.NewResp()}
}

// dumpState asks the loop for its state.
func dumpState(app *App, all bool) string {
	out := make(chan string, 1)
	app.Events <- &event.PrintState{All: all, Out: out}
	return <-out
}

// labels returns the text of every label in a window, in order. It must only
// be called after an answer from the loop.
func labels(t *testing.T, app *App, id string) []string {
	t.Helper()
	w, exists := app.Window(id)
	if !exists {
		t.Fatalf("window %s is not open", id)
	}
	texts := []string{}
	w.Root.Walk(func(node *widgets.Node) {
		if node.Type != "label" {
			return
		}
		v, _ := node.Attr("text")
		texts = append(texts, v.String())
	})
	return texts
}

func TestCounter(t *testing.T) {
	app, _, stop := startApp(t, testConfig)
	defer stop()

	if err := send(app, &event.OpenWindow{Base: base(), Name: "main", ID: "main"}); err != nil {
		t.Errorf("open failed: %+v", err)
		return
	}
	if texts := labels(t, app, "main"); texts[0] != "6" {
		t.Errorf("expected 6, got: %s", texts[0])
	}

	vars := map[interfaces.VarName]dynval.DynVal{"counter": dynval.FromInt(41)}
	if err := send(app, &event.UpdateVars{Base: base(), Vars: vars}); err != nil {
		t.Errorf("update failed: %+v", err)
		return
	}
	if texts := labels(t, app, "main"); texts[0] != "46" {
		t.Errorf("expected 46, got: %s", texts[0])
	}

	vars = map[interfaces.VarName]dynval.DynVal{"nope": dynval.New("1")}
	if err := send(app, &event.UpdateVars{Base: base(), Vars: vars}); err == nil {
		t.Errorf("expected an error for an unknown global")
	}
}

func TestPollScript(t *testing.T) {
	app, _, stop := startApp(t, testConfig)
	defer stop()

	if s := dumpState(app, false); s != "" {
		t.Errorf("expected nothing in use, got: %s", s)
	}
	if err := send(app, &event.OpenWindow{Base: base(), Name: "main", ID: "main"}); err != nil {
		t.Errorf("open failed: %+v", err)
		return
	}

	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(dumpState(app, false), "greeting: hello") {
		if time.Now().After(deadline) {
			t.Errorf("poll never updated the variable: %s", dumpState(app, false))
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if app.scripts.IsRunning("sleepy") {
		t.Errorf("sleepy should wait for its run-while")
	}

	vars := map[interfaces.VarName]dynval.DynVal{"enabled": dynval.FromBool(true)}
	if err := send(app, &event.UpdateVars{Base: base(), Vars: vars}); err != nil {
		t.Errorf("update failed: %+v", err)
		return
	}
	if !app.scripts.IsRunning("sleepy") {
		t.Errorf("sleepy should run now")
	}

	if err := send(app, &event.CloseAll{Base: base()}); err != nil {
		t.Errorf("close failed: %+v", err)
		return
	}
	if running := app.scripts.Running(); len(running) != 0 {
		t.Errorf("nothing should be running, got: %v", running)
	}
}

func TestWindows(t *testing.T) {
	app, r, stop := startApp(t, testConfig)

	toggle := &event.OpenWindow{Base: base(), Name: "plain", Toggle: true}
	if err := send(app, toggle); err != nil {
		t.Errorf("toggle failed: %+v", err)
	}
	if ids := app.Windows(); len(ids) != 1 {
		t.Errorf("expected one window, got: %v", ids)
	}
	toggle = &event.OpenWindow{Base: base(), Name: "plain", Toggle: true}
	if err := send(app, toggle); err != nil {
		t.Errorf("toggle failed: %+v", err)
	}
	if ids := app.Windows(); len(ids) != 0 {
		t.Errorf("expected no windows, got: %v", ids)
	}

	open := &event.OpenWindow{Base: base(), Name: "plain", ID: "a", Args: map[string]string{"title": "A"}}
	if err := send(app, open); err != nil {
		t.Errorf("open failed: %+v", err)
	}
	if texts := labels(t, app, "a"); texts[0] != "A" {
		t.Errorf("expected A, got: %v", texts)
	}
	open = &event.OpenWindow{Base: base(), Name: "plain", ID: "b"}
	if err := send(app, open); err != nil {
		t.Errorf("open failed: %+v", err)
	}

	err := send(app, &event.OpenWindow{Base: base(), Name: "mian"})
	if !errors.Is(err, config.ErrUnknownWindow) {
		t.Errorf("expected an unknown window error, got: %+v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "main") {
		t.Errorf("expected a suggestion, got: %+v", err)
	}
	err = send(app, &event.OpenWindow{Base: base(), Name: "plain", ID: "c", Args: map[string]string{"nope": "1"}})
	if !errors.Is(err, config.ErrUnexpectedWindowArgs) {
		t.Errorf("expected an unexpected args error, got: %+v", err)
	}
	err = send(app, &event.CloseWindow{Base: base(), ID: "c"})
	if !errors.Is(err, ErrWindowNotOpen) {
		t.Errorf("expected a not open error, got: %+v", err)
	}
	if err := send(app, &event.CloseWindow{Base: base(), ID: "a"}); err != nil {
		t.Errorf("close failed: %+v", err)
	}
	if ids := app.Windows(); len(ids) != 1 || ids[0] != "b" {
		t.Errorf("expected only b, got: %v", ids)
	}

	if err := send(app, &event.Stop{Base: base()}); err != nil {
		t.Errorf("stop failed: %+v", err)
	}
	stop()
	if r.created != r.destroyed {
		t.Errorf("created %d nodes but destroyed %d", r.created, r.destroyed)
	}
	if n := app.Graph().ScopeCount(); n != 1 {
		t.Errorf("expected only the root scope, got %d", n)
	}
}

func TestStaleScopes(t *testing.T) {
	app, _, stop := startApp(t, testConfig)
	defer stop()

	update := &event.UpdateValue{Base: base(), Scope: 9999, Name: "x", Value: dynval.New("1")}
	if err := send(app, update); err != nil {
		t.Errorf("a stale update should be dropped: %+v", err)
	}
	if err := send(app, &event.RemoveScope{Base: base(), Scope: 9999}); err != nil {
		t.Errorf("a stale removal should be dropped: %+v", err)
	}
}

func TestReload(t *testing.T) {
	app, _, stop := startApp(t, testConfig)
	defer stop()

	open := &event.OpenWindow{Base: base(), Name: "plain", ID: "a", Args: map[string]string{"title": "A"}}
	if err := send(app, open); err != nil {
		t.Errorf("open failed: %+v", err)
	}

	err := send(app, &event.ReloadConfig{Base: base()})
	if !errors.Is(err, ErrNoLoader) {
		t.Errorf("expected a no loader error, got: %+v", err)
	}

	broken := parseConfig(t, "windows: [{name: plain, widget: {type: label, attrs: {text: \"{missing}\"}}}]")
	if err := send(app, &event.ReloadConfig{Base: base(), Config: broken}); err == nil {
		t.Errorf("expected an invalid config error")
	}
	if texts := labels(t, app, "a"); texts[0] != "A" {
		t.Errorf("the old config should stay, got: %v", texts)
	}

	changed := parseConfig(t, `
windows:
  - name: plain
    args: [title]
    widget:
      type: label
      attrs: {text: "new ${title}"}
`)
	if err := send(app, &event.ReloadConfig{Base: base(), Config: changed}); err != nil {
		t.Errorf("reload failed: %+v", err)
	}
	if texts := labels(t, app, "a"); texts[0] != "new A" {
		t.Errorf("expected the window to be reopened, got: %v", texts)
	}
}

func TestPrintState(t *testing.T) {
	app, _, stop := startApp(t, testConfig)
	defer stop()

	open := &event.OpenWindow{Base: base(), Name: "plain", ID: "a", Args: map[string]string{"title": "A"}}
	if err := send(app, open); err != nil {
		t.Errorf("open failed: %+v", err)
	}
	all := dumpState(app, true)
	for _, s := range []string{"counter: 1", "unused: x", "SYS_RAM: ", `"window a"`} {
		if !strings.Contains(all, s) {
			t.Errorf("expected %q in the state:\n%s", s, all)
		}
	}

	out := make(chan string, 1)
	app.Events <- &event.PrintGraph{Out: out}
	if g := <-out; !strings.Contains(g, "digraph") {
		t.Errorf("expected graphviz output, got:\n%s", g)
	}
}
