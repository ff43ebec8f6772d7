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

// Package daemon runs the event loop that owns the scope graph. Every change to
// the graph, the open windows and the configuration goes through one channel
// of commands, and is handled by one goroutine.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/prometheus"
	"github.com/purpleidea/barstate/scriptvar"
	"github.com/purpleidea/barstate/state"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
	"github.com/purpleidea/barstate/widgets"
)

const (
	// EventsBuffer is the size of the command channel that Init makes.
	EventsBuffer = 64

	// ErrNoLoader means a reload was asked for, but there's nowhere to load
	// the configuration from.
	ErrNoLoader = util.Error("no config loader")

	// ErrWindowNotOpen means there's no open window with that id.
	ErrWindowNotOpen = util.Error("window not open")
)

// App is the owner of the scope graph. Fill in the public fields, run Init and
// then Run. Everything else talks to it by sending on Events.
type App struct {
	// Config is the starting configuration. If it's nil, Loader is used.
	Config *config.Config

	// Loader reads the configuration again. It's used by ReloadConfig
	// commands that don't carry a configuration.
	Loader func() (*config.Config, error)

	// Renderer is told about every widget node. It defaults to logging.
	Renderer widgets.Renderer

	// Events is the command channel. Init makes one if it's nil.
	Events chan event.Command

	// Shell runs the script vars. The default is used if empty.
	Shell string

	// Metrics is optional.
	Metrics *prometheus.Prometheus

	Debug bool
	Logf  func(format string, v ...interface{})

	config  *config.Config
	graph   *state.Graph
	builder *widgets.Builder
	scripts *scriptvar.Handler

	// system holds the builtin variables that the config doesn't define.
	system map[interfaces.VarName]struct{}

	windows map[string]*instance
}

// instance is an open window and the arguments that it was opened with, so
// that it can be opened again after a reload.
type instance struct {
	window *widgets.Window
	raw    map[string]string
}

func (obj *App) logf(format string, v ...interface{}) {
	if obj.Logf != nil {
		obj.Logf(format, v...)
	}
}

// prefixed returns a logger that adds a prefix.
func (obj *App) prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		obj.logf(prefix+format, v...)
	}
}

// Init loads and validates the configuration and builds the graph.
func (obj *App) Init() error {
	if obj.Config == nil {
		if obj.Loader == nil {
			return ErrNoLoader
		}
		cfg, err := obj.Loader()
		if err != nil {
			return errwrap.Wrapf(err, "can't load config")
		}
		obj.Config = cfg
	}
	if err := obj.Config.ValidateWith(scriptvar.SystemVarNames()); err != nil {
		return errwrap.Wrapf(err, "invalid config")
	}
	if obj.Events == nil {
		obj.Events = make(chan event.Command, EventsBuffer)
	}
	if obj.Renderer == nil {
		obj.Renderer = &widgets.LogRenderer{Logf: obj.prefixed("render: ")}
	}

	obj.graph = &state.Graph{
		Debug: obj.Debug,
		Logf:  obj.prefixed("graph: "),
	}
	obj.builder = &widgets.Builder{
		Graph:    obj.graph,
		Renderer: obj.Renderer,
		Debug:    obj.Debug,
		Logf:     obj.prefixed("widgets: "),
	}
	obj.scripts = &scriptvar.Handler{
		Events: obj.Events,
		Shell:  obj.Shell,
		Debug:  obj.Debug,
		Logf:   obj.prefixed("scripts: "),
	}
	if obj.Metrics != nil { // don't store a typed nil in the interfaces
		obj.graph.Observer = obj.Metrics
		obj.scripts.Observer = obj.Metrics
	}
	obj.windows = make(map[string]*instance)

	obj.use(obj.Config)
	return nil
}

// use swaps in a new configuration and resets the graph to its globals. It
// must not be called while windows are open.
func (obj *App) use(cfg *config.Config) {
	obj.config = cfg
	obj.builder.Config = cfg

	globals := cfg.Globals()
	obj.system = make(map[interfaces.VarName]struct{})
	for _, name := range scriptvar.SystemVarNames() {
		if _, exists := globals[name]; exists {
			continue // the config overrides it
		}
		obj.system[name] = struct{}{}
		globals[name] = dynval.New("")
	}
	obj.graph.Init(globals) // can't fail
}

// Run handles commands until a Stop command arrives or the context closes. It
// closes every window and stops every script var before it returns.
func (obj *App) Run(ctx context.Context) error {
	defer obj.shutdown()
	obj.syncScripts()
	for {
		select {
		case cmd, ok := <-obj.Events:
			if !ok {
				return nil
			}
			if stop := obj.handle(cmd); stop {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (obj *App) shutdown() {
	if err := obj.closeAll(); err != nil {
		obj.logf("shutdown: %+v", err)
	}
	obj.scripts.StopAll()
}

// handle runs one command, brings the script vars in line with the globals
// that are now used, and answers it. It returns true if the loop should end.
func (obj *App) handle(cmd event.Command) bool {
	kind := cmd.Kind()
	if obj.Debug {
		obj.logf("command: %s", kind)
	}
	if obj.Metrics != nil {
		obj.Metrics.Command(kind.String())
	}
	err := obj.dispatch(cmd)
	if err != nil {
		obj.logf("command %s failed: %+v", kind, err)
	}
	obj.syncScripts() // any command can change which globals are used
	cmd.ACKNACK(err)
	return kind == event.KindStop
}

func (obj *App) dispatch(cmd event.Command) error {
	switch c := cmd.(type) {
	case *event.UpdateVars:
		var reterr error
		for _, name := range util.SortedKeys(c.Vars) {
			err := obj.graph.UpdateGlobal(name, c.Vars[name])
			reterr = errwrap.Append(reterr, err)
		}
		return reterr

	case *event.UpdateValue:
		err := obj.graph.UpdateValue(c.Scope, c.Name, c.Value)
		if errors.Is(err, state.ErrScopeNotFound) {
			if obj.Debug {
				obj.logf("dropped update of `%s` for %s", c.Name, c.Scope)
			}
			return nil
		}
		return err

	case *event.RemoveScope:
		_, err := obj.graph.RemoveScope(c.Scope)
		if errors.Is(err, state.ErrScopeNotFound) {
			if obj.Debug {
				obj.logf("dropped removal of %s", c.Scope)
			}
			return nil
		}
		return err

	case *event.OpenWindow:
		return obj.openWindow(c.Name, c.ID, c.Args, c.Toggle)

	case *event.CloseWindow:
		return obj.closeWindow(c.ID)

	case *event.CloseAll:
		return obj.closeAll()

	case *event.ReloadConfig:
		return obj.reload(c.Config)

	case *event.PrintState:
		obj.output(c.Out, obj.State(c.All))
		return nil

	case *event.PrintGraph:
		obj.output(c.Out, obj.graph.Visualize())
		return nil

	case *event.Stop:
		return nil
	}
	return fmt.Errorf("unknown command: %s", cmd.Kind())
}

// output sends s on out, or logs it if out is nil. Out must be read from.
func (obj *App) output(out chan<- string, s string) {
	if out == nil {
		obj.logf("%s", s)
		return
	}
	out <- s
}

// Windows returns the ids of the open windows, sorted.
func (obj *App) Windows() []string {
	ids := []string{}
	for id := range obj.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Window returns an open window by id.
func (obj *App) Window(id string) (*widgets.Window, bool) {
	inst, exists := obj.windows[id]
	if !exists {
		return nil, false
	}
	return inst.window, true
}

// Graph returns the scope graph. It must only be used from the goroutine that
// runs the loop, or when the loop is not running.
func (obj *App) Graph() *state.Graph {
	return obj.graph
}

func (obj *App) observeWindows() {
	if obj.Metrics != nil {
		obj.Metrics.Windows(len(obj.windows))
	}
}
