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

// Package scriptvar runs the commands that feed the script variables, and
// sends each new value to the owner of the scope graph as an UpdateVars
// command.
package scriptvar

import (
	"bufio"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// PollFunc produces one value of a polled variable.
type PollFunc func(ctx context.Context) (dynval.DynVal, error)

// Observer is told about every run of a source. It's used for metrics.
type Observer interface {
	// ScriptRun is called after each poll or line, with the error if any.
	ScriptRun(name string, err error)
}

// Handler starts and stops the sources of the script variables. Each variable
// has at most one running source. It's safe for concurrent use.
type Handler struct {
	// Events is where the new values are sent.
	Events chan<- event.Command

	// Shell overrides the shell that commands are run with.
	Shell string

	// Observer, if set, is told about every run.
	Observer Observer

	Debug bool
	Logf  func(format string, v ...interface{})

	mutex   sync.Mutex
	running map[interfaces.VarName]*source
	wg      sync.WaitGroup
}

// source is one running goroutine.
type source struct {
	cancel context.CancelFunc
}

func (obj *Handler) logf(format string, v ...interface{}) {
	if obj.Logf != nil {
		obj.Logf(format, v...)
	}
}

func (obj *Handler) opts() *util.ShellCmdOpts {
	return &util.ShellCmdOpts{
		Debug: obj.Debug,
		Logf:  obj.Logf,
		Shell: obj.Shell,
	}
}

// start registers a source and runs fn in a goroutine. It returns false if the
// variable already has a running source.
func (obj *Handler) start(name interfaces.VarName, fn func(ctx context.Context, src *source)) bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if obj.running == nil {
		obj.running = make(map[interfaces.VarName]*source)
	}
	if _, exists := obj.running[name]; exists {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	src := &source{cancel: cancel}
	obj.running[name] = src
	obj.wg.Add(1)
	go func() {
		defer obj.wg.Done()
		fn(ctx, src)
	}()
	return true
}

// Add starts the source of a script variable definition. It does nothing if
// the variable is already running.
func (obj *Handler) Add(def *config.ScriptVarDefinition) {
	name := interfaces.VarName(def.Name)
	if def.Listen != nil {
		obj.AddListen(name, def.Listen.Command)
		return
	}
	command := def.Poll.Command
	obj.AddPoll(name, def.Poll.IntervalDuration(), func(ctx context.Context) (dynval.DynVal, error) {
		out, err := util.ShellCmd(ctx, command, obj.opts())
		if err != nil {
			return dynval.DynVal{}, err
		}
		return dynval.New(out), nil
	})
}

// AddPoll runs fn right away and then once every interval, and sends each
// result. A failed run is logged and skipped.
func (obj *Handler) AddPoll(name interfaces.VarName, interval time.Duration, fn PollFunc) {
	started := obj.start(name, func(ctx context.Context, _ *source) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			obj.pollOnce(ctx, name, fn)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	})
	if started && obj.Debug {
		obj.logf("started poll var: %s (every %s)", name, interval)
	}
}

func (obj *Handler) pollOnce(ctx context.Context, name interfaces.VarName, fn PollFunc) {
	value, err := fn(ctx)
	if ctx.Err() != nil {
		return // stopped while running, the result is stale
	}
	if obj.Observer != nil {
		obj.Observer.ScriptRun(string(name), err)
	}
	if err != nil {
		obj.logf("script var `%s` failed: %+v", name, err)
		return
	}
	obj.send(ctx, name, value)
}

// AddListen starts a long running command and sends each line that it prints
// as a new value. When the command exits the source is done.
func (obj *Handler) AddListen(name interfaces.VarName, command string) {
	started := obj.start(name, func(ctx context.Context, src *source) {
		if err := obj.listen(ctx, name, command); err != nil && ctx.Err() == nil {
			obj.logf("listen var `%s` failed: %+v", name, err)
		}
		obj.forget(name, src)
	})
	if started && obj.Debug {
		obj.logf("started listen var: %s", name)
	}
}

func (obj *Handler) listen(ctx context.Context, name interfaces.VarName, command string) error {
	cmd, stdout, err := util.ShellPipe(ctx, command, obj.opts())
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if obj.Observer != nil {
			obj.Observer.ScriptRun(string(name), nil)
		}
		if !obj.send(ctx, name, dynval.New(scanner.Text())) {
			break
		}
	}
	scanErr := scanner.Err()
	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return errwrap.Wrapf(err, "cmd `%s` exited", command)
	}
	return scanErr
}

// send delivers a value unless the source was stopped in the meantime.
func (obj *Handler) send(ctx context.Context, name interfaces.VarName, value dynval.DynVal) bool {
	cmd := &event.UpdateVars{
		Vars: map[interfaces.VarName]dynval.DynVal{name: value},
	}
	select {
	case obj.Events <- cmd:
		return true
	case <-ctx.Done():
		return false
	}
}

// forget drops the bookkeeping of a source that ended by itself. A newer
// source for the same variable is left alone.
func (obj *Handler) forget(name interfaces.VarName, src *source) {
	src.cancel()
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if obj.running[name] == src {
		delete(obj.running, name)
	}
}

// StopFor stops the source of a variable, if it's running.
func (obj *Handler) StopFor(name interfaces.VarName) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	src, exists := obj.running[name]
	if !exists {
		return
	}
	src.cancel()
	delete(obj.running, name)
	if obj.Debug {
		obj.logf("stopped script var: %s", name)
	}
}

// StopAll stops every source and waits for them to exit.
func (obj *Handler) StopAll() {
	obj.mutex.Lock()
	for name, src := range obj.running {
		src.cancel()
		delete(obj.running, name)
	}
	obj.mutex.Unlock()
	obj.wg.Wait()
}

// IsRunning returns true if the variable has a running source.
func (obj *Handler) IsRunning(name interfaces.VarName) bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	_, exists := obj.running[name]
	return exists
}

// Running returns the variables with a running source, sorted.
func (obj *Handler) Running() []interfaces.VarName {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	names := []interfaces.VarName{}
	for name := range obj.running {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
