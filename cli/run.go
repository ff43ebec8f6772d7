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

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cliUtil "github.com/purpleidea/barstate/cli/util"
	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/daemon"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/prometheus"
	"github.com/purpleidea/barstate/util/recwatch"

	"github.com/spf13/afero"
)

// RunArgs is the CLI parsing structure and type of the parsed result. This
// particular one contains the flags for the `run` subcommand.
type RunArgs struct {
	cliUtil.ConfigArgs
	cliUtil.WindowArgs

	Watch bool `arg:"--watch" help:"reload the config when the file changes"`

	Shell string `arg:"--shell,env:BARSTATE_SHELL" help:"shell to run script vars with"`

	Prometheus       bool   `arg:"--prometheus" help:"start a prometheus instance"`
	PrometheusListen string `arg:"--prometheus-listen" help:"specify prometheus instance binding"`
}

// Run starts the daemon and runs it until it's interrupted. Widgets are shown
// in the log.
func (obj *RunArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	Logf := func(format string, v ...interface{}) {
		data.Flags.Logf("main: "+format, v...)
	}
	raw, err := cliUtil.ParsePairs(obj.Args)
	if err != nil {
		return false, cliUtil.CliParseError(err)
	}

	extras := []string{}
	if obj.Watch {
		extras = append(extras, "watch")
	}
	if obj.Prometheus {
		extras = append(extras, "prometheus")
	}
	cliUtil.Hello(data, obj.Config, obj.Open, extras...) // say hello!
	defer Logf("goodbye!")

	fs := afero.NewOsFs()
	app := &daemon.App{
		Loader: func() (*config.Config, error) {
			return loadConfig(fs, obj.Config)
		},
		Shell: obj.Shell,
		Debug: data.Flags.Debug,
		Logf: func(format string, v ...interface{}) {
			data.Flags.Logf("daemon: "+format, v...)
		},
	}

	if obj.Prometheus {
		app.Metrics = &prometheus.Prometheus{
			Listen: obj.PrometheusListen,
			Logf: func(format string, v ...interface{}) {
				data.Flags.Logf("prometheus: "+format, v...)
			},
		}
		if err := app.Metrics.Init(); err != nil {
			return false, err
		}
		if err := app.Metrics.Start(); err != nil {
			return false, err
		}
		Logf("prometheus is listening on %s", app.Metrics.Addr())
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.Metrics.Stop(ctx); err != nil {
				Logf("prometheus stop error: %+v", err)
			}
		}()
	}

	if err := app.Init(); err != nil {
		return false, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wg := &sync.WaitGroup{}
	defer wg.Wait()

	// install the exit signal handler
	wg.Add(1)
	go func() {
		defer wg.Done()
		signals := make(chan os.Signal, 1+1) // ^C + SIGTERM
		signal.Notify(signals, os.Interrupt) // catch ^C
		signal.Notify(signals, syscall.SIGTERM)
		defer signal.Stop(signals)
		select {
		case sig := <-signals:
			Logf("interrupted by %v", sig)
			select {
			case app.Events <- &event.Stop{}:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}()

	if obj.Watch {
		ch, err := recwatch.Watch(ctx, obj.Config, Logf)
		if err != nil {
			return false, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range ch {
				Logf("config changed, reloading")
				select {
				case app.Events <- &event.ReloadConfig{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, name := range obj.Open {
		app.Events <- &event.OpenWindow{Name: name, Args: raw}
	}

	if err := app.Run(ctx); err != nil {
		return false, err
	}
	cancel() // tell the helpers to exit
	return true, nil
}

// sendAndWait sends a command that carries resp and waits for the answer.
func sendAndWait(app *daemon.App, cmd event.Command, resp event.Resp) error {
	app.Events <- cmd
	if err := resp.Wait(); err != nil {
		return fmt.Errorf("%s: %w", cmd.Kind(), err)
	}
	return nil
}
