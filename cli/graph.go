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

	cliUtil "github.com/purpleidea/barstate/cli/util"
	"github.com/purpleidea/barstate/daemon"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/pgraph"
	"github.com/purpleidea/barstate/widgets"

	"github.com/spf13/afero"
)

// GraphArgs is the CLI parsing structure and type of the parsed result. This
// particular one is for the `graph` subcommand.
type GraphArgs struct {
	cliUtil.ConfigArgs
	cliUtil.WindowArgs

	Graphviz       string `arg:"--graphviz" help:"output file for graphviz data, a png is rendered next to it"`
	GraphvizFilter string `arg:"--graphviz-filter" default:"dot" help:"graphviz filter to use"`
}

// Run opens the windows and prints the scope graph in graphviz dot format, or
// renders it to a file.
func (obj *GraphArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	raw, err := cliUtil.ParsePairs(obj.Args)
	if err != nil {
		return false, cliUtil.CliParseError(err)
	}
	cfg, err := loadConfig(afero.NewOsFs(), obj.Config)
	if err != nil {
		return false, err
	}
	s, err := graphOf(ctx, &daemon.App{
		Config:   cfg,
		Renderer: &widgets.LogRenderer{}, // silent
		Debug:    data.Flags.Debug,
		Logf: func(format string, v ...interface{}) {
			data.Flags.Logf("daemon: "+format, v...)
		},
	}, obj.Open, raw)
	if err != nil {
		return false, err
	}
	if obj.Graphviz == "" {
		fmt.Print(s)
		return true, nil
	}
	if err := pgraph.ExecGraphviz(ctx, obj.GraphvizFilter, obj.Graphviz, s); err != nil {
		return false, err
	}
	data.Flags.Logf("graphviz: wrote %s", obj.Graphviz)
	return true, nil
}

// graphOf runs app long enough to open the windows and print the graph.
func graphOf(ctx context.Context, app *daemon.App, windows []string, raw map[string]string) (string, error) {
	if err := app.Init(); err != nil {
		return "", err
	}
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	defer func() {
		app.Events <- &event.Stop{}
		<-done
	}()

	for _, name := range windows {
		resp := event.NewResp()
		cmd := &event.OpenWindow{Base: event.Base{Resp: resp}, Name: name, ID: name, Args: raw}
		if err := sendAndWait(app, cmd, resp); err != nil {
			return "", err
		}
	}
	out := make(chan string, 1)
	app.Events <- &event.PrintGraph{Out: out}
	return <-out, nil
}
