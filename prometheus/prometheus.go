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

// Package prometheus provides functions that are useful to control and manage
// the build-in prometheus instance.
package prometheus

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrometheusListen is registered in
// https://github.com/prometheus/prometheus/wiki/Default-port-allocations
const DefaultPrometheusListen = "127.0.0.1:9233"

// Prometheus is the struct that contains information about the prometheus
// instance. Run Init() on it. It watches the scope graph, the script vars and
// the daemon loop.
type Prometheus struct {
	Listen string // the listen address for the net/http server

	Logf func(format string, v ...interface{})

	registry *prometheus.Registry
	server   *http.Server
	addr     string

	commandsTotal           *prometheus.CounterVec // commands handled by the daemon, by kind
	updatesTotal            *prometheus.CounterVec // variable changes, by variable
	listenersRunTotal       prometheus.Counter     // listener effects that were run
	listenerFailuresTotal   *prometheus.CounterVec // listener effects that failed, by variable
	scriptRunsTotal         *prometheus.CounterVec // script var runs, by variable and error
	scopes                  prometheus.Gauge       // live scopes
	windows                 prometheus.Gauge       // open windows
	processStartTimeSeconds prometheus.Gauge       // process start time in seconds since unix epoch
}

// Init some parameters - currently the Listen address. Each instance has its
// own registry, so it can be made more than once.
func (obj *Prometheus) Init() error {
	if len(obj.Listen) == 0 {
		obj.Listen = DefaultPrometheusListen
	}
	obj.registry = prometheus.NewRegistry()

	obj.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barstate_commands_total",
			Help: "Number of commands handled by the daemon.",
		},
		[]string{"kind"},
	)
	obj.updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barstate_variable_updates_total",
			Help: "Number of times that a variable was changed.",
		},
		[]string{"variable"},
	)
	obj.listenersRunTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "barstate_listeners_run_total",
			Help: "Number of listener effects that were run because of a change.",
		},
	)
	obj.listenerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barstate_listener_failures_total",
			Help: "Number of listener effects that returned an error.",
		},
		[]string{"variable"},
	)
	obj.scriptRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barstate_script_runs_total",
			Help: "Number of values produced by script vars.",
		},
		// errorful: did the run fail
		[]string{"variable", "errorful"},
	)
	obj.scopes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "barstate_scopes",
			Help: "Number of live scopes in the scope graph.",
		},
	)
	obj.windows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "barstate_windows",
			Help: "Number of open windows.",
		},
	)
	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "barstate_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)

	for _, c := range []prometheus.Collector{
		obj.commandsTotal,
		obj.updatesTotal,
		obj.listenersRunTotal,
		obj.listenerFailuresTotal,
		obj.scriptRunsTotal,
		obj.scopes,
		obj.windows,
		obj.processStartTimeSeconds,
	} {
		if err := obj.registry.Register(c); err != nil {
			return errwrap.Wrapf(err, "can't register metric")
		}
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	return nil
}

// Gatherer returns the registry that holds the metrics.
func (obj *Prometheus) Gatherer() prometheus.Gatherer {
	return obj.registry
}

// Start runs a http server in a go routine, that responds to /metrics as
// prometheus would expect.
func (obj *Prometheus) Start() error {
	listener, err := net.Listen("tcp", obj.Listen)
	if err != nil {
		return errwrap.Wrapf(err, "can't listen on %s", obj.Listen)
	}
	obj.addr = listener.Addr().String()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.registry, promhttp.HandlerOpts{}))
	obj.server = &http.Server{Handler: mux}
	go func() {
		if err := obj.server.Serve(listener); err != nil && err != http.ErrServerClosed && obj.Logf != nil {
			obj.Logf("server exited: %+v", err)
		}
	}()
	return nil
}

// Addr returns the address that the server is listening on, once started.
func (obj *Prometheus) Addr() string {
	return obj.addr
}

// Stop the http server.
func (obj *Prometheus) Stop(ctx context.Context) error {
	if obj.server == nil {
		return nil
	}
	return obj.server.Shutdown(ctx)
}

// Dispatched counts a variable change and the listeners that it ran.
func (obj *Prometheus) Dispatched(name interfaces.VarName, listeners int) {
	obj.updatesTotal.With(prometheus.Labels{"variable": string(name)}).Inc()
	obj.listenersRunTotal.Add(float64(listeners))
}

// ListenerFailed counts a failed listener effect.
func (obj *Prometheus) ListenerFailed(name interfaces.VarName) {
	obj.listenerFailuresTotal.With(prometheus.Labels{"variable": string(name)}).Inc()
}

// Scopes sets the number of live scopes.
func (obj *Prometheus) Scopes(count int) {
	obj.scopes.Set(float64(count))
}

// ScriptRun counts a run of a script var.
func (obj *Prometheus) ScriptRun(name string, err error) {
	labels := prometheus.Labels{"variable": name, "errorful": strconv.FormatBool(err != nil)}
	obj.scriptRunsTotal.With(labels).Inc()
}

// Command counts a command handled by the daemon.
func (obj *Prometheus) Command(kind string) {
	obj.commandsTotal.With(prometheus.Labels{"kind": kind}).Inc()
}

// Windows sets the number of open windows.
func (obj *Prometheus) Windows(count int) {
	obj.windows.Set(float64(count))
}
