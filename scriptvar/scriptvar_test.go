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

package scriptvar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/event"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"

	"github.com/kylelemons/godebug/pretty"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

const testTimeout = 10 * time.Second

func newTestHandler(t *testing.T, events chan event.Command) *Handler {
	return &Handler{
		Events: events,
		Debug:  testing.Verbose(),
		Logf: func(format string, v ...interface{}) {
			t.Logf("scriptvar: "+format, v...)
		},
	}
}

// next waits for the next update and returns the single name and value in it.
func next(t *testing.T, events chan event.Command) (interfaces.VarName, string) {
	t.Helper()
	select {
	case cmd := <-events:
		update, ok := cmd.(*event.UpdateVars)
		if !ok {
			t.Fatalf("unexpected command: %s", cmd.Kind())
		}
		if len(update.Vars) != 1 {
			t.Fatalf("expected one var, got %d", len(update.Vars))
		}
		for k, v := range update.Vars {
			return k, v.String()
		}
	case <-time.After(testTimeout):
		t.Fatalf("timeout waiting for an update")
	}
	return "", ""
}

type recorder struct {
	mutex  sync.Mutex
	runs   int
	errors int
}

func (obj *recorder) ScriptRun(name string, err error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.runs++
	if err != nil {
		obj.errors++
	}
}

func TestPoll0(t *testing.T) {
	events := make(chan event.Command)
	h := newTestHandler(t, events)
	defer h.StopAll()

	count := int64(0)
	fn := func(ctx context.Context) (dynval.DynVal, error) {
		count++
		return dynval.FromInt(count), nil
	}
	h.AddPoll("counter", 10*time.Millisecond, fn)
	h.AddPoll("counter", 10*time.Millisecond, fn) // already running, ignored

	values := []string{}
	for i := 0; i < 3; i++ {
		name, value := next(t, events)
		if name != "counter" {
			t.Errorf("wrong name: %s", name)
		}
		values = append(values, value)
	}
	if diff := pretty.Compare([]string{"1", "2", "3"}, values); diff != "" {
		t.Errorf("values differ: (-want +got)\n%s", diff)
	}
	if diff := pretty.Compare([]interfaces.VarName{"counter"}, h.Running()); diff != "" {
		t.Errorf("running differ: (-want +got)\n%s", diff)
	}

	h.StopFor("counter")
	if h.IsRunning("counter") {
		t.Errorf("counter should be stopped")
	}
	h.StopFor("counter") // stopping twice is harmless
}

func TestPollCommand(t *testing.T) {
	events := make(chan event.Command, 1)
	h := newTestHandler(t, events)
	defer h.StopAll()

	def := &config.ScriptVarDefinition{
		Name: "greeting",
		Poll: &config.PollDefinition{
			Command:  "echo hello; echo",
			Interval: "1h",
		},
	}
	if err := def.Init(); err != nil {
		t.Errorf("init failed: %+v", err)
		return
	}
	h.Add(def)
	name, value := next(t, events)
	if name != "greeting" || value != "hello\n" { // only one newline is trimmed
		t.Errorf("unexpected update: %s = %q", name, value)
	}
}

func TestPollFailure(t *testing.T) {
	events := make(chan event.Command, 10)
	h := newTestHandler(t, events)
	obs := &recorder{}
	h.Observer = obs

	done := make(chan struct{})
	calls := 0
	h.AddPoll("broken", time.Millisecond, func(ctx context.Context) (dynval.DynVal, error) {
		calls++
		if calls == 3 {
			close(done)
		}
		return dynval.DynVal{}, errors.New("boom")
	})
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Errorf("timeout")
	}
	h.StopAll()

	if len(events) != 0 {
		t.Errorf("a failed run must not send a value")
	}
	obs.mutex.Lock()
	defer obs.mutex.Unlock()
	if obs.errors < 2 || obs.errors != obs.runs {
		t.Errorf("unexpected observations: %d runs, %d errors", obs.runs, obs.errors)
	}
}

func TestListen0(t *testing.T) {
	events := make(chan event.Command)
	h := newTestHandler(t, events)
	defer h.StopAll()

	def := &config.ScriptVarDefinition{
		Name: "lines",
		Listen: &config.ListenDefinition{
			Command: "printf 'a\\nb\\nc\\n'",
		},
	}
	if err := def.Init(); err != nil {
		t.Errorf("init failed: %+v", err)
		return
	}
	h.Add(def)

	values := []string{}
	for i := 0; i < 3; i++ {
		_, value := next(t, events)
		values = append(values, value)
	}
	if diff := pretty.Compare([]string{"a", "b", "c"}, values); diff != "" {
		t.Errorf("values differ: (-want +got)\n%s", diff)
	}

	// the command exited, so the source goes away by itself
	deadline := time.Now().Add(testTimeout)
	for h.IsRunning("lines") {
		if time.Now().After(deadline) {
			t.Errorf("listen source never finished")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestListenStop(t *testing.T) {
	events := make(chan event.Command)
	h := newTestHandler(t, events)

	h.AddListen("forever", "while true; do echo tick; sleep 0.01; done")
	if _, value := next(t, events); value != "tick" {
		t.Errorf("unexpected value: %s", value)
	}

	finished := make(chan struct{})
	go func() {
		h.StopAll() // kills the process group and waits
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(testTimeout):
		t.Errorf("StopAll did not return")
	}
	if len(h.Running()) != 0 {
		t.Errorf("nothing should be running")
	}
}

func TestSystemVars(t *testing.T) {
	names := SystemVarNames()
	expected := []interfaces.VarName{"SYS_CPU", "SYS_DISK", "SYS_LOAD", "SYS_NET", "SYS_RAM", "SYS_TEMPS", "SYS_UPTIME"}
	if diff := pretty.Compare(expected, names); diff != "" {
		t.Errorf("names differ: (-want +got)\n%s", diff)
	}

	v, err := uptime(context.Background())
	if err != nil {
		t.Skipf("no uptime here: %+v", err)
	}
	if !v.IsInt() {
		t.Errorf("uptime should be an integer, got: %s", v)
	}

	v, err = ram(context.Background())
	if err != nil {
		t.Skipf("no memory info here: %+v", err)
	}
	obj, err := v.AsJSONObject()
	if err != nil {
		t.Errorf("ram should be a json object: %+v", err)
		return
	}
	if _, exists := obj["total_mem"]; !exists {
		t.Errorf("ram has no total: %s", v)
	}

	h := &Handler{}
	if err := h.AddSystem("SYS_NOPE"); err == nil {
		t.Errorf("expected an error for an unknown system var")
	}
}

func TestNetDeltas(t *testing.T) {
	last := map[string]psnet.IOCountersStat{
		"eth0":  {Name: "eth0", BytesSent: 100, BytesRecv: 1000},
		"wlan0": {Name: "wlan0", BytesSent: 50, BytesRecv: 50},
	}
	counters := []psnet.IOCountersStat{
		{Name: "eth0", BytesSent: 150, BytesRecv: 1500},
		{Name: "wlan0", BytesSent: 10, BytesRecv: 60}, // counter reset
		{Name: "lo", BytesSent: 7, BytesRecv: 7},
	}
	expected := map[string]interface{}{
		"eth0":  map[string]interface{}{"NET_UP": uint64(50), "NET_DOWN": uint64(500)},
		"wlan0": map[string]interface{}{"NET_UP": uint64(0), "NET_DOWN": uint64(10)},
		"lo":    map[string]interface{}{"NET_UP": uint64(0), "NET_DOWN": uint64(0)},
	}
	if diff := pretty.Compare(expected, netDeltas(last, counters)); diff != "" {
		t.Errorf("deltas differ: (-want +got)\n%s", diff)
	}

	v, err := dynval.FromJSON(netDeltas(nil, counters[:1]))
	if err != nil {
		t.Errorf("could not encode: %+v", err)
		return
	}
	if s := v.String(); s != `{"eth0":{"NET_DOWN":0,"NET_UP":0}}` {
		t.Errorf("unexpected first poll: %s", s)
	}
}

func TestTempsByLabel(t *testing.T) {
	stats := []sensors.TemperatureStat{
		{SensorKey: "coretemp core 0", Temperature: 41.004},
		{SensorKey: "acpitz", Temperature: 27.8},
	}
	expected := map[string]interface{}{
		"CORETEMP_CORE_0": 41.0,
		"ACPITZ":          27.8,
	}
	if diff := pretty.Compare(expected, tempsByLabel(stats)); diff != "" {
		t.Errorf("temps differ: (-want +got)\n%s", diff)
	}
}
