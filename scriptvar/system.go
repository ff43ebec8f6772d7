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
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/sensors"
)

// SystemInterval is how often the system variables are polled.
const SystemInterval = 2 * time.Second

// SystemVars are the builtin variables that report on the machine. Each one
// is a json document.
var SystemVars = map[interfaces.VarName]PollFunc{
	"SYS_RAM":    ram,
	"SYS_CPU":    cpuUsage,
	"SYS_DISK":   disks,
	"SYS_LOAD":   loadAvg,
	"SYS_UPTIME": uptime,
	"SYS_NET":    (&netMeter{}).poll,
	"SYS_TEMPS":  temps,
}

// SystemVarNames returns the names of the builtin system variables, sorted.
func SystemVarNames() []interfaces.VarName {
	names := []interfaces.VarName{}
	for name := range SystemVars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// AddSystem starts polling a builtin system variable. It returns an error if
// there is no such variable.
func (obj *Handler) AddSystem(name interfaces.VarName) error {
	fn, exists := SystemVars[name]
	if !exists {
		return fmt.Errorf("unknown system variable: %s", name)
	}
	obj.AddPoll(name, SystemInterval, fn)
	return nil
}

// round2 keeps two decimals so that the values don't flap in the last digit.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func ram(ctx context.Context) (dynval.DynVal, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read memory")
	}
	result := map[string]interface{}{
		"total_mem":     vm.Total,
		"free_mem":      vm.Free,
		"available_mem": vm.Available,
		"used_mem":      vm.Used,
		"used_mem_perc": round2(vm.UsedPercent),
	}
	if sw, err := mem.SwapMemoryWithContext(ctx); err == nil {
		result["total_swap"] = sw.Total
		result["free_swap"] = sw.Free
	}
	return dynval.FromJSON(result)
}

func cpuUsage(ctx context.Context) (dynval.DynVal, error) {
	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read cpu usage")
	}
	cores := []interface{}{}
	total := 0.0
	for i, usage := range perCore {
		cores = append(cores, map[string]interface{}{
			"core":  fmt.Sprintf("cpu%d", i),
			"usage": round2(usage),
		})
		total += usage
	}
	avg := 0.0
	if len(perCore) > 0 {
		avg = round2(total / float64(len(perCore)))
	}
	return dynval.FromJSON(map[string]interface{}{
		"cores": cores,
		"avg":   avg,
	})
}

func disks(ctx context.Context) (dynval.DynVal, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't list partitions")
	}
	result := make(map[string]interface{})
	for _, p := range parts {
		usage, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || usage.Total == 0 {
			continue // not mounted or pseudo filesystem
		}
		result[p.Mountpoint] = map[string]interface{}{
			"name":      p.Device,
			"total":     usage.Total,
			"free":      usage.Free,
			"used":      usage.Used,
			"used_perc": round2(usage.UsedPercent),
		}
	}
	return dynval.FromJSON(result)
}

func loadAvg(ctx context.Context) (dynval.DynVal, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read load average")
	}
	return dynval.FromJSON(map[string]interface{}{
		"1":  avg.Load1,
		"5":  avg.Load5,
		"15": avg.Load15,
	})
}

func uptime(ctx context.Context) (dynval.DynVal, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read uptime")
	}
	return dynval.FromInt(int64(secs)), nil
}

// netMeter reports the bytes moved on each interface since its previous poll.
// The first poll reports zero.
type netMeter struct {
	mutex sync.Mutex
	last  map[string]psnet.IOCountersStat
}

func (obj *netMeter) poll(ctx context.Context) (dynval.DynVal, error) {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read network counters")
	}
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	result := netDeltas(obj.last, counters)
	obj.last = make(map[string]psnet.IOCountersStat)
	for _, c := range counters {
		obj.last[c.Name] = c
	}
	return dynval.FromJSON(result)
}

// netDeltas builds the per interface NET_UP and NET_DOWN byte counts. An
// interface that's new, or whose counters went backwards, reports zero.
func netDeltas(last map[string]psnet.IOCountersStat, counters []psnet.IOCountersStat) map[string]interface{} {
	result := make(map[string]interface{})
	for _, c := range counters {
		up, down := uint64(0), uint64(0)
		if prev, exists := last[c.Name]; exists {
			if c.BytesSent >= prev.BytesSent {
				up = c.BytesSent - prev.BytesSent
			}
			if c.BytesRecv >= prev.BytesRecv {
				down = c.BytesRecv - prev.BytesRecv
			}
		}
		result[c.Name] = map[string]interface{}{
			"NET_UP":   up,
			"NET_DOWN": down,
		}
	}
	return result
}

func temps(ctx context.Context) (dynval.DynVal, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return dynval.DynVal{}, errwrap.Wrapf(err, "can't read temperatures")
	}
	// some sensors failing still leaves the others usable
	return dynval.FromJSON(tempsByLabel(stats))
}

// tempsByLabel keys each reading by its sensor name in upper case, with
// spaces turned into underscores.
func tempsByLabel(stats []sensors.TemperatureStat) map[string]interface{} {
	result := make(map[string]interface{})
	for _, x := range stats {
		key := strings.ReplaceAll(strings.ToUpper(x.SensorKey), " ", "_")
		result[key] = round2(x.Temperature)
	}
	return result
}
