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
	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/scriptvar"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/google/uuid"
)

// openWindow realizes the window definition called name. An empty id gets a
// fresh one. With toggle, an open window is closed instead. If no id is given,
// toggling closes every open instance of that definition.
func (obj *App) openWindow(name, id string, raw map[string]string, toggle bool) error {
	def, exists := obj.config.Window(name)
	if !exists {
		return &config.ConfigErr{
			Err:     config.ErrUnknownWindow,
			Str:     "no window named `" + name + "`",
			Similar: util.SimilarStrings(name, obj.config.WindowNames(), 3, 3),
		}
	}

	if toggle {
		ids := []string{}
		for _, x := range obj.Windows() {
			w := obj.windows[x].window
			if (id == "" && w.Name == name) || x == id {
				ids = append(ids, x)
			}
		}
		if len(ids) > 0 {
			var reterr error
			for _, x := range ids {
				reterr = errwrap.Append(reterr, obj.closeWindow(x))
			}
			return reterr
		}
	}

	if id == "" {
		id = uuid.New().String()
	}
	if _, exists := obj.windows[id]; exists {
		if obj.Debug {
			obj.logf("window %s is already open", id)
		}
		return nil
	}

	w, err := obj.builder.OpenWindow(def, id, raw)
	if err != nil {
		return err
	}
	obj.windows[id] = &instance{
		window: w,
		raw:    raw,
	}
	obj.observeWindows()
	obj.logf("opened window %s (%s)", id, name)
	return nil
}

func (obj *App) closeWindow(id string) error {
	inst, exists := obj.windows[id]
	if !exists {
		return errwrap.Wrapf(ErrWindowNotOpen, "can't close `%s`", id)
	}
	obj.builder.CloseWindow(inst.window)
	delete(obj.windows, id)
	obj.observeWindows()
	obj.logf("closed window %s (%s)", id, inst.window.Name)
	return nil
}

func (obj *App) closeAll() error {
	var reterr error
	for _, id := range obj.Windows() {
		reterr = errwrap.Append(reterr, obj.closeWindow(id))
	}
	return reterr
}

// reload swaps in a new configuration. A nil cfg is read with the Loader. If
// the new one is invalid, the old one stays. The windows that were open are
// opened again with the same ids and arguments, if they still exist.
func (obj *App) reload(cfg *config.Config) error {
	if cfg == nil {
		if obj.Loader == nil {
			return ErrNoLoader
		}
		var err error
		if cfg, err = obj.Loader(); err != nil {
			return errwrap.Wrapf(err, "can't load config")
		}
	}
	if err := cfg.ValidateWith(scriptvar.SystemVarNames()); err != nil {
		return errwrap.Wrapf(err, "invalid config, keeping the old one")
	}

	reopen := []*instance{}
	for _, id := range obj.Windows() {
		reopen = append(reopen, obj.windows[id])
	}
	reterr := obj.closeAll()
	obj.scripts.StopAll()
	obj.use(cfg)

	for _, inst := range reopen {
		err := obj.openWindow(inst.window.Name, inst.window.ID, inst.raw, false)
		reterr = errwrap.Append(reterr, err)
	}
	obj.logf("config reloaded")
	return reterr
}
