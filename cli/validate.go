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
	"github.com/purpleidea/barstate/config"
	"github.com/purpleidea/barstate/scriptvar"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/spf13/afero"
)

// ValidateArgs is the CLI parsing structure and type of the parsed result. This
// particular one is for the `validate` subcommand.
type ValidateArgs struct {
	cliUtil.ConfigArgs
}

// Run loads the config and checks it.
func (obj *ValidateArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	cfg, err := loadConfig(afero.NewOsFs(), obj.Config)
	if err != nil {
		return false, err
	}
	fmt.Printf("%s: ok, windows: %v\n", obj.Config, cfg.WindowNames())
	return true, nil
}

// loadConfig reads a config and validates it with the builtin variables.
func loadConfig(fs afero.Fs, path string) (*config.Config, error) {
	path, err := util.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't load %s", path)
	}
	if err := cfg.ValidateWith(scriptvar.SystemVarNames()); err != nil {
		return nil, errwrap.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}
