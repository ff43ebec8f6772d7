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
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/lang/parser"
)

// EvalArgs is the CLI parsing structure and type of the parsed result. This
// particular one is for the `eval` subcommand.
type EvalArgs struct {
	// Expr is the expression, without the surrounding braces.
	Expr string `arg:"positional,required" help:"expression to evaluate"`

	Vars []string `arg:"--var,separate" help:"variable as key=value, may be repeated"`
}

// Run parses and evaluates the expression and prints the result on stdout.
// Errors are shown with a caret under the offending part.
func (obj *EvalArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	env, err := cliUtil.ParseVars(obj.Vars)
	if err != nil {
		return false, cliUtil.CliParseError(err)
	}

	out, err := obj.eval(env)
	if err != nil {
		return false, fmt.Errorf("%s", interfaces.Diagnose(obj.Expr, err))
	}
	fmt.Println(out)
	return true, nil
}

func (obj *EvalArgs) eval(env eval.Env) (string, error) {
	expr, err := parser.Parse(obj.Expr)
	if err != nil {
		return "", err
	}
	if len(env) == 0 {
		v, err := eval.EvalNoVars(expr)
		return v.String(), err
	}
	v, err := eval.Eval(expr, env)
	return v.String(), err
}
