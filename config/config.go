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

// Package config provides the facilities for loading the variable, widget and
// window definitions from a yaml file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/lang/parser"
	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Config is the data structure that describes everything that can be shown.
type Config struct {
	Variables  []*VarDefinition       `yaml:"variables"`
	ScriptVars []*ScriptVarDefinition `yaml:"script-vars"`
	Widgets    []*WidgetDefinition    `yaml:"widgets"`
	Windows    []*WindowDefinition    `yaml:"windows"`
	Comment    string                 `yaml:"comment"`

	widgets map[string]*WidgetDefinition
	windows map[string]*WindowDefinition
}

// VarDefinition is a plain global variable with an initial value.
type VarDefinition struct {
	Name    string `yaml:"name"`
	Initial string `yaml:"initial"`

	initial dynval.DynVal
}

// Init compiles the initial value. It may not depend on any variables.
func (obj *VarDefinition) Init() error {
	if obj.Name == "" {
		return newErr(ErrInvalidField, "variables", "empty name")
	}
	v, err := StaticAttr(obj.Initial)
	if err != nil {
		return errwrap.Wrapf(err, "field `initial`")
	}
	obj.initial = v
	return nil
}

// InitialValue is the compiled initial value.
func (obj *VarDefinition) InitialValue() dynval.DynVal { return obj.initial }

// Load reads and parses the config file at path on fs.
func Load(fs afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read config")
	}
	config := &Config{}
	if err := config.Parse(data); err != nil {
		return nil, errwrap.Wrapf(err, "can't parse config `%s`", path)
	}
	return config, nil
}

// Parse parses a data stream into the config structure. It also compiles every
// expression that's in it, but doesn't check that the pieces fit together. Run
// Validate for that.
func (obj *Config) Parse(data []byte) error {
	if err := yaml.UnmarshalStrict(data, obj); err != nil {
		return err
	}
	return obj.Init()
}

// Init compiles the expressions and builds the lookup tables. Parse runs this.
func (obj *Config) Init() error {
	obj.widgets = make(map[string]*WidgetDefinition)
	obj.windows = make(map[string]*WindowDefinition)

	var reterr error
	for _, x := range obj.Variables {
		if err := x.Init(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "variable `%s`", x.Name))
		}
	}
	for _, x := range obj.ScriptVars {
		if err := x.Init(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "script var `%s`", x.Name))
		}
	}
	for _, x := range obj.Widgets {
		if x.Name == "" {
			reterr = errwrap.Append(reterr, newErr(ErrInvalidField, "widgets", "empty name"))
			continue
		}
		if _, exists := obj.widgets[x.Name]; exists {
			reterr = errwrap.Append(reterr, newErr(ErrDuplicateName, "widgets", "widget `%s` is defined twice", x.Name))
			continue
		}
		obj.widgets[x.Name] = x
		if err := x.Init(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "widget `%s`", x.Name))
		}
	}
	for _, x := range obj.Windows {
		if x.Name == "" {
			reterr = errwrap.Append(reterr, newErr(ErrInvalidField, "windows", "empty name"))
			continue
		}
		if _, exists := obj.windows[x.Name]; exists {
			reterr = errwrap.Append(reterr, newErr(ErrDuplicateName, "windows", "window `%s` is defined twice", x.Name))
			continue
		}
		obj.windows[x.Name] = x
		if err := x.Init(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "window `%s`", x.Name))
		}
	}
	return reterr
}

// Widget returns the custom widget definition with that name.
func (obj *Config) Widget(name string) (*WidgetDefinition, bool) {
	x, exists := obj.widgets[name]
	return x, exists
}

// Window returns the window definition with that name.
func (obj *Config) Window(name string) (*WindowDefinition, bool) {
	x, exists := obj.windows[name]
	return x, exists
}

// WindowNames returns the names of the defined windows in config order.
func (obj *Config) WindowNames() []string {
	names := []string{}
	for _, x := range obj.Windows {
		names = append(names, x.Name)
	}
	return names
}

// Globals returns the initial values of every global variable, plain and
// script defined.
func (obj *Config) Globals() map[interfaces.VarName]dynval.DynVal {
	globals := make(map[interfaces.VarName]dynval.DynVal)
	for _, x := range obj.Variables {
		globals[interfaces.VarName(x.Name)] = x.InitialValue()
	}
	for _, x := range obj.ScriptVars {
		globals[interfaces.VarName(x.Name)] = x.InitialValue()
	}
	return globals
}

// ScriptVar returns the script var definition with that name.
func (obj *Config) ScriptVar(name interfaces.VarName) (*ScriptVarDefinition, bool) {
	for _, x := range obj.ScriptVars {
		if interfaces.VarName(x.Name) == name {
			return x, true
		}
	}
	return nil, false
}

// ScriptVarDefinition is a global variable whose value comes from running a
// command. Exactly one of Poll or Listen must be set.
type ScriptVarDefinition struct {
	Name   string            `yaml:"name"`
	Poll   *PollDefinition   `yaml:"poll"`
	Listen *ListenDefinition `yaml:"listen"`
}

// PollDefinition runs a command periodically and uses the output.
type PollDefinition struct {
	Command  string `yaml:"command"`
	Interval string `yaml:"interval"`
	Initial  string `yaml:"initial"`
	RunWhile string `yaml:"run-while"`

	interval time.Duration
	initial  dynval.DynVal
	runWhile ast.Expr
}

// ListenDefinition runs a long lived command and uses each output line.
type ListenDefinition struct {
	Command string `yaml:"command"`
	Initial string `yaml:"initial"`

	initial dynval.DynVal
}

// Init checks the definition and compiles the static fields.
func (obj *ScriptVarDefinition) Init() error {
	if obj.Name == "" {
		return newErr(ErrInvalidField, "name", "empty name")
	}
	if (obj.Poll == nil) == (obj.Listen == nil) {
		return newErr(ErrInvalidField, "poll", "exactly one of poll or listen must be set")
	}
	if x := obj.Listen; x != nil {
		if strings.TrimSpace(x.Command) == "" {
			return newErr(ErrInvalidField, "listen/command", "empty command")
		}
		v, err := StaticAttr(x.Initial)
		if err != nil {
			return errwrap.Wrapf(err, "field `initial`")
		}
		x.initial = v
		return nil
	}

	x := obj.Poll
	if strings.TrimSpace(x.Command) == "" {
		return newErr(ErrInvalidField, "poll/command", "empty command")
	}
	v, err := StaticAttr(x.Initial)
	if err != nil {
		return errwrap.Wrapf(err, "field `initial`")
	}
	x.initial = v

	if x.Interval == "" {
		return newErr(ErrInvalidField, "poll/interval", "missing interval")
	}
	iv, err := StaticAttr(x.Interval)
	if err != nil {
		return errwrap.Wrapf(err, "field `interval`")
	}
	if x.interval, err = iv.AsDuration(); err != nil {
		return errwrap.Wrapf(err, "field `interval`")
	}
	if x.interval <= 0 {
		return newErr(ErrInvalidField, "poll/interval", "interval must be positive, got %s", x.interval)
	}

	x.runWhile = ast.Synth(dynval.FromBool(true))
	if x.RunWhile != "" {
		if x.runWhile, err = ParseAttr(x.RunWhile); err != nil {
			return errwrap.Wrapf(err, "field `run-while`")
		}
	}
	return nil
}

// InitialValue is the value the variable has before the command first ran.
func (obj *ScriptVarDefinition) InitialValue() dynval.DynVal {
	if obj.Poll != nil {
		return obj.Poll.initial
	}
	if obj.Listen != nil {
		return obj.Listen.initial
	}
	return dynval.New("")
}

// Command returns the shell command of either kind of script var.
func (obj *ScriptVarDefinition) Command() string {
	if obj.Poll != nil {
		return obj.Poll.Command
	}
	return obj.Listen.Command
}

// IntervalDuration is the compiled poll interval.
func (obj *PollDefinition) IntervalDuration() time.Duration { return obj.interval }

// RunWhileExpr is the compiled run-while condition. It's true when unset.
func (obj *PollDefinition) RunWhileExpr() ast.Expr { return obj.runWhile }

// ParseAttr parses an attribute value. A value wrapped in braces like `{a + b}`
// is an expression. Anything else is a string with optional `${expr}`
// interpolation.
func ParseAttr(s string) (ast.Expr, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		offset := strings.Index(s, "{") + 1
		return parser.ParseWithOffset(offset, trimmed[1:len(trimmed)-1])
	}
	return parser.ParseInterpolated(0, s)
}

// StaticAttr parses and evaluates an attribute value that may not depend on
// any variables.
func StaticAttr(s string) (dynval.DynVal, error) {
	expr, err := ParseAttr(s)
	if err != nil {
		return dynval.DynVal{}, err
	}
	v, err := eval.EvalNoVars(expr)
	if err != nil {
		return dynval.DynVal{}, errwrap.Wrapf(err, "value `%s` must be static", s)
	}
	return v, nil
}

// NormalizeAttrName turns an attribute name into kebab case, so that `fooBar`,
// `foo_bar` and `foo-bar` all name the same attribute.
func NormalizeAttrName(s string) interfaces.AttrName {
	return interfaces.AttrName(strcase.ToKebab(s))
}

func compileAttrs(attrs map[string]string, where string) (map[interfaces.AttrName]ast.Expr, error) {
	result := make(map[interfaces.AttrName]ast.Expr)
	for key, value := range attrs {
		name := NormalizeAttrName(key)
		if _, exists := result[name]; exists {
			return nil, newErr(ErrDuplicateName, where, "attribute `%s` is given twice", name)
		}
		expr, err := ParseAttr(value)
		if err != nil {
			return nil, errwrap.Wrapf(err, "%s: attribute `%s`", where, name)
		}
		result[name] = expr
	}
	return result, nil
}

func (obj *Config) String() string {
	return fmt.Sprintf("config(%d vars, %d script vars, %d widgets, %d windows)", len(obj.Variables), len(obj.ScriptVars), len(obj.Widgets), len(obj.Windows))
}
