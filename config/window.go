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

package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/purpleidea/barstate/lang/ast"
	"github.com/purpleidea/barstate/lang/dynval"
	"github.com/purpleidea/barstate/lang/eval"
	"github.com/purpleidea/barstate/lang/interfaces"
	"github.com/purpleidea/barstate/util"
	"github.com/purpleidea/barstate/util/errwrap"
)

// WindowIDArg is the argument that receives the window instance id if the
// window declares it.
const WindowIDArg = "id"

// Stacking is where a window sits relative to the other windows.
type Stacking string

// The different stacking modes.
const (
	StackingForeground Stacking = "foreground"
	StackingBackground Stacking = "background"
	StackingBottom     Stacking = "bottom"
	StackingOverlay    Stacking = "overlay"
)

// ParseStacking reads a stacking mode, including the short forms.
func ParseStacking(s string) (Stacking, error) {
	switch strings.ToLower(s) {
	case "", "foreground", "fg":
		return StackingForeground, nil
	case "background", "bg":
		return StackingBackground, nil
	case "bottom", "bt":
		return StackingBottom, nil
	case "overlay", "ov":
		return StackingOverlay, nil
	}
	return "", newErr(ErrInvalidField, "stacking", "unknown stacking `%s`, must be one of fg, bg, bottom, overlay", s)
}

// Alignment is the position along one axis.
type Alignment int

// The possible alignments.
const (
	AlignStart Alignment = iota
	AlignCenter
	AlignEnd
)

// Anchor says which point of the screen a window is placed relative to.
type Anchor struct {
	X Alignment
	Y Alignment
}

// String returns the canonical spelling of the anchor.
func (obj Anchor) String() string {
	if obj.X == AlignCenter && obj.Y == AlignCenter {
		return "center"
	}
	return fmt.Sprintf("%s %s", []string{"left", "center", "right"}[obj.X], []string{"top", "center", "bottom"}[obj.Y])
}

func alignX(s string) (Alignment, bool) {
	switch s {
	case "l", "left":
		return AlignStart, true
	case "c", "center":
		return AlignCenter, true
	case "r", "right":
		return AlignEnd, true
	}
	return 0, false
}

func alignY(s string) (Alignment, bool) {
	switch s {
	case "t", "top":
		return AlignStart, true
	case "c", "center":
		return AlignCenter, true
	case "b", "bottom":
		return AlignEnd, true
	}
	return 0, false
}

// ParseAnchor reads an anchor such as `center`, `top left` or `left top`.
func ParseAnchor(s string) (Anchor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "center" {
		return Anchor{X: AlignCenter, Y: AlignCenter}, nil
	}
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Anchor{}, newErr(ErrInvalidField, "anchor", "must be `center` or look like `top left`, got `%s`", s)
	}
	if x, ok := alignX(fields[0]); ok {
		if y, ok := alignY(fields[1]); ok {
			return Anchor{X: x, Y: y}, nil
		}
	}
	if x, ok := alignX(fields[1]); ok {
		if y, ok := alignY(fields[0]); ok {
			return Anchor{X: x, Y: y}, nil
		}
	}
	return Anchor{}, newErr(ErrInvalidField, "anchor", "can't read anchor `%s`", s)
}

// Length is a window dimension in pixels or a percentage of the screen.
type Length struct {
	Value   float64
	Percent bool
}

// String returns the length with its unit.
func (obj Length) String() string {
	s := strconv.FormatFloat(obj.Value, 'f', -1, 64)
	if obj.Percent {
		return s + "%"
	}
	return s + "px"
}

// ParseLength reads `10`, `10px` or `50%`.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Length{}, nil
	}
	result := Length{}
	switch {
	case strings.HasSuffix(s, "%"):
		result.Percent = true
		s = strings.TrimSuffix(s, "%")
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Length{}, newErr(ErrInvalidField, "geometry", "can't read length `%s`", s)
	}
	result.Value = f
	return result, nil
}

// GeometryDefinition is the placement of a window. Each field may reference
// the window arguments.
type GeometryDefinition struct {
	X      string `yaml:"x"`
	Y      string `yaml:"y"`
	Width  string `yaml:"width"`
	Height string `yaml:"height"`
	Anchor string `yaml:"anchor"`
}

// Geometry is an evaluated GeometryDefinition.
type Geometry struct {
	X      Length
	Y      Length
	Width  Length
	Height Length
	Anchor Anchor
}

// WindowDefinition is a top level window.
type WindowDefinition struct {
	Name      string              `yaml:"name"`
	Args      []*AttrSpec         `yaml:"args"`
	Geometry  *GeometryDefinition `yaml:"geometry"`
	Stacking  string              `yaml:"stacking"`
	Monitor   string              `yaml:"monitor"`
	Resizable string              `yaml:"resizable"`
	Widget    *WidgetUse          `yaml:"widget"`

	stacking  Stacking
	resizable bool
	geometry  map[string]ast.Expr
	monitor   ast.Expr
}

// Init checks the static fields and compiles the rest.
func (obj *WindowDefinition) Init() error {
	where := "windows/" + obj.Name
	if obj.Widget == nil {
		return newErr(ErrInvalidField, where, "missing widget body")
	}
	if err := checkArgs(obj.Args, where); err != nil {
		return err
	}

	stacking, err := StaticAttr(obj.Stacking)
	if err != nil {
		return errwrap.Wrapf(err, "%s: field `stacking`", where)
	}
	if obj.stacking, err = ParseStacking(stacking.String()); err != nil {
		return errwrap.Wrapf(err, "%s", where)
	}

	obj.resizable = true
	if obj.Resizable != "" {
		v, err := StaticAttr(obj.Resizable)
		if err != nil {
			return errwrap.Wrapf(err, "%s: field `resizable`", where)
		}
		if obj.resizable, err = v.AsBool(); err != nil {
			return errwrap.Wrapf(err, "%s: field `resizable`", where)
		}
	}

	obj.geometry = make(map[string]ast.Expr)
	if g := obj.Geometry; g != nil {
		fields := map[string]string{
			"x":      g.X,
			"y":      g.Y,
			"width":  g.Width,
			"height": g.Height,
			"anchor": g.Anchor,
		}
		for _, key := range util.SortedKeys(fields) {
			if fields[key] == "" {
				continue
			}
			expr, err := ParseAttr(fields[key])
			if err != nil {
				return errwrap.Wrapf(err, "%s: geometry `%s`", where, key)
			}
			obj.geometry[key] = expr
		}
	}
	if obj.Monitor != "" {
		if obj.monitor, err = ParseAttr(obj.Monitor); err != nil {
			return errwrap.Wrapf(err, "%s: field `monitor`", where)
		}
	}

	return obj.Widget.Init(where)
}

// StackingMode returns the compiled stacking mode.
func (obj *WindowDefinition) StackingMode() Stacking { return obj.stacking }

// IsResizable returns the compiled resizable flag. It's true by default.
func (obj *WindowDefinition) IsResizable() bool { return obj.resizable }

// exprs returns the window level expressions that may use the arguments.
func (obj *WindowDefinition) exprs() map[string]ast.Expr {
	result := make(map[string]ast.Expr)
	for k, v := range obj.geometry {
		result["geometry/"+k] = v
	}
	if obj.monitor != nil {
		result["monitor"] = obj.monitor
	}
	return result
}

// Arguments checks the raw arguments that a window is opened with against the
// declared ones, and returns the variables that the window scope gets. The id
// is passed in if the window declares an `id` argument. Optional arguments
// that are not given are set to the empty string.
func (obj *WindowDefinition) Arguments(id string, raw map[string]string) (map[interfaces.VarName]dynval.DynVal, error) {
	expected := make(map[interfaces.VarName]*AttrSpec)
	for _, x := range obj.Args {
		expected[x.Name.ToVarName()] = x
	}

	result := make(map[interfaces.VarName]dynval.DynVal)
	if _, exists := expected[WindowIDArg]; exists {
		result[WindowIDArg] = dynval.New(id)
	}
	unexpected := []string{}
	for key, value := range raw {
		name := NormalizeAttrName(key).ToVarName()
		if _, exists := expected[name]; !exists {
			unexpected = append(unexpected, string(name))
			continue
		}
		result[name] = dynval.New(value)
	}
	if len(unexpected) > 0 {
		verb := "were"
		if len(unexpected) == 1 {
			verb = "was"
		}
		sort.Strings(unexpected)
		return nil, newErr(ErrUnexpectedWindowArgs, "windows/"+obj.Name, "`%s` %s unexpectedly defined when opening window `%s`", strings.Join(unexpected, ","), verb, obj.Name)
	}

	for _, x := range obj.Args {
		name := x.Name.ToVarName()
		if _, exists := result[name]; exists {
			continue
		}
		if !x.Optional {
			return nil, newErr(ErrMissingWindowArg, "windows/"+obj.Name, "`%s` is required when opening window `%s` but was not given", name, obj.Name)
		}
		result[name] = dynval.New("")
	}
	return result, nil
}

// Place evaluates the geometry with the window arguments.
func (obj *WindowDefinition) Place(args map[interfaces.VarName]dynval.DynVal) (*Geometry, error) {
	result := &Geometry{Anchor: Anchor{X: AlignCenter, Y: AlignCenter}}
	lengths := map[string]*Length{
		"x":      &result.X,
		"y":      &result.Y,
		"width":  &result.Width,
		"height": &result.Height,
	}
	for key, expr := range obj.geometry {
		v, err := eval.Eval(expr, args)
		if err != nil {
			return nil, errwrap.Wrapf(err, "geometry `%s`", key)
		}
		if key == "anchor" {
			if result.Anchor, err = ParseAnchor(v.String()); err != nil {
				return nil, err
			}
			continue
		}
		if *lengths[key], err = ParseLength(v.String()); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// MonitorName evaluates the monitor with the window arguments. It's empty if
// it's not set.
func (obj *WindowDefinition) MonitorName(args map[interfaces.VarName]dynval.DynVal) (string, error) {
	if obj.monitor == nil {
		return "", nil
	}
	v, err := eval.Eval(obj.monitor, args)
	if err != nil {
		return "", errwrap.Wrapf(err, "field `monitor`")
	}
	return v.String(), nil
}
