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

package dynval

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// durationUnits maps each accepted suffix to its length. Longer suffixes must
// be tried first, so that "ms" isn't read as "m" followed by garbage.
var durationUnits = []struct {
	suffix string
	unit   time.Duration
}{
	{"min", time.Minute},
	{"ms", time.Millisecond},
	{"us", time.Microsecond},
	{"µs", time.Microsecond},
	{"ns", time.Nanosecond},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

// FromDuration builds a duration value. Whole milliseconds are written as
// "<n>ms", anything finer as "<n>ns", so that AsDuration reads it back exactly.
func FromDuration(d time.Duration) DynVal {
	if d%time.Millisecond == 0 {
		return New(fmt.Sprintf("%dms", d.Milliseconds()))
	}
	return New(fmt.Sprintf("%dns", d.Nanoseconds()))
}

// AsDuration parses a duration. A bare integer is a number of milliseconds.
// Otherwise the text is one or more numbers each followed by a unit, such as
// "1.5s", "10min", "100ms" or "1h30m". A leading sign applies to the whole
// duration, so "-1h30m" is minus ninety minutes.
func (obj DynVal) AsDuration() (time.Duration, error) {
	s := strings.TrimSpace(obj.s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	sign := time.Duration(1)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if s == "" {
		return 0, obj.conversionError("duration", fmt.Errorf("empty duration"))
	}

	var total time.Duration
	for s != "" {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 {
			return 0, obj.conversionError("duration", fmt.Errorf("expected a number at `%s`", s))
		}
		n, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, obj.conversionError("duration", err)
		}
		s = s[i:]

		found := false
		for _, u := range durationUnits {
			if !strings.HasPrefix(s, u.suffix) {
				continue
			}
			total += time.Duration(math.Floor(n * float64(u.unit)))
			s = s[len(u.suffix):]
			found = true
			break
		}
		if !found {
			return 0, obj.conversionError("duration", fmt.Errorf("must be a number of milliseconds, or a string like \"150ms\""))
		}
	}
	return sign * total, nil
}

// AsVec parses a bracketed list such as "[a, b, c]". Elements are split on
// commas that are not nested inside brackets, braces, parens or quotes, and a
// comma can be escaped with a backslash. Each element is trimmed, and an
// element that is a JSON string loses its quotes. The empty string is the
// empty list.
func (obj DynVal) AsVec() ([]string, error) {
	if obj.s == "" {
		return []string{}, nil
	}
	s := strings.TrimSpace(obj.s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") || len(s) < 2 {
		return nil, obj.conversionError("vec", nil)
	}
	content := s[1 : len(s)-1]
	if strings.TrimSpace(content) == "" {
		return []string{}, nil
	}

	items := []string{}
	var cur strings.Builder
	depth := 0
	var quote rune // zero when we're not inside of a quoted string
	escaped := false

	flush := func() {
		item := strings.TrimSpace(cur.String())
		if strings.HasPrefix(item, `"`) {
			var unquoted string
			if err := json.Unmarshal([]byte(item), &unquoted); err == nil {
				item = unquoted
			}
		}
		items = append(items, item)
		cur.Reset()
	}

	for _, c := range content {
		if escaped {
			if c != ',' || quote != 0 {
				cur.WriteRune('\\')
			}
			cur.WriteRune(c)
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			escaped = true
			continue
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '{' || c == '(':
			depth++
		case c == ']' || c == '}' || c == ')':
			depth--
			if depth < 0 {
				return nil, obj.conversionError("vec", fmt.Errorf("unbalanced `%c`", c))
			}
		case c == ',' && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(c)
	}
	if escaped {
		cur.WriteRune('\\')
	}
	if depth != 0 || quote != 0 {
		return nil, obj.conversionError("vec", fmt.Errorf("unterminated element"))
	}
	flush()
	return items, nil
}

// FromColor builds a color value in "#rrggbb" form, or "#rrggbbaa" if it's not
// fully opaque.
func FromColor(c color.RGBA) DynVal {
	if c.A == 0xff {
		return New(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}
	return New(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A))
}

// AsColor parses a color written as "#rgb", "#rrggbb", "#rrggbbaa",
// "rgb(r, g, b)" or "rgba(r, g, b, a)" where a is between zero and one.
func (obj DynVal) AsColor() (color.RGBA, error) {
	s := strings.ToLower(strings.TrimSpace(obj.s))

	if strings.HasPrefix(s, "#") {
		alpha := uint8(0xff)
		if len(s) == 9 {
			a, err := strconv.ParseUint(s[7:], 16, 8)
			if err != nil {
				return color.RGBA{}, obj.conversionError("color", err)
			}
			alpha = uint8(a)
			s = s[:7]
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return color.RGBA{}, obj.conversionError("color", err)
		}
		r, g, b := c.RGB255()
		return color.RGBA{R: r, G: g, B: b, A: alpha}, nil
	}

	var args string
	var hasAlpha bool
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args, hasAlpha = s[5:len(s)-1], true
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[4 : len(s)-1]
	default:
		return color.RGBA{}, obj.conversionError("color", nil)
	}

	parts := strings.Split(args, ",")
	if (hasAlpha && len(parts) != 4) || (!hasAlpha && len(parts) != 3) {
		return color.RGBA{}, obj.conversionError("color", fmt.Errorf("wrong number of components"))
	}
	rgb := [3]uint8{}
	for i := 0; i < 3; i++ {
		x, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return color.RGBA{}, obj.conversionError("color", err)
		}
		rgb[i] = uint8(x)
	}
	alpha := uint8(0xff)
	if hasAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.RGBA{}, obj.conversionError("color", fmt.Errorf("alpha must be between 0 and 1"))
		}
		alpha = uint8(math.Round(a * 0xff))
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
}
