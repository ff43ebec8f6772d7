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

package coredatetime

import (
	"fmt"
	"strings"
	"time"
)

// Strftime formats a time with the classic C style directives. Unknown
// directives are an error, and a trailing % is kept as is.
func Strftime(t time.Time, format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		d := format[i]
		if d == ':' && i+1 < len(format) && format[i+1] == 'z' {
			i++
			b.WriteString(t.Format("-07:00"))
			continue
		}
		s, err := directive(t, d)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func directive(t time.Time, d byte) (string, error) {
	switch d {
	case 'Y':
		return fmt.Sprintf("%d", t.Year()), nil
	case 'C':
		return fmt.Sprintf("%02d", t.Year()/100), nil
	case 'y':
		return fmt.Sprintf("%02d", t.Year()%100), nil
	case 'm':
		return fmt.Sprintf("%02d", int(t.Month())), nil
	case 'b', 'h':
		return t.Month().String()[:3], nil
	case 'B':
		return t.Month().String(), nil
	case 'd':
		return fmt.Sprintf("%02d", t.Day()), nil
	case 'e':
		return fmt.Sprintf("%2d", t.Day()), nil
	case 'j':
		return fmt.Sprintf("%03d", t.YearDay()), nil
	case 'a':
		return t.Weekday().String()[:3], nil
	case 'A':
		return t.Weekday().String(), nil
	case 'u':
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return fmt.Sprintf("%d", wd), nil
	case 'w':
		return fmt.Sprintf("%d", int(t.Weekday())), nil
	case 'H':
		return fmt.Sprintf("%02d", t.Hour()), nil
	case 'k':
		return fmt.Sprintf("%2d", t.Hour()), nil
	case 'I':
		return fmt.Sprintf("%02d", hour12(t)), nil
	case 'l':
		return fmt.Sprintf("%2d", hour12(t)), nil
	case 'p':
		if t.Hour() < 12 {
			return "AM", nil
		}
		return "PM", nil
	case 'P':
		if t.Hour() < 12 {
			return "am", nil
		}
		return "pm", nil
	case 'M':
		return fmt.Sprintf("%02d", t.Minute()), nil
	case 'S':
		return fmt.Sprintf("%02d", t.Second()), nil
	case 's':
		return fmt.Sprintf("%d", t.Unix()), nil
	case 'Z':
		name, _ := t.Zone()
		return name, nil
	case 'z':
		return t.Format("-0700"), nil
	case 'F':
		return t.Format("2006-01-02"), nil
	case 'T':
		return t.Format("15:04:05"), nil
	case 'R':
		return t.Format("15:04"), nil
	case 'D':
		return t.Format("01/02/06"), nil
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case '%':
		return "%", nil
	}
	return "", fmt.Errorf("unknown time format directive %%%c", d)
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}
