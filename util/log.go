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

package util

import (
	"bytes"
	"sync"
)

// LogWriter is a simple interface that wraps our logf interface. Output is
// buffered until a full line is seen, so that each log entry is one line.
type LogWriter struct {
	Prefix string
	Logf   func(format string, v ...interface{})

	mutex sync.Mutex
	buf   bytes.Buffer
}

// Write satisfies the io.Writer interface.
func (obj *LogWriter) Write(p []byte) (n int, err error) {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	obj.buf.Write(p)
	for {
		line, err := obj.buf.ReadString('\n')
		if err != nil { // partial line, put it back
			obj.buf.Reset()
			obj.buf.WriteString(line)
			break
		}
		obj.Logf("%s%s", obj.Prefix, TrimOneNewline(line))
	}
	return len(p), nil
}

// Flush logs any remaining partial line.
func (obj *LogWriter) Flush() {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	if obj.buf.Len() == 0 {
		return
	}
	obj.Logf("%s%s", obj.Prefix, obj.buf.String())
	obj.buf.Reset()
}
