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

package event

import (
	"errors"
	"testing"
)

func TestResp0(t *testing.T) {
	resp := NewResp()
	cmd := &CloseAll{Base: Base{Resp: resp}}
	cmd.ACKNACK(nil) // must not block
	if err := resp.Wait(); err != nil {
		t.Errorf("expected an ACK, got: %+v", err)
	}

	boom := errors.New("boom")
	cmd.ACKNACK(boom)
	if err := resp.Wait(); err != boom {
		t.Errorf("expected our NACK, got: %+v", err)
	}

	resp.NACK()
	if err := resp.Wait(); err == nil {
		t.Errorf("expected a NACK")
	}
}

func TestNilResp(t *testing.T) {
	cmd := &Stop{}
	cmd.ACKNACK(nil) // nobody asked, so nothing is sent
	var resp Resp
	resp.ACK()
}

func TestKinds(t *testing.T) {
	cmds := []Command{
		&UpdateVars{}, &UpdateValue{}, &RemoveScope{}, &OpenWindow{},
		&CloseWindow{}, &CloseAll{}, &ReloadConfig{}, &PrintState{},
		&PrintGraph{}, &Stop{},
	}
	seen := make(map[Kind]bool)
	for _, cmd := range cmds {
		k := cmd.Kind()
		if seen[k] {
			t.Errorf("duplicate kind: %s", k)
		}
		seen[k] = true
		if _, exists := kindStrings[k]; !exists {
			t.Errorf("kind %d has no name", int(k))
		}
	}
	if s := Kind(99).String(); s != "Kind(99)" {
		t.Errorf("unexpected name: %s", s)
	}
}
