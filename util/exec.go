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
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/purpleidea/barstate/util/errwrap"
)

// DefaultShell is the shell used to run script commands.
const DefaultShell = "/bin/sh"

// ShellCmdOpts is a list of extra things to pass into the Shell* functions.
type ShellCmdOpts struct {
	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used. Stderr of the command is sent
	// here line by line.
	Logf func(format string, v ...interface{})

	// Shell overrides DefaultShell if set.
	Shell string

	// WaitDelay bounds how long we wait for the process to exit after the
	// context is cancelled.
	WaitDelay time.Duration
}

func (obj *ShellCmdOpts) command(ctx context.Context, command string) *exec.Cmd {
	shell := DefaultShell
	if obj != nil && obj.Shell != "" {
		shell = obj.Shell
	}
	cmd := exec.CommandContext(ctx, shell, "-c", command)

	// ignore signals sent to parent process (we're in our own group)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
	// kill the whole group so that pipelines in the script die too
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second
	if obj != nil && obj.WaitDelay > 0 {
		cmd.WaitDelay = obj.WaitDelay
	}

	if obj != nil && obj.Logf != nil {
		cmd.Stderr = &LogWriter{
			Prefix: "stderr: ",
			Logf:   obj.Logf,
		}
	}
	return cmd
}

// ShellCmd runs a command with the shell and returns what it wrote to stdout,
// minus a single trailing newline.
func ShellCmd(ctx context.Context, command string, opts *ShellCmdOpts) (string, error) {
	cmd := opts.command(ctx, command)

	var b bytes.Buffer
	cmd.Stdout = &b

	if opts != nil && opts.Debug && opts.Logf != nil {
		opts.Logf("running: %s", command)
	}
	err := cmd.Run()
	if w, ok := cmd.Stderr.(*LogWriter); ok {
		w.Flush()
	}
	if err != nil {
		return "", errwrap.Wrapf(err, "cmd `%s` failed", command)
	}
	return TrimOneNewline(b.String()), nil
}

// ShellPipe starts a long running command with the shell and returns a reader
// for its stdout. The caller must read until EOF and then call Wait on the
// returned command. Cancelling the context kills the process group.
func ShellPipe(ctx context.Context, command string, opts *ShellCmdOpts) (*exec.Cmd, io.Reader, error) {
	cmd := opts.command(ctx, command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "can't get stdout of `%s`", command)
	}
	if opts != nil && opts.Debug && opts.Logf != nil {
		opts.Logf("starting: %s", command)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, errwrap.Wrapf(err, "error starting cmd `%s`", command)
	}
	return cmd, stdout, nil
}
