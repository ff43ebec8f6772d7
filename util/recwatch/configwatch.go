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

// Package recwatch provides file watching events via fsnotify.
package recwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/purpleidea/barstate/util/errwrap"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a burst of events must be quiet before it's sent.
const DefaultSettle = 100 * time.Millisecond

// ConfigWatcher returns events on a channel anytime one of its files changes.
// The directory of each file is watched, so that editors that replace the file
// instead of writing to it are seen too. Run Init() on it.
type ConfigWatcher struct {
	// Settle is how long to wait for more events before sending one. If
	// zero, DefaultSettle is used.
	Settle time.Duration

	Debug bool
	Logf  func(format string, v ...interface{})

	watcher *fsnotify.Watcher
	files   map[string]struct{} // cleaned paths
	mutex   sync.Mutex

	ch        chan string
	errorchan chan error
	closechan chan struct{}
	wg        sync.WaitGroup
}

// Init starts the watcher.
func (obj *ConfigWatcher) Init() error {
	if obj.Settle == 0 {
		obj.Settle = DefaultSettle
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errwrap.Wrapf(err, "can't make watcher")
	}
	obj.watcher = watcher
	obj.files = make(map[string]struct{})
	obj.ch = make(chan string)
	obj.errorchan = make(chan error, 1)
	obj.closechan = make(chan struct{})

	obj.wg.Add(1)
	go func() {
		defer obj.wg.Done()
		obj.run()
	}()
	return nil
}

// Add new file paths to watch for events on.
func (obj *ConfigWatcher) Add(file ...string) error {
	for _, f := range file {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		if err := obj.watcher.Add(filepath.Dir(abs)); err != nil {
			return errwrap.Wrapf(err, "can't watch %s", f)
		}
		obj.mutex.Lock()
		obj.files[abs] = struct{}{}
		obj.mutex.Unlock()
		if obj.Debug && obj.Logf != nil {
			obj.Logf("watching: %s", abs)
		}
	}
	return nil
}

func (obj *ConfigWatcher) wanted(name string) bool {
	obj.mutex.Lock()
	defer obj.mutex.Unlock()
	_, exists := obj.files[filepath.Clean(name)]
	return exists
}

func (obj *ConfigWatcher) run() {
	defer close(obj.ch)
	pending := make(map[string]struct{})
	timer := time.NewTimer(obj.Settle)
	timer.Stop()

	for {
		select {
		case event, ok := <-obj.watcher.Events:
			if !ok {
				return
			}
			if !obj.wanted(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue // chmod
			}
			if obj.Debug && obj.Logf != nil {
				obj.Logf("event: %s", event)
			}
			pending[filepath.Clean(event.Name)] = struct{}{}
			timer.Reset(obj.Settle)

		case err, ok := <-obj.watcher.Errors:
			if !ok {
				return
			}
			select {
			case obj.errorchan <- err:
			default: // one is enough
			}
			return

		case <-timer.C:
			for name := range pending {
				select {
				case obj.ch <- name:
				case <-obj.closechan:
					return
				}
			}
			pending = make(map[string]struct{})

		case <-obj.closechan:
			return
		}
	}
}

// Error returns a channel of errors that notifies us of permanent issues.
func (obj *ConfigWatcher) Error() <-chan error {
	return obj.errorchan
}

// Events returns a channel to listen on for file events. It closes after the
// Close() method is called.
func (obj *ConfigWatcher) Events() <-chan string {
	return obj.ch
}

// Close shuts down the ConfigWatcher object.
func (obj *ConfigWatcher) Close() error {
	close(obj.closechan)
	obj.wg.Wait()
	return obj.watcher.Close()
}

// Watch sends on the returned channel every time that file changes, until the
// context closes. It's a convenience wrapper for a single file.
func Watch(ctx context.Context, file string, logf func(format string, v ...interface{})) (<-chan struct{}, error) {
	obj := &ConfigWatcher{Logf: logf}
	if err := obj.Init(); err != nil {
		return nil, err
	}
	if err := obj.Add(file); err != nil {
		obj.Close()
		return nil, err
	}
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		defer obj.Close()
		for {
			select {
			case _, ok := <-obj.Events():
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				case <-ctx.Done():
					return
				}
			case err := <-obj.Error():
				if logf != nil {
					logf("watch error: %+v", err)
				}
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}
