// Copyright 2026 The Zenstore Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package actor implements the single-threaded control/data event loop
// described by §4.3 and §4.4 of the specification: one goroutine owns a
// store.Store outright and serializes every read, write, and persistence
// operation against it by multiplexing a control channel with a transport
// Listener's inbound data channel in one select loop. Nothing outside this
// loop ever touches the store directly, so store.Store's lack of internal
// locking is safe.
package actor

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zenstore/zenstore/store"
	"github.com/zenstore/zenstore/transport"
)

// State is a position in the actor's lifecycle (§4.3.1).
type State int

const (
	// Created is the state of a fresh actor before any control command has
	// been processed.
	Created State = iota
	// Configured is entered on the first VERBOSE, BIND, DIR, FILE, or
	// PASSWORD command and left by START, STOP, or $TERM.
	Configured
	// Running is entered by START and left by STOP or $TERM.
	Running
	// Stopped is entered by STOP; the actor may be reconfigured and started
	// again.
	Stopped
	// Destroyed is terminal, entered by $TERM.
	Destroyed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// CommandKind names a control-channel verb (§4.3.2).
type CommandKind int

const (
	CmdVerbose CommandKind = iota
	CmdBind
	CmdDir
	CmdFile
	CmdPassword
	CmdStart
	CmdStop
	CmdTerm
)

// A Command is one control-channel instruction. Done, if non-nil, receives
// the outcome of handling the command and is closed afterward; a caller that
// wants synchronous confirmation sends a buffered channel of capacity 1.
type Command struct {
	Kind CommandKind
	Arg  string
	Done chan error
}

func reply(c Command, err error) {
	if c.Done == nil {
		return
	}
	c.Done <- err
	close(c.Done)
}

// Actor owns a store.Store and drives it from a single goroutine in
// response to control commands and data-channel requests.
type Actor struct {
	st      *store.Store
	ctrl    chan Command
	key     store.Key
	hasKey  bool
	verbose bool
	state   State
	logger  *log.Logger

	listener *transport.Listener
}

// New creates an actor in the Created state, wrapping a fresh store.Store.
func New(logger *log.Logger) *Actor {
	if logger == nil {
		logger = log.Default()
	}
	return &Actor{
		st:     store.New(),
		ctrl:   make(chan Command, 16),
		state:  Created,
		logger: logger,
	}
}

// Control returns the channel on which callers send commands. It is safe to
// send from any goroutine; commands are processed strictly in send order.
func (a *Actor) Control() chan<- Command { return a.ctrl }

// State reports the actor's current lifecycle state. It is meant for tests
// and diagnostics; callers driving the actor should rely on Command.Done
// rather than polling State.
func (a *Actor) State() State { return a.state }

// Run drives the event loop until a $TERM command is processed or ctx is
// canceled. A cancellation is an external interruption (§5): the loop exits
// immediately without an implicit save, matching the fate of the control
// process that owns it.
func (a *Actor) Run(ctx context.Context) error {
	for {
		var inbound <-chan transport.Envelope
		if a.listener != nil {
			inbound = a.listener.Inbound()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-a.ctrl:
			done, err := a.dispatchControl(cmd)
			reply(cmd, err)
			if done {
				return nil
			}
		case env, ok := <-inbound:
			if !ok {
				a.listener = nil
				continue
			}
			a.dispatchData(env)
		}
	}
}

// dispatchControl applies one control command and reports whether the actor
// has reached Destroyed and Run should return.
func (a *Actor) dispatchControl(cmd Command) (terminated bool, err error) {
	a.tracef("dispatch control %d(%q)", cmd.Kind, cmd.Arg)
	switch cmd.Kind {
	case CmdVerbose:
		a.verbose = true
		a.advance(Configured)

	case CmdBind:
		if a.listener != nil {
			a.listener.Close()
		}
		l, lerr := transport.Listen(cmd.Arg)
		if lerr != nil {
			return false, fmt.Errorf("bind %q: %w", cmd.Arg, lerr)
		}
		a.listener = l
		a.advance(Configured)

	case CmdDir:
		a.st.SetDir(cmd.Arg)
		a.advance(Configured)

	case CmdFile:
		a.st.SetFile(cmd.Arg)
		a.advance(Configured)

	case CmdPassword:
		a.key = derivePasswordKey(cmd.Arg)
		a.hasKey = true
		a.advance(Configured)

	case CmdStart:
		if !a.hasKey {
			return false, fmt.Errorf("cannot start: no password set")
		}
		a.state = Running
		if lerr := a.st.Load(a.key); lerr != nil {
			// A missing or not-yet-written file is expected on first run. Every
			// load failure, that one included as well as bad auth, bad
			// permissions, or a corrupt container, is logged but does not stop
			// the actor from accepting commands, per the load-failure handling
			// carried over from the reference implementation's behavior.
			a.errorf("load failed, starting with an empty store: %v", lerr)
		}

	case CmdStop:
		if serr := a.saveIfConfigured(); serr != nil {
			a.errorf("save on stop failed: %v", serr)
			return false, serr
		}
		a.state = Stopped

	case CmdTerm:
		if serr := a.saveIfConfigured(); serr != nil {
			a.errorf("save on terminate failed: %v", serr)
		}
		if a.listener != nil {
			a.listener.Close()
			a.listener = nil
		}
		a.st.Close()
		a.hasKey = false
		a.state = Destroyed
		return true, nil

	default:
		return false, fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
	return false, nil
}

// dispatchData answers one data-channel request (§4.3.3). GET replies with
// the key and its value if present, or just the key if absent. PUT stores or
// deletes and sends no reply.
func (a *Actor) dispatchData(env transport.Envelope) {
	if len(env.Frames) < 2 {
		a.errorf("malformed request from %s: %d frames", env.Route, len(env.Frames))
		return
	}
	verb, key := string(env.Frames[0]), string(env.Frames[1])
	a.tracef("dispatch data %s %q from %s", verb, key, env.Route)
	switch verb {
	case "GET":
		out := [][]byte{[]byte("GET"), []byte(key)}
		if v, ok := a.st.Get(key); ok {
			out = append(out, v)
		}
		if err := a.listener.Send(env.Route, out...); err != nil {
			a.errorf("reply to %s failed: %v", env.Route, err)
		}

	case "PUT":
		var value []byte
		if len(env.Frames) >= 3 {
			value = env.Frames[2]
		}
		a.st.Put(key, value)

	default:
		a.errorf("unknown data verb %q from %s", verb, env.Route)
	}
}

// saveIfConfigured persists the store if a password and a save location have
// both been set; a STOP or $TERM received before either is configured is a
// no-op rather than an error.
func (a *Actor) saveIfConfigured() error {
	if !a.hasKey {
		return nil
	}
	if err := a.st.Save(a.key); err != nil {
		if errors.Is(err, store.ErrConfigMissing) {
			return nil
		}
		return err
	}
	return nil
}

func (a *Actor) advance(s State) {
	if a.state == Created || a.state == Stopped {
		a.state = s
	}
}

// errorf logs an operational failure unconditionally, regardless of the
// VERBOSE setting: a failed load, save, reply, or malformed request is worth
// surfacing by default, the way the reference implementation's zsys_error
// fires unconditionally.
func (a *Actor) errorf(format string, args ...any) {
	a.logger.Printf(format, args...)
}

// tracef logs dispatch of a command or request, gated behind VERBOSE; this
// is the zsys_debug-style tracing the reference implementation only emits
// when verbose mode is on.
func (a *Actor) tracef(format string, args ...any) {
	if a.verbose {
		a.logger.Printf(format, args...)
	}
}

// derivePasswordKey maps an operator-supplied passphrase onto the fixed key
// width secretbox requires: short passphrases are zero-padded, long ones are
// truncated. This mirrors the reference implementation's fixed-width
// password buffer rather than running the phrase through a KDF, which is
// outside this package's scope.
func derivePasswordKey(password string) store.Key {
	var k store.Key
	copy(k[:], password)
	return k
}
