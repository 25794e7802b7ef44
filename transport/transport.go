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

// Package transport realizes the abstract "multipart message transport with
// per-client routing tokens" described by §4.3.3 and §4.4 of the
// specification. The real message-socket library (a ROUTER/DEALER pair) is
// an external collaborator out of scope for re-specification; this package
// stands in for it using plain net.Conn, a length-prefixed multipart frame
// codec (package wire), and an in-memory "inproc" transport for tests and
// same-process clients.
package transport

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/creachadair/taskgroup"
)

// TokenSize is the width in bytes of a routing token.
const TokenSize = 8

// A Token identifies a client connection at the transport level, standing in
// for a ROUTER socket's peer-identity frame. It travels as the Route of every
// inbound Envelope, separate from its Frames, and must be passed back as the
// route of every reply; it is never written to the client on the wire.
type Token [TokenSize]byte

// String renders t as lowercase hex, for logging.
func (t Token) String() string { return hex.EncodeToString(t[:]) }

// An Envelope is one inbound multipart message together with the routing
// token of the connection it arrived on.
type Envelope struct {
	Route  Token
	Frames [][]byte
}

// rawListener is the common surface of net.Listener and the in-process
// listener, letting Listener treat both uniformly.
type rawListener interface {
	Accept() (net.Conn, error)
	Close() error
}

// Listener accepts client connections on a bound endpoint, assigns each a
// routing token, and delivers their messages on a single channel for an
// actor's event loop to multiplex alongside its control channel.
type Listener struct {
	raw      rawListener
	endpoint string
	inbound  chan Envelope

	group *taskgroup.Group
	run   func(func() error) bool

	mu    sync.RWMutex
	conns map[Token]net.Conn
	seq   uint64

	closeOnce sync.Once
}

// Listen binds a Listener to endpoint, which must have one of the schemes
// "tcp://", "unix://", "ipc://", or "inproc://". Only one Listener may be
// bound to a given endpoint at a time (§9: rebind is undefined; here a
// second Listen on the same endpoint fails).
func Listen(endpoint string) (*Listener, error) {
	scheme, addr, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	var raw rawListener
	switch scheme {
	case "tcp":
		raw, err = net.Listen("tcp", addr)
	case "unix", "ipc":
		raw, err = net.Listen("unix", strings.TrimPrefix(addr, "@"))
	case "inproc":
		raw, err = newInprocListener(addr)
	default:
		return nil, fmt.Errorf("transport: unknown scheme %q", scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", endpoint, err)
	}

	group, run := taskgroup.New(nil).Limit(1024)
	l := &Listener{
		raw:      raw,
		endpoint: endpoint,
		inbound:  make(chan Envelope, 64),
		group:    group,
		run:      run,
		conns:    make(map[Token]net.Conn),
	}
	run(l.acceptLoop)
	return l, nil
}

// Endpoint returns the endpoint the listener was bound to.
func (l *Listener) Endpoint() string { return l.endpoint }

// Inbound returns the channel of messages received from any connected
// client. An actor's event loop selects on this alongside its control
// channel.
func (l *Listener) Inbound() <-chan Envelope { return l.inbound }

// Send writes frames as a reply addressed to route. It fails if route is not
// a currently connected client.
func (l *Listener) Send(route Token, frames ...[]byte) error {
	l.mu.RLock()
	conn, ok := l.conns[route]
	l.mu.RUnlock()
	if !ok {
		return fmt.Errorf("transport: unknown route %s", route)
	}
	return writeMessage(conn, frames...)
}

// Close stops accepting new connections, closes all connected clients, and
// waits for their reader goroutines to exit.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.raw.Close()
		l.mu.Lock()
		for _, c := range l.conns {
			c.Close()
		}
		l.mu.Unlock()
		l.group.Wait()
		close(l.inbound)
	})
	return err
}

func (l *Listener) acceptLoop() error {
	for {
		conn, err := l.raw.Accept()
		if err != nil {
			return nil // listener closed
		}
		token := l.nextToken()
		l.mu.Lock()
		l.conns[token] = conn
		l.mu.Unlock()
		l.run(func() error {
			l.handleConn(token, conn)
			return nil
		})
	}
}

func (l *Listener) handleConn(token Token, conn net.Conn) {
	defer func() {
		l.mu.Lock()
		delete(l.conns, token)
		l.mu.Unlock()
		conn.Close()
	}()
	for {
		frames, err := readMessage(conn)
		if err != nil {
			return
		}
		// inbound is only closed after every handleConn goroutine has
		// returned (see Close), so this send is always to a live channel.
		l.inbound <- Envelope{Route: token, Frames: frames}
	}
}

func (l *Listener) nextToken() Token {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	buf := make([]byte, 8, 8+len(l.endpoint))
	for i := 0; i < 8; i++ {
		buf[i] = byte(seq >> (8 * i))
	}
	buf = append(buf, l.endpoint...)

	var tok Token
	h := xxhash.Sum64(buf)
	for i := 0; i < TokenSize; i++ {
		tok[i] = byte(h >> (8 * i))
	}
	return tok
}

// Conn is a client-side connection to a Listener, used by data-channel
// clients (and by tests standing in for a dealer socket).
type Conn struct {
	raw net.Conn
}

// Dial connects to endpoint as a client.
func Dial(endpoint string) (*Conn, error) {
	scheme, addr, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	var raw net.Conn
	switch scheme {
	case "tcp":
		raw, err = net.Dial("tcp", addr)
	case "unix", "ipc":
		raw, err = net.Dial("unix", strings.TrimPrefix(addr, "@"))
	case "inproc":
		raw, err = dialInproc(addr)
	default:
		return nil, fmt.Errorf("transport: unknown scheme %q", scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}
	return &Conn{raw: raw}, nil
}

// Send writes frames as one multipart message.
func (c *Conn) Send(frames ...[]byte) error { return writeMessage(c.raw, frames...) }

// Recv reads the next multipart message.
func (c *Conn) Recv() ([][]byte, error) { return readMessage(c.raw) }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }

func splitEndpoint(endpoint string) (scheme, addr string, err error) {
	scheme, addr, ok := strings.Cut(endpoint, "://")
	if !ok {
		return "", "", fmt.Errorf("transport: malformed endpoint %q", endpoint)
	}
	return scheme, addr, nil
}
