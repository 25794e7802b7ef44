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

package transport

import (
	"fmt"
	"net"
	"sync"
)

// inprocListener is a same-process stand-in for a bound network socket. Dial
// and Accept rendezvous through a registry keyed by name and hand each other
// the two ends of a net.Pipe, so the rest of the package never has to treat
// in-process peers differently from real ones.
type inprocListener struct {
	accept chan net.Conn
	done   chan struct{}
	once   sync.Once
	name   string
}

var (
	inprocMu   sync.Mutex
	inprocRegs = map[string]*inprocListener{}
)

func newInprocListener(name string) (*inprocListener, error) {
	inprocMu.Lock()
	defer inprocMu.Unlock()
	if _, exists := inprocRegs[name]; exists {
		return nil, fmt.Errorf("inproc endpoint %q already bound", name)
	}
	l := &inprocListener{
		accept: make(chan net.Conn),
		done:   make(chan struct{}),
		name:   name,
	}
	inprocRegs[name] = l
	return l, nil
}

func (l *inprocListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.accept:
		return c, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *inprocListener) Close() error {
	l.once.Do(func() {
		inprocMu.Lock()
		delete(inprocRegs, l.name)
		inprocMu.Unlock()
		close(l.done)
	})
	return nil
}

func dialInproc(name string) (net.Conn, error) {
	inprocMu.Lock()
	l, ok := inprocRegs[name]
	inprocMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no inproc listener bound at %q", name)
	}
	client, server := net.Pipe()
	select {
	case l.accept <- server:
		return client, nil
	case <-l.done:
		client.Close()
		server.Close()
		return nil, fmt.Errorf("inproc listener %q is closed", name)
	}
}
