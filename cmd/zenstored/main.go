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

// Program zenstored serves a password-protected, file-backed key/value
// store over a multipart message socket.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/creachadair/ctrl"
	"golang.org/x/term"

	"github.com/zenstore/zenstore/actor"
)

var (
	endpoint = flag.String("endpoint", "ipc://@/zenstore", "Data socket endpoint")
	storeDir = flag.String("store", "", "Path to the store file (required)")
	verbose  = flag.Bool("verbose", false, "Enable verbose logging")
)

func init() {
	flag.StringVar(endpoint, "e", *endpoint, "Shorthand for -endpoint")
	flag.StringVar(storeDir, "s", *storeDir, "Shorthand for -store")
	flag.BoolVar(verbose, "v", *verbose, "Shorthand for -verbose")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: %[1]s -store <path> [options]

Start a password-protected key/value store, reachable over a multipart
message socket bound at -endpoint. The store file is created on first save
and must not already exist with any permissions other than 0600.

Options:
`, filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctrl.Run(func() error {
		if *storeDir == "" {
			ctrl.Exitf(1, "You must provide a non-empty -store path")
		}

		password, err := readPassword()
		if err != nil {
			ctrl.Fatalf("Reading password: %v", err)
		}

		logger := log.New(os.Stderr, "[zenstored] ", log.LstdFlags)
		a := actor.New(logger)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- a.Run(ctx) }()

		ctl := a.Control()
		dir, file := filepath.Dir(*storeDir), filepath.Base(*storeDir)
		if err := sendCommand(ctl, actor.CmdDir, dir); err != nil {
			return err
		}
		if err := sendCommand(ctl, actor.CmdFile, file); err != nil {
			return err
		}
		if err := sendCommand(ctl, actor.CmdPassword, password); err != nil {
			return err
		}
		if *verbose {
			if err := sendCommand(ctl, actor.CmdVerbose, ""); err != nil {
				return err
			}
		}
		if err := sendCommand(ctl, actor.CmdBind, *endpoint); err != nil {
			return err
		}
		if err := sendCommand(ctl, actor.CmdStart, ""); err != nil {
			return err
		}
		log.Printf("Listening on %s, store %s", *endpoint, *storeDir)

		sig := make(chan os.Signal, 2)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			s, ok := <-sig
			if ok {
				log.Printf("Received signal: %v, terminating", s)
				sendCommand(ctl, actor.CmdTerm, "")
				signal.Reset(syscall.SIGINT, syscall.SIGTERM)
			}
		}()

		return <-done
	})
}

func sendCommand(ctl chan<- actor.Command, kind actor.CommandKind, arg string) error {
	done := make(chan error, 1)
	ctl <- actor.Command{Kind: kind, Arg: arg, Done: done}
	return <-done
}

func readPassword() (string, error) {
	io.WriteString(os.Stdout, "Passphrase: ")
	bits, err := term.ReadPassword(int(os.Stdin.Fd()))
	io.WriteString(os.Stdout, "\n")
	if err != nil {
		return "", err
	}
	return string(bits), nil
}
