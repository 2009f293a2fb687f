// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/mesh-lang/mesh/pkg/runtime/actor"
)

// RequestHandler is the user-supplied on_request closure (spec §4.8's
// "{on_request_closure, stream}" heap struct, flattened here to a plain
// Go function value).
type RequestHandler func(r *http.Request) (status int, headers http.Header, body []byte)

// HTTPServer is the actor-per-connection HTTP listener from spec §4.8: the
// listener actor accepts TCP sockets and spawns one connection actor per
// accepted socket, so a handler panic is caught at that connection's
// actor boundary and never takes down the listener.
type HTTPServer struct {
	sched   *actor.Scheduler
	handler RequestHandler
	log     *zap.Logger
}

// NewHTTPServer constructs a server whose connection actors run under sched.
func NewHTTPServer(sched *actor.Scheduler, handler RequestHandler, logger *zap.Logger) *HTTPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPServer{sched: sched, handler: handler, log: logger}
}

// ListenAndServe accepts connections on addr, spawning one actor per
// accepted socket (spec §4.8's listener-actor model). It blocks until the
// listener errors (e.g. on Close).
func (s *HTTPServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		s.sched.Spawn(func(p *actor.Process) {
			s.handleConnection(p, conn)
		})
	}
}

// handleConnection parses exactly one request per accepted connection
// (spec's description: "parses a request, invokes the handler closure,
// serializes the response"). A panic inside s.handler is caught by the
// actor scheduler's crash boundary; this connection is dropped and the
// listener keeps accepting (spec scenario 5).
func (s *HTTPServer) handleConnection(p *actor.Process, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	req, err := http.ReadRequest(reader)
	if err != nil {
		return
	}
	defer req.Body.Close()

	status, headers, body := s.handler(req)

	resp := http.Response{
		StatusCode: status,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     headers,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}

	if resp.Header == nil {
		resp.Header = http.Header{}
	}

	resp.ContentLength = int64(len(body))

	if err := resp.Write(conn); err != nil {
		s.log.Debug("failed writing HTTP response", zap.Error(err))
	}
}

