// Copyright Mesh Language Contributors
//
// SPDX-License-Identifier: Apache-2.0
package net

import (
	"crypto/tls"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mesh-lang/mesh/pkg/runtime/actor"
)

// Handlers are the three user-supplied callbacks a Mesh program registers
// for a WebSocket server, matching the on_connect/on_msg/on_close triple
// of the mesh_ws_serve_tls ABI entry point (spec §6). Each closure may
// carry its own env (nil for a bare function pointer), but from Go's side
// they're just ordinary function values.
type Handlers struct {
	OnConnect func(conn *Conn)
	OnMessage func(conn *Conn, msg *Message)
	OnClose   func(conn *Conn, code int, reason string)
}

// Conn is the server-visible handle for one live WebSocket connection: its
// Stream, its owning actor (spawned per spec §4.8's actor-per-connection
// model), and a ws_send method actor code calls to push a message out.
type Conn struct {
	stream *Stream
	pid    actor.ID
	sched  *actor.Scheduler
}

// Send writes a Text frame to the client (the codegen-visible ws_send
// intrinsic's runtime side).
func (c *Conn) Send(payload []byte) error {
	return c.stream.WriteFrame(&Frame{FIN: true, Opcode: OpText, Payload: payload})
}

// Options configures a Server's TLS, heartbeat, and read-timeout behavior.
// Fields default per spec §3/§4.8; ReadTimeout resolves Open-Question-5 by
// making the 5 s worst-case send latency a constructor parameter instead
// of a hard-coded constant.
type Options struct {
	Port         int
	CertPath     string
	KeyPath      string
	PingInterval time.Duration
	PongTimeout  time.Duration
	ReadTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PingInterval == 0 {
		o.PingInterval = DefaultPingInterval
	}

	if o.PongTimeout == 0 {
		o.PongTimeout = DefaultPongTimeout
	}

	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaultReadTimeout
	}

	return o
}

// Server is the WebSocket runtime described by spec §4.8: it serves
// mesh_ws_serve_tls, upgrading plain HTTP connections (via gorilla's
// Upgrader, for a correct Sec-WebSocket-Accept handshake) and then
// switching to the hand-rolled frame codec for everything after the
// 101 response.
type Server struct {
	opts     Options
	handlers Handlers
	sched    *actor.Scheduler
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewServer constructs a WebSocket server; sched is the actor runtime
// that owns connection-actor lifecycle (spec's "connection actor" per the
// HTTP/WebSocket server sections).
func NewServer(sched *actor.Scheduler, opts Options, handlers Handlers, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		opts:     opts.withDefaults(),
		handlers: handlers,
		sched:    sched,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      logger,
	}
}

// ServeHTTP implements the upgrade handshake, then detaches from gorilla's
// connection object entirely: everything past this point is owned by the
// hand-rolled frame/heartbeat/fragment state machine (spec §4.8).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	raw := wsConn.UnderlyingConn()

	var stream *Stream
	if _, ok := raw.(*tls.Conn); ok {
		stream = NewTLSStream(raw)
	} else {
		stream = NewPlainStream(raw)
	}

	// From here, gorilla's *websocket.Conn is never touched again: the
	// hand-rolled frame codec owns raw for the rest of the connection's
	// life.
	pid := s.sched.Spawn(func(p *actor.Process) {
		s.runConnection(p, stream)
	})

	conn := &Conn{stream: stream, pid: pid, sched: s.sched}
	if s.handlers.OnConnect != nil {
		s.handlers.OnConnect(conn)
	}
}

// ListenAndServeTLS starts the server listening with TLS, matching the
// mesh_ws_serve_tls ABI signature's intent (spec §6). Per spec §4.8, read
// timeouts are set on the raw TCP socket before the TLS handshake, since
// they cannot be adjusted cleanly afterward through a tls.Conn.
func (s *Server) ListenAndServeTLS(certPath, keyPath string) error {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addrFromPort(s.opts.Port))
	if err != nil {
		return err
	}

	tlsLn := tls.NewListener(&deadlineListener{Listener: ln, timeout: s.opts.ReadTimeout}, &tls.Config{
		Certificates: []tls.Certificate{cert},
	})

	mux := http.NewServeMux()
	mux.Handle("/", s)

	return http.Serve(tlsLn, mux)
}

// deadlineListener sets a read deadline on every accepted connection
// before handing it to the TLS listener, so the spec's "read timeouts are
// set on the underlying TCP socket before TLS wrapping" ordering holds.
type deadlineListener struct {
	net.Listener
	timeout time.Duration
}

func (l *deadlineListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	if l.timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(l.timeout))
	}

	return conn, nil
}

func addrFromPort(port int) string {
	return ":" + strconv.Itoa(port)
}
