package irweb

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/kwkoo/irremote"
)

// Defaults for the connection lifecycle.
const (
	DefaultTimeout        = 2000 * time.Millisecond
	DefaultMaxHeaderBytes = 4096

	acceptBackoff = 100 * time.Millisecond
)

// responseHeader is written for every completed header block.
const responseHeader = "HTTP/1.1 200 OK\r\n" +
	"Content-type: text/html\r\n" +
	"Connection: close\r\n" +
	"\r\n"

var (
	connectionsTotal = metrics.NewCounter("irremote_connections_total")
	timeoutsTotal    = metrics.NewCounter("irremote_connection_timeouts_total")
	overflowsTotal   = metrics.NewCounter("irremote_header_overflows_total")
	pagesTotal       = metrics.NewCounter("irremote_pages_served_total")
	commandsTotal    = metrics.NewCounter("irremote_commands_routed_total")
)

// Dispatcher receives routed commands. *irremote.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(cmd irremote.Command)
}

// sessionState tracks a connection through its lifecycle.
type sessionState int

const (
	stateAccepted sessionState = iota
	stateReading
	stateCommandDispatched
	statePageServed
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateAccepted:
		return "accepted"
	case stateReading:
		return "reading"
	case stateCommandDispatched:
		return "command dispatched"
	case statePageServed:
		return "page served"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// session holds everything belonging to one accepted connection. A fresh
// session is built per connection and dropped when it closes.
type session struct {
	conn         net.Conn
	reader       *bufio.Reader
	acc          *Accumulator
	started      time.Time
	lastActivity time.Time
	state        sessionState
}

func newSession(conn net.Conn, maxHeaderBytes int) *session {
	now := time.Now()
	return &session{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		acc:          NewAccumulator(maxHeaderBytes),
		started:      now,
		lastActivity: now,
		state:        stateAccepted,
	}
}

// close ends the session. The header buffer does not outlive it.
func (sess *session) close() {
	sess.acc.Reset()
	sess.state = stateClosed
	sess.conn.Close()
}

// Server accepts one connection at a time, reads its header block and
// either dispatches a command or serves the control panel.
type Server struct {
	router         *Router
	dispatcher     Dispatcher
	page           []byte
	timeout        time.Duration
	maxHeaderBytes int
}

// NewServer instantiates a Server with the default timeout and header cap.
func NewServer(router *Router, dispatcher Dispatcher, page []byte) *Server {
	return &Server{
		router:         router,
		dispatcher:     dispatcher,
		page:           page,
		timeout:        DefaultTimeout,
		maxHeaderBytes: DefaultMaxHeaderBytes,
	}
}

// WithTimeout sets how long a connection may take from accept to the end of
// its header block, and how long writing the response may take after that.
// A timeout of 0 disables both.
func (s *Server) WithTimeout(d time.Duration) *Server {
	s.timeout = d
	return s
}

// WithMaxHeaderBytes caps the header block. 0 removes the cap.
func (s *Server) WithMaxHeaderBytes(n int) *Server {
	s.maxHeaderBytes = n
	return s
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve handles connections from ln sequentially until ctx is cancelled. The
// connection being served when ctx is cancelled is allowed to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-done:
		}
	}()

	log.Print("Web server listening on ", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				log.Print("Web server stopped")
				return nil
			}
			log.Printf("Error accepting connection: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}
		s.handleConnection(conn)
	}
}

// handleConnection runs one session to completion and returns the state it
// reached before closing.
func (s *Server) handleConnection(conn net.Conn) sessionState {
	connectionsTotal.Inc()
	sess := newSession(conn, s.maxHeaderBytes)
	defer sess.close()

	// The timeout bounds reading the header block. Writing the response gets
	// its own window.
	if s.timeout > 0 {
		if err := conn.SetReadDeadline(sess.started.Add(s.timeout)); err != nil {
			log.Printf("Could not set deadline on connection from %v: %v", conn.RemoteAddr(), err)
			return stateClosed
		}
	}

	sess.state = stateReading
	for {
		c, err := sess.reader.ReadByte()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				timeoutsTotal.Inc()
				log.Printf("Connection from %v timed out after %v, last activity %v ago", conn.RemoteAddr(), time.Since(sess.started).Round(time.Millisecond), time.Since(sess.lastActivity).Round(time.Millisecond))
			} else if err != io.EOF {
				log.Printf("Error reading from %v: %v", conn.RemoteAddr(), err)
			}
			return stateClosed
		}
		sess.lastActivity = time.Now()

		switch sess.acc.Consume(c) {
		case HeaderOverflow:
			overflowsTotal.Inc()
			log.Printf("Header from %v exceeds %d bytes, dropping connection", conn.RemoteAddr(), s.maxHeaderBytes)
			return stateClosed
		case HeaderBlockComplete:
			if s.timeout > 0 {
				if err := conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
					log.Printf("Could not set write deadline on connection from %v: %v", conn.RemoteAddr(), err)
					return stateClosed
				}
			}
			sess.state = s.respond(sess)
			return sess.state
		}
	}
}

// respond writes the status line and headers, then either dispatches the
// routed command or writes the page.
func (s *Server) respond(sess *session) sessionState {
	if _, err := io.WriteString(sess.conn, responseHeader); err != nil {
		log.Printf("Error writing response to %v: %v", sess.conn.RemoteAddr(), err)
		return stateClosed
	}

	route := s.router.Route(sess.acc.Header())
	if route.Kind == NoMatch {
		pagesTotal.Inc()
		if _, err := sess.conn.Write(s.page); err != nil {
			log.Printf("Error writing page to %v: %v", sess.conn.RemoteAddr(), err)
		}
		return statePageServed
	}

	commandsTotal.Inc()
	if route.Kind == NamedCommand {
		log.Printf("Button %v: %v", route.Button.Token, route.Command)
	} else {
		log.Printf("Raw command: %v", route.Command)
	}
	s.dispatcher.Dispatch(route.Command)
	return stateCommandDispatched
}
