package irweb

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kwkoo/irremote"
)

const testPage = "<html>panel</html>"

type recordingDispatcher struct {
	mu   sync.Mutex
	cmds []irremote.Command
}

func (d *recordingDispatcher) Dispatch(cmd irremote.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cmds = append(d.cmds, cmd)
}

func (d *recordingDispatcher) commands() []irremote.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]irremote.Command(nil), d.cmds...)
}

func newTestServer(d Dispatcher, timeout time.Duration, maxHeaderBytes int) *Server {
	return NewServer(NewRouter(irremote.DefaultButtons()), d, []byte(testPage)).
		WithTimeout(timeout).
		WithMaxHeaderBytes(maxHeaderBytes)
}

// startServer serves on a loopback listener until the test ends.
func startServer(t *testing.T, timeout time.Duration, maxHeaderBytes int) (string, *recordingDispatcher) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	d := &recordingDispatcher{}
	s := newTestServer(d, timeout, maxHeaderBytes)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	})
	return ln.Addr().String(), d
}

// roundTrip writes each chunk, pausing between them, and returns everything
// the server sent before closing. Write errors are ignored because the server
// is allowed to hang up early.
func roundTrip(t *testing.T, addr string, pause time.Duration, chunks ...string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	for i, chunk := range chunks {
		if i > 0 {
			time.Sleep(pause)
		}
		if _, err := io.WriteString(conn, chunk); err != nil {
			break
		}
	}

	data, err := io.ReadAll(conn)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		t.Fatal("server did not close the connection")
	}
	return string(data)
}

func TestServeNamedCommand(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, DefaultMaxHeaderBytes)

	if resp := roundTrip(t, addr, 0, get("/b/power")); resp != responseHeader {
		t.Errorf("expected only the response header, got %q", resp)
	}
	cmds := d.commands()
	if len(cmds) != 1 || cmds[0] != irremote.RC5Command(12) {
		t.Errorf("unexpected dispatches %v", cmds)
	}
}

func TestServeRC6Command(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, DefaultMaxHeaderBytes)

	roundTrip(t, addr, 0, get("/c6/4/247"))
	cmds := d.commands()
	if len(cmds) != 1 || cmds[0] != irremote.RC6Command(4, 247) {
		t.Errorf("unexpected dispatches %v", cmds)
	}
}

func TestServePage(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, DefaultMaxHeaderBytes)

	for _, header := range []string{get("/"), get("/b/unknown"), "POST /c/12 HTTP/1.1\r\n\r\n"} {
		if resp := roundTrip(t, addr, 0, header); resp != responseHeader+testPage {
			t.Errorf("%q: expected the page, got %q", header, resp)
		}
	}
	if cmds := d.commands(); len(cmds) != 0 {
		t.Errorf("expected no dispatches, got %v", cmds)
	}
}

func TestServeRepeatedRequest(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, DefaultMaxHeaderBytes)

	first := roundTrip(t, addr, 0, get("/c/12"))
	second := roundTrip(t, addr, 0, get("/c/12"))
	if first != second {
		t.Errorf("responses differ: %q and %q", first, second)
	}
	cmds := d.commands()
	if len(cmds) != 2 || cmds[0] != cmds[1] || cmds[0] != irremote.RC5Command(12) {
		t.Errorf("expected two identical dispatches, got %v", cmds)
	}
}

func TestServeTimeout(t *testing.T) {
	addr, d := startServer(t, 100*time.Millisecond, DefaultMaxHeaderBytes)

	start := time.Now()
	resp := roundTrip(t, addr, 0, "GET /b/power HTTP/1.1\r\nHost: tvremote\r\n")
	if resp != "" {
		t.Errorf("expected nothing to be written, got %q", resp)
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("connection closed after %v, before the timeout", elapsed)
	}
	if cmds := d.commands(); len(cmds) != 0 {
		t.Errorf("expected no dispatches, got %v", cmds)
	}

	// the server moves on to the next connection
	if resp := roundTrip(t, addr, 0, get("/b/menu")); resp != responseHeader {
		t.Errorf("expected the next request to be served, got %q", resp)
	}
}

func TestServeTimeoutCountsFromAccept(t *testing.T) {
	addr, d := startServer(t, 150*time.Millisecond, DefaultMaxHeaderBytes)

	// every gap is shorter than the timeout but the whole request is not
	resp := roundTrip(t, addr, 100*time.Millisecond, "GET /b/power HTTP/1.1\r\n", "Host: tvremote\r\n", "\r\n")
	if resp != "" {
		t.Errorf("expected nothing to be written, got %q", resp)
	}
	if cmds := d.commands(); len(cmds) != 0 {
		t.Errorf("expected no dispatches, got %v", cmds)
	}
}

func TestServeHeaderOverflow(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, 64)

	header := "GET /b/power HTTP/1.1\r\nCookie: " + strings.Repeat("a", 200) + "\r\n\r\n"
	if resp := roundTrip(t, addr, 0, header); resp != "" {
		t.Errorf("expected nothing to be written, got %q", resp)
	}
	if cmds := d.commands(); len(cmds) != 0 {
		t.Errorf("expected no dispatches, got %v", cmds)
	}
}

func TestServeUncappedHeader(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, 0)

	header := "GET /b/power HTTP/1.1\r\nCookie: " + strings.Repeat("a", 8192) + "\r\n\r\n"
	if resp := roundTrip(t, addr, 0, header); resp != responseHeader {
		t.Errorf("expected only the response header, got %q", resp)
	}
	if cmds := d.commands(); len(cmds) != 1 {
		t.Errorf("expected one dispatch, got %v", cmds)
	}
}

func TestServeClientHangsUp(t *testing.T) {
	addr, d := startServer(t, DefaultTimeout, DefaultMaxHeaderBytes)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(conn, "GET /b/power HTTP/1.1\r\n")
	conn.Close()

	if resp := roundTrip(t, addr, 0, get("/c/33")); resp != responseHeader {
		t.Errorf("expected the next request to be served, got %q", resp)
	}
	cmds := d.commands()
	if len(cmds) != 1 || cmds[0] != irremote.RC5Command(33) {
		t.Errorf("unexpected dispatches %v", cmds)
	}
}

func TestServeStopsWhenCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(&recordingDispatcher{}, DefaultTimeout, DefaultMaxHeaderBytes)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, ln)
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestHandleConnectionStates(t *testing.T) {
	tables := []struct {
		name     string
		request  string
		state    sessionState
		response string
	}{
		{"command", get("/b/volmax"), stateCommandDispatched, responseHeader},
		{"page", get("/index.html"), statePageServed, responseHeader + testPage},
		{"incomplete", "GET /b/volmax HTTP/1.1\r\n", stateClosed, ""},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			s := newTestServer(&recordingDispatcher{}, 50*time.Millisecond, DefaultMaxHeaderBytes)

			states := make(chan sessionState, 1)
			go func() {
				states <- s.handleConnection(server)
			}()

			client.SetDeadline(time.Now().Add(5 * time.Second))
			if _, err := io.WriteString(client, table.request); err != nil {
				t.Fatal(err)
			}
			data, _ := io.ReadAll(client)
			if string(data) != table.response {
				t.Errorf("expected %q, got %q", table.response, data)
			}
			if state := <-states; state != table.state {
				t.Errorf("expected state %v, got %v", table.state, state)
			}
		})
	}
}

func TestResponseWriteOutlivesReadTimeout(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	d := &recordingDispatcher{}
	s := newTestServer(d, 200*time.Millisecond, DefaultMaxHeaderBytes)

	states := make(chan sessionState, 1)
	go func() {
		states <- s.handleConnection(server)
	}()

	client.SetDeadline(time.Now().Add(5 * time.Second))
	io.WriteString(client, "GET /b/power HTTP/1.1\r\n")
	time.Sleep(150 * time.Millisecond)
	io.WriteString(client, "\r\n")

	// start reading after the read deadline has passed
	time.Sleep(100 * time.Millisecond)
	data, _ := io.ReadAll(client)
	if string(data) != responseHeader {
		t.Errorf("expected %q, got %q", responseHeader, data)
	}
	if state := <-states; state != stateCommandDispatched {
		t.Errorf("expected state %v, got %v", stateCommandDispatched, state)
	}
	if cmds := d.commands(); len(cmds) != 1 {
		t.Errorf("expected one dispatch, got %v", cmds)
	}
}

func TestSessionCloseClearsHeader(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	sess := newSession(server, DefaultMaxHeaderBytes)
	for _, c := range []byte("GET /b/power HTTP/1.1\r\nHo") {
		sess.acc.Consume(c)
	}
	sess.close()

	if sess.acc.Len() != 0 || sess.acc.Header() != "" {
		t.Errorf("expected an empty header buffer, got %q", sess.acc.Header())
	}
	if sess.state != stateClosed {
		t.Errorf("expected state %v, got %v", stateClosed, sess.state)
	}
	if _, err := client.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("expected the connection to be closed, got %v", err)
	}
}
