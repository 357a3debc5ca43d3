package chatserver

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"regexp"
	"testing"
	"time"
)

// startTestServer binds to an ephemeral loopback port, runs the event
// loop in the background, and returns the address clients should dial.
// The listener is closed at test cleanup, but the Run goroutine is never
// stopped: the event loop has no shutdown path, same as the original C
// server.
func startTestServer(t *testing.T) string {
	t.Helper()

	srv, err := New(Config{
		Port:   0,
		Quiet:  true,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	port, err := srv.listener.Port()
	if err != nil {
		t.Fatalf("Port returned error: %v", err)
	}

	go srv.Run()

	return fmt.Sprintf("127.0.0.1:%d", port)
}

// testClient pairs a dialed connection with the one bufio.Reader that
// drains it, so bytes buffered ahead of a ReadString call are never
// silently discarded between successive sendLine/readLines calls.
type testClient struct {
	conn net.Conn
	r    *bufio.Reader
}

func dialTestClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("Dial returned error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, r: bufio.NewReader(conn)}
}

func sendLine(t *testing.T, c *testClient, line string) {
	t.Helper()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
}

// readLines reads exactly n CRLF-terminated lines (terminator stripped),
// same framing the client side of the wire protocol uses.
func readLines(t *testing.T, c *testClient, n int) []string {
	t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		line, err := c.r.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString returned error after %d of %d lines: %v", i, n, err)
		}
		lines = append(lines, line[:len(line)-2]) // strip "\r\n"
	}
	return lines
}

// TestServerEndToEndNameSendNew drives the event loop over a real
// loopback socket through the literal scenario in spec.md §8: a client
// sets its nickname, posts a message, and a second client's "new" picks
// it up formatted and newest-first.
func TestServerEndToEndNameSendNew(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTestClient(t, addr)
	sendLine(t, alice, "my name is alice")
	if got := readLines(t, alice, 1); got[0] != "ok" {
		t.Fatalf("expected ok after my name is, got %q", got)
	}

	sendLine(t, alice, "send hi")
	if got := readLines(t, alice, 1); got[0] != "ok" {
		t.Fatalf("expected ok after send, got %q", got)
	}

	bob := dialTestClient(t, addr)
	sendLine(t, bob, "new")
	got := readLines(t, bob, 2)
	if got[0] != "1" {
		t.Fatalf("expected a count of 1, got %q", got[0])
	}
	want := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] alice: hi$`)
	if !want.MatchString(got[1]) {
		t.Fatalf("unexpected formatted history line: %q", got[1])
	}

	// A second, immediate "new" from the same client sees nothing further.
	sendLine(t, bob, "new")
	if got := readLines(t, bob, 1); got[0] != "0" {
		t.Fatalf("expected cursor to advance past the entry already seen, got %q", got[0])
	}
}

// TestServerEndToEndFolksIncludesRequester exercises "folks" over two
// real connections, confirming the peer count/listing quirk noted in
// DESIGN.md (the requester's own slot is included) survives the full
// accept -> table -> protocol -> output queue round trip, not just the
// in-memory table unit tests.
func TestServerEndToEndFolksIncludesRequester(t *testing.T) {
	addr := startTestServer(t)

	alice := dialTestClient(t, addr)
	bob := dialTestClient(t, addr)

	sendLine(t, bob, "my name is bob")
	readLines(t, bob, 1) // "ok"

	sendLine(t, alice, "folks")
	got := readLines(t, alice, 3)
	if got[0] != "2" {
		t.Fatalf("expected a peer count of 2, got %q", got[0])
	}
	if got[1] != "anonym" || got[2] != "bob" {
		t.Fatalf("expected [anonym bob] in accept order, got %v", got[1:])
	}
}
