package chatserver

import (
	"testing"
	"time"

	"github.com/xtaci/linechatd/internal/history"
	"github.com/xtaci/linechatd/internal/limits"
	"github.com/xtaci/linechatd/internal/pool"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv := &Server{
		pool:    pool.New(4, limits.MaxPackage),
		history: history.New(limits.MaxHistory),
		clock:   fixedClock{t: time.Unix(1700000000, 0)},
	}
	srv.table = newTable(1, limits.MaxConn)
	return srv
}

func TestNewConnectionDefaults(t *testing.T) {
	srv := newTestServer(t)
	now := srv.clock.Now()
	c := newConnection(srv, 5, now)

	if c.Nick() != limits.DefaultNick {
		t.Fatalf("expected default nick, got %q", c.Nick())
	}
	if !c.Cursor().Equal(now) {
		t.Fatalf("expected cursor to start at accept time")
	}
	if c.in.Remaining() != limits.MaxPackage {
		t.Fatalf("expected a fresh framer with full capacity, got %d", c.in.Remaining())
	}
}

func TestConnectionAppendMessageAndSince(t *testing.T) {
	srv := newTestServer(t)
	c := newConnection(srv, 5, srv.clock.Now())

	before := c.Now()
	c.AppendMessage("alice", "hello")

	entries := c.Since(before.Add(-time.Second))
	if len(entries) != 1 || entries[0].Message != "hello" {
		t.Fatalf("expected the posted message to be visible, got %+v", entries)
	}
}

func TestConnectionPeerNicksDelegatesToTable(t *testing.T) {
	srv := newTestServer(t)
	c1 := newConnection(srv, 5, srv.clock.Now())
	c1.SetNick("alice")
	if err := srv.table.accept(c1); err != nil {
		t.Fatalf("accept returned error: %v", err)
	}

	nicks := c1.PeerNicks()
	if len(nicks) != 1 || nicks[0] != "alice" {
		t.Fatalf("unexpected peer nicks: %v", nicks)
	}
}

func TestConnectionSetNickAndCursor(t *testing.T) {
	srv := newTestServer(t)
	c := newConnection(srv, 5, srv.clock.Now())

	c.SetNick("bob")
	if c.Nick() != "bob" {
		t.Fatalf("expected nick to update, got %q", c.Nick())
	}

	newCursor := srv.clock.Now().Add(time.Minute)
	c.SetCursor(newCursor)
	if !c.Cursor().Equal(newCursor) {
		t.Fatalf("expected cursor to update")
	}
}

func TestConnectionFormatLocal(t *testing.T) {
	srv := newTestServer(t)
	c := newConnection(srv, 5, srv.clock.Now())

	s, ok := c.FormatLocal(srv.clock.Now())
	if !ok {
		t.Fatalf("expected FormatLocal to succeed")
	}
	if len(s) != len("15:04:05") {
		t.Fatalf("unexpected formatted length: %q", s)
	}
}
