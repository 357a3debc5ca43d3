// The MIT License (MIT)
//
// Copyright (c) 2024 The linechatd Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package chatserver

import (
	"time"

	"github.com/xtaci/linechatd/internal/framer"
	"github.com/xtaci/linechatd/internal/history"
	"github.com/xtaci/linechatd/internal/limits"
	"github.com/xtaci/linechatd/internal/protocol"
	"github.com/xtaci/linechatd/internal/queue"
)

// connection holds everything owned by one accepted client: its
// readiness descriptor's fd (mirrored in the table's poll slice), its
// nickname and cursor, and its input/output buffering. It is exclusively
// owned by the connection table.
type connection struct {
	fd     int32
	closed bool
	nick   string
	cursor time.Time

	in  *framer.LineFramer
	out *queue.Queue

	srv *Server
}

func newConnection(srv *Server, fd int32, now time.Time) *connection {
	return &connection{
		fd:     fd,
		nick:   limits.DefaultNick,
		cursor: now,
		in:     framer.New(limits.MaxPackage),
		out:    queue.New(srv.pool),
		srv:    srv,
	}
}

// The following methods implement protocol.Context.
var _ protocol.Context = (*connection)(nil)

func (c *connection) Nick() string     { return c.nick }
func (c *connection) SetNick(n string) { c.nick = n }

func (c *connection) PeerNicks() []string {
	return c.srv.table.peerNicks()
}

func (c *connection) AppendMessage(nick, message string) {
	c.srv.history.Append(nick, message, c.srv.clock.Now())
}

func (c *connection) Since(cursor time.Time) []history.Entry {
	return c.srv.history.Since(cursor)
}

func (c *connection) Cursor() time.Time     { return c.cursor }
func (c *connection) SetCursor(t time.Time) { c.cursor = t }
func (c *connection) Now() time.Time        { return c.srv.clock.Now() }

func (c *connection) FormatLocal(t time.Time) (string, bool) {
	return FormatLocal(t)
}
