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

// Package protocol implements the line-oriented chat wire format:
//
//	setting nickname
//	    c> my name is <nick>
//	    s> ok
//
//	watching participants
//	    c> folks
//	    s> 3
//	    s> <nick>
//	    s> <nick1>
//	    s> <nick2>
//
//	sending messages
//	    c> send <message>
//	    s> ok
//
//	requesting new messages
//	    c> new
//	    s> 1
//	    s> [03:14:48] <nick2>: <message1>
//
//	    c> new
//	    s> 0
//
// This is the same protocol documented at the top of the original C
// server (original_source/main.c); it is reproduced here in full since
// the distilled spec only quotes it partially.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xtaci/linechatd/internal/history"
	"github.com/xtaci/linechatd/internal/limits"
)

const (
	prefixMyNameIs = "my name is "
	prefixSend     = "send "
	exactFolks     = "folks"
	exactNew       = "new"
	replyOK        = "ok"
)

// Context is everything the handler needs from the owning connection and
// the shared server state. Connection and History are kept free of any
// import on this package to avoid a cycle; chatserver implements Context.
type Context interface {
	// Nick returns the connection's current nickname.
	Nick() string
	// SetNick stores a new nickname for the connection.
	SetNick(nick string)

	// PeerNicks returns every peer slot's nickname in connection-table
	// order, including the requesting client's own slot — that quirk is
	// preserved intentionally, not a bug.
	PeerNicks() []string

	// AppendMessage records a message in the shared history under nick,
	// timestamped Now().
	AppendMessage(nick, message string)
	// Since returns history entries newer than cursor, newest first.
	Since(cursor time.Time) []history.Entry

	// Cursor returns the connection's last-"new" timestamp.
	Cursor() time.Time
	// SetCursor updates the connection's last-"new" timestamp.
	SetCursor(t time.Time)

	// Now returns the current time, used both for AppendMessage's
	// implicit timestamp and for advancing the cursor after "new".
	Now() time.Time

	// FormatLocal renders t as the server's local "HH:MM:SS", reporting
	// ok=false if local-time conversion is not possible. Go's time
	// package cannot actually fail this the way C's localtime_r can, but
	// the hook is kept so that edge case (close the connection rather
	// than reply with a bad timestamp) stays testable.
	FormatLocal(t time.Time) (string, bool)
}

// Handle interprets one decoded, CRLF-stripped line in the context of a
// single connection. It returns the bytes to enqueue for the client (already
// CRLF-terminated, possibly empty) and whether the connection must be
// closed after this packet, covering every command plus the
// "anything else" and oversize-payload close cases.
func Handle(ctx Context, line []byte) (reply []byte, closeConn bool) {
	text := string(line)

	switch {
	case strings.HasPrefix(text, prefixMyNameIs):
		nick := text[len(prefixMyNameIs):]
		if len(nick) > limits.MaxNick {
			return nil, true
		}
		ctx.SetNick(nick)
		return packLines(replyOK), false

	case text == exactFolks:
		peers := ctx.PeerNicks()
		lines := make([]string, 0, len(peers)+1)
		lines = append(lines, strconv.Itoa(len(peers)))
		lines = append(lines, peers...)
		return packLines(lines...), false

	case strings.HasPrefix(text, prefixSend):
		msg := text[len(prefixSend):]
		if len(msg) > limits.MaxMessage {
			return nil, true
		}
		ctx.AppendMessage(ctx.Nick(), msg)
		return packLines(replyOK), false

	case text == exactNew:
		entries := ctx.Since(ctx.Cursor())
		lines := make([]string, 0, len(entries)+1)
		lines = append(lines, strconv.Itoa(len(entries)))
		for _, e := range entries {
			clock, ok := ctx.FormatLocal(e.At)
			if !ok {
				return nil, true
			}
			lines = append(lines, fmt.Sprintf("[%s] %s: %s", clock, e.Nick, e.Message))
		}
		ctx.SetCursor(ctx.Now())
		return packLines(lines...), false

	default:
		return nil, true
	}
}

// packLines joins lines with CRLF, terminating the last one too.
func packLines(lines ...string) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}
