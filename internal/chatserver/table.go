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
	"errors"

	"github.com/xtaci/linechatd/internal/sockio"
)

// ErrTableFull is returned by accept when the connection table already
// holds MaxConn slots; the caller closes the new socket immediately.
var ErrTableFull = errors.New("chatserver: connection table full")

// table is the compact array of active connections and their readiness
// descriptors. Slot 0 is always the listening socket. Invariant: after
// compact(), slots [0, length) are live and contiguous.
type table struct {
	poll  []sockio.PollFD
	conns []*connection // conns[0] is always nil (the listener slot)
	max   int
}

func newTable(listenFD int32, max int) *table {
	t := &table{max: max}
	t.poll = append(t.poll, sockio.PollFD{FD: listenFD, Events: sockio.In})
	t.conns = append(t.conns, nil)
	return t
}

func (t *table) length() int { return len(t.conns) }

// accept appends a newly-accepted connection to the table.
func (t *table) accept(c *connection) error {
	if t.length() >= t.max {
		return ErrTableFull
	}
	t.poll = append(t.poll, sockio.PollFD{FD: c.fd, Events: sockio.In})
	t.conns = append(t.conns, c)
	return nil
}

// markClosed flips a slot's closed bit; resources are reclaimed by the
// following compact().
func (t *table) markClosed(i int) {
	t.conns[i].closed = true
}

// setInterest toggles a peer slot between read-only and write-only
// polling, never both.
func (t *table) setInterest(i int, writable bool) {
	if writable {
		t.poll[i].Events = sockio.Out
	} else {
		t.poll[i].Events = sockio.In
	}
}

// peerNicks returns every peer slot's nickname in table order, including
// the requester's own slot: the original server's folks behaviour counts
// and iterates the same [1,length) range, which happens to include
// whichever slot asked, and that is preserved here rather than "fixed".
func (t *table) peerNicks() []string {
	nicks := make([]string, 0, t.length()-1)
	for i := 1; i < t.length(); i++ {
		nicks = append(nicks, t.conns[i].nick)
	}
	return nicks
}

// compact removes every closed slot in place, preserving the relative
// order of survivors and releasing any blocks a closed connection's
// output queue still held back to the pool.
func (t *table) compact() {
	d := 1
	for s := 1; s < t.length(); s++ {
		if t.conns[s].closed {
			t.conns[s].out.Release()
			continue
		}
		t.poll[d] = t.poll[s]
		t.conns[d] = t.conns[s]
		d++
	}
	t.poll = t.poll[:d]
	t.conns = t.conns[:d]
}
