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

// Package queue implements the per-connection chained output queue: an
// ordered list of pool blocks draining to a socket. Only the tail block
// may be partially filled; every enqueue tops off the tail before
// chaining a fresh block from the pool.
package queue

import (
	"github.com/xtaci/linechatd/internal/pool"
)

// Writer is the minimal non-blocking write surface the queue drains into.
// Implementations must return ErrWouldBlock itself, unwrapped (Drain
// compares by equality), when the underlying socket cannot accept more
// bytes right now, exactly the
// EWOULDBLOCK/EAGAIN case the original C's handle_output checks for.
type Writer interface {
	Write(p []byte) (int, error)
}

// ErrWouldBlock signals a transient write backpressure condition. It is
// not a connection error: the event loop simply waits for the next
// writable-readiness event and retries.
var ErrWouldBlock = errWouldBlock{}

type errWouldBlock struct{}

func (errWouldBlock) Error() string { return "queue: write would block" }

// Queue is a FIFO chain of pool-allocated blocks awaiting delivery.
type Queue struct {
	pool       *pool.Pool
	head, tail int // block indices, -1 when empty
}

// New returns an empty queue backed by p.
func New(p *pool.Pool) *Queue {
	return &Queue{pool: p, head: -1, tail: -1}
}

// Empty reports whether the queue currently holds no bytes.
func (q *Queue) Empty() bool { return q.head < 0 }

// Enqueue appends p to the queue, filling the current tail block first
// and chaining additional blocks from the pool as needed. It returns
// pool.ErrExhausted if a fresh block is needed and the pool has none
// left; bytes already appended to the existing tail are retained.
func (q *Queue) Enqueue(p []byte) error {
	for len(p) > 0 {
		if q.tail < 0 {
			idx, _, err := q.pool.Take()
			if err != nil {
				return err
			}
			q.head, q.tail = idx, idx
		} else if tailBlock := q.pool.Block(q.tail); tailBlock.Used() == tailBlock.Cap() {
			idx, _, err := q.pool.Take()
			if err != nil {
				return err
			}
			q.pool.Block(q.tail).SetNext(idx)
			q.tail = idx
		}
		n := q.pool.Block(q.tail).Append(p)
		p = p[n:]
	}
	return nil
}

// Drain writes queued blocks head-first to w until the queue empties or w
// reports ErrWouldBlock. A partial write updates the head block's unsent
// offset in place (Block.Consume) so no byte is sent twice or dropped —
// the original's `assert(sent == buffer->buffer.used)` could not survive
// a short write; this is the fix.
func (q *Queue) Drain(w Writer) error {
	for q.head >= 0 {
		blk := q.pool.Block(q.head)
		n, err := w.Write(blk.Data())
		if n > 0 {
			blk.Consume(n)
		}
		if err != nil {
			if err == ErrWouldBlock {
				return nil
			}
			return err
		}
		if blk.Used() == 0 {
			next := blk.Next()
			q.pool.Release(q.head)
			q.head = next
			if q.head < 0 {
				q.tail = -1
			}
			continue
		}
		// Partial write with no error (e.g. a Writer that caps bytes
		// per call): keep looping, same block, until it drains or the
		// Writer itself reports ErrWouldBlock.
	}
	return nil
}

// Release returns every block still held by the queue to the pool,
// called when a connection with pending output is closed during table
// compaction.
func (q *Queue) Release() {
	for q.head >= 0 {
		next := q.pool.Block(q.head).Next()
		q.pool.Release(q.head)
		q.head = next
	}
	q.tail = -1
}
