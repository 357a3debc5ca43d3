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

// Package history stores the shared, bounded rolling message log. The
// circular head/tail indexing follows kcp-go's RingBuffer[T]
// (vendor/github.com/xtaci/kcp-go/v5/ringbuffer.go), but capacity never
// grows: once MaxHistory entries are held, the oldest is overwritten
// rather than the ring being resized.
package history

import "time"

// Entry is one posted chat message.
type Entry struct {
	Nick    string
	Message string
	At      time.Time
}

// History is a fixed-capacity, newest-first ring of Entry values.
type History struct {
	entries  []Entry
	head     int // index of the oldest entry
	length   int
	capacity int
}

// New returns an empty history with room for capacity entries.
func New(capacity int) *History {
	return &History{entries: make([]Entry, capacity), capacity: capacity}
}

// Append records a new entry timestamped now, evicting the oldest entry
// if the ring is already at capacity.
func (h *History) Append(nick, message string, now time.Time) {
	idx := (h.head + h.length) % h.capacity
	if h.length == h.capacity {
		// Ring is full: the slot we are about to write is the current
		// oldest entry, so advance head past it.
		h.head = (h.head + 1) % h.capacity
	} else {
		h.length++
	}
	h.entries[idx] = Entry{Nick: nick, Message: message, At: now}
}

// Len reports the number of entries currently stored.
func (h *History) Len() int { return h.length }

// Since returns every entry strictly newer than cursor, newest first,
// exactly the order the original server's backward scan over its
// newest-first array produced.
func (h *History) Since(cursor time.Time) []Entry {
	out := make([]Entry, 0, h.length)
	for i := h.length - 1; i >= 0; i-- {
		e := h.entries[(h.head+i)%h.capacity]
		if !e.At.After(cursor) {
			break
		}
		out = append(out, e)
	}
	return out
}
