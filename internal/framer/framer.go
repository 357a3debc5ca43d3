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

// Package framer turns a byte stream into CRLF-delimited packets. It
// replaces the original C server's strstr-over-a-NUL-terminated-buffer
// scan with explicit byte counts, so an embedded NUL byte in a message
// can never be mistaken for end-of-buffer.
package framer

import "errors"

// ErrOversize is returned when the internal buffer fills without ever
// finding a CRLF: the line exceeds the protocol's maximum packet length
// and the connection must be closed.
var ErrOversize = errors.New("framer: line too long")

// LineFramer accumulates bytes from one connection and yields complete,
// CRLF-terminated lines with the terminator stripped.
type LineFramer struct {
	buf  []byte
	used int
}

// New returns a framer with the given maximum packet capacity.
func New(capacity int) *LineFramer {
	return &LineFramer{buf: make([]byte, capacity)}
}

// Remaining reports how many more bytes the framer's buffer can accept
// before it is full. The event loop sizes its recv() calls with this so
// Feed never sees more bytes than it has room for.
func (f *LineFramer) Remaining() int {
	return cap(f.buf) - f.used
}

// Feed appends newly-received bytes and returns every complete line found,
// oldest first. Each returned line is its own copy, independent of the
// framer's internal buffer.
func (f *LineFramer) Feed(p []byte) ([][]byte, error) {
	if len(p) > 0 {
		n := copy(f.buf[f.used:], p)
		f.used += n
		if n < len(p) {
			// The caller handed us more than fits in the remaining
			// capacity even before scanning for CRLF: definitely
			// oversize.
			return nil, ErrOversize
		}
	}

	var lines [][]byte
	start := 0
	for {
		idx := indexCRLF(f.buf[start:f.used])
		if idx < 0 {
			break
		}
		lines = append(lines, append([]byte(nil), f.buf[start:start+idx]...))
		start += idx + 2
	}

	remaining := f.used - start
	if remaining == f.used && f.used == cap(f.buf) {
		// No terminator found anywhere and the buffer is completely full.
		return lines, ErrOversize
	}
	if start > 0 {
		copy(f.buf, f.buf[start:f.used])
		f.used = remaining
	}
	return lines, nil
}

// indexCRLF returns the index of the first "\r\n" in b, or -1.
func indexCRLF(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == '\r' && b[i+1] == '\n' {
			return i
		}
	}
	return -1
}
