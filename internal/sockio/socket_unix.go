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

//go:build unix

// Package sockio wraps the raw, non-blocking POSIX socket calls the event
// loop needs: socket/bind/listen/accept4/read/write and the poll(2)
// readiness wait. It is the direct Go equivalent of the original C
// server's <sys/socket.h>/<poll.h> usage, kept as a thin capability so the
// rest of the engine never touches golang.org/x/sys/unix directly.
package sockio

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/xtaci/linechatd/internal/limits"
)

// ErrWouldBlock signals EAGAIN/EWOULDBLOCK: not a real error, just "try
// again once the next readiness event fires".
var ErrWouldBlock = errors.New("sockio: would block")

// Listener owns the listening socket's file descriptor.
type Listener struct {
	FD int
}

// Listen creates a non-blocking IPv4 TCP listening socket bound to
// INADDR_ANY:port with SO_REUSEADDR set, mirroring prepare_server() in
// the original C source line for line.
func Listen(port int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return nil, errors.Wrap(err, "socket")
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "setsockopt(SO_REUSEADDR)")
	}
	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "bind")
	}
	const backlog = limits.ListenBacklog
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "listen")
	}
	return &Listener{FD: fd}, nil
}

// Port reports the listening socket's bound port, resolved via
// getsockname(2). Passing port 0 to Listen asks the kernel for an
// ephemeral port; this is how a caller (tests, mainly) finds out which
// one it got.
func (l *Listener) Port() (int, error) {
	sa, err := unix.Getsockname(l.FD)
	if err != nil {
		return 0, errors.Wrap(err, "getsockname")
	}
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return 0, errors.New("sockio: listener is not bound to an AF_INET address")
	}
	return sa4.Port, nil
}

// Close releases the listening socket.
func (l *Listener) Close() error {
	return unix.Close(l.FD)
}

// Accept accepts exactly one pending connection as a non-blocking socket.
// It returns ErrWouldBlock if called when nothing is pending (should not
// happen in the event loop, which only calls Accept on a readable
// event, but a spurious wakeup is handled gracefully rather than
// crashing the process).
func Accept(listenFD int) (int, error) {
	fd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
	if err != nil {
		if err == unix.EAGAIN {
			return -1, ErrWouldBlock
		}
		return -1, errors.Wrap(err, "accept4")
	}
	return fd, nil
}

// Conn wraps a non-blocking connected socket fd. Its Write reports
// backpressure as this package's ErrWouldBlock, so the event loop wraps it
// in an adapter that maps that to queue.ErrWouldBlock before Drain.
type Conn struct {
	FD int
}

// Read reads into p, translating EAGAIN into ErrWouldBlock and a zero
// read into io.EOF's moral equivalent: callers check n==0, err==nil as
// peer-closed, matching the original recv() returning 0.
func (c Conn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.FD, p)
	if err != nil {
		if err == unix.EAGAIN {
			return 0, ErrWouldBlock
		}
		return 0, errors.Wrap(err, "read")
	}
	return n, nil
}

// Write writes p, translating EAGAIN into ErrWouldBlock so the chained
// output queue can distinguish backpressure from a real socket error.
func (c Conn) Write(p []byte) (int, error) {
	n, err := unix.Write(c.FD, p)
	if err != nil {
		if err == unix.EAGAIN {
			return n, ErrWouldBlock
		}
		return n, errors.Wrap(err, "write")
	}
	return n, nil
}

// Close closes the connection's socket.
func (c Conn) Close() error {
	return unix.Close(c.FD)
}
