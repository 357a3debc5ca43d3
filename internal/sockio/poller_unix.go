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

package sockio

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Readiness event bits, re-exported from golang.org/x/sys/unix so callers
// outside this package never need to import it directly.
const (
	In   = unix.POLLIN
	Out  = unix.POLLOUT
	Err  = unix.POLLERR
	Hup  = unix.POLLHUP
	NVal = unix.POLLNVAL
)

// PollFD mirrors unix.PollFd: one descriptor's requested/observed events.
// The connection table keeps a slice of these in lock-step with its
// connection slots, same as the original server's pollfd sockets[] array.
type PollFD struct {
	FD      int32
	Events  int16
	REvents int16
}

// Poll blocks until at least one descriptor in fds is ready, mutating
// each entry's REvents in place. A negative timeoutMs blocks forever.
func Poll(fds []PollFD, timeoutMs int) error {
	raw := make([]unix.PollFd, len(fds))
	for i, f := range fds {
		raw[i] = unix.PollFd{Fd: f.FD, Events: f.Events}
	}
	var err error
	for {
		_, err = unix.Poll(raw, timeoutMs)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return errors.Wrap(err, "poll")
	}
	for i := range fds {
		fds[i].REvents = raw[i].Revents
	}
	return nil
}
