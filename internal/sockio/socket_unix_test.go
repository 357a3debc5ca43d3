//go:build unix

package sockio

import (
	"testing"

	"golang.org/x/sys/unix"
)

// socketpair returns two ends of a connected, non-blocking AF_UNIX stream
// socket, standing in for a pair of accepted TCP connections without
// touching the network.
func socketpair(t *testing.T) (Conn, Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	a, b := Conn{FD: fds[0]}, Conn{FD: fds[1]}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestConnWriteThenRead(t *testing.T) {
	a, b := socketpair(t)

	n, err := a.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}

	buf := make([]byte, 32)
	n, err = b.Read(buf)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("unexpected bytes read: %q", buf[:n])
	}
}

func TestConnReadWouldBlockWithNoData(t *testing.T) {
	_, b := socketpair(t)

	buf := make([]byte, 32)
	_, err := b.Read(buf)
	if err != ErrWouldBlock {
		t.Fatalf("expected ErrWouldBlock on an empty non-blocking socket, got %v", err)
	}
}

func TestPollReportsReadable(t *testing.T) {
	a, b := socketpair(t)
	a.Write([]byte("x"))

	fds := []PollFD{{FD: int32(b.FD), Events: In}}
	if err := Poll(fds, 1000); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if fds[0].REvents&In == 0 {
		t.Fatalf("expected the readable bit to be set, got %v", fds[0].REvents)
	}
}

func TestPollTimesOutWhenNothingReady(t *testing.T) {
	_, b := socketpair(t)

	fds := []PollFD{{FD: int32(b.FD), Events: In}}
	if err := Poll(fds, 50); err != nil {
		t.Fatalf("Poll returned error: %v", err)
	}
	if fds[0].REvents != 0 {
		t.Fatalf("expected no events, got %v", fds[0].REvents)
	}
}
