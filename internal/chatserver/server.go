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

// Package chatserver wires the buffer pool, output queue, input framer,
// history store, protocol handler and connection table into a single
// event loop. There is exactly one loop, in exactly one goroutine;
// nothing here is safe to call concurrently.
package chatserver

import (
	"log"

	"github.com/pkg/errors"

	"github.com/xtaci/linechatd/internal/history"
	"github.com/xtaci/linechatd/internal/limits"
	"github.com/xtaci/linechatd/internal/pool"
	"github.com/xtaci/linechatd/internal/protocol"
	"github.com/xtaci/linechatd/internal/queue"
	"github.com/xtaci/linechatd/internal/sockio"
)

// Config controls the sizes the engine is built with. Zero values fall
// back to the fixed constants in internal/limits; non-zero PoolSize,
// MaxConn and HistMax override them.
type Config struct {
	Port     int
	Quiet    bool
	PoolSize int
	MaxConn  int
	HistMax  int
	Clock    Clock
	Logger   *log.Logger
}

func (c Config) withDefaults() Config {
	if c.PoolSize == 0 {
		c.PoolSize = limits.PoolSize
	}
	if c.MaxConn == 0 {
		c.MaxConn = limits.MaxConn
	}
	if c.HistMax == 0 {
		c.HistMax = limits.MaxHistory
	}
	if c.Clock == nil {
		c.Clock = systemClock{}
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

// Server is the aggregate owning every shared resource: the connection
// table, the buffer pool and the history, in place of the original C
// source's process-wide singletons. There is exactly one loop, so this
// structural change carries the exact same semantics.
type Server struct {
	cfg      Config
	listener *sockio.Listener
	table    *table
	pool     *pool.Pool
	history  *history.History
	clock    Clock
}

// New binds and listens on cfg.Port, returning a Server ready to Run.
// Bind/listen failures are fatal and are returned wrapped for the caller
// to report and exit on.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()
	l, err := sockio.Listen(cfg.Port)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		listener: l,
		pool:     pool.New(cfg.PoolSize, limits.MaxPackage),
		history:  history.New(cfg.HistMax),
		clock:    cfg.Clock,
	}
	s.table = newTable(int32(l.FD), cfg.MaxConn)
	return s, nil
}

// Close releases the listening socket. Open connections are not
// individually closed; the process is expected to be exiting.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Run executes the event loop until a fatal error occurs: poll() failure
// or buffer-pool exhaustion during an enqueue. Both are systemic, not
// per-connection, because the pool and the poll set are shared across
// every connection.
func (s *Server) Run() error {
	for {
		if err := sockio.Poll(s.table.poll, -1); err != nil {
			return errors.Wrap(err, "event loop")
		}

		for i := 0; i < s.table.length(); i++ {
			revents := s.table.poll[i].REvents
			if revents == 0 {
				continue
			}
			if i == 0 {
				if revents&sockio.In != 0 {
					s.acceptOne()
				}
				continue
			}

			switch {
			case revents&sockio.In != 0:
				if err := s.handleInput(i); err != nil {
					return err
				}
			case revents&sockio.Out != 0:
				if err := s.handleOutput(i); err != nil {
					return err
				}
			case revents&(sockio.Err|sockio.Hup|sockio.NVal) != 0:
				s.table.markClosed(i)
			}
		}

		s.table.compact()
	}
}

// acceptOne accepts a single pending connection, matching
// accept_new_client(): default nick, cursor = now, rejecting the socket
// outright if the table is already at MaxConn.
func (s *Server) acceptOne() {
	fd, err := sockio.Accept(s.listener.FD)
	if err != nil {
		if err == sockio.ErrWouldBlock {
			return
		}
		s.cfg.Logger.Println("accept:", err)
		return
	}

	c := newConnection(s, int32(fd), s.clock.Now())
	if err := s.table.accept(c); err != nil {
		sockio.Conn{FD: fd}.Close()
		return
	}
	if !s.cfg.Quiet {
		s.cfg.Logger.Println("accepted connection, fd:", fd)
	}
}

// handleInput drains one readable event: read, frame, dispatch every
// complete packet to the protocol handler, and enqueue any replies.
func (s *Server) handleInput(slot int) error {
	c := s.table.conns[slot]
	buf := make([]byte, c.in.Remaining())

	n, err := sockio.Conn{FD: int(c.fd)}.Read(buf)
	if err != nil {
		if err == sockio.ErrWouldBlock {
			return nil
		}
		if !s.cfg.Quiet {
			s.cfg.Logger.Println("recv:", err)
		}
		s.table.markClosed(slot)
		return nil
	}
	if n == 0 {
		// Peer EOF, same as the original recv() returning 0.
		s.table.markClosed(slot)
		return nil
	}

	lines, ferr := c.in.Feed(buf[:n])
	for _, line := range lines {
		reply, closeConn := protocol.Handle(c, line)
		if len(reply) > 0 {
			if enqErr := c.out.Enqueue(reply); enqErr != nil {
				return errors.Wrap(enqErr, "buffer pool exhausted")
			}
			s.table.setInterest(slot, true)
		}
		if closeConn {
			s.table.markClosed(slot)
			return nil
		}
	}
	if ferr != nil {
		if !s.cfg.Quiet {
			s.cfg.Logger.Println("oversize line, closing connection")
		}
		s.table.markClosed(slot)
	}
	return nil
}

// handleOutput drains the connection's output queue, reverting its poll
// interest to readable once the queue empties.
func (s *Server) handleOutput(slot int) error {
	c := s.table.conns[slot]
	w := connWriter{Conn: sockio.Conn{FD: int(c.fd)}}
	if err := c.out.Drain(w); err != nil {
		if !s.cfg.Quiet {
			s.cfg.Logger.Println("send:", err)
		}
		s.table.markClosed(slot)
		return nil
	}
	if c.out.Empty() {
		s.table.setInterest(slot, false)
	}
	return nil
}

// connWriter adapts sockio.Conn to queue.Writer, translating sockio's
// would-block sentinel into the queue package's own so the queue stays
// transport-agnostic.
type connWriter struct {
	sockio.Conn
}

func (w connWriter) Write(p []byte) (int, error) {
	n, err := w.Conn.Write(p)
	if err == sockio.ErrWouldBlock {
		return n, queue.ErrWouldBlock
	}
	return n, err
}
