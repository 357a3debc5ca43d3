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

// Package limits holds the protocol-wide size constants shared by every
// other package. They mirror the #define block at the top of the original
// C server 1:1 (TIMESTAMP_LENGTH, BUFFER_POOL_SIZE, ...).
package limits

const (
	// TimestampLength is the width of a rendered "[HH:MM:SS]" field.
	TimestampLength = 10
	// PoolSize is the fixed number of blocks in the shared buffer pool.
	PoolSize = 16
	// MaxConn is the maximum number of live connection-table slots,
	// including the reserved listener slot at index 0.
	MaxConn = 1024
	// MaxMessage is the maximum byte length of a "send" payload.
	MaxMessage = 140
	// MaxNick is the maximum byte length of a nickname.
	MaxNick = 20
	// MaxHistory is the maximum number of retained history entries.
	MaxHistory = 50
	// MaxPackage is the capacity of every pool block and of the
	// per-connection input framer: enough for a timestamp, a nick, a
	// message and the three separator bytes (" " after the timestamp and
	// ": " after the nick) the original server budgeted for.
	MaxPackage = TimestampLength + MaxNick + MaxMessage + 3

	// DefaultNick is assigned to a connection before "my name is" arrives.
	DefaultNick = "anonym"

	// ListenBacklog is the minimum accept backlog for the listening socket.
	ListenBacklog = 128
)
