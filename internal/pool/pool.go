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

// Package pool implements the fixed-capacity block allocator that backs
// every connection's outbound byte stream. Unlike a sync.Pool-backed
// allocator (see smux's Allocator or kcp-go's bufferPool, which both grow
// on demand) this pool never allocates past its initial size: a chat
// server with a shared, bounded-memory history has no use for unbounded
// buffering, and exhaustion is meant to be a loud, fatal event rather than
// silently-growing memory.
package pool

import "errors"

// ErrExhausted is returned by Take when no block is free. The default
// policy treats this as process-fatal; it is a plain error rather than a
// panic so a caller that wants a stricter per-connection policy instead
// (close just the offending connection) can choose to do so.
var ErrExhausted = errors.New("pool: exhausted")

// Block is a fixed-capacity byte buffer. It is owned by exactly one of:
// the pool's free list, or a single connection's output queue.
type Block struct {
	data []byte
	used int
	next int // index into Pool.blocks, or -1
}

// Data returns the occupied prefix of the block.
func (b *Block) Data() []byte { return b.data[:b.used] }

// Used reports how many bytes are currently stored in the block.
func (b *Block) Used() int { return b.used }

// Cap reports the block's fixed capacity.
func (b *Block) Cap() int { return cap(b.data) }

// Append copies as many bytes of p into the block's free tail as fit, and
// returns the number of bytes consumed.
func (b *Block) Append(p []byte) int {
	n := copy(b.data[b.used:cap(b.data)], p)
	b.used += n
	return n
}

// Consume drops the first n sent bytes from the block, shifting any
// unsent remainder to the front. It is used by a chained output queue to
// record a partial write without losing or duplicating bytes.
func (b *Block) Consume(n int) {
	remaining := b.used - n
	if remaining > 0 {
		copy(b.data[:remaining], b.data[n:b.used])
	}
	b.used = remaining
}

// Next returns the index of the block chained after this one, or -1.
func (b *Block) Next() int { return b.next }

// SetNext chains the block at idx after this one (-1 ends the chain).
func (b *Block) SetNext(idx int) { b.next = idx }

// reset clears the block for return to the free list.
func (b *Block) reset() {
	b.used = 0
}

// Pool is a fixed set of Size blocks linked into a singly-linked free
// list, addressed by array index rather than pointer so the link
// structure can be checked and copied trivially.
type Pool struct {
	blocks []Block
	free   int // index of first free block, or -1
}

// New builds a pool of size blocks, each with the given capacity.
func New(size, capacity int) *Pool {
	p := &Pool{blocks: make([]Block, size)}
	for i := range p.blocks {
		p.blocks[i].data = make([]byte, capacity)
		p.blocks[i].next = i - 1
	}
	p.free = size - 1
	return p
}

// Take pops the free list head. It fails with ErrExhausted when the pool
// has no free blocks left.
func (p *Pool) Take() (int, *Block, error) {
	if p.free < 0 {
		return -1, nil, ErrExhausted
	}
	idx := p.free
	blk := &p.blocks[idx]
	p.free = blk.next
	blk.next = -1
	blk.reset()
	return idx, blk, nil
}

// Release resets a block and returns it to the free list head.
func (p *Pool) Release(idx int) {
	blk := &p.blocks[idx]
	blk.reset()
	blk.next = p.free
	p.free = idx
}

// Block returns a pointer to the block at idx, for callers (the output
// queue) that already hold the index and want to mutate it in place.
func (p *Pool) Block(idx int) *Block {
	return &p.blocks[idx]
}

// Free reports how many blocks are currently unallocated. Exposed for
// invariant checks and tests.
func (p *Pool) Free() int {
	n := 0
	for i := p.free; i >= 0; i = p.blocks[i].next {
		n++
	}
	return n
}

// Size reports the pool's total block count.
func (p *Pool) Size() int {
	return len(p.blocks)
}
