package framer

import (
	"bytes"
	"testing"
)

func TestFeedSingleLine(t *testing.T) {
	f := New(32)
	lines, err := f.Feed([]byte("folks\r\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(lines) != 1 || string(lines[0]) != "folks" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFeedAcrossMultipleCalls(t *testing.T) {
	f := New(32)
	lines, err := f.Feed([]byte("sen"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no complete lines yet, got %v", lines)
	}

	lines, err = f.Feed([]byte("d hi\r\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(lines) != 1 || string(lines[0]) != "send hi" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestFeedMultipleLinesInOneCall(t *testing.T) {
	f := New(32)
	lines, err := f.Feed([]byte("ok one\r\nok two\r\nok thr"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(lines) != 2 || string(lines[0]) != "ok one" || string(lines[1]) != "ok two" {
		t.Fatalf("unexpected lines: %v", lines)
	}

	lines, err = f.Feed([]byte("ee\r\n"))
	if err != nil {
		t.Fatalf("Feed returned error: %v", err)
	}
	if len(lines) != 1 || string(lines[0]) != "ok three" {
		t.Fatalf("unexpected remainder line: %v", lines)
	}
}

func TestFeedOversizeWithoutTerminator(t *testing.T) {
	f := New(8)
	_, err := f.Feed(bytes.Repeat([]byte("a"), 8))
	if err != ErrOversize {
		t.Fatalf("expected ErrOversize, got %v", err)
	}
}

func TestFeedOversizeAcrossCalls(t *testing.T) {
	f := New(8)
	if _, err := f.Feed([]byte("aaaa")); err != nil {
		t.Fatalf("unexpected error on first feed: %v", err)
	}
	_, err := f.Feed([]byte("aaaa"))
	if err != ErrOversize {
		t.Fatalf("expected ErrOversize once buffer fills, got %v", err)
	}
}

func TestRemainingShrinksAsBytesAccumulate(t *testing.T) {
	f := New(10)
	if f.Remaining() != 10 {
		t.Fatalf("expected Remaining 10 on a fresh framer, got %d", f.Remaining())
	}
	if _, err := f.Feed([]byte("abc")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Remaining() != 7 {
		t.Fatalf("expected Remaining 7 after 3 bytes fed, got %d", f.Remaining())
	}
}
