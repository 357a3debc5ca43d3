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

package chatserver

import "time"

// Clock is the realtime source the engine reads on every "send" and
// "new". It is a capability supplied to the core, same as the listening
// socket and the readiness primitive, so tests can inject a deterministic
// clock instead of the wall clock.
type Clock interface {
	Now() time.Time
}

// systemClock reads time.Now(). Go's monotonic clock reading, carried
// inside every time.Time produced this way, makes cursor comparisons
// immune to NTP-driven wall-clock regressions: two time.Now() values
// compared with After/Before use their monotonic reading whenever both
// still carry one, which every value here does until explicitly
// stripped.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// FormatLocal renders t as "HH:MM:SS" in the server's local zone. Unlike
// the original C's localtime_r, Go's time package cannot fail this
// conversion, so ok is always true; the signature is kept so the
// close-the-connection-on-conversion-failure edge case stays expressible
// and testable via a fake Context.
func FormatLocal(t time.Time) (string, bool) {
	lt := t.Local()
	return lt.Format("15:04:05"), true
}
