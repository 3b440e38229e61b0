// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shardalloc

import (
	"os"

	"github.com/rs/zerolog"
)

// defaultLogger is silent by default; a real process wires its own
// logger in through Config.Logger. The allocator never logs on the
// allocate/free fast path, only around Init and the comparatively rare
// events of heap growth and page-ref recycling.
func defaultLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.Disabled).
		With().Timestamp().Logger()
}
