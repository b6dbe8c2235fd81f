// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "fmt"

// A CompileError is a fatal error raised by any stage of the compiler. It
// carries the origin of the offending construct and, when available, the
// construct's macro-assembly rendering.
type CompileError struct {
	At        Origin
	Construct string
	Msg       string
}

func (e *CompileError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("%s: %s: '%s'", e.At, e.Msg, e.Construct)
	}
	return fmt.Sprintf("%s: %s", e.At, e.Msg)
}

func errorf(at Origin, format string, args ...any) *CompileError {
	return &CompileError{At: at, Msg: fmt.Sprintf(format, args...)}
}

func errorNode(at Origin, n Node, format string, args ...any) *CompileError {
	return &CompileError{At: at, Construct: n.String(), Msg: fmt.Sprintf(format, args...)}
}
