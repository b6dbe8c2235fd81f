// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "fmt"

// An Origin records the macro-assembly source position a node was built
// from. It is attached to every node and used only for diagnostics.
type Origin struct {
	File string
	Line int
}

// At builds an Origin for the given file and line.
func At(file string, line int) Origin {
	return Origin{File: file, Line: line}
}

func (o Origin) IsZero() bool {
	return o.File == "" && o.Line == 0
}

func (o Origin) String() string {
	if o.IsZero() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d", o.File, o.Line)
}

// origin is embedded by every node variant to carry provenance.
type origin struct {
	at Origin
}

func (o origin) Origin() Origin {
	return o.at
}
