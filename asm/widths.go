// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// A Width selects one of the three operand-width variants every
// interpreter opcode is specialized into.
type Width byte

const (
	Narrow Width = iota
	Wide16
	Wide32
)

// Widths lists the variants in emission order.
var Widths = []Width{Narrow, Wide16, Wide32}

// Suffix returns the label suffix distinguishing the variant. The narrow
// variant carries no suffix.
func (w Width) Suffix() string {
	switch w {
	case Wide16:
		return "_wide16"
	case Wide32:
		return "_wide32"
	}
	return ""
}

func (w Width) String() string {
	if w == Narrow {
		return "narrow"
	}
	return w.Suffix()[1:]
}

// An OpcodeTemplate describes one interpreter opcode to be specialized per
// width: a shared prologue, a width-dependent body, and a shared trailer
// emitted only when assertions are enabled. Prologue and Trailer may be
// nil.
type OpcodeTemplate struct {
	At       Origin
	Name     string
	Prologue Node
	Body     func(Width) Node
	Trailer  Node
}

// Specialize expands an opcode template into a statement sequence holding
// all three width variants. Each variant is introduced by a global label
// named after the opcode plus the width suffix; the prologue and trailer
// nodes are shared across variants rather than copied, so the emitted text
// is identical for all three.
func (b *Batch) Specialize(t *OpcodeTemplate, cfg *Config) (Node, error) {
	assert, err := cfg.IsSet(AssertFlag)
	if err != nil {
		return nil, err
	}

	stmts := make([]Node, 0, 4*len(Widths))
	for _, w := range Widths {
		l := b.Label(t.At, t.Name+w.Suffix())
		if err := l.DeclareGlobal(); err != nil {
			return nil, err
		}
		stmts = append(stmts, l)
		if t.Prologue != nil {
			stmts = append(stmts, t.Prologue)
		}
		stmts = append(stmts, t.Body(w))
		if assert && t.Trailer != nil {
			stmts = append(stmts, t.Trailer)
		}
	}
	return NewSequence(t.At, stmts...), nil
}
