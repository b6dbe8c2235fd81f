// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"

	"github.com/justinmichaud/offasm/arch"
)

// x86Backend lowers to x86-64 assembly in AT&T syntax.
type x86Backend struct {
	spec *arch.Spec
}

func (be *x86Backend) name() string    { return be.spec.Name }
func (be *x86Backend) comment() string { return "#" }

func (be *x86Backend) immediate(v int64) string {
	return "$" + strconv.FormatInt(v, 10)
}

func (be *x86Backend) symbolic(expr string) string {
	return "$" + expr
}

func (be *x86Backend) register(phys string) string {
	return "%" + phys
}

func (be *x86Backend) address(base, offset string) string {
	return offset + "(" + base + ")"
}

func (be *x86Backend) baseIndex(base, index string, scale int, offset string) (string, error) {
	return fmt.Sprintf("%s(%s,%s,%d)", offset, base, index, scale), nil
}

func (be *x86Backend) absolute(addr string) (string, error) {
	return addr, nil
}

var x86Arith = map[string]string{
	"addp": "addq",
	"subp": "subq",
	"mulp": "imulq",
	"andp": "andq",
	"orp":  "orq",
	"xorp": "xorq",
}

func (be *x86Backend) lower(e *emitter, t *Instruction) error {
	if m, ok := x86Arith[t.Opcode]; ok {
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, m, ops[0], ops[1])
		return nil
	}

	switch t.Opcode {
	case "move", "loadp", "storep":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "movq", ops[0], ops[1])
		return nil

	case "loadpairp":
		if err := e.want(t, 3); err != nil {
			return err
		}
		return be.lowerPair(e, t, true)

	case "storepairp":
		if err := e.want(t, 3); err != nil {
			return err
		}
		return be.lowerPair(e, t, false)

	case "push":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "pushq", ops[0])
		e.ins(t.at, "pushq", ops[1])
		return nil

	case "pop":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "popq", ops[0])
		e.ins(t.at, "popq", ops[1])
		return nil

	case "jmp":
		if err := e.want(t, 1); err != nil {
			return err
		}
		target, indirect, err := e.branchTarget(t.Operands[0])
		if err != nil {
			return err
		}
		if indirect {
			e.ins(t.at, "jmp", "*"+target)
		} else {
			e.ins(t.at, "jmp", target)
		}
		return nil

	case "call":
		if err := e.want(t, 1); err != nil {
			return err
		}
		target, indirect, err := e.branchTarget(t.Operands[0])
		if err != nil {
			return err
		}
		if indirect {
			e.ins(t.at, "call", "*"+target)
		} else {
			e.ins(t.at, "call", target)
		}
		return nil

	case "ret":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "ret")
		return nil

	case "break":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "int3")
		return nil

	case "bpeq", "bpneq":
		if err := e.want(t, 3); err != nil {
			return err
		}
		a, err := e.operand(t.Operands[0])
		if err != nil {
			return err
		}
		b, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		target, indirect, err := e.branchTarget(t.Operands[2])
		if err != nil {
			return err
		}
		if indirect {
			return errorNode(t.at, t, "conditional branch target must be a label")
		}
		// AT&T compare order: cmpq b, a sets flags for a ? b.
		e.ins(t.at, "cmpq", b, a)
		if t.Opcode == "bpeq" {
			e.ins(t.at, "je", target)
		} else {
			e.ins(t.at, "jne", target)
		}
		return nil
	}
	return errorNode(t.at, t, "no %s lowering for opcode '%s'", be.name(), t.Opcode)
}

// lowerPair splits a pair load/store into two movq instructions over
// adjacent memory words.
func (be *x86Backend) lowerPair(e *emitter, t *Instruction, load bool) error {
	var mem Node
	if load {
		mem = t.Operands[0]
	} else {
		mem = t.Operands[2]
	}
	addr, ok := mem.(*Address)
	if !ok {
		return errorNode(t.at, t, "pair access requires a base-offset address")
	}
	next, err := addr.WithOffset(8)
	if err != nil {
		return errorNode(t.at, t, "pair access requires a literal address offset")
	}

	lo, err := e.operand(addr)
	if err != nil {
		return err
	}
	hi, err := e.operand(next)
	if err != nil {
		return err
	}
	if load {
		r1, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		r2, err := e.operand(t.Operands[2])
		if err != nil {
			return err
		}
		e.ins(t.at, "movq", lo, r1)
		e.ins(t.at, "movq", hi, r2)
	} else {
		r1, err := e.operand(t.Operands[0])
		if err != nil {
			return err
		}
		r2, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		e.ins(t.at, "movq", r1, lo)
		e.ins(t.at, "movq", r2, hi)
	}
	return nil
}
