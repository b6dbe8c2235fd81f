// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"

	"github.com/justinmichaud/offasm/arch"
)

// armv7Backend lowers to 32-bit ARM (Thumb-2) assembly.
type armv7Backend struct {
	spec *arch.Spec
}

func (be *armv7Backend) name() string    { return be.spec.Name }
func (be *armv7Backend) comment() string { return "@" }

func (be *armv7Backend) immediate(v int64) string {
	return "#" + strconv.FormatInt(v, 10)
}

func (be *armv7Backend) symbolic(expr string) string {
	return "#" + expr
}

func (be *armv7Backend) register(phys string) string {
	return phys
}

func (be *armv7Backend) address(base, offset string) string {
	if offset == "" {
		return "[" + base + "]"
	}
	return "[" + base + ", #" + offset + "]"
}

func (be *armv7Backend) baseIndex(base, index string, scale int, offset string) (string, error) {
	if offset != "" {
		return "", fmt.Errorf("%s base-index addressing cannot carry a displacement", be.name())
	}
	if scale == 1 {
		return "[" + base + ", " + index + "]", nil
	}
	return fmt.Sprintf("[%s, %s, lsl #%d]", base, index, log2(scale)), nil
}

func (be *armv7Backend) absolute(addr string) (string, error) {
	return "", fmt.Errorf("%s cannot address absolute locations directly", be.name())
}

var armv7Arith = map[string]string{
	"addp": "add",
	"subp": "sub",
	"mulp": "mul",
	"andp": "and",
	"orp":  "orr",
	"xorp": "eor",
}

func (be *armv7Backend) lower(e *emitter, t *Instruction) error {
	if m, ok := armv7Arith[t.Opcode]; ok {
		return lowerThreeAddress(e, t, m)
	}

	switch t.Opcode {
	case "move":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "mov", ops[1], ops[0])
		return nil

	case "loadp":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "ldr", ops[1], ops[0])
		return nil

	case "storep":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "str", ops[0], ops[1])
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
		e.ins(t.at, "push", "{"+ops[0]+", "+ops[1]+"}")
		return nil

	case "pop":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "pop", "{"+ops[0]+", "+ops[1]+"}")
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
			e.ins(t.at, "bx", target)
		} else {
			e.ins(t.at, "b", target)
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
			e.ins(t.at, "blx", target)
		} else {
			e.ins(t.at, "bl", target)
		}
		return nil

	case "ret":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "bx", "lr")
		return nil

	case "break":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "bkpt", "#0")
		return nil

	case "bpeq", "bpneq":
		return lowerCompareBranch(e, t, "beq", "bne")
	}
	return errorNode(t.at, t, "no %s lowering for opcode '%s'", be.name(), t.Opcode)
}

// lowerPair splits a pair load/store into two word accesses over adjacent
// memory words. Pointers are 4 bytes wide on this target.
func (be *armv7Backend) lowerPair(e *emitter, t *Instruction, load bool) error {
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
	next, err := addr.WithOffset(4)
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
		e.ins(t.at, "ldr", r1, lo)
		e.ins(t.at, "ldr", r2, hi)
	} else {
		r1, err := e.operand(t.Operands[0])
		if err != nil {
			return err
		}
		r2, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		e.ins(t.at, "str", r1, lo)
		e.ins(t.at, "str", r2, hi)
	}
	return nil
}
