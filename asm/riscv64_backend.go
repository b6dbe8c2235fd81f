// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"

	"github.com/justinmichaud/offasm/arch"
)

// riscvBackend lowers to RV64 assembly.
type riscvBackend struct {
	spec *arch.Spec
}

func (be *riscvBackend) name() string    { return be.spec.Name }
func (be *riscvBackend) comment() string { return "#" }

func (be *riscvBackend) immediate(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (be *riscvBackend) symbolic(expr string) string {
	return expr
}

func (be *riscvBackend) register(phys string) string {
	return phys
}

func (be *riscvBackend) address(base, offset string) string {
	if offset == "" {
		return "0(" + base + ")"
	}
	return offset + "(" + base + ")"
}

func (be *riscvBackend) baseIndex(base, index string, scale int, offset string) (string, error) {
	return "", fmt.Errorf("%s has no scaled addressing mode", be.name())
}

func (be *riscvBackend) absolute(addr string) (string, error) {
	return "", fmt.Errorf("%s cannot address absolute locations directly", be.name())
}

var riscvArith = map[string]string{
	"addp": "add",
	"subp": "sub",
	"mulp": "mul",
	"andp": "and",
	"orp":  "or",
	"xorp": "xor",
}

func (be *riscvBackend) lower(e *emitter, t *Instruction) error {
	if m, ok := riscvArith[t.Opcode]; ok {
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
		// mv only accepts a register source; materialize immediates.
		switch t.Operands[0].(type) {
		case *RegisterID, *SpecialRegister:
			e.ins(t.at, "mv", ops[1], ops[0])
		default:
			e.ins(t.at, "li", ops[1], ops[0])
		}
		return nil

	case "loadp":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "ld", ops[1], ops[0])
		return nil

	case "storep":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "sd", ops[0], ops[1])
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
		e.ins(t.at, "addi", "sp", "sp", "-16")
		e.ins(t.at, "sd", ops[0], "0(sp)")
		e.ins(t.at, "sd", ops[1], "8(sp)")
		return nil

	case "pop":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "ld", ops[0], "0(sp)")
		e.ins(t.at, "ld", ops[1], "8(sp)")
		e.ins(t.at, "addi", "sp", "sp", "16")
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
			e.ins(t.at, "jr", target)
		} else {
			e.ins(t.at, "j", target)
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
			e.ins(t.at, "jalr", target)
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
		e.ins(t.at, "ebreak")
		return nil

	case "bpeq", "bpneq":
		// Compare-and-branch is a single instruction here.
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
		if t.Opcode == "bpeq" {
			e.ins(t.at, "beq", a, b, target)
		} else {
			e.ins(t.at, "bne", a, b, target)
		}
		return nil
	}
	return errorNode(t.at, t, "no %s lowering for opcode '%s'", be.name(), t.Opcode)
}

// lowerPair splits a pair load/store into two doubleword accesses over
// adjacent memory words.
func (be *riscvBackend) lowerPair(e *emitter, t *Instruction, load bool) error {
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
		e.ins(t.at, "ld", r1, lo)
		e.ins(t.at, "ld", r2, hi)
	} else {
		r1, err := e.operand(t.Operands[0])
		if err != nil {
			return err
		}
		r2, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		e.ins(t.at, "sd", r1, lo)
		e.ins(t.at, "sd", r2, hi)
	}
	return nil
}
