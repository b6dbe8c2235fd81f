// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"

	"github.com/justinmichaud/offasm/arch"
)

// arm64Backend lowers to AArch64 assembly. It also serves ARM64E, which
// shares the instruction syntax and differs only in pointer-signing
// behavior outside this compiler's scope.
type arm64Backend struct {
	spec *arch.Spec
}

func (be *arm64Backend) name() string    { return be.spec.Name }
func (be *arm64Backend) comment() string { return "//" }

func (be *arm64Backend) immediate(v int64) string {
	return "#" + strconv.FormatInt(v, 10)
}

func (be *arm64Backend) symbolic(expr string) string {
	return "#" + expr
}

func (be *arm64Backend) register(phys string) string {
	return phys
}

func (be *arm64Backend) address(base, offset string) string {
	if offset == "" {
		return "[" + base + "]"
	}
	return "[" + base + ", #" + offset + "]"
}

func (be *arm64Backend) baseIndex(base, index string, scale int, offset string) (string, error) {
	if offset != "" {
		return "", fmt.Errorf("%s base-index addressing cannot carry a displacement", be.name())
	}
	if scale == 1 {
		return "[" + base + ", " + index + "]", nil
	}
	return fmt.Sprintf("[%s, %s, lsl #%d]", base, index, log2(scale)), nil
}

func (be *arm64Backend) absolute(addr string) (string, error) {
	return "", fmt.Errorf("%s cannot address absolute locations directly", be.name())
}

// Three-address mnemonics for the two-operand macro-assembly arithmetic
// forms.
var arm64Arith = map[string]string{
	"addp": "add",
	"subp": "sub",
	"mulp": "mul",
	"andp": "and",
	"orp":  "orr",
	"xorp": "eor",
}

func (be *arm64Backend) lower(e *emitter, t *Instruction) error {
	if m, ok := arm64Arith[t.Opcode]; ok {
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
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "ldp", ops[1], ops[2], ops[0])
		return nil

	case "storepairp":
		if err := e.want(t, 3); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "stp", ops[0], ops[1], ops[2])
		return nil

	case "push":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "stp", ops[0], ops[1], "[sp, #-16]!")
		return nil

	case "pop":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "ldp", ops[0], ops[1], "[sp], #16")
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
			e.ins(t.at, "br", target)
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
			e.ins(t.at, "blr", target)
		} else {
			e.ins(t.at, "bl", target)
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
		e.ins(t.at, "brk", "#0")
		return nil

	case "bpeq", "bpneq":
		return lowerCompareBranch(e, t, "b.eq", "b.ne")
	}
	return errorNode(t.at, t, "no %s lowering for opcode '%s'", be.name(), t.Opcode)
}

// lowerThreeAddress lowers the two- and three-operand arithmetic forms to
// a three-address mnemonic: op src, dst and op a, b, dst.
func lowerThreeAddress(e *emitter, t *Instruction, mnemonic string) error {
	ops, err := e.operands(t)
	if err != nil {
		return err
	}
	switch len(ops) {
	case 2:
		e.ins(t.at, mnemonic, ops[1], ops[1], ops[0])
	case 3:
		e.ins(t.at, mnemonic, ops[2], ops[0], ops[1])
	default:
		return errorNode(t.at, t, "opcode '%s' expects 2 or 3 operands, got %d",
			t.Opcode, len(ops))
	}
	return nil
}

// lowerCompareBranch lowers bpeq/bpneq a, b, target to a compare followed
// by a conditional branch.
func lowerCompareBranch(e *emitter, t *Instruction, eq, ne string) error {
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
	e.ins(t.at, "cmp", a, b)
	if t.Opcode == "bpeq" {
		e.ins(t.at, eq, target)
	} else {
		e.ins(t.at, ne, target)
	}
	return nil
}

func log2(scale int) int {
	n := 0
	for s := scale; s > 1; s >>= 1 {
		n++
	}
	return n
}
