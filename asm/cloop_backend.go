// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"

	"github.com/justinmichaud/offasm/arch"
)

// cloopBackend lowers to the portable C interpreter loop. Output lines are
// C statements; logical registers render as C variables of the same name
// and labels as C labels, so the result compiles as the body of one
// function built from the host's interpreter harness macros.
type cloopBackend struct {
	spec *arch.Spec
}

func (be *cloopBackend) name() string    { return be.spec.Name }
func (be *cloopBackend) comment() string { return "//" }

func (be *cloopBackend) immediate(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (be *cloopBackend) symbolic(expr string) string {
	return expr
}

func (be *cloopBackend) register(phys string) string {
	return phys
}

func (be *cloopBackend) address(base, offset string) string {
	if offset == "" {
		return base
	}
	return base + " + " + offset
}

func (be *cloopBackend) baseIndex(base, index string, scale int, offset string) (string, error) {
	expr := base + " + " + index + " * " + strconv.Itoa(scale)
	if offset != "" {
		expr += " + " + offset
	}
	return expr, nil
}

func (be *cloopBackend) absolute(addr string) (string, error) {
	return addr, nil
}

func deref(addr string) string {
	return "*CAST<uintptr_t*>(" + addr + ")"
}

var cloopArith = map[string]string{
	"addp": "+",
	"subp": "-",
	"mulp": "*",
	"andp": "&",
	"orp":  "|",
	"xorp": "^",
}

func (be *cloopBackend) lower(e *emitter, t *Instruction) error {
	if op, ok := cloopArith[t.Opcode]; ok {
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		switch len(ops) {
		case 2:
			e.ins(t.at, ops[1]+" = "+ops[1]+" "+op+" "+ops[0]+";")
		case 3:
			e.ins(t.at, ops[2]+" = "+ops[0]+" "+op+" "+ops[1]+";")
		default:
			return errorNode(t.at, t, "opcode '%s' expects 2 or 3 operands, got %d",
				t.Opcode, len(ops))
		}
		return nil
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
		e.ins(t.at, ops[1]+" = "+ops[0]+";")
		return nil

	case "loadp":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, ops[1]+" = "+deref(ops[0])+";")
		return nil

	case "storep":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, deref(ops[1])+" = "+ops[0]+";")
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
		e.ins(t.at, "PUSH("+ops[0]+", "+ops[1]+");")
		return nil

	case "pop":
		if err := e.want(t, 2); err != nil {
			return err
		}
		ops, err := e.operands(t)
		if err != nil {
			return err
		}
		e.ins(t.at, "POP("+ops[0]+", "+ops[1]+");")
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
			e.ins(t.at, "JUMP("+target+");")
		} else {
			e.ins(t.at, "goto "+target+";")
		}
		return nil

	case "call":
		if err := e.want(t, 1); err != nil {
			return err
		}
		target, _, err := e.branchTarget(t.Operands[0])
		if err != nil {
			return err
		}
		e.ins(t.at, "CALL("+target+");")
		return nil

	case "ret":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "RETURN();")
		return nil

	case "break":
		if err := e.want(t, 0); err != nil {
			return err
		}
		e.ins(t.at, "CRASH();")
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
		op := "=="
		if t.Opcode == "bpneq" {
			op = "!="
		}
		e.ins(t.at, "if ("+a+" "+op+" "+b+") goto "+target+";")
		return nil
	}
	return errorNode(t.at, t, "no %s lowering for opcode '%s'", be.name(), t.Opcode)
}

func (be *cloopBackend) lowerPair(e *emitter, t *Instruction, load bool) error {
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
		e.ins(t.at, r1+" = "+deref(lo)+";")
		e.ins(t.at, r2+" = "+deref(hi)+";")
	} else {
		r1, err := e.operand(t.Operands[0])
		if err != nil {
			return err
		}
		r2, err := e.operand(t.Operands[1])
		if err != nil {
			return err
		}
		e.ins(t.at, deref(lo)+" = "+r1+";")
		e.ins(t.at, deref(hi)+" = "+r2+";")
	}
	return nil
}
