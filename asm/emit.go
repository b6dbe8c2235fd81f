// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/justinmichaud/offasm/arch"
)

// A backend lowers the architecture-neutral instruction set to one
// target's assembly syntax. Backends are selected by the configuration's
// architecture choice; there is exactly one per arch.Family.
type backend interface {
	name() string
	comment() string

	immediate(v int64) string
	symbolic(expr string) string
	register(phys string) string
	address(base, offset string) string
	baseIndex(base, index string, scale int, offset string) (string, error)
	absolute(addr string) (string, error)

	lower(e *emitter, inst *Instruction) error
}

func newBackend(spec *arch.Spec) backend {
	switch spec.Family {
	case arch.ARM64, arch.ARM64E:
		return &arm64Backend{spec}
	case arch.ARMv7:
		return &armv7Backend{spec}
	case arch.X86_64:
		return &x86Backend{spec}
	case arch.RISCV64:
		return &riscvBackend{spec}
	case arch.CLoop:
		return &cloopBackend{spec}
	}
	panic("unreachable: no backend for " + spec.Name)
}

// The emitter is the state of one code-lowering pass: the output lines,
// their per-line provenance, the constant bindings accumulated from
// ConstDecl statements, and the labels already declared.
type emitter struct {
	cfg     *Config
	batch   *Batch
	be      backend
	lines   []string
	origins []Origin
	consts  map[*Variable]Node
	emitted map[*Label]bool
	out     io.Writer
	verbose bool
}

func newEmitter(cfg *Config, b *Batch, out io.Writer, verbose bool) *emitter {
	return &emitter{
		cfg:     cfg,
		batch:   b,
		be:      newBackend(cfg.Arch()),
		consts:  make(map[*Variable]Node),
		emitted: make(map[*Label]bool),
		out:     out,
		verbose: verbose,
	}
}

// line appends one line of target text, recording its provenance.
func (e *emitter) line(at Origin, text string) {
	e.lines = append(e.lines, text)
	e.origins = append(e.origins, at)
	if e.verbose {
		fmt.Fprintf(e.out, "%-14s | %s\n", at, text)
	}
}

// ins appends one indented instruction line.
func (e *emitter) ins(at Origin, mnemonic string, operands ...string) {
	if len(operands) == 0 {
		e.line(at, "    "+mnemonic)
		return
	}
	e.line(at, "    "+mnemonic+" "+strings.Join(operands, ", "))
}

func (e *emitter) directive(at Origin, text string) {
	e.line(at, text)
}

// emit lowers one statement tree to target text.
func (e *emitter) emit(n Node) error {
	switch t := n.(type) {
	case *Sequence:
		for _, s := range t.Splice().Stmts {
			if err := e.emit(s); err != nil {
				return err
			}
		}
		return nil

	case *Label:
		return e.emitLabel(t)

	case *LocalLabel:
		e.directive(t.at, e.cfg.Arch().LocalPrefix+t.Name+":")
		return nil

	case *Instruction:
		return e.emitInstruction(t)

	case *ConstDecl:
		// Bindings feed operand rendering; the declaration itself emits
		// no target text.
		e.consts[t.Name] = t.Value
		return nil

	case *Skip:
		return nil

	case *ErrorStmt:
		return errorNode(t.at, t, "error statement reached emission; configuration folding should have pruned this path")

	case *MacroCall:
		return errorNode(t.at, t, "unexpanded macro invocation reached emission")

	case *Macro:
		return errorNode(t.at, t, "macro definition reached emission")
	}
	return errorNode(n.Origin(), n, "statement cannot be lowered")
}

// emitLabel renders a label declaration with the visibility and alignment
// qualifiers derived from its accumulated flags. Emitting a label defines
// it in the compiled unit.
func (e *emitter) emitLabel(l *Label) error {
	if e.emitted[l] {
		return errorf(l.at, "label '%s' emitted more than once", l.Name)
	}
	e.emitted[l] = true
	if !l.DefinedInFile() {
		if err := l.DefineInFile(); err != nil {
			return err
		}
	}

	spec := e.cfg.Arch()
	if l.IsGlobal() && spec.Family != arch.CLoop {
		if spec.TextSection != "" {
			e.directive(l.at, spec.TextSection)
		}
		if l.IsAligned() {
			if trap := spec.AlignTrap(l.AlignTo()); trap != "" {
				e.directive(l.at, trap)
			}
		} else if spec.Align != "" {
			e.directive(l.at, spec.Align)
		}
		e.directive(l.at, ".globl "+l.Name)
		if !l.IsExport() {
			e.directive(l.at, ".hidden "+l.Name)
		}
		if spec.ThumbFunc {
			e.directive(l.at, ".thumb")
			e.directive(l.at, ".thumb_func "+l.Name)
		}
	} else if l.IsAligned() {
		if trap := spec.AlignTrap(l.AlignTo()); trap != "" {
			e.directive(l.at, trap)
		}
	}
	e.directive(l.at, l.Name+":")
	return nil
}

func (e *emitter) emitInstruction(t *Instruction) error {
	start := len(e.lines)
	if err := e.be.lower(e, t); err != nil {
		return err
	}
	if t.Annotation != "" && len(e.lines) > start {
		e.lines[len(e.lines)-1] += " " + e.be.comment() + " " + t.Annotation
	}
	return nil
}

// want checks an instruction's operand count.
func (e *emitter) want(t *Instruction, n int) error {
	if len(t.Operands) != n {
		return errorNode(t.at, t, "opcode '%s' expects %d operands, got %d",
			t.Opcode, n, len(t.Operands))
	}
	return nil
}

// operands renders every operand of an instruction.
func (e *emitter) operands(t *Instruction) ([]string, error) {
	out := make([]string, len(t.Operands))
	for i, op := range t.Operands {
		s, err := e.operand(op)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// operand renders one value node in instruction-operand position.
func (e *emitter) operand(n Node) (string, error) {
	switch t := n.(type) {
	case *Immediate:
		return e.be.immediate(t.Value), nil

	case *StringLiteral:
		return t.String(), nil

	case *RegisterID:
		return e.physical(t, t.Name, e.cfg.Arch().GP)

	case *FPRegisterID:
		return e.physical(t, t.Name, e.cfg.Arch().FP)

	case *VecRegisterID:
		return e.physical(t, t.Name, e.cfg.Arch().Vec)

	case *SpecialRegister:
		return e.physical(t, t.Name, e.cfg.Arch().Special)

	case *Variable:
		bound, ok := e.consts[t]
		if !ok {
			return "", errorNode(t.at, t, "variable '%s' is not bound to a constant", t.Name)
		}
		return e.operand(bound)

	case *ConstExpr:
		return e.be.symbolic(t.Text), nil

	case *StructOffset, *Sizeof, *ArithImm:
		if v, resolved, err := e.evalImm(n); err != nil {
			return "", err
		} else if resolved {
			return e.be.immediate(v), nil
		}
		bare, err := e.bareImm(n)
		if err != nil {
			return "", err
		}
		return e.be.symbolic(bare), nil

	case *Address:
		base, err := e.operand(t.Base)
		if err != nil {
			return "", err
		}
		off, err := e.offsetText(t.Offset)
		if err != nil {
			return "", err
		}
		return e.be.address(base, off), nil

	case *BaseIndex:
		base, err := e.operand(t.Base)
		if err != nil {
			return "", err
		}
		index, err := e.operand(t.Index)
		if err != nil {
			return "", err
		}
		off, err := e.offsetText(t.Offset)
		if err != nil {
			return "", err
		}
		return e.be.baseIndex(base, index, t.Scale, off)

	case *AbsoluteAddress:
		addr, err := e.offsetText(t.Addr)
		if err != nil {
			return "", err
		}
		return e.be.absolute(addr)

	case *LabelReference:
		if t.Offset != 0 {
			return fmt.Sprintf("%s+%d", t.Target.Name, t.Offset), nil
		}
		return t.Target.Name, nil

	case *LocalLabelReference:
		return e.cfg.Arch().LocalPrefix + t.Target.Name, nil
	}
	return "", errorNode(n.Origin(), n, "cannot render as an operand")
}

func (e *emitter) physical(n Node, logical string, table map[string]string) (string, error) {
	phys, ok := table[logical]
	if !ok {
		return "", errorNode(n.Origin(), n, "register '%s' has no %s assignment",
			logical, e.be.name())
	}
	return e.be.register(phys), nil
}

// offsetText renders an immediate-valued node bare, with an empty string
// standing for a zero displacement.
func (e *emitter) offsetText(n Node) (string, error) {
	v, resolved, err := e.evalImm(n)
	if err != nil {
		return "", err
	}
	if resolved {
		if v == 0 {
			return "", nil
		}
		return strconv.FormatInt(v, 10), nil
	}
	return e.bareImm(n)
}

// evalImm evaluates an immediate-valued node. resolved is false when the
// value depends on an opaque host expression and must stay symbolic.
func (e *emitter) evalImm(n Node) (v int64, resolved bool, err error) {
	switch t := n.(type) {
	case *Immediate:
		return t.Value, true, nil

	case *ConstExpr:
		return 0, false, nil

	case *StructOffset:
		if e.cfg.Layout == nil {
			return 0, false, errorNode(t.at, t, "no layout resolver configured")
		}
		v, err := e.cfg.Layout.StructOffset(t.Struct, t.Field)
		if err != nil {
			return 0, false, errorNode(t.at, t, "%v", err)
		}
		return v, true, nil

	case *Sizeof:
		if e.cfg.Layout == nil {
			return 0, false, errorNode(t.at, t, "no layout resolver configured")
		}
		v, err := e.cfg.Layout.SizeOf(t.Struct)
		if err != nil {
			return 0, false, errorNode(t.at, t, "%v", err)
		}
		return v, true, nil

	case *Variable:
		bound, ok := e.consts[t]
		if !ok {
			return 0, false, errorNode(t.at, t, "variable '%s' is not bound to a constant", t.Name)
		}
		return e.evalImm(bound)

	case *ArithImm:
		x, xres, err := e.evalImm(t.X)
		if err != nil {
			return 0, false, err
		}
		op := immOps[t.Op]
		if op.unary {
			if !xres {
				return 0, false, nil
			}
			return op.eval(x, 0), true, nil
		}
		y, yres, err := e.evalImm(t.Y)
		if err != nil {
			return 0, false, err
		}
		if !xres || !yres {
			return 0, false, nil
		}
		return op.eval(x, y), true, nil
	}
	return 0, false, errorNode(n.Origin(), n, "not immediate-valued")
}

// bareImm renders an immediate-valued node as a host-side expression with
// no target-specific immediate prefix.
func (e *emitter) bareImm(n Node) (string, error) {
	if v, resolved, err := e.evalImm(n); err != nil {
		return "", err
	} else if resolved {
		return strconv.FormatInt(v, 10), nil
	}
	switch t := n.(type) {
	case *ConstExpr:
		return "(" + t.Text + ")", nil

	case *Variable:
		return e.bareImm(e.consts[t])

	case *ArithImm:
		op := immOps[t.Op]
		x, err := e.bareImm(t.X)
		if err != nil {
			return "", err
		}
		if op.unary {
			return "(" + op.symbol + x + ")", nil
		}
		y, err := e.bareImm(t.Y)
		if err != nil {
			return "", err
		}
		return "(" + x + " " + op.symbol + " " + y + ")", nil
	}
	return "", errorNode(n.Origin(), n, "not immediate-valued")
}

// branchTarget renders a jump/call operand and reports whether it is an
// indirect (register) target.
func (e *emitter) branchTarget(n Node) (string, bool, error) {
	switch n.(type) {
	case *LabelReference, *LocalLabelReference:
		s, err := e.operand(n)
		return s, false, err
	case *RegisterID, *SpecialRegister:
		s, err := e.operand(n)
		return s, true, err
	}
	return "", false, errorNode(n.Origin(), n, "branch target must be a label or register")
}
