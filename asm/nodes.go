// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
)

//
// Leaf values
//

// An Immediate is a literal integer operand.
type Immediate struct {
	origin
	Value int64
}

// Imm builds an immediate literal.
func Imm(at Origin, v int64) *Immediate {
	return &Immediate{origin{at}, v}
}

func (n *Immediate) Children() []Node          { return nil }
func (n *Immediate) WithChildren([]Node) Node  { return n }
func (n *Immediate) String() string            { return strconv.FormatInt(n.Value, 10) }

// A StringLiteral is a quoted text operand, used by diagnostic opcodes.
type StringLiteral struct {
	origin
	Value string
}

// Str builds a string literal.
func Str(at Origin, s string) *StringLiteral {
	return &StringLiteral{origin{at}, s}
}

func (n *StringLiteral) Children() []Node         { return nil }
func (n *StringLiteral) WithChildren([]Node) Node { return n }
func (n *StringLiteral) String() string           { return strconv.Quote(n.Value) }

// A RegisterID names a logical general-purpose register. RegisterIDs are
// interned: construct them through Batch.Register so that two occurrences of
// the same name share one node.
type RegisterID struct {
	origin
	Name string
}

func (n *RegisterID) Children() []Node         { return nil }
func (n *RegisterID) WithChildren([]Node) Node { return n }
func (n *RegisterID) String() string           { return n.Name }

// An FPRegisterID names a logical floating-point register. Interned.
type FPRegisterID struct {
	origin
	Name string
}

func (n *FPRegisterID) Children() []Node         { return nil }
func (n *FPRegisterID) WithChildren([]Node) Node { return n }
func (n *FPRegisterID) String() string           { return n.Name }

// A VecRegisterID names a logical vector register. Interned.
type VecRegisterID struct {
	origin
	Name string
}

func (n *VecRegisterID) Children() []Node         { return nil }
func (n *VecRegisterID) WithChildren([]Node) Node { return n }
func (n *VecRegisterID) String() string           { return n.Name }

// A SpecialRegister names a target-reserved scratch register. Interned.
type SpecialRegister struct {
	origin
	Name string
}

func (n *SpecialRegister) Children() []Node         { return nil }
func (n *SpecialRegister) WithChildren([]Node) Node { return n }
func (n *SpecialRegister) String() string           { return n.Name }

// A Variable names a macro parameter or a constant bound by a ConstDecl.
// Interned by name; DisplayName, when set, is used for diagnostics instead
// of the raw name.
type Variable struct {
	origin
	Name        string
	DisplayName string
}

func (n *Variable) Children() []Node         { return nil }
func (n *Variable) WithChildren([]Node) Node { return n }

func (n *Variable) String() string {
	if n.DisplayName != "" {
		return n.DisplayName
	}
	return n.Name
}

// A ConstExpr is an opaque host-language constant expression, resolved by
// the downstream toolchain rather than by this compiler. Interned by text.
type ConstExpr struct {
	origin
	Text string
}

func (n *ConstExpr) Children() []Node         { return nil }
func (n *ConstExpr) WithChildren([]Node) Node { return n }
func (n *ConstExpr) String() string           { return "constexpr " + n.Text }

// A Setting names a configuration flag inside a conditional predicate.
// Interned.
type Setting struct {
	origin
	Name string
}

func (n *Setting) Children() []Node         { return nil }
func (n *Setting) WithChildren([]Node) Node { return n }
func (n *Setting) String() string           { return n.Name }

// A BoolLiteral is a boolean constant in the settings sublanguage. The two
// values are the package-wide singletons True and False.
type BoolLiteral struct {
	Value bool
}

// True and False are the only BoolLiteral instances.
var (
	True  = &BoolLiteral{true}
	False = &BoolLiteral{false}
)

func (n *BoolLiteral) Origin() Origin           { return Origin{} }
func (n *BoolLiteral) Children() []Node         { return nil }
func (n *BoolLiteral) WithChildren([]Node) Node { return n }

func (n *BoolLiteral) String() string {
	if n.Value {
		return "true"
	}
	return "false"
}

//
// Addressing forms
//

// isAddressBase reports whether n may serve as the base of an addressing
// form.
func isAddressBase(n Node) bool {
	switch n.(type) {
	case *RegisterID, *SpecialRegister, *Variable:
		return true
	}
	return false
}

// isImmediateValued reports whether n evaluates to an immediate at emission
// time.
func isImmediateValued(n Node) bool {
	switch n.(type) {
	case *Immediate, *ConstExpr, *StructOffset, *Sizeof, *Variable, *ArithImm:
		return true
	}
	return false
}

// An Address is a base-plus-offset memory reference.
type Address struct {
	origin
	Base   Node
	Offset Node
}

// NewAddress builds an offset[base] memory reference. The base must be a
// register or variable and the offset must be immediate-valued.
func NewAddress(at Origin, base, offset Node) (*Address, error) {
	if !isAddressBase(base) {
		return nil, errorNode(at, base, "address base must be a register or variable")
	}
	if !isImmediateValued(offset) {
		return nil, errorNode(at, offset, "address offset must be immediate-valued")
	}
	return &Address{origin{at}, base, offset}, nil
}

func (n *Address) Children() []Node { return []Node{n.Base, n.Offset} }

func (n *Address) WithChildren(c []Node) Node {
	return &Address{n.origin, c[0], c[1]}
}

func (n *Address) String() string {
	return fmt.Sprintf("%s[%s]", n.Offset, n.Base)
}

// WithOffset returns a copy of the address with extra added to the offset.
// The offset must already be a literal immediate.
func (n *Address) WithOffset(extra int64) (*Address, error) {
	imm, ok := n.Offset.(*Immediate)
	if !ok {
		return nil, errorNode(n.at, n, "cannot offset an address whose offset is not a literal")
	}
	return &Address{n.origin, n.Base, Imm(imm.at, imm.Value+extra)}, nil
}

// A BaseIndex is a base-plus-scaled-index memory reference.
type BaseIndex struct {
	origin
	Base   Node
	Index  Node
	Scale  int
	Offset Node
}

// NewBaseIndex builds an offset[base, index, scale] memory reference. The
// scale must be 1, 2, 4 or 8.
func NewBaseIndex(at Origin, base, index Node, scale int, offset Node) (*BaseIndex, error) {
	switch scale {
	case 1, 2, 4, 8:
	default:
		return nil, errorf(at, "invalid base-index scale %d", scale)
	}
	if !isAddressBase(base) {
		return nil, errorNode(at, base, "base-index base must be a register or variable")
	}
	if !isAddressBase(index) {
		return nil, errorNode(at, index, "base-index index must be a register or variable")
	}
	if !isImmediateValued(offset) {
		return nil, errorNode(at, offset, "base-index offset must be immediate-valued")
	}
	return &BaseIndex{origin{at}, base, index, scale, offset}, nil
}

func (n *BaseIndex) Children() []Node { return []Node{n.Base, n.Index, n.Offset} }

func (n *BaseIndex) WithChildren(c []Node) Node {
	return &BaseIndex{n.origin, c[0], c[1], n.Scale, c[2]}
}

func (n *BaseIndex) String() string {
	return fmt.Sprintf("%s[%s, %s, %d]", n.Offset, n.Base, n.Index, n.Scale)
}

// WithOffset returns a copy of the reference with extra added to the
// offset. The offset must already be a literal immediate.
func (n *BaseIndex) WithOffset(extra int64) (*BaseIndex, error) {
	imm, ok := n.Offset.(*Immediate)
	if !ok {
		return nil, errorNode(n.at, n, "cannot offset a base-index whose offset is not a literal")
	}
	return &BaseIndex{n.origin, n.Base, n.Index, n.Scale, Imm(imm.at, imm.Value+extra)}, nil
}

// An AbsoluteAddress is a memory reference at a fixed address.
type AbsoluteAddress struct {
	origin
	Addr Node
}

// NewAbsoluteAddress builds an absolute memory reference. The address must
// be immediate-valued.
func NewAbsoluteAddress(at Origin, addr Node) (*AbsoluteAddress, error) {
	if !isImmediateValued(addr) {
		return nil, errorNode(at, addr, "absolute address must be immediate-valued")
	}
	return &AbsoluteAddress{origin{at}, addr}, nil
}

func (n *AbsoluteAddress) Children() []Node { return []Node{n.Addr} }

func (n *AbsoluteAddress) WithChildren(c []Node) Node {
	return &AbsoluteAddress{n.origin, c[0]}
}

func (n *AbsoluteAddress) String() string {
	return fmt.Sprintf("[%s]", n.Addr)
}

// WithOffset returns a copy of the reference with extra added to the
// address. The address must already be a literal immediate.
func (n *AbsoluteAddress) WithOffset(extra int64) (*AbsoluteAddress, error) {
	imm, ok := n.Addr.(*Immediate)
	if !ok {
		return nil, errorNode(n.at, n, "cannot offset an absolute address that is not a literal")
	}
	return &AbsoluteAddress{n.origin, Imm(imm.at, imm.Value+extra)}, nil
}

//
// Arithmetic on immediates
//

// An ImmOp selects an arithmetic operation over immediate-valued children.
type ImmOp byte

const (
	AddImm ImmOp = iota
	SubImm
	MulImm
	OrImm
	AndImm
	XorImm
	NegImm
	BitnotImm
)

type immOpData struct {
	symbol string
	unary  bool
	eval   func(a, b int64) int64
}

var immOps = []immOpData{
	{"+", false, func(a, b int64) int64 { return a + b }},
	{"-", false, func(a, b int64) int64 { return a - b }},
	{"*", false, func(a, b int64) int64 { return a * b }},
	{"|", false, func(a, b int64) int64 { return a | b }},
	{"&", false, func(a, b int64) int64 { return a & b }},
	{"^", false, func(a, b int64) int64 { return a ^ b }},
	{"-", true, func(a, b int64) int64 { return -a }},
	{"~", true, func(a, b int64) int64 { return ^a }},
}

// An ArithImm is an arithmetic expression over immediate-valued children.
// It is evaluated at emission time, never folded earlier.
type ArithImm struct {
	origin
	Op ImmOp
	X  Node
	Y  Node // nil when Op is unary
}

func newArith(at Origin, op ImmOp, x, y Node) *ArithImm {
	return &ArithImm{origin{at}, op, x, y}
}

// AddImmediates builds x + y.
func AddImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, AddImm, x, y) }

// SubImmediates builds x - y.
func SubImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, SubImm, x, y) }

// MulImmediates builds x * y.
func MulImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, MulImm, x, y) }

// OrImmediates builds x | y.
func OrImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, OrImm, x, y) }

// AndImmediates builds x & y.
func AndImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, AndImm, x, y) }

// XorImmediates builds x ^ y.
func XorImmediates(at Origin, x, y Node) *ArithImm { return newArith(at, XorImm, x, y) }

// NegImmediate builds -x.
func NegImmediate(at Origin, x Node) *ArithImm { return newArith(at, NegImm, x, nil) }

// BitnotImmediate builds ~x.
func BitnotImmediate(at Origin, x Node) *ArithImm { return newArith(at, BitnotImm, x, nil) }

func (n *ArithImm) Children() []Node {
	if immOps[n.Op].unary {
		return []Node{n.X}
	}
	return []Node{n.X, n.Y}
}

func (n *ArithImm) WithChildren(c []Node) Node {
	if immOps[n.Op].unary {
		return &ArithImm{n.origin, n.Op, c[0], nil}
	}
	return &ArithImm{n.origin, n.Op, c[0], c[1]}
}

func (n *ArithImm) String() string {
	op := immOps[n.Op]
	if op.unary {
		return fmt.Sprintf("(%s%s)", op.symbol, n.X)
	}
	return fmt.Sprintf("(%s %s %s)", n.X, op.symbol, n.Y)
}

//
// Boolean expressions
//

// An And is the conjunction of two settings expressions.
type And struct {
	origin
	Left  Node
	Right Node
}

// NewAnd builds left and right.
func NewAnd(at Origin, left, right Node) *And {
	return &And{origin{at}, left, right}
}

func (n *And) Children() []Node { return []Node{n.Left, n.Right} }

func (n *And) WithChildren(c []Node) Node {
	return &And{n.origin, c[0], c[1]}
}

func (n *And) String() string {
	return fmt.Sprintf("(%s and %s)", n.Left, n.Right)
}

// An Or is the disjunction of two settings expressions.
type Or struct {
	origin
	Left  Node
	Right Node
}

// NewOr builds left or right.
func NewOr(at Origin, left, right Node) *Or {
	return &Or{origin{at}, left, right}
}

func (n *Or) Children() []Node { return []Node{n.Left, n.Right} }

func (n *Or) WithChildren(c []Node) Node {
	return &Or{n.origin, c[0], c[1]}
}

func (n *Or) String() string {
	return fmt.Sprintf("(%s or %s)", n.Left, n.Right)
}

// A Not negates a settings expression.
type Not struct {
	origin
	Child Node
}

// NewNot builds not child.
func NewNot(at Origin, child Node) *Not {
	return &Not{origin{at}, child}
}

func (n *Not) Children() []Node { return []Node{n.Child} }

func (n *Not) WithChildren(c []Node) Node {
	return &Not{n.origin, c[0]}
}

func (n *Not) String() string {
	return fmt.Sprintf("(not %s)", n.Child)
}

//
// Structural constants
//

// A StructOffset is the byte offset of a field within a host structure,
// resolved by the configuration's layout resolver at emission time.
// Interned by (struct, field).
type StructOffset struct {
	origin
	Struct string
	Field  string
}

func (n *StructOffset) Children() []Node         { return nil }
func (n *StructOffset) WithChildren([]Node) Node { return n }
func (n *StructOffset) String() string           { return n.Struct + "::" + n.Field }

// A Sizeof is the byte size of a host structure, resolved at emission time.
// Interned by struct name.
type Sizeof struct {
	origin
	Struct string
}

func (n *Sizeof) Children() []Node         { return nil }
func (n *Sizeof) WithChildren([]Node) Node { return n }
func (n *Sizeof) String() string           { return "sizeof " + n.Struct }
