// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"
)

//
// Statements
//

// An Instruction is a single opcode applied to operands. The optional
// annotation is carried through to the emitted text as a trailing comment.
type Instruction struct {
	origin
	Opcode     string
	Operands   []Node
	Annotation string
}

// NewInstruction builds an instruction statement.
func NewInstruction(at Origin, opcode string, operands []Node, annotation string) *Instruction {
	return &Instruction{origin{at}, opcode, operands, annotation}
}

func (n *Instruction) Children() []Node { return n.Operands }

func (n *Instruction) WithChildren(c []Node) Node {
	return &Instruction{n.origin, n.Opcode, c, n.Annotation}
}

func (n *Instruction) String() string {
	s := n.Opcode
	if len(n.Operands) > 0 {
		s += " " + joinNodes(n.Operands, ", ")
	}
	if n.Annotation != "" {
		s += " # " + n.Annotation
	}
	return s
}

// A MacroCall invokes a named macro. Construction does not expand the
// macro; the expansion pass replaces the call with a bound copy of the
// macro's body.
type MacroCall struct {
	origin
	Name        string
	Operands    []Node
	Annotation  string
	DisplayName string
}

// NewMacroCall builds a macro invocation. The operand list must be
// non-empty.
func NewMacroCall(at Origin, name string, operands []Node, annotation, displayName string) (*MacroCall, error) {
	if len(operands) == 0 {
		return nil, errorf(at, "macro invocation of '%s' requires at least one operand", name)
	}
	return &MacroCall{origin{at}, name, operands, annotation, displayName}, nil
}

func (n *MacroCall) Children() []Node { return n.Operands }

func (n *MacroCall) WithChildren(c []Node) Node {
	return &MacroCall{n.origin, n.Name, c, n.Annotation, n.DisplayName}
}

func (n *MacroCall) String() string {
	name := n.Name
	if n.DisplayName != "" {
		name = n.DisplayName
	}
	s := fmt.Sprintf("%s(%s)", name, joinNodes(n.Operands, ", "))
	if n.Annotation != "" {
		s += " # " + n.Annotation
	}
	return s
}

// A Sequence is an ordered list of statements.
type Sequence struct {
	origin
	Stmts []Node
}

// NewSequence builds a statement sequence.
func NewSequence(at Origin, stmts ...Node) *Sequence {
	return &Sequence{origin{at}, stmts}
}

func (n *Sequence) Children() []Node { return n.Stmts }

func (n *Sequence) WithChildren(c []Node) Node {
	return &Sequence{n.origin, c}
}

func (n *Sequence) String() string {
	var b strings.Builder
	for _, s := range n.Stmts {
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}

// Splice returns a sequence whose statements contain no nested sequences:
// each child sequence's statements are spliced into the parent list. An
// already-flat sequence is returned unchanged.
func (n *Sequence) Splice() *Sequence {
	flat := true
	for _, s := range n.Stmts {
		if _, ok := s.(*Sequence); ok {
			flat = false
			break
		}
	}
	if flat {
		return n
	}
	out := make([]Node, 0, len(n.Stmts))
	for _, s := range n.Stmts {
		if sub, ok := s.(*Sequence); ok {
			out = append(out, sub.Splice().Stmts...)
		} else {
			out = append(out, s)
		}
	}
	return &Sequence{n.origin, out}
}

// An IfThenElse selects between two branches on a settings predicate. The
// configuration folding pass replaces every IfThenElse with its live branch
// before emission.
type IfThenElse struct {
	origin
	Predicate Node
	Then      Node
	Else      Node
}

// NewIfThenElse builds a conditional statement. A nil else branch defaults
// to Skip.
func NewIfThenElse(at Origin, predicate, then, els Node) *IfThenElse {
	if els == nil {
		els = NewSkip(at)
	}
	return &IfThenElse{origin{at}, predicate, then, els}
}

func (n *IfThenElse) Children() []Node { return []Node{n.Predicate, n.Then, n.Else} }

func (n *IfThenElse) WithChildren(c []Node) Node {
	return &IfThenElse{n.origin, c[0], c[1], c[2]}
}

func (n *IfThenElse) String() string {
	return fmt.Sprintf("if %s then ... else ...", n.Predicate)
}

// A Skip is an empty statement.
type Skip struct {
	origin
}

// NewSkip builds an empty statement.
func NewSkip(at Origin) *Skip {
	return &Skip{origin{at}}
}

func (n *Skip) Children() []Node         { return nil }
func (n *Skip) WithChildren([]Node) Node { return n }
func (n *Skip) String() string           { return "skip" }

// An ErrorStmt marks a path that must be pruned by configuration folding.
// One surviving to emission aborts the compilation.
type ErrorStmt struct {
	origin
}

// NewError builds an error statement.
func NewError(at Origin) *ErrorStmt {
	return &ErrorStmt{origin{at}}
}

func (n *ErrorStmt) Children() []Node         { return nil }
func (n *ErrorStmt) WithChildren([]Node) Node { return n }
func (n *ErrorStmt) String() string           { return "error" }

// A ConstDecl binds a variable to an immediate-valued expression for the
// remainder of the compiled unit.
type ConstDecl struct {
	origin
	Name  *Variable
	Value Node
}

// NewConstDecl builds a constant declaration. The value must be
// immediate-valued.
func NewConstDecl(at Origin, name *Variable, value Node) (*ConstDecl, error) {
	if !isImmediateValued(value) {
		return nil, errorNode(at, value, "const declaration value must be immediate-valued")
	}
	return &ConstDecl{origin{at}, name, value}, nil
}

func (n *ConstDecl) Children() []Node { return []Node{n.Name, n.Value} }

func (n *ConstDecl) WithChildren(c []Node) Node {
	v, ok := c[0].(*Variable)
	if !ok {
		// The binder slot only ever holds a variable.
		return n
	}
	return &ConstDecl{n.origin, v, c[1]}
}

func (n *ConstDecl) String() string {
	return fmt.Sprintf("const %s = %s", n.Name, n.Value)
}

//
// Definitions
//

// A Macro is a named, parameterized statement template. Invocation
// substitutes the call's operands for the parameters by position.
type Macro struct {
	origin
	Name   string
	Params []*Variable
	Body   Node
}

// NewMacro builds a macro definition.
func NewMacro(at Origin, name string, params []*Variable, body Node) *Macro {
	return &Macro{origin{at}, name, params, body}
}

// Children returns the macro body. The parameters are binders, not
// subtrees; substitution never descends into them.
func (n *Macro) Children() []Node { return []Node{n.Body} }

func (n *Macro) WithChildren(c []Node) Node {
	return &Macro{n.origin, n.Name, n.Params, c[0]}
}

func (n *Macro) String() string {
	params := make([]string, len(n.Params))
	for i, p := range n.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("macro %s(%s)", n.Name, strings.Join(params, ", "))
}
