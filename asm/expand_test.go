// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCall(t *testing.T, name string, operands ...Node) *MacroCall {
	t.Helper()
	call, err := NewMacroCall(testAt, name, operands, "", "")
	require.NoError(t, err)
	return call
}

func TestExpandSubstitutesByPosition(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")
	y := b.Variable(testAt, "y")

	// macro swap(x, y): move x, y / move y, x
	def := NewMacro(testAt, "swap", []*Variable{x, y}, NewSequence(testAt,
		NewInstruction(testAt, "move", []Node{x, y}, ""),
		NewInstruction(testAt, "move", []Node{y, x}, ""),
	))
	t0 := b.Register(testAt, "t0")
	t1 := b.Register(testAt, "t1")
	tree := NewSequence(testAt, def, mustCall(t, "swap", t0, t1))

	out, err := Expand(tree)
	require.NoError(t, err)
	require.NoError(t, verifyExpanded(out))

	flat := out.(*Sequence).Splice()
	require.Len(t, flat.Stmts, 2)
	first := flat.Stmts[0].(*Instruction)
	second := flat.Stmts[1].(*Instruction)
	assert.Same(t, Node(t0), first.Operands[0])
	assert.Same(t, Node(t1), first.Operands[1])
	assert.Same(t, Node(t1), second.Operands[0])
	assert.Same(t, Node(t0), second.Operands[1])
}

func TestExpandPreservesOperandIdentity(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")

	// macro double(x): addp x, x -- both uses must stay one node.
	def := NewMacro(testAt, "double", []*Variable{x},
		NewInstruction(testAt, "addp", []Node{x, x}, ""))
	t3 := b.Register(testAt, "t3")
	tree := NewSequence(testAt, def, mustCall(t, "double", t3))

	out, err := Expand(tree)
	require.NoError(t, err)

	flat := out.(*Sequence).Splice()
	require.Len(t, flat.Stmts, 1)
	ins := flat.Stmts[0].(*Instruction)
	assert.Same(t, Node(t3), ins.Operands[0])
	assert.Same(t, Node(t3), ins.Operands[1])
}

func TestExpandDefinitionVisibleBeforeUse(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")

	// The invocation precedes the definition in the sequence.
	tree := NewSequence(testAt,
		mustCall(t, "emit", b.Register(testAt, "t0")),
		NewMacro(testAt, "emit", []*Variable{x},
			NewInstruction(testAt, "move", []Node{x, b.Register(testAt, "t1")}, "")),
	)

	out, err := Expand(tree)
	require.NoError(t, err)
	require.NoError(t, verifyExpanded(out))
}

func TestExpandArityChecking(t *testing.T) {
	b := NewBatch()
	regs := []Node{
		b.Register(testAt, "t0"),
		b.Register(testAt, "t1"),
		b.Register(testAt, "t2"),
	}

	for arity := 1; arity <= 3; arity++ {
		params := make([]*Variable, arity)
		for i := range params {
			params[i] = b.Variable(testAt, fmt.Sprintf("p%d", i))
		}
		def := NewMacro(testAt, "m", params, NewInstruction(testAt, "ret", nil, ""))

		ok := NewSequence(testAt, def, mustCall(t, "m", regs[:arity]...))
		_, err := Expand(ok)
		assert.NoError(t, err, "arity %d", arity)

		wrong := arity%3 + 1
		bad := NewSequence(testAt, def, mustCall(t, "m", regs[:wrong]...))
		_, err = Expand(bad)
		require.Error(t, err, "arity %d with %d operands", arity, wrong)
		assert.Contains(t, err.Error(),
			fmt.Sprintf("macro 'm' expects %d operands, got %d", arity, wrong))
	}
}

func TestExpandUnknownMacro(t *testing.T) {
	b := NewBatch()
	tree := NewSequence(testAt, mustCall(t, "nonesuch", b.Register(testAt, "t0")))
	_, err := Expand(tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown macro 'nonesuch'")
}

func TestExpandNestedMacros(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")
	y := b.Variable(testAt, "y")

	inner := NewMacro(testAt, "inner", []*Variable{y},
		NewInstruction(testAt, "move", []Node{y, b.Register(testAt, "t1")}, ""))
	outer := NewMacro(testAt, "outer", []*Variable{x},
		NewSequence(testAt, inner, mustCall(t, "inner", x)))
	t5 := b.Register(testAt, "t5")
	tree := NewSequence(testAt, outer, mustCall(t, "outer", t5))

	out, err := Expand(tree)
	require.NoError(t, err)
	require.NoError(t, verifyExpanded(out))

	flat := out.(*Sequence).Splice()
	require.Len(t, flat.Stmts, 1)
	ins := flat.Stmts[0].(*Instruction)
	assert.Same(t, Node(t5), ins.Operands[0])
}

func TestExpandParameterShadowing(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")

	// The nested macro reuses the outer parameter name; its own binding
	// must win inside its body.
	inner := NewMacro(testAt, "inner", []*Variable{x},
		NewInstruction(testAt, "move", []Node{x, b.Register(testAt, "t1")}, ""))
	outer := NewMacro(testAt, "outer", []*Variable{x},
		NewSequence(testAt, inner, mustCall(t, "inner", b.Register(testAt, "t9"))))
	tree := NewSequence(testAt, outer, mustCall(t, "outer", b.Register(testAt, "t0")))

	out, err := Expand(tree)
	require.NoError(t, err)

	flat := out.(*Sequence).Splice()
	require.Len(t, flat.Stmts, 1)
	ins := flat.Stmts[0].(*Instruction)
	assert.Same(t, Node(b.Register(testAt, "t9")), ins.Operands[0])
}

func TestExpandSelfRecursionBounded(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")

	def := NewMacro(testAt, "loop", []*Variable{x}, mustCall(t, "loop", x))
	tree := NewSequence(testAt, def, mustCall(t, "loop", b.Register(testAt, "t0")))

	_, err := Expand(tree)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expansion exceeds depth")
}

func TestExpandDropsDefinitions(t *testing.T) {
	b := NewBatch()
	x := b.Variable(testAt, "x")
	def := NewMacro(testAt, "unused", []*Variable{x},
		NewInstruction(testAt, "break", nil, ""))
	tree := NewSequence(testAt, def, NewInstruction(testAt, "ret", nil, ""))

	out, err := Expand(tree)
	require.NoError(t, err)
	flat := out.(*Sequence).Splice()
	require.Len(t, flat.Stmts, 1)
	assert.Equal(t, "ret", flat.Stmts[0].(*Instruction).Opcode)
}

func TestMacroCallRequiresOperands(t *testing.T) {
	_, err := NewMacroCall(testAt, "m", nil, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one operand")
}
