// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAt = At("test.asm", 1)

func TestInterningIdempotence(t *testing.T) {
	b := NewBatch()

	assert.Same(t, b.Register(testAt, "t0"), b.Register(At("other.asm", 9), "t0"))
	assert.NotSame(t, b.Register(testAt, "t0"), b.Register(testAt, "t1"))

	assert.Same(t, b.FPRegister(testAt, "ft0"), b.FPRegister(testAt, "ft0"))
	assert.Same(t, b.VecRegister(testAt, "v0"), b.VecRegister(testAt, "v0"))
	assert.Same(t, b.SpecialRegister(testAt, "scratch0"), b.SpecialRegister(testAt, "scratch0"))
	assert.Same(t, b.Variable(testAt, "x"), b.Variable(testAt, "x"))
	assert.Same(t, b.ConstExpr(testAt, "Foo::bar()"), b.ConstExpr(testAt, "Foo::bar()"))
	assert.Same(t, b.Setting(testAt, "ARM64"), b.Setting(testAt, "ARM64"))
	assert.Same(t, b.StructOffset(testAt, "CallFrame", "callee"), b.StructOffset(testAt, "CallFrame", "callee"))
	assert.Same(t, b.Sizeof(testAt, "CallFrame"), b.Sizeof(testAt, "CallFrame"))
	assert.Same(t, b.Label(testAt, "foo"), b.Label(testAt, "foo"))
	assert.Same(t, b.LocalLabel(testAt, "loop"), b.LocalLabel(testAt, "loop"))

	// Kinds do not share a namespace.
	assert.NotSame(t, Node(b.Register(testAt, "x")), Node(b.Variable(testAt, "x")))
}

func TestInterningKeepsFirstOrigin(t *testing.T) {
	b := NewBatch()
	first := b.Register(At("a.asm", 3), "t0")
	again := b.Register(At("b.asm", 7), "t0")
	assert.Equal(t, At("a.asm", 3), again.Origin())
	assert.Same(t, first, again)
}

func TestResetIsolation(t *testing.T) {
	b := NewBatch()
	r := b.Register(testAt, "t0")
	b.LabelRef(testAt, "foo", 0)
	require.Len(t, b.ForwardReferences(), 1)

	b.Reset()
	assert.NotSame(t, r, b.Register(testAt, "t0"))
	assert.Empty(t, b.ForwardReferences())
	assert.Equal(t, StageParsed, b.Stage())
}

func TestNamedVariableDisplayName(t *testing.T) {
	b := NewBatch()
	v := b.NamedVariable(testAt, "tmp_0", "size")
	assert.Equal(t, "size", v.String())

	// The display name sticks to the canonical node.
	again := b.NamedVariable(testAt, "tmp_0", "other")
	assert.Same(t, v, again)
	assert.Equal(t, "size", again.String())
}

func TestForwardReferenceRecordedOnce(t *testing.T) {
	b := NewBatch()
	b.LabelRef(testAt, "slow_path", 0)
	b.LabelRef(testAt, "slow_path", 8)
	b.LabelRef(testAt, "other_path", 0)

	refs := b.ForwardReferences()
	require.Len(t, refs, 2)
	assert.Equal(t, "slow_path", refs[0].Name)
	assert.Equal(t, "other_path", refs[1].Name)
}

func TestDefinedLabelNotForward(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "entry")
	require.NoError(t, l.DefineInFile())

	b.LabelRef(testAt, "entry", 0)
	assert.Empty(t, b.ForwardReferences())
	assert.False(t, l.IsExtern())
}

func TestLabelRefSharesInternedLabel(t *testing.T) {
	b := NewBatch()
	ref := b.LabelRef(testAt, "foo", 16)
	assert.Same(t, b.Label(testAt, "foo"), ref.Target)
	assert.Equal(t, "foo + 16", ref.String())
}
