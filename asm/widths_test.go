// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate(b *Batch) *OpcodeTemplate {
	prologue := NewInstruction(testAt, "move",
		[]Node{Imm(testAt, 0), b.Register(testAt, "t2")}, "")
	trailer := NewInstruction(testAt, "break", nil, "")
	return &OpcodeTemplate{
		At:       testAt,
		Name:     "op_add",
		Prologue: prologue,
		Body: func(w Width) Node {
			size := int64(1)
			switch w {
			case Wide16:
				size = 2
			case Wide32:
				size = 4
			}
			return NewInstruction(testAt, "addp",
				[]Node{Imm(testAt, size), b.Register(testAt, "t0")}, "")
		},
		Trailer: trailer,
	}
}

func TestWidthSuffixes(t *testing.T) {
	assert.Equal(t, "", Narrow.Suffix())
	assert.Equal(t, "_wide16", Wide16.Suffix())
	assert.Equal(t, "_wide32", Wide32.Suffix())
	assert.Len(t, Widths, 3)
}

func TestSpecializeEmitsThreeVariants(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", nil)
	tmpl := testTemplate(b)

	out, err := b.Specialize(tmpl, cfg)
	require.NoError(t, err)

	seq := out.(*Sequence)
	// Assertions disabled: label + prologue + body per width.
	require.Len(t, seq.Stmts, 9)

	for i, w := range Widths {
		l := seq.Stmts[3*i].(*Label)
		assert.Equal(t, "op_add"+w.Suffix(), l.Name)
		assert.True(t, l.IsGlobal())

		// The prologue is one shared node, not a copy per variant.
		assert.Same(t, Node(tmpl.Prologue), seq.Stmts[3*i+1])
	}
}

func TestSpecializeTrailerGatedOnAssertions(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", map[string]bool{AssertFlag: true})
	tmpl := testTemplate(b)

	out, err := b.Specialize(tmpl, cfg)
	require.NoError(t, err)

	seq := out.(*Sequence)
	require.Len(t, seq.Stmts, 12)
	for i := range Widths {
		assert.Same(t, Node(tmpl.Trailer), seq.Stmts[4*i+3])
	}
}

func TestSpecializeNilPrologueAndTrailer(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", map[string]bool{AssertFlag: true})
	tmpl := &OpcodeTemplate{
		At:   testAt,
		Name: "op_nop",
		Body: func(Width) Node { return NewInstruction(testAt, "ret", nil, "") },
	}

	out, err := b.Specialize(tmpl, cfg)
	require.NoError(t, err)
	require.Len(t, out.(*Sequence).Stmts, 6)
}

func TestSpecializeTwiceIsFatal(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", nil)
	tmpl := testTemplate(b)

	_, err := b.Specialize(tmpl, cfg)
	require.NoError(t, err)

	// The second run re-declares the variant labels global.
	_, err = b.Specialize(tmpl, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared global multiple times")
}
