// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelStartsExtern(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	assert.True(t, l.IsExtern())
	assert.False(t, l.DefinedInFile())
	assert.False(t, l.IsGlobal())
	assert.False(t, l.IsAligned())
	assert.False(t, l.IsExport())
}

func TestDefineInFileClearsExtern(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	require.NoError(t, l.DefineInFile())
	assert.False(t, l.IsExtern())
	assert.True(t, l.DefinedInFile())

	err := l.DefineInFile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined more than once")
}

func TestDeclareGlobalMonotonic(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	require.NoError(t, l.DeclareGlobal())
	assert.True(t, l.IsGlobal())

	err := l.DeclareGlobal()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared global multiple times")
}

func TestDeclareExportImpliesGlobal(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	require.NoError(t, l.DeclareExport())
	assert.True(t, l.IsExport())
	assert.True(t, l.IsGlobal())

	require.Error(t, l.DeclareExport())
}

func TestDeclareExportOnGlobalLabel(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	require.NoError(t, l.DeclareGlobal())
	require.NoError(t, l.DeclareExport())
	assert.True(t, l.IsExport())
}

func TestDeclareAligned(t *testing.T) {
	b := NewBatch()
	l := b.Label(testAt, "foo")
	require.NoError(t, l.DeclareAligned(256))
	assert.True(t, l.IsAligned())
	assert.Equal(t, 256, l.AlignTo())

	require.Error(t, l.DeclareAligned(256))
}

func TestDeclareAlignedRejectsNonPowerOfTwo(t *testing.T) {
	b := NewBatch()
	for _, bad := range []int{0, -8, 3, 48} {
		l := b.Label(testAt, "foo")
		err := l.DeclareAligned(bad)
		require.Error(t, err, "alignTo=%d", bad)
		assert.Contains(t, err.Error(), "power of 2")
	}
}

func TestLocalLabelString(t *testing.T) {
	b := NewBatch()
	assert.Equal(t, ".loop", b.LocalLabel(testAt, "loop").String())
	assert.Equal(t, ".loop", b.LocalLabelRef(testAt, "loop").String())
}
