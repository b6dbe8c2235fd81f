// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinmichaud/offasm/arch"
)

func mustSpec(t *testing.T, name string) *arch.Spec {
	t.Helper()
	spec, err := arch.Lookup(name)
	require.NoError(t, err)
	return spec
}

func mustConfig(t *testing.T, archName string, flags map[string]bool) *Config {
	t.Helper()
	cfg, err := NewConfig(mustSpec(t, archName), flags)
	require.NoError(t, err)
	return cfg
}

func TestConfigSelectsOneArchitecture(t *testing.T) {
	cfg := mustConfig(t, "ARM64", nil)

	for _, s := range arch.Specs() {
		v, err := cfg.IsSet(s.Name)
		require.NoError(t, err)
		assert.Equal(t, s.Name == "ARM64", v, s.Name)
	}
	assert.Equal(t, arch.ARM64, cfg.Arch().Family)
}

func TestConfigAssertFlagDefaultsOff(t *testing.T) {
	cfg := mustConfig(t, "X86_64", nil)
	v, err := cfg.IsSet(AssertFlag)
	require.NoError(t, err)
	assert.False(t, v)

	cfg = mustConfig(t, "X86_64", map[string]bool{AssertFlag: true})
	v, err = cfg.IsSet(AssertFlag)
	require.NoError(t, err)
	assert.True(t, v)
}

func TestConfigRejectsContradictoryArchFlag(t *testing.T) {
	_, err := NewConfig(mustSpec(t, "ARM64"), map[string]bool{"X86_64": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contradicts")

	// Restating the selection is not a contradiction.
	_, err = NewConfig(mustSpec(t, "ARM64"), map[string]bool{"ARM64": true, "X86_64": false})
	assert.NoError(t, err)
}

func TestConfigFeatureFlags(t *testing.T) {
	cfg := mustConfig(t, "RISCV64", map[string]bool{"JIT_ENABLED": true, "BIG_ENDIAN": false})

	v, err := cfg.IsSet("JIT_ENABLED")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = cfg.IsSet("BIG_ENDIAN")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestUndefinedSettingIsFatal(t *testing.T) {
	cfg := mustConfig(t, "ARM64", nil)
	_, err := cfg.IsSet("NO_SUCH_FLAG")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined setting 'NO_SUCH_FLAG'")
}

func TestUndefinedSettingSuggestsPrefixMatch(t *testing.T) {
	cfg := mustConfig(t, "ARM64", map[string]bool{"JIT_ENABLED": true})
	_, err := cfg.IsSet("JIT_ENABLE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did you mean 'JIT_ENABLED'?")
}

func TestEvalSettingsExpressions(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", map[string]bool{"JIT_ENABLED": true})

	arm64 := b.Setting(testAt, "ARM64")
	x86 := b.Setting(testAt, "X86_64")
	jit := b.Setting(testAt, "JIT_ENABLED")

	cases := []struct {
		expr Node
		want bool
	}{
		{True, true},
		{False, false},
		{arm64, true},
		{x86, false},
		{NewAnd(testAt, arm64, jit), true},
		{NewAnd(testAt, arm64, x86), false},
		{NewOr(testAt, x86, jit), true},
		{NewOr(testAt, x86, False), false},
		{NewNot(testAt, x86), true},
		{NewNot(testAt, NewAnd(testAt, arm64, jit)), false},
	}
	for _, c := range cases {
		got, err := cfg.Eval(c.expr)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.expr.String())
	}
}

func TestEvalUndefinedSettingCarriesOrigin(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", nil)

	_, err := cfg.Eval(b.Setting(At("f.asm", 12), "BOGUS"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "f.asm:12")
}

func TestEvalRejectsNonSettingsNodes(t *testing.T) {
	cfg := mustConfig(t, "ARM64", nil)
	_, err := cfg.Eval(Imm(testAt, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a settings expression")
}

func TestEvalBothSidesEvenWhenShortCircuitable(t *testing.T) {
	b := NewBatch()
	cfg := mustConfig(t, "ARM64", nil)

	// The left side decides the result, but an undefined flag on the
	// right is still fatal.
	_, err := cfg.Eval(NewAnd(testAt, False, b.Setting(testAt, "BOGUS")))
	require.Error(t, err)

	_, err = cfg.Eval(NewOr(testAt, True, b.Setting(testAt, "BOGUS")))
	require.Error(t, err)
}
