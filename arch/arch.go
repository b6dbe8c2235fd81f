// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arch describes the target architectures the offasm compiler can
// lower to. It is purely data: register naming tables mapping the logical
// register file used by macro-assembly sources to physical target registers,
// plus the assembler directives each target uses when declaring labels.
package arch

import (
	"fmt"
	"strings"
)

// A Family identifies one target instruction-set architecture.
type Family byte

const (
	ARM64 Family = iota
	ARM64E
	ARMv7
	X86_64
	RISCV64
	CLoop // portable interpreter-loop pseudo target
)

var familyName = []string{
	"ARM64",
	"ARM64E",
	"ARMv7",
	"X86_64",
	"RISCV64",
	"C_LOOP",
}

func (f Family) String() string {
	return familyName[f]
}

// A Spec holds everything the emission pass needs to know about one target:
// the logical-to-physical register tables and the label/section directives.
type Spec struct {
	Family  Family
	Name    string // configuration flag name selecting this target
	GP      map[string]string
	FP      map[string]string
	Vec     map[string]string
	Special map[string]string

	TextSection string // directive opening the instruction section
	Align       string // directive aligning an ordinary global label
	LocalPrefix string // prefix applied to local label names
	Spacer      string // trap instruction bracketing an emitted unit
	TrapAlign   string // format directive padding aligned labels with traps
	ThumbFunc   bool   // label declarations need .thumb/.thumb_func
}

// AlignTrap returns the directive that aligns a label to the requested
// boundary, padding the gap with trap instructions.
func (s *Spec) AlignTrap(align int) string {
	if s.TrapAlign == "" {
		return ""
	}
	return fmt.Sprintf(s.TrapAlign, align)
}

// aliased builds a register table from a base table plus logical aliases
// referring back to base entries.
func aliased(base map[string]string, aliases map[string]string) map[string]string {
	m := make(map[string]string, len(base)+len(aliases))
	for k, v := range base {
		m[k] = v
	}
	for alias, logical := range aliases {
		if phys, ok := base[logical]; ok {
			m[alias] = phys
		}
	}
	return m
}

// The logical register file follows the interpreter-trampoline convention:
// t0..t12 are temporaries, a0..a7 argument registers, csr0..csr10 callee
// saves, cfr the call frame register, and r0/r1 the return registers.
var argAliases = map[string]string{
	"a0": "t0", "a1": "t1", "a2": "t2", "a3": "t3",
	"a4": "t4", "a5": "t5", "a6": "t6", "a7": "t7",
	"wa0": "t0", "wa1": "t1", "wa2": "t2", "wa3": "t3",
	"wa4": "t4", "wa5": "t5", "wa6": "t6", "wa7": "t7",
	"ws0": "t9", "ws1": "t10", "ws2": "t11", "ws3": "t12",
	"r0": "t0", "r1": "t1",
}

var arm64GP = aliased(map[string]string{
	"t0": "x0", "t1": "x1", "t2": "x2", "t3": "x3",
	"t4": "x4", "t5": "x5", "t6": "x6", "t7": "x7",
	"t8": "x8", "t9": "x9", "t10": "x10", "t11": "x11", "t12": "x12",
	"csr0": "x19", "csr1": "x20", "csr2": "x21", "csr3": "x22",
	"csr4": "x23", "csr5": "x24", "csr6": "x25", "csr7": "x26",
	"csr8": "x27", "csr9": "x28",
	"cfr": "x29", "sp": "sp", "lr": "x30",
}, argAliases)

var arm64FP = map[string]string{
	"ft0": "d0", "ft1": "d1", "ft2": "d2", "ft3": "d3", "ft4": "d4", "ft5": "d5",
	"fa0": "d0", "fa1": "d1", "fa2": "d2", "fa3": "d3",
	"fr": "d0",
}

var arm64Vec = map[string]string{
	"v0": "v0", "v1": "v1", "v2": "v2", "v3": "v3",
	"v4": "v4", "v5": "v5", "v6": "v6", "v7": "v7",
}

var arm64Special = map[string]string{
	"scratch0": "x16", "scratch1": "x17",
}

var x86GP = aliased(map[string]string{
	"t0": "rax", "t1": "rsi", "t2": "rdx", "t3": "rcx",
	"t4": "r8", "t5": "r10", "t6": "rdi", "t7": "r9",
	"csr0": "rbx", "csr1": "r12", "csr2": "r13", "csr3": "r14", "csr4": "r15",
	"cfr": "rbp", "sp": "rsp",
}, map[string]string{
	// System V argument order differs from the temporary order.
	"a0": "t6", "a1": "t1", "a2": "t2", "a3": "t3", "a4": "t4", "a5": "t7",
	"wa0": "t6", "wa1": "t1", "wa2": "t2", "wa3": "t3", "wa4": "t4", "wa5": "t7",
	"r0": "t0", "r1": "t2",
})

var x86FP = map[string]string{
	"ft0": "xmm0", "ft1": "xmm1", "ft2": "xmm2", "ft3": "xmm3", "ft4": "xmm4", "ft5": "xmm5",
	"fa0": "xmm0", "fa1": "xmm1", "fa2": "xmm2", "fa3": "xmm3",
	"fr": "xmm0",
}

var x86Vec = map[string]string{
	"v0": "xmm0", "v1": "xmm1", "v2": "xmm2", "v3": "xmm3",
	"v4": "xmm4", "v5": "xmm5", "v6": "xmm6", "v7": "xmm7",
}

var x86Special = map[string]string{
	"scratch0": "r11",
}

var riscvGP = aliased(map[string]string{
	"t0": "a0", "t1": "a1", "t2": "a2", "t3": "a3",
	"t4": "a4", "t5": "a5", "t6": "a6", "t7": "a7",
	"t8": "t0", "t9": "t1", "t10": "t2", "t11": "t3", "t12": "t4",
	"csr0": "s1", "csr1": "s2", "csr2": "s3", "csr3": "s4",
	"csr4": "s5", "csr5": "s6", "csr6": "s7", "csr7": "s8",
	"csr8": "s9", "csr9": "s10", "csr10": "s11",
	"cfr": "fp", "sp": "sp", "lr": "ra",
}, argAliases)

var riscvFP = map[string]string{
	"ft0": "fa0", "ft1": "fa1", "ft2": "fa2", "ft3": "fa3", "ft4": "fa4", "ft5": "fa5",
	"fa0": "fa0", "fa1": "fa1", "fa2": "fa2", "fa3": "fa3",
	"fr": "fa0",
}

var riscvSpecial = map[string]string{
	"scratch0": "t6",
}

var armv7GP = aliased(map[string]string{
	"t0": "r0", "t1": "r1", "t2": "r2", "t3": "r3",
	"t4": "r8", "t5": "r9",
	"csr0": "r4", "csr1": "r5", "csr2": "r6", "csr3": "r10", "csr4": "r11",
	"cfr": "r7", "sp": "sp", "lr": "lr",
}, map[string]string{
	"a0": "t0", "a1": "t1", "a2": "t2", "a3": "t3",
	"wa0": "t0", "wa1": "t1", "wa2": "t2", "wa3": "t3",
	"r0": "t0", "r1": "t1",
})

var armv7FP = map[string]string{
	"ft0": "d0", "ft1": "d1", "ft2": "d2", "ft3": "d3", "ft4": "d4", "ft5": "d5",
	"fa0": "d0", "fa1": "d1",
	"fr": "d0",
}

var armv7Special = map[string]string{
	"scratch0": "r12",
}

// identity builds a table mapping each logical name to itself; the C-loop
// pseudo target renders logical registers as C variables of the same name.
func identity(names ...string) map[string]string {
	m := make(map[string]string, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}

var cloopGP = identity(
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"t8", "t9", "t10", "t11", "t12",
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"wa0", "wa1", "wa2", "wa3", "wa4", "wa5", "wa6", "wa7",
	"ws0", "ws1", "ws2", "ws3",
	"csr0", "csr1", "csr2", "csr3", "csr4", "csr5",
	"csr6", "csr7", "csr8", "csr9", "csr10",
	"cfr", "sp", "lr", "r0", "r1",
)

var cloopFP = identity("ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "fa0", "fa1", "fa2", "fa3", "fr")

var specs = []*Spec{
	{
		Family:  ARM64,
		Name:    "ARM64",
		GP:      arm64GP,
		FP:      arm64FP,
		Vec:     arm64Vec,
		Special: arm64Special,

		TextSection: ".text",
		Align:       ".balign 4",
		LocalPrefix: ".L",
		Spacer:      "brk #0",
		TrapAlign:   ".balignl %d, 0xd4388e20",
	},
	{
		Family:  ARM64E,
		Name:    "ARM64E",
		GP:      arm64GP,
		FP:      arm64FP,
		Vec:     arm64Vec,
		Special: arm64Special,

		TextSection: ".text",
		Align:       ".balign 4",
		LocalPrefix: ".L",
		Spacer:      "brk #0",
		TrapAlign:   ".balignl %d, 0xd4388e20",
	},
	{
		Family:  ARMv7,
		Name:    "ARMv7",
		GP:      armv7GP,
		FP:      armv7FP,
		Special: armv7Special,

		TextSection: ".text",
		Align:       ".balign 4",
		LocalPrefix: ".L",
		Spacer:      "bkpt #0",
		TrapAlign:   ".balignw %d, 0xde00",
		ThumbFunc:   true,
	},
	{
		Family:  X86_64,
		Name:    "X86_64",
		GP:      x86GP,
		FP:      x86FP,
		Vec:     x86Vec,
		Special: x86Special,

		TextSection: ".text",
		Align:       ".balign 4",
		LocalPrefix: ".L",
		Spacer:      "int3",
		TrapAlign:   ".balign %d, 0xcc",
	},
	{
		Family:  RISCV64,
		Name:    "RISCV64",
		GP:      riscvGP,
		FP:      riscvFP,
		Special: riscvSpecial,

		TextSection: ".text",
		Align:       ".balign 4",
		LocalPrefix: ".L",
		Spacer:      "ebreak",
		TrapAlign:   ".balignw %d, 0x9002",
	},
	{
		Family: CLoop,
		Name:   "C_LOOP",
		GP:     cloopGP,
		FP:     cloopFP,
	},
}

// Specs returns all supported target architectures.
func Specs() []*Spec {
	return specs
}

// Lookup finds the architecture selected by the given configuration flag
// name. The match is case-insensitive.
func Lookup(name string) (*Spec, error) {
	for _, s := range specs {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown architecture '%s'", name)
}
