// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// A Batch owns all interning state for one independent compilation run:
// the per-kind symbol tables and the forward-reference list. Two requests
// for the same name within a kind return the same node, which later passes
// rely on for alias tracking. Batches must not be shared between
// concurrent compilations; start an independent run with NewBatch or
// Reset.
type Batch struct {
	gpRegisters      map[string]*RegisterID
	fpRegisters      map[string]*FPRegisterID
	vecRegisters     map[string]*VecRegisterID
	specialRegisters map[string]*SpecialRegister
	variables        map[string]*Variable
	constExprs       map[string]*ConstExpr
	settings         map[string]*Setting
	structOffsets    map[structKey]*StructOffset
	sizeofs          map[string]*Sizeof
	labels           map[string]*Label
	localLabels      map[string]*LocalLabel

	// Labels referenced while still extern, in first-reference order.
	forwardRefs []*Label

	stage Stage
}

type structKey struct {
	structName string
	field      string
}

// NewBatch returns a fresh compilation run context.
func NewBatch() *Batch {
	b := &Batch{}
	b.Reset()
	return b
}

// Reset discards all interned nodes and the forward-reference list,
// preparing the batch for an independent compilation. Omitting the reset
// between runs causes name collisions across unrelated inputs.
func (b *Batch) Reset() {
	b.gpRegisters = make(map[string]*RegisterID)
	b.fpRegisters = make(map[string]*FPRegisterID)
	b.vecRegisters = make(map[string]*VecRegisterID)
	b.specialRegisters = make(map[string]*SpecialRegister)
	b.variables = make(map[string]*Variable)
	b.constExprs = make(map[string]*ConstExpr)
	b.settings = make(map[string]*Setting)
	b.structOffsets = make(map[structKey]*StructOffset)
	b.sizeofs = make(map[string]*Sizeof)
	b.labels = make(map[string]*Label)
	b.localLabels = make(map[string]*LocalLabel)
	b.forwardRefs = nil
	b.stage = StageParsed
}

// intern returns the canonical value for key, constructing and registering
// it on first request.
func intern[K comparable, V any](m map[K]V, key K, factory func() V) V {
	if v, ok := m[key]; ok {
		return v
	}
	v := factory()
	m[key] = v
	return v
}

// Register interns the named general-purpose register.
func (b *Batch) Register(at Origin, name string) *RegisterID {
	return intern(b.gpRegisters, name, func() *RegisterID {
		return &RegisterID{origin{at}, name}
	})
}

// FPRegister interns the named floating-point register.
func (b *Batch) FPRegister(at Origin, name string) *FPRegisterID {
	return intern(b.fpRegisters, name, func() *FPRegisterID {
		return &FPRegisterID{origin{at}, name}
	})
}

// VecRegister interns the named vector register.
func (b *Batch) VecRegister(at Origin, name string) *VecRegisterID {
	return intern(b.vecRegisters, name, func() *VecRegisterID {
		return &VecRegisterID{origin{at}, name}
	})
}

// SpecialRegister interns the named target-reserved register.
func (b *Batch) SpecialRegister(at Origin, name string) *SpecialRegister {
	return intern(b.specialRegisters, name, func() *SpecialRegister {
		return &SpecialRegister{origin{at}, name}
	})
}

// Variable interns the named variable.
func (b *Batch) Variable(at Origin, name string) *Variable {
	return intern(b.variables, name, func() *Variable {
		return &Variable{origin{at}, name, ""}
	})
}

// NamedVariable interns the named variable and attaches a display name for
// diagnostics. The display name sticks to the canonical node on first use.
func (b *Batch) NamedVariable(at Origin, name, displayName string) *Variable {
	v := b.Variable(at, name)
	if v.DisplayName == "" {
		v.DisplayName = displayName
	}
	return v
}

// ConstExpr interns a host constant expression by its text.
func (b *Batch) ConstExpr(at Origin, text string) *ConstExpr {
	return intern(b.constExprs, text, func() *ConstExpr {
		return &ConstExpr{origin{at}, text}
	})
}

// Setting interns the named configuration flag reference.
func (b *Batch) Setting(at Origin, name string) *Setting {
	return intern(b.settings, name, func() *Setting {
		return &Setting{origin{at}, name}
	})
}

// StructOffset interns a structure field offset by its composite key.
func (b *Batch) StructOffset(at Origin, structName, field string) *StructOffset {
	return intern(b.structOffsets, structKey{structName, field}, func() *StructOffset {
		return &StructOffset{origin{at}, structName, field}
	})
}

// Sizeof interns a structure size reference.
func (b *Batch) Sizeof(at Origin, structName string) *Sizeof {
	return intern(b.sizeofs, structName, func() *Sizeof {
		return &Sizeof{origin{at}, structName}
	})
}

// Label interns the named label. A label is extern until defined in the
// compiled unit.
func (b *Batch) Label(at Origin, name string) *Label {
	return intern(b.labels, name, func() *Label {
		return &Label{origin: origin{at}, Name: name, extern: true}
	})
}

// LocalLabel interns the named local label.
func (b *Batch) LocalLabel(at Origin, name string) *LocalLabel {
	return intern(b.localLabels, name, func() *LocalLabel {
		return &LocalLabel{origin{at}, name}
	})
}

// LabelRef builds a use-site reference to the named label. The first
// reference to a label that is still extern records it in the
// forward-reference list.
func (b *Batch) LabelRef(at Origin, name string, offset int64) *LabelReference {
	l := b.Label(at, name)
	if l.extern && !l.forwardNoted {
		l.forwardNoted = true
		b.forwardRefs = append(b.forwardRefs, l)
	}
	return &LabelReference{origin{at}, l, offset}
}

// LocalLabelRef builds a use-site reference to the named local label.
func (b *Batch) LocalLabelRef(at Origin, name string) *LocalLabelReference {
	return &LocalLabelReference{origin{at}, b.LocalLabel(at, name)}
}

// ForwardReferences returns the labels that were referenced before (or
// without) being defined in the compiled unit, in first-reference order.
func (b *Batch) ForwardReferences() []*Label {
	return b.forwardRefs
}
