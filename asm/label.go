// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "fmt"

// A Label is a named, batch-interned jump target. A label begins life
// extern (referenced but expected to be defined elsewhere); defining it in
// the compiled unit clears that. Visibility and alignment declarations are
// monotonic: re-declaring an already-global label global, or an
// already-aligned label aligned, is fatal.
type Label struct {
	origin
	Name string

	definedInFile bool
	extern        bool
	global        bool
	aligned       bool
	alignTo       int
	export        bool
	forwardNoted  bool // already recorded in the forward-reference list
}

func (n *Label) Children() []Node         { return nil }
func (n *Label) WithChildren([]Node) Node { return n }
func (n *Label) String() string           { return n.Name }

func (n *Label) IsExtern() bool  { return n.extern }
func (n *Label) IsGlobal() bool  { return n.global }
func (n *Label) IsAligned() bool { return n.aligned }
func (n *Label) AlignTo() int    { return n.alignTo }
func (n *Label) IsExport() bool  { return n.export }

// DefinedInFile reports whether the label is defined in the compiled unit.
func (n *Label) DefinedInFile() bool { return n.definedInFile }

// DefineInFile marks the label as defined in the compiled unit, clearing
// the extern flag. Defining a label twice is fatal.
func (n *Label) DefineInFile() error {
	if n.definedInFile {
		return errorf(n.at, "label '%s' defined more than once", n.Name)
	}
	n.definedInFile = true
	n.extern = false
	return nil
}

// DeclareGlobal marks the label globally visible. Declaring a label global
// twice is fatal.
func (n *Label) DeclareGlobal() error {
	if n.global {
		return errorf(n.at, "label '%s' declared global multiple times", n.Name)
	}
	n.global = true
	return nil
}

// DeclareExport marks the label exported (its symbol is not hidden).
// Export implies global.
func (n *Label) DeclareExport() error {
	if n.export {
		return errorf(n.at, "label '%s' declared export multiple times", n.Name)
	}
	n.export = true
	if !n.global {
		return n.DeclareGlobal()
	}
	return nil
}

// DeclareAligned requests trap-padded alignment of the label to the given
// boundary. Declaring alignment twice is fatal.
func (n *Label) DeclareAligned(alignTo int) error {
	if n.aligned {
		return errorf(n.at, "label '%s' declared aligned multiple times", n.Name)
	}
	if alignTo <= 0 || alignTo&(alignTo-1) != 0 {
		return errorf(n.at, "label '%s' alignment must be a power of 2, got %d", n.Name, alignTo)
	}
	n.aligned = true
	n.alignTo = alignTo
	return nil
}

// A LocalLabel is a batch-interned label visible only within the compiled
// unit; it renders with the target's local-label prefix.
type LocalLabel struct {
	origin
	Name string
}

func (n *LocalLabel) Children() []Node         { return nil }
func (n *LocalLabel) WithChildren([]Node) Node { return n }
func (n *LocalLabel) String() string           { return "." + n.Name }

// A LabelReference is a use site of a label, optionally displaced by a
// byte offset.
type LabelReference struct {
	origin
	Target *Label
	Offset int64
}

func (n *LabelReference) Children() []Node         { return nil }
func (n *LabelReference) WithChildren([]Node) Node { return n }

func (n *LabelReference) String() string {
	if n.Offset != 0 {
		return fmt.Sprintf("%s + %d", n.Target.Name, n.Offset)
	}
	return n.Target.Name
}

// A LocalLabelReference is a use site of a local label.
type LocalLabelReference struct {
	origin
	Target *LocalLabel
}

func (n *LocalLabelReference) Children() []Node         { return nil }
func (n *LocalLabelReference) WithChildren([]Node) Node { return n }
func (n *LocalLabelReference) String() string           { return n.Target.String() }
