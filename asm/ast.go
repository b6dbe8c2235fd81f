// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements an offline cross-architecture macro-assembler
// compiler. It consumes a typed abstract syntax tree describing a
// macro-assembly program, statically folds architecture and feature
// conditionals against a fixed configuration, expands macros, specializes
// instruction-width variants, and lowers the result to target assembly text
// for one of several CPU backends.
package asm

// A Node is a single element of the abstract syntax tree. Nodes are
// immutable once constructed; WithChildren is the sole structural rewrite
// primitive, returning a new node of the same variant with the children
// replaced. Interned variants (registers, variables, settings, labels and
// friends) rely on pointer identity, so passes must preserve node identity
// wherever a subtree is unchanged.
type Node interface {
	Origin() Origin

	// Children returns the node's immediate subtrees in source order.
	Children() []Node

	// WithChildren returns a structurally identical node with the children
	// replaced. The slice must have the same length and per-slot variants
	// Children would return.
	WithChildren(children []Node) Node

	// String renders the node in macro-assembly spelling, used by
	// diagnostics and verbose tracing.
	String() string
}

// Descendants returns the transitive children of n in preorder.
func Descendants(n Node) []Node {
	var out []Node
	for _, c := range n.Children() {
		out = append(out, c)
		out = append(out, Descendants(c)...)
	}
	return out
}

// Flatten returns n followed by its descendants in preorder.
func Flatten(n Node) []Node {
	return append([]Node{n}, Descendants(n)...)
}

// MapChildren applies transform to each immediate child of n. If no child
// changes identity, n itself is returned.
func MapChildren(n Node, transform func(Node) Node) Node {
	kids := n.Children()
	if len(kids) == 0 {
		return n
	}
	out := make([]Node, len(kids))
	changed := false
	for i, k := range kids {
		out[i] = transform(k)
		if out[i] != k {
			changed = true
		}
	}
	if !changed {
		return n
	}
	return n.WithChildren(out)
}

// Rewrite applies transform to every node in the tree bottom-up, preserving
// the identity of unchanged subtrees.
func Rewrite(n Node, transform func(Node) Node) Node {
	return transform(MapChildren(n, func(c Node) Node {
		return Rewrite(c, transform)
	}))
}

// Contains reports whether the tree rooted at n contains target, compared
// by identity.
func Contains(n Node, target Node) bool {
	for _, d := range Flatten(n) {
		if d == target {
			return true
		}
	}
	return false
}

func joinNodes(nodes []Node, sep string) string {
	s := ""
	for i, n := range nodes {
		if i > 0 {
			s += sep
		}
		s += n.String()
	}
	return s
}
