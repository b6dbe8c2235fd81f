// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// Fold statically resolves every conditional in the tree against the
// configuration, replacing each IfThenElse with its live branch and
// discarding the dead branch. After a successful fold the tree contains no
// IfThenElse nodes and no settings-expression nodes: it is
// architecture-specialized.
func Fold(n Node, cfg *Config) (Node, error) {
	switch t := n.(type) {
	case *IfThenElse:
		live, err := cfg.Eval(t.Predicate)
		if err != nil {
			return nil, err
		}
		if live {
			return Fold(t.Then, cfg)
		}
		return Fold(t.Else, cfg)

	case *And, *Or, *Not, *Setting, *BoolLiteral:
		return nil, errorNode(n.Origin(), n, "settings expression outside a conditional")
	}

	kids := n.Children()
	if len(kids) == 0 {
		return n, nil
	}
	out := make([]Node, len(kids))
	changed := false
	for i, k := range kids {
		f, err := Fold(k, cfg)
		if err != nil {
			return nil, err
		}
		out[i] = f
		if f != k {
			changed = true
		}
	}
	if !changed {
		return n, nil
	}
	return n.WithChildren(out), nil
}

// verifyFolded checks the folding pass post-condition: no conditional or
// settings-expression nodes remain anywhere in the tree.
func verifyFolded(n Node) error {
	for _, d := range Flatten(n) {
		switch d.(type) {
		case *IfThenElse, *And, *Or, *Not, *Setting, *BoolLiteral:
			return errorNode(d.Origin(), d, "conditional survived configuration folding")
		}
	}
	return nil
}
