// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// Macro invocations may expand to bodies containing further invocations;
// the recursion is bounded so that a self-referential macro is reported
// instead of looping.
const maxExpansionDepth = 64

// Expand replaces every macro invocation in the tree with a bound copy of
// the invoked macro's body, substituting the call's operands for the
// macro's parameters by position. Macro definitions are scoped to the
// sequence that contains them and contribute no statements of their own.
// After a successful expansion the tree contains no MacroCall and no Macro
// nodes.
func Expand(n Node) (Node, error) {
	return expand(n, nil, 0)
}

func expand(n Node, scope map[string]*Macro, depth int) (Node, error) {
	switch t := n.(type) {
	case *Sequence:
		// Definitions are visible to every statement of the sequence,
		// including ones textually before the definition.
		inner := scope
		cloned := false
		for _, s := range t.Stmts {
			if m, ok := s.(*Macro); ok {
				if !cloned {
					inner = make(map[string]*Macro, len(scope)+1)
					for k, v := range scope {
						inner[k] = v
					}
					cloned = true
				}
				inner[m.Name] = m
			}
		}
		out := make([]Node, 0, len(t.Stmts))
		for _, s := range t.Stmts {
			if _, ok := s.(*Macro); ok {
				continue
			}
			e, err := expand(s, inner, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return &Sequence{t.origin, out}, nil

	case *MacroCall:
		if depth >= maxExpansionDepth {
			return nil, errorNode(t.at, t, "macro expansion exceeds depth %d", maxExpansionDepth)
		}
		m, ok := scope[t.Name]
		if !ok {
			return nil, errorNode(t.at, t, "invocation of unknown macro '%s'", t.Name)
		}
		if len(t.Operands) != len(m.Params) {
			return nil, errorNode(t.at, t, "macro '%s' expects %d operands, got %d",
				t.Name, len(m.Params), len(t.Operands))
		}
		bindings := make(map[*Variable]Node, len(m.Params))
		for i, p := range m.Params {
			bindings[p] = t.Operands[i]
		}
		return expand(substitute(m.Body, bindings), scope, depth+1)

	case *Macro:
		// A definition outside any sequence contributes no code.
		return NewSkip(t.at), nil
	}

	kids := n.Children()
	if len(kids) == 0 {
		return n, nil
	}
	out := make([]Node, len(kids))
	changed := false
	for i, k := range kids {
		e, err := expand(k, scope, depth)
		if err != nil {
			return nil, err
		}
		out[i] = e
		if e != k {
			changed = true
		}
	}
	if !changed {
		return n, nil
	}
	return n.WithChildren(out), nil
}

// substitute replaces bound parameter variables throughout the tree,
// inserting the operand nodes themselves so that an operand used twice in
// the body stays one node. Parameters of a nested macro definition shadow
// outer bindings of the same variable.
func substitute(n Node, bindings map[*Variable]Node) Node {
	if v, ok := n.(*Variable); ok {
		if r, ok := bindings[v]; ok {
			return r
		}
		return n
	}
	if m, ok := n.(*Macro); ok {
		inner := bindings
		trimmed := false
		for _, p := range m.Params {
			if _, shadowed := inner[p]; shadowed {
				if !trimmed {
					clone := make(map[*Variable]Node, len(inner))
					for k, v := range inner {
						clone[k] = v
					}
					inner = clone
					trimmed = true
				}
				delete(inner, p)
			}
		}
		body := substitute(m.Body, inner)
		if body == m.Body {
			return m
		}
		return m.WithChildren([]Node{body})
	}
	return MapChildren(n, func(c Node) Node {
		return substitute(c, bindings)
	})
}

// verifyExpanded checks the expansion pass post-condition: no macro
// definitions or invocations remain anywhere in the tree.
func verifyExpanded(n Node) error {
	for _, d := range Flatten(n) {
		switch d.(type) {
		case *Macro, *MacroCall:
			return errorNode(d.Origin(), d, "macro survived expansion")
		}
	}
	return nil
}
