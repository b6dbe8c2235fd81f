// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/prefixtree/v2"

	"github.com/justinmichaud/offasm/arch"
)

// A LayoutResolver supplies host-structure layout constants to the
// emission pass. It is an external collaborator: the compiler itself knows
// nothing about host type layouts.
type LayoutResolver interface {
	StructOffset(structName, field string) (int64, error)
	SizeOf(structName string) (int64, error)
}

// A Config is the fixed set of named boolean flags a compilation is
// specialized against: the one-of-N architecture selection, the assertion
// flag, and any feature toggles. It is immutable once constructed.
type Config struct {
	spec  *arch.Spec
	flags map[string]bool
	names *prefixtree.Tree[string]

	// Layout resolves structure offset and size references during
	// emission. Optional; leaving it nil is fatal only for programs that
	// use StructOffset or Sizeof nodes.
	Layout LayoutResolver
}

// AssertFlag gates the shared trailing diagnostic sequence of
// width-specialized opcodes. Every configuration defines it; it defaults
// to false.
const AssertFlag = "ASSERT_ENABLED"

// NewConfig builds a configuration selecting the given architecture, with
// the architecture-choice flags derived from the selection and any feature
// toggles taken from flags. Passing an architecture flag in flags that
// contradicts the selection is an error.
func NewConfig(spec *arch.Spec, flags map[string]bool) (*Config, error) {
	c := &Config{
		spec:  spec,
		flags: make(map[string]bool),
		names: prefixtree.New[string](),
	}

	// Exactly one architecture flag is true.
	for _, s := range arch.Specs() {
		c.flags[s.Name] = s == spec
	}
	c.flags[AssertFlag] = false

	for name, value := range flags {
		if current, ok := c.flags[name]; ok && isArchFlag(name) && current != value {
			return nil, fmt.Errorf("flag %s=%v contradicts the selected architecture %s",
				name, value, spec.Name)
		}
		c.flags[name] = value
	}

	for name := range c.flags {
		c.names.Add(strings.ToLower(name), name)
	}
	return c, nil
}

func isArchFlag(name string) bool {
	for _, s := range arch.Specs() {
		if s.Name == name {
			return true
		}
	}
	return false
}

// Arch returns the selected target architecture.
func (c *Config) Arch() *arch.Spec {
	return c.spec
}

// Flags returns the defined flag names in sorted order.
func (c *Config) Flags() []string {
	names := make([]string, 0, len(c.flags))
	for name := range c.flags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsSet reports the value of the named flag. Referencing an undefined flag
// is fatal, with a suggestion when the name prefix-matches a defined flag.
func (c *Config) IsSet(name string) (bool, error) {
	if v, ok := c.flags[name]; ok {
		return v, nil
	}
	if hit, err := c.names.FindValue(strings.ToLower(name)); err == nil && hit != name {
		return false, fmt.Errorf("undefined setting '%s'; did you mean '%s'?", name, hit)
	}
	return false, fmt.Errorf("undefined setting '%s'", name)
}

// Eval interprets a settings expression against the configuration.
func (c *Config) Eval(n Node) (bool, error) {
	switch t := n.(type) {
	case *BoolLiteral:
		return t.Value, nil

	case *Setting:
		v, err := c.IsSet(t.Name)
		if err != nil {
			return false, errorNode(t.at, t, "%v", err)
		}
		return v, nil

	case *And:
		l, err := c.Eval(t.Left)
		if err != nil {
			return false, err
		}
		r, err := c.Eval(t.Right)
		if err != nil {
			return false, err
		}
		return l && r, nil

	case *Or:
		l, err := c.Eval(t.Left)
		if err != nil {
			return false, err
		}
		r, err := c.Eval(t.Right)
		if err != nil {
			return false, err
		}
		return l || r, nil

	case *Not:
		v, err := c.Eval(t.Child)
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	return false, errorNode(n.Origin(), n, "not a settings expression")
}
