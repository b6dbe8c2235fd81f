// Copyright 2026 Justin Michaud. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// A Stage identifies how far a batch has progressed through the
// compilation pipeline. Stages only move forward; feeding a batch's trees
// to a pass out of order is a caller bug.
type Stage byte

const (
	StageParsed Stage = iota
	StageInterned
	StageFolded
	StageExpanded
	StageLowered
	StageEmitted
)

var stageName = []string{
	"parsed",
	"interned",
	"folded",
	"expanded",
	"lowered",
	"emitted",
}

func (s Stage) String() string {
	return stageName[s]
}

// Stage returns the batch's current pipeline stage.
func (b *Batch) Stage() Stage {
	return b.stage
}

// advance moves the batch to the next pipeline stage, rejecting skips and
// reversals.
func (b *Batch) advance(from, to Stage) error {
	if b.stage != from {
		return fmt.Errorf("batch is %s, expected %s", b.stage, from)
	}
	b.stage = to
	return nil
}

// Compilation options.
type Option uint

const (
	// Verbose writes a pass-by-pass trace of the compilation to the
	// output writer.
	Verbose Option = 1 << iota
)

// A SourceLine pairs one line of emitted target text with the origin of
// the statement that produced it.
type SourceLine struct {
	Text string
	At   Origin
}

// A SourceMap records per-line provenance for an emitted program.
type SourceMap struct {
	entries []SourceLine
}

// Len returns the number of mapped lines.
func (m *SourceMap) Len() int {
	return len(m.entries)
}

// Line returns the i'th emitted line and its origin.
func (m *SourceMap) Line(i int) SourceLine {
	return m.entries[i]
}

// Find returns the emitted lines that originate from the given source
// position.
func (m *SourceMap) Find(at Origin) []SourceLine {
	var out []SourceLine
	for _, e := range m.entries {
		if e.At == at {
			out = append(out, e)
		}
	}
	return out
}

// A Program is the result of one compilation: the emitted target text, its
// source map, and the label bookkeeping accumulated during the run.
type Program struct {
	Lines []string
	Map   *SourceMap

	// Externs lists labels referenced but never defined in the compiled
	// unit, in sorted order. Forwards lists labels referenced before they
	// were defined, in first-reference order; it includes the externs.
	Externs  []*Label
	Forwards []*Label
}

// Text returns the emitted program as a single string.
func (p *Program) Text() string {
	return strings.Join(p.Lines, "\n") + "\n"
}

// WriteTo writes the emitted program to w.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, p.Text())
	return int64(n), err
}

// Compile runs the full pipeline over a statement tree whose symbols were
// interned in b: configuration folding, macro expansion, then lowering to
// the configured architecture. The emitted unit is bracketed by the
// target's trap spacer. Verbose trace output, when requested, goes to out.
func Compile(root Node, b *Batch, cfg *Config, out io.Writer, options Option) (*Program, error) {
	verbose := options&Verbose != 0
	if err := b.advance(StageParsed, StageInterned); err != nil {
		return nil, err
	}

	logSection(out, verbose, "configuration folding ["+cfg.Arch().Name+"]")
	folded, err := Fold(root, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "configuration folding")
	}
	if err := verifyFolded(folded); err != nil {
		return nil, errors.Wrap(err, "configuration folding")
	}
	if err := b.advance(StageInterned, StageFolded); err != nil {
		return nil, err
	}

	logSection(out, verbose, "macro expansion")
	expanded, err := Expand(folded)
	if err != nil {
		return nil, errors.Wrap(err, "macro expansion")
	}
	if err := verifyExpanded(expanded); err != nil {
		return nil, errors.Wrap(err, "macro expansion")
	}
	if err := b.advance(StageFolded, StageExpanded); err != nil {
		return nil, err
	}

	logSection(out, verbose, "emission")
	e := newEmitter(cfg, b, out, verbose)
	spacer := cfg.Arch().Spacer
	if spacer != "" {
		e.ins(Origin{}, spacer)
	}
	if err := e.emit(expanded); err != nil {
		return nil, errors.Wrap(err, "code emission")
	}
	if err := b.advance(StageExpanded, StageLowered); err != nil {
		return nil, err
	}
	if spacer != "" {
		e.ins(Origin{}, spacer)
	}
	if err := b.advance(StageLowered, StageEmitted); err != nil {
		return nil, err
	}

	m := &SourceMap{entries: make([]SourceLine, len(e.lines))}
	for i, line := range e.lines {
		m.entries[i] = SourceLine{line, e.origins[i]}
	}

	var externs []*Label
	for _, l := range b.labels {
		if l.IsExtern() {
			externs = append(externs, l)
		}
	}
	sort.Slice(externs, func(i, j int) bool { return externs[i].Name < externs[j].Name })

	return &Program{
		Lines:    e.lines,
		Map:      m,
		Externs:  externs,
		Forwards: b.ForwardReferences(),
	}, nil
}

// CompileTemplates specializes every opcode template against the
// configuration and compiles the combined unit. Specialization errors are
// collected across all templates before aborting, so one bad opcode does
// not hide the others.
func CompileTemplates(templates []*OpcodeTemplate, b *Batch, cfg *Config, out io.Writer, options Option) (*Program, error) {
	var merr *multierror.Error
	stmts := make([]Node, 0, len(templates))
	for _, t := range templates {
		n, err := b.Specialize(t, cfg)
		if err != nil {
			merr = multierror.Append(merr, errors.Wrapf(err, "opcode '%s'", t.Name))
			continue
		}
		stmts = append(stmts, n)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return Compile(NewSequence(Origin{}, stmts...), b, cfg, out, options)
}

func logSection(out io.Writer, verbose bool, name string) {
	if verbose {
		fmt.Fprintf(out, "----- %s -----\n", name)
	}
}
