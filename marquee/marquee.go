// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package marquee scrolls text on the lines of a character display.
//
// Every line keeps its own state in a Line: a 16 cell window that is shown
// on the display and a staging copy of the text that feeds it. A step shifts
// the window by exactly one cell, so each line scrolls at one cell per loop
// iteration whatever the other lines do. The lines of a Marquee are stepped
// in order from a single goroutine and share the display without locking.
package marquee

import (
	"context"
	"fmt"
	"time"
)

// Marquee steps a set of lines on one display.
type Marquee struct {
	w     LineWriter
	lines []*Line
}

// New validates cfgs and returns a Marquee writing to w. Lines are stepped in
// the order of cfgs.
func New(w LineWriter, cfgs ...Config) (*Marquee, error) {
	if w == nil {
		return nil, fmt.Errorf("marquee: no display")
	}
	if len(cfgs) == 0 || len(cfgs) > MaxLines {
		return nil, fmt.Errorf("marquee: 1 to %d lines expected, got %d", MaxLines, len(cfgs))
	}
	m := &Marquee{w: w}
	seen := map[int]bool{}
	for _, cfg := range cfgs {
		if seen[cfg.Row] {
			return nil, fmt.Errorf("marquee: row %d configured twice", cfg.Row)
		}
		seen[cfg.Row] = true
		l, err := NewLine(cfg)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", cfg.Row, err)
		}
		m.lines = append(m.lines, l)
	}
	return m, nil
}

// Lines returns the scroll state of each line.
func (m *Marquee) Lines() []*Line {
	return m.lines
}

// Step runs one loop iteration: one step of every line, in order. A line's
// display update is complete before the next line steps.
func (m *Marquee) Step() error {
	for _, l := range m.lines {
		if err := l.Step(m.w); err != nil {
			return fmt.Errorf("marquee: row %d: %w", l.Row(), err)
		}
	}
	return nil
}

// Run calls Step forever. It returns the first display error, or ctx.Err()
// once ctx is done.
//
// With interval 0 the loop runs as fast as the display accepts writes. A
// positive interval starts at most one iteration per interval.
func (m *Marquee) Run(ctx context.Context, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.Step(); err != nil {
			return err
		}
		if tick == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
}
