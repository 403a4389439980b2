// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package marquee

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Cols is the width of the scrolling window, in character cells.
	Cols = 16
	// MaxTextLen is the capacity of the staging buffer. Longer texts are
	// rejected by Config.Validate.
	MaxTextLen = 30
	// MaxLines is the number of lines a Marquee can drive.
	MaxLines = 2

	// Blank is what an empty cell is rendered as.
	Blank byte = ' '
)

var (
	ErrEmptyText   = errors.New("marquee: text is empty")
	ErrTextTooLong = fmt.Errorf("marquee: text longer than %d characters", MaxTextLen)
	ErrGap         = errors.New("marquee: gap is negative")
	ErrRow         = fmt.Errorf("marquee: row not in 1..%d", MaxLines)
	ErrDirection   = errors.New("marquee: unknown direction")
)

// Direction is the way text moves across the window.
type Direction int

const (
	// Left enters text at the right edge; a gap trails each pass.
	Left Direction = iota
	// Right enters text at the left edge; a gap leads each pass.
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection parses "left" or "right", case insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrDirection, s)
}

// LineWriter displays a full line. *hd44780.Dev implements it.
//
// p is reused by the next Step; implementations must not retain it.
type LineWriter interface {
	DisplayString(line int, p []byte) error
}

// Config describes one scrolling line.
type Config struct {
	// Row is the display line, starting at 1.
	Row int
	// Text is scrolled byte by byte, in the display's character set.
	Text string
	// Gap is the number of blank cells between two passes of Text.
	Gap int
	Direction Direction
}

// Validate reports a configuration the scroll cannot run with.
//
// Text must hold 1 to MaxTextLen bytes; a text of exactly MaxTextLen fills the
// staging buffer and is accepted.
func (c *Config) Validate() error {
	switch {
	case len(c.Text) == 0:
		return ErrEmptyText
	case len(c.Text) > MaxTextLen:
		return fmt.Errorf("%w: %q is %d", ErrTextTooLong, c.Text, len(c.Text))
	case c.Gap < 0:
		return fmt.Errorf("%w: %d", ErrGap, c.Gap)
	case c.Row < 1 || c.Row > MaxLines:
		return fmt.Errorf("%w: %d", ErrRow, c.Row)
	case c.Direction != Left && c.Direction != Right:
		return fmt.Errorf("%w: %d", ErrDirection, int(c.Direction))
	}
	return nil
}

// Line is the scroll state of one display line.
//
// Each Step moves the window by one cell. A cycle shows the text once plus
// its gap, that is len(Text)+Gap steps, followed by one silent step that
// marks the cycle complete. The window is never reset, so consecutive passes
// flow into each other.
type Line struct {
	row  int
	text []byte
	gap  int
	dir  Direction

	window  [Cols]byte
	staging [MaxTextLen]byte
	frame   [Cols]byte
	pos     int
	// restart is set when the next Step starts a new cycle.
	restart bool
}

// NewLine returns a Line with a blank window, ready to start its first
// cycle.
func NewLine(cfg Config) (*Line, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Line{
		row:     cfg.Row,
		text:    []byte(cfg.Text),
		gap:     cfg.Gap,
		dir:     cfg.Direction,
		restart: true,
	}, nil
}

// Step advances the scroll by one cell and displays the window as it was
// before the shift. The last call of a cycle displays nothing.
func (l *Line) Step(w LineWriter) error {
	if l.restart {
		l.staging = [MaxTextLen]byte{}
		copy(l.staging[:], l.text)
		l.pos = 0
		l.restart = false
	}
	if l.pos >= l.CycleLen() {
		l.restart = true
		return nil
	}
	if err := w.DisplayString(l.row, l.render()); err != nil {
		return err
	}
	if l.dir == Left {
		l.shiftLeft()
	} else {
		l.shiftRight()
	}
	l.pos++
	return nil
}

// shiftLeft feeds the head of the staging buffer into the right edge of the
// window. The remaining text moves one cell toward the head and its old last
// cell is cleared; once the text is consumed, zeros are fed.
func (l *Line) shiftLeft() {
	copy(l.window[:], l.window[1:])
	l.window[Cols-1] = l.staging[0]
	remaining := len(l.text) - l.pos
	if remaining <= 0 {
		return
	}
	copy(l.staging[:remaining-1], l.staging[1:remaining])
	l.staging[remaining-1] = 0
}

// shiftRight feeds the tail of the text into the left edge of the window. The
// unconsumed text moves one cell toward the tail and the cell at the
// position counter is cleared.
func (l *Line) shiftRight() {
	n := len(l.text)
	copy(l.window[1:], l.window[:Cols-1])
	l.window[0] = l.staging[n-1]
	if l.pos >= n {
		return
	}
	copy(l.staging[l.pos+1:n], l.staging[l.pos:n-1])
	l.staging[l.pos] = 0
}

// render returns the window with empty cells as blanks. The controller's
// code 0 is a user defined glyph, not a space.
func (l *Line) render() []byte {
	for ix, b := range l.window {
		if b == 0 {
			b = Blank
		}
		l.frame[ix] = b
	}
	return l.frame[:]
}

// Row returns the display line.
func (l *Line) Row() int {
	return l.row
}

// CycleLen is the number of shifts in a cycle: the text plus its gap.
func (l *Line) CycleLen() int {
	return len(l.text) + l.gap
}

// Pos returns the number of shifts done in the current cycle.
func (l *Line) Pos() int {
	return l.pos
}

// CycleComplete reports whether the next Step starts a new cycle.
func (l *Line) CycleComplete() bool {
	return l.restart
}

// Window returns the raw window; empty cells are 0.
func (l *Line) Window() [Cols]byte {
	return l.window
}

// Staging returns the raw staging buffer.
func (l *Line) Staging() [MaxTextLen]byte {
	return l.staging
}

func (l *Line) String() string {
	return fmt.Sprintf("marquee.Line{row: %d, %s, %q, gap: %d, pos: %d/%d}", l.row, l.dir, l.text, l.gap, l.pos, l.CycleLen())
}
