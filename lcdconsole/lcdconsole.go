// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdconsole emulates a character LCD on the terminal.
//
// Useful to try out a marquee before the display is wired.
package lcdconsole

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	Rows int
	Cols int
	// Plain prints one text line per update, without escape sequences.
	Plain   bool
	Palette *ansi256.Palette

	_ struct{}
}

// DefaultOpts is a 16x2 module on a color terminal.
var DefaultOpts = Opts{Rows: 2, Cols: 16}

var errRow = errors.New("lcdconsole: invalid row")

// Backlight colors.
var (
	bezel  = color.NRGBA{0x10, 0x30, 0x10, 0xff}
	screen = color.NRGBA{0x60, 0xc0, 0x30, 0xff}
)

// Dev is a character LCD emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	plain   bool
	palette ansi256.Palette
	cols    int

	lines [][]byte
	drawn bool
	buf   bytes.Buffer
}

// New returns a Dev that displays on w, or on stdout when w is nil.
func New(w io.Writer, opts *Opts) (*Dev, error) {
	if opts.Rows < 1 || opts.Cols < 1 {
		return nil, fmt.Errorf("lcdconsole: invalid geometry %dx%d", opts.Cols, opts.Rows)
	}
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       w,
		plain:   opts.Plain,
		palette: *p,
		cols:    opts.Cols,
		lines:   make([][]byte, opts.Rows),
	}
	for ix := range d.lines {
		d.lines[ix] = bytes.Repeat([]byte{' '}, opts.Cols)
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("LCDConsole{%dx%d}", d.cols, len(d.lines))
}

// Halt implements conn.Resource.
//
// It resets the terminal colors and leaves the last frame on screen.
func (d *Dev) Halt() error {
	if d.plain || !d.drawn {
		return nil
	}
	_, err := io.WriteString(d.w, "\033[0m\n")
	return err
}

// DisplayString replaces a line, starting at 1, with p. p is cut or padded
// with blanks to the width of the display.
func (d *Dev) DisplayString(line int, p []byte) error {
	if line < 1 || line > len(d.lines) {
		return fmt.Errorf("%w: %d", errRow, line)
	}
	row := d.lines[line-1]
	for ix := range row {
		b := byte(' ')
		if ix < len(p) {
			b = printable(p[ix])
		}
		row[ix] = b
	}
	if d.plain {
		d.buf.Reset()
		fmt.Fprintf(&d.buf, "%d |%s|\n", line, row)
		_, err := d.buf.WriteTo(d.w)
		return err
	}
	return d.refresh()
}

// Row returns the text of a line, starting at 1.
func (d *Dev) Row(line int) string {
	if line < 1 || line > len(d.lines) {
		return ""
	}
	return string(d.lines[line-1])
}

func printable(b byte) byte {
	switch {
	case b == 0:
		return ' '
	case b < 0x20 || b >= 0x7f:
		return '?'
	}
	return b
}

// refresh redraws the whole module in place.
func (d *Dev) refresh() error {
	d.buf.Reset()
	if d.drawn {
		fmt.Fprintf(&d.buf, "\033[%dA", len(d.lines)+2)
	}
	edge := d.palette.Block(bezel)
	d.bezelLine(edge)
	for _, row := range d.lines {
		_, _ = d.buf.WriteString("\r\033[0m")
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString(d.palette.Block(screen))
		_, _ = d.buf.WriteString("\033[1;30;42m")
		_, _ = d.buf.Write(row)
		_, _ = d.buf.WriteString(d.palette.Block(screen))
		_, _ = d.buf.WriteString(edge)
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.bezelLine(edge)
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

func (d *Dev) bezelLine(edge string) {
	_, _ = d.buf.WriteString("\r\033[0m")
	for range d.cols + 4 {
		_, _ = d.buf.WriteString(edge)
	}
	_, _ = d.buf.WriteString("\033[0m\n")
}

var _ fmt.Stringer = &Dev{}
