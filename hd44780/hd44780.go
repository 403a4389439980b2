// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 over its
// 8 bit parallel interface.
//
// The data lines D0-D7 are driven through a gpio.Group and the register
// select, read/write and enable lines through discrete pins. Because the
// read/write line is connected, every command and data write is gated on the
// controller's busy flag instead of a fixed worst case delay.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

type writeMode bool

const (
	modeCommand writeMode = false
	modeData    writeMode = true

	packageName = "hd44780"

	busyFlag byte = 0x80

	// Instructions.
	cmdClear          byte = 0x01
	cmdHome           byte = 0x02
	cmdEntryMode      byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdShift          byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetDDRAM       byte = 0x80

	// Instruction flags.
	entryIncrement byte = 0x02
	entryShift     byte = 0x01
	displayOn      byte = 0x04
	cursorOn       byte = 0x02
	blinkOn        byte = 0x01
	shiftRight     byte = 0x04
	function8Bit   byte = 0x10
	function2Line  byte = 0x08
)

var (
	// ErrBusyTimeout is returned when the busy flag did not clear within
	// Opts.BusyPolls polls. The device stays faulted until Init succeeds.
	ErrBusyTimeout = errors.New("hd44780: busy flag stuck")

	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)

	// DDRAM offsets of the first cell of each line, for 16 columns and for
	// the wider 20 column modules.
	rowOffsets = [][]byte{{0x00, 0x40, 0x10, 0x50}, {0x00, 0x40, 0x14, 0x54}}
)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Opts configures a Dev.
type Opts struct {
	// Rows and Cols are the display geometry. Up to 4 rows are supported.
	Rows int
	Cols int
	// Backlight is optional. If nil, the backlight is assumed hard-wired.
	Backlight display.DisplayBacklight
	// Timing defaults to DefaultTiming when zero.
	Timing Timing
	// BusyPolls bounds the number of busy flag reads before a write gives up
	// with ErrBusyTimeout. Defaults to DefaultBusyPolls when zero.
	BusyPolls int
	// WaitForever polls the busy flag without bound. A stuck controller then
	// hangs the caller.
	WaitForever bool
	// Delay is the timing primitive. Defaults to Spin.
	Delay func(time.Duration)
}

// DefaultBusyPolls is the busy flag poll bound used when Opts.BusyPolls is 0.
// The slowest instruction (clear) needs 1.52ms; with the default pulse width
// this leaves a wide margin.
const DefaultBusyPolls = 10000

// DefaultOpts is a 16x2 display with datasheet timing.
var DefaultOpts = Opts{
	Rows:      2,
	Cols:      16,
	Timing:    DefaultTiming,
	BusyPolls: DefaultBusyPolls,
}

// Dev is an HD44780 driven through an 8 bit parallel port.
//
// Implements periph.io/conn/x/display/TextDisplay and display.DisplayBacklight
type Dev struct {
	mu sync.Mutex

	data      gpio.Group
	rs        gpio.PinOut
	rw        gpio.PinOut
	e         gpio.PinOut
	backlight display.DisplayBacklight

	rows        int
	cols        int
	timing      Timing
	busyPolls   int
	waitForever bool
	delay       func(time.Duration)

	on         bool
	cursor     bool
	blink      bool
	autoScroll bool
	fault      error
}

// New returns an initialized HD44780.
//
// data must hold at least 8 pins, D0 first. rs, rw and e are the register
// select, read/write and enable lines. If opts is nil, DefaultOpts is used.
func New(data gpio.Group, rs, rw, e gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if data == nil || len(data.Pins()) < 8 {
		return nil, errors.New("hd44780: the data port needs 8 pins")
	}
	if rs == nil || rw == nil || e == nil {
		return nil, errors.New("hd44780: rs, rw and e pins are required")
	}
	if opts.Rows < 1 || opts.Rows > len(rowOffsets[0]) || opts.Cols < 1 {
		return nil, fmt.Errorf("hd44780: unsupported geometry %dx%d", opts.Rows, opts.Cols)
	}
	dev := &Dev{
		data:        data,
		rs:          rs,
		rw:          rw,
		e:           e,
		backlight:   opts.Backlight,
		rows:        opts.Rows,
		cols:        opts.Cols,
		timing:      opts.Timing,
		busyPolls:   opts.BusyPolls,
		waitForever: opts.WaitForever,
		delay:       opts.Delay,
	}
	if dev.timing == (Timing{}) {
		dev.timing = DefaultTiming
	}
	if dev.busyPolls <= 0 {
		dev.busyPolls = DefaultBusyPolls
	}
	if dev.delay == nil {
		dev.delay = Spin
	}
	if err := dev.Init(); err != nil {
		return nil, err
	}
	return dev, nil
}

// Init runs the power on reset sequence and leaves the display cleared, on,
// with the cursor hidden and the address auto-incrementing.
//
// The first three function sets cannot check the busy flag; they are spaced
// by the Timing delays instead. Init clears a busy flag fault.
func (dev *Dev) Init() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.fault = nil
	dev.on = true
	dev.cursor = false
	dev.blink = false
	dev.autoScroll = false

	reset := cmdFunctionSet | function8Bit
	for _, wait := range []time.Duration{dev.timing.PowerOn, dev.timing.Reset1, dev.timing.Reset2} {
		dev.delay(wait)
		if err := dev.writeUnchecked(reset); err != nil {
			return wrap(err)
		}
	}
	lineMode := cmdFunctionSet | function8Bit
	if dev.rows > 1 {
		lineMode |= function2Line
	}
	for _, cmd := range []byte{lineMode, cmdClear, dev.displayControl(), dev.entryMode()} {
		if err := dev.writeCommand(cmd); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// WriteCommand waits for the controller and sends an instruction.
func (dev *Dev) WriteCommand(code byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.writeCommand(code))
}

// WriteData waits for the controller and writes one byte to the current
// DDRAM or CGRAM address.
func (dev *Dev) WriteData(b byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.writeData(b))
}

// SelectLine moves the cursor to the first cell of line, starting at 1.
func (dev *Dev) SelectLine(line int) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return wrap(dev.selectLine(line))
}

// DisplayString selects line and writes p to it, left to right. Cells past
// len(p) are left untouched, so callers wanting to replace a whole line pass
// Cols() bytes.
func (dev *Dev) DisplayString(line int, p []byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.selectLine(line); err != nil {
		return wrap(err)
	}
	for _, b := range p {
		if err := dev.writeData(b); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Fault returns the busy flag fault the device is in, or nil.
func (dev *Dev) Fault() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.fault
}

// AutoScroll shifts the whole display on each write instead of moving the
// cursor.
func (dev *Dev) AutoScroll(enabled bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.autoScroll = enabled
	return wrap(dev.writeCommand(dev.entryMode()))
}

// Clears the screen and moves the cursor to the first position.
func (dev *Dev) Clear() error {
	return dev.WriteCommand(cmdClear)
}

// Return the number of columns the display supports
func (dev *Dev) Cols() int {
	return dev.cols
}

// Set the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (dev *Dev) Cursor(modes ...display.CursorMode) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	cursor, blink := false, false
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock, display.CursorBlink:
			blink = true
		default:
			return fmt.Errorf("%s: unexpected cursor: %d: %w", packageName, mode, display.ErrInvalidCommand)
		}
	}
	dev.cursor = cursor
	dev.blink = blink
	return wrap(dev.writeCommand(dev.displayControl()))
}

// Move the cursor home (MinRow(),MinCol())
func (dev *Dev) Home() error {
	return dev.WriteCommand(cmdHome)
}

// Return the min column position.
func (dev *Dev) MinCol() int {
	return 1
}

// Return the min row position.
func (dev *Dev) MinRow() int {
	return 1
}

// Move the cursor forward or backward.
func (dev *Dev) Move(dir display.CursorDirection) error {
	val := cmdShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= shiftRight
	case display.Down, display.Up:
		return ErrNotImplemented
	default:
		return fmt.Errorf("%s: unexpected direction: %d: %w", packageName, dir, display.ErrInvalidCommand)
	}
	return dev.WriteCommand(val)
}

// Move the cursor to arbitrary position.
func (dev *Dev) MoveTo(row, col int) error {
	if row < dev.MinRow() || row > dev.rows || col < dev.MinCol() || col > dev.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return dev.WriteCommand(cmdSetDDRAM | (dev.rowOffset(row) + byte(col-1)))
}

// Return the number of rows the display supports.
func (dev *Dev) Rows() int {
	return dev.rows
}

// Return info about the display.
func (dev *Dev) String() string {
	return fmt.Sprintf("HD44780::%s - Rows: %d, Cols: %d", dev.data.String(), dev.rows, dev.cols)
}

// Turn the display on / off
func (dev *Dev) Display(on bool) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.on = on
	return wrap(dev.writeCommand(dev.displayControl()))
}

// Write writes p as character data at the cursor.
func (dev *Dev) Write(p []byte) (n int, err error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for _, b := range p {
		if err = dev.writeData(b); err != nil {
			return n, wrap(err)
		}
		n++
	}
	return n, nil
}

// Write a string output to the display.
func (dev *Dev) WriteString(text string) (int, error) {
	return dev.Write([]byte(text))
}

// Halt clears the display, turns the backlight off, and turns the display off.
// Halt() is called for the data pins gpio.Group.
func (dev *Dev) Halt() error {
	_ = dev.Clear()
	_ = dev.Backlight(0)
	_ = dev.Display(false)
	return wrap(dev.data.Halt())
}

// Turn the display's backlight on or off. You must supply a backlight in Opts
// to use this.
func (dev *Dev) Backlight(intensity display.Intensity) error {
	if dev.backlight == nil {
		return ErrNotImplemented
	}
	return wrap(dev.backlight.Backlight(intensity))
}

func (dev *Dev) rowOffset(row int) byte {
	geometry := 0
	if dev.cols != 16 {
		geometry = 1
	}
	return rowOffsets[geometry][row-1]
}

func (dev *Dev) selectLine(line int) error {
	if line < dev.MinRow() || line > dev.rows {
		return fmt.Errorf("%s: line %d not in 1..%d", packageName, line, dev.rows)
	}
	return dev.writeCommand(cmdSetDDRAM | dev.rowOffset(line))
}

func (dev *Dev) displayControl() byte {
	val := cmdDisplayControl
	if dev.on {
		val |= displayOn
	}
	if dev.cursor {
		val |= cursorOn
	}
	if dev.blink {
		val |= blinkOn
	}
	return val
}

func (dev *Dev) entryMode() byte {
	val := cmdEntryMode | entryIncrement
	if dev.autoScroll {
		val |= entryShift
	}
	return val
}

func (dev *Dev) writeCommand(code byte) error {
	return dev.writeChecked(modeCommand, code)
}

func (dev *Dev) writeData(b byte) error {
	return dev.writeChecked(modeData, b)
}

func (dev *Dev) writeChecked(mode writeMode, value byte) error {
	if err := dev.waitReady(); err != nil {
		return err
	}
	eh := errorHandler{d: dev}
	eh.write(mode, value)
	return eh.err
}

// writeUnchecked sends an instruction without looking at the busy flag. It is
// only valid during the reset sequence.
func (dev *Dev) writeUnchecked(code byte) error {
	eh := errorHandler{d: dev}
	eh.write(modeCommand, code)
	return eh.err
}

// waitReady polls the busy flag until it clears. Each poll is one enable
// pulse, so a controller busy for k reads costs exactly k+1 pulses. The data
// port is an input before read/write goes high.
func (dev *Dev) waitReady() error {
	if dev.fault != nil {
		return dev.fault
	}
	eh := errorHandler{d: dev}
	eh.rsOut(gpio.Low)
	eh.releaseData()
	eh.rwOut(gpio.High)
	for polls := 0; dev.waitForever || polls < dev.busyPolls; polls++ {
		status := eh.readStatus()
		if eh.err != nil {
			return eh.err
		}
		if status&busyFlag == 0 {
			return nil
		}
	}
	dev.fault = fmt.Errorf("%w after %d polls", ErrBusyTimeout, dev.busyPolls)
	return dev.fault
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
