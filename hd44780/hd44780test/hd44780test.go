// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780test simulates an HD44780 controller wired to an 8 bit
// parallel port.
//
// The Controller decodes the bus activity produced through its data group
// and control pins the way the real chip does: writes latch on the falling
// edge of enable, status reads are sampled while enable is high. The DDRAM it
// maintains can be inspected to check what a real display would show.
package hd44780test

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/pin"
)

// Op is one write latched by the controller.
type Op struct {
	// Data is true for a data write (RS high), false for an instruction.
	Data  bool
	Value byte
}

func (o Op) String() string {
	if o.Data {
		return fmt.Sprintf("data(%#04x)", o.Value)
	}
	return fmt.Sprintf("cmd(%#04x)", o.Value)
}

const ddramSize = 0x80

// Controller is a simulated HD44780.
//
// The data port is the Controller itself, used as a gpio.Group; RS, RW and E
// are the control lines. The zero value is not usable, use New.
type Controller struct {
	RS *ControlPin
	RW *ControlPin
	E  *ControlPin

	// BusyPolls is the number of status reads that report busy after each
	// latched write.
	BusyPolls int
	// Stuck keeps the busy flag set forever.
	Stuck bool
	// Err, when set, is returned by every port operation.
	Err error

	mu    sync.Mutex
	rows  int
	cols  int
	data  [8]*gpiotest.Pin
	bus   byte
	latch byte
	busy  int

	// Polls counts the status reads, successful or not.
	Polls int
	// Ops lists the latched writes in order.
	Ops []Op

	ddram        [ddramSize]byte
	ac           byte
	increment    bool
	shift        bool
	displayOn    bool
	cursor       bool
	blink        bool
	eightBit     bool
	twoLine      bool
	displayShift int
}

// New returns a powered up controller for a rows x cols module. The DDRAM is
// filled with blanks like after the internal reset.
func New(rows, cols int) *Controller {
	c := &Controller{rows: rows, cols: cols, increment: true}
	c.RS = &ControlPin{Pin: gpiotest.Pin{N: "RS", Num: 8}, c: c}
	c.RW = &ControlPin{Pin: gpiotest.Pin{N: "RW", Num: 9}, c: c}
	c.E = &ControlPin{Pin: gpiotest.Pin{N: "E", Num: 10}, c: c}
	for ix := range c.data {
		c.data[ix] = &gpiotest.Pin{N: fmt.Sprintf("D%d", ix), Num: ix}
	}
	for ix := range c.ddram {
		c.ddram[ix] = ' '
	}
	return c
}

// Reset clears the counters and the write log.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Polls = 0
	c.Ops = nil
}

// SetBusy makes the next n status reads report busy.
func (c *Controller) SetBusy(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = n
}

// Commands returns the latched instructions in order.
func (c *Controller) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, op := range c.Ops {
		if !op.Data {
			out = append(out, op.Value)
		}
	}
	return out
}

// DataBytes returns the latched data writes in order.
func (c *Controller) DataBytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []byte
	for _, op := range c.Ops {
		if op.Data {
			out = append(out, op.Value)
		}
	}
	return out
}

// Row returns the visible cells of row, starting at 1.
func (c *Controller) Row(row int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	base := c.rowBase(row)
	out := make([]byte, c.cols)
	for ix := range out {
		out[ix] = c.ddram[c.wrapAddress(base+byte(ix))]
	}
	return string(out)
}

// Address returns the address counter.
func (c *Controller) Address() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ac
}

// DisplayOn, CursorOn and BlinkOn report the display control flags.
func (c *Controller) DisplayOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayOn
}

func (c *Controller) CursorOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

func (c *Controller) BlinkOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blink
}

// EightBit and TwoLine report the last function set.
func (c *Controller) EightBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eightBit
}

func (c *Controller) TwoLine() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.twoLine
}

// DisplayShift returns the net number of display shifts to the right.
func (c *Controller) DisplayShift() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.displayShift
}

// gpio.Group implementation for the data port.

// Pins returns the data pins D0 to D7.
func (c *Controller) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(c.data))
	for ix, p := range c.data {
		pins[ix] = p
	}
	return pins
}

func (c *Controller) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(c.data) {
		return nil
	}
	return c.data[offset]
}

func (c *Controller) ByName(name string) pin.Pin {
	for _, p := range c.data {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

func (c *Controller) ByNumber(number int) pin.Pin {
	for _, p := range c.data {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// Out drives the data port.
func (c *Controller) Out(value, mask gpio.GPIOValue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if mask == 0 {
		mask = 0xff
	}
	c.bus = c.bus&^byte(mask) | byte(value&mask)
	for ix, p := range c.data {
		_ = p.Out(gpio.Level(c.bus&(1<<ix) != 0))
	}
	return nil
}

// Read returns what the controller drives on the port: the value sampled on
// the last rising edge of enable.
func (c *Controller) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	if mask == 0 {
		mask = 0xff
	}
	return gpio.GPIOValue(c.latch) & mask, nil
}

func (c *Controller) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

func (c *Controller) Halt() error {
	return nil
}

func (c *Controller) String() string {
	return fmt.Sprintf("hd44780test(%dx%d)", c.rows, c.cols)
}

// edge is called by the control pins after their level changed.
func (c *Controller) edge(p *ControlPin, prev, l gpio.Level) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if p != c.E || prev == l {
		return nil
	}
	read := c.RW.level() == gpio.High
	data := c.RS.level() == gpio.High
	switch {
	case l == gpio.High && read && !data:
		c.Polls++
		status := c.ac & 0x7f
		if c.Stuck || c.busy > 0 {
			status |= 0x80
			if c.busy > 0 {
				c.busy--
			}
		}
		c.latch = status
	case l == gpio.High && read && data:
		c.latch = c.ddram[c.ac]
		c.advance()
	case l == gpio.Low && !read:
		c.Ops = append(c.Ops, Op{Data: data, Value: c.bus})
		if data {
			c.writeData(c.bus)
		} else {
			c.execute(c.bus)
		}
		c.busy = c.BusyPolls
	}
	return nil
}

func (c *Controller) writeData(b byte) {
	c.ddram[c.ac] = b
	c.advance()
	if c.shift {
		if c.increment {
			c.displayShift--
		} else {
			c.displayShift++
		}
	}
}

func (c *Controller) advance() {
	if c.increment {
		c.ac = c.wrapAddress(c.ac + 1)
	} else {
		c.ac = c.wrapAddress(c.ac - 1)
	}
}

func (c *Controller) execute(cmd byte) {
	switch {
	case cmd&0x80 != 0:
		c.ac = c.wrapAddress(cmd & 0x7f)
	case cmd&0x40 != 0:
		// CGRAM address; glyphs are not simulated.
	case cmd&0x20 != 0:
		c.eightBit = cmd&0x10 != 0
		c.twoLine = cmd&0x08 != 0
	case cmd&0x10 != 0:
		right := cmd&0x04 != 0
		if cmd&0x08 != 0 {
			if right {
				c.displayShift++
			} else {
				c.displayShift--
			}
			return
		}
		if right {
			c.ac = c.wrapAddress(c.ac + 1)
		} else {
			c.ac = c.wrapAddress(c.ac - 1)
		}
	case cmd&0x08 != 0:
		c.displayOn = cmd&0x04 != 0
		c.cursor = cmd&0x02 != 0
		c.blink = cmd&0x01 != 0
	case cmd&0x04 != 0:
		c.increment = cmd&0x02 != 0
		c.shift = cmd&0x01 != 0
	case cmd&0x02 != 0:
		c.ac = 0
		c.displayShift = 0
	case cmd == 0x01:
		for ix := range c.ddram {
			c.ddram[ix] = ' '
		}
		c.ac = 0
		c.increment = true
		c.displayShift = 0
	}
}

// wrapAddress folds an address into the DDRAM map of the current line mode.
// In two line mode, 0x28-0x3f and 0x68-0x7f do not exist: the counter jumps
// from the end of one line to the start of the other.
func (c *Controller) wrapAddress(a byte) byte {
	a &= 0x7f
	if !c.twoLine {
		if a >= 0x50 {
			if a == 0x7f {
				return 0x4f
			}
			return 0
		}
		return a
	}
	switch {
	case a >= 0x28 && a < 0x40:
		if a == 0x3f {
			return 0x27
		}
		return 0x40
	case a >= 0x68:
		if a == 0x7f {
			return 0x67
		}
		return 0x00
	}
	return a
}

func (c *Controller) rowBase(row int) byte {
	wide := c.cols != 16
	switch row {
	case 2:
		return 0x40
	case 3:
		if wide {
			return 0x14
		}
		return 0x10
	case 4:
		if wide {
			return 0x54
		}
		return 0x50
	}
	return 0x00
}

// ControlPin is one of the RS, RW or E lines of a Controller.
type ControlPin struct {
	gpiotest.Pin
	c *Controller
}

// Out sets the line and lets the controller react to the edge.
func (p *ControlPin) Out(l gpio.Level) error {
	prev := p.level()
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	return p.c.edge(p, prev, l)
}

func (p *ControlPin) level() gpio.Level {
	return p.Pin.Read()
}

var _ gpio.Group = &Controller{}
var _ gpio.PinOut = &ControlPin{}
