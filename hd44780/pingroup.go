// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// pinGroup is a gpio.Group made of discrete host pins. Unlike a kernel line
// set, each pin can change direction, which the busy flag read needs.
type pinGroup struct {
	pins        []gpio.PinIO
	defaultMask gpio.GPIOValue
	// input is a bit set of the pins currently configured for input.
	input gpio.GPIOValue
}

// NewPinGroup returns a gpio.Group over pins, the first pin being bit 0.
//
// Out switches the written pins to output and Read switches the read pins to
// input, so the same group serves as the bidirectional data port of the
// display.
func NewPinGroup(pins ...gpio.PinIO) (gpio.Group, error) {
	if len(pins) == 0 || len(pins) > 64 {
		return nil, fmt.Errorf("%s: a pin group needs 1 to 64 pins, got %d", packageName, len(pins))
	}
	for ix, p := range pins {
		if p == nil || p == gpio.INVALID {
			return nil, fmt.Errorf("%s: pin %d of the group is invalid", packageName, ix)
		}
	}
	var mask gpio.GPIOValue
	if len(pins) == 64 {
		mask = ^gpio.GPIOValue(0)
	} else {
		mask = gpio.GPIOValue(1)<<len(pins) - 1
	}
	return &pinGroup{pins: pins, defaultMask: mask}, nil
}

// Pins returns the set of pin.Pin that make up that group.
func (pg *pinGroup) Pins() []pin.Pin {
	pins := make([]pin.Pin, len(pg.pins))
	for ix, p := range pg.pins {
		pins[ix] = p
	}
	return pins
}

// Given the offset within the group, return the corresponding GPIO pin.
func (pg *pinGroup) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(pg.pins) {
		return nil
	}
	return pg.pins[offset]
}

// Given the specific name of a pin, return it. If it can't be found, nil is
// returned.
func (pg *pinGroup) ByName(name string) pin.Pin {
	for _, p := range pg.pins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// Given the GPIO pin number, return that pin from the set.
func (pg *pinGroup) ByNumber(number int) pin.Pin {
	for _, p := range pg.pins {
		if p.Number() == number {
			return p
		}
	}
	return nil
}

// Out writes value to the pins selected by mask. If mask is 0, the default
// mask of all pins in the group is used.
func (pg *pinGroup) Out(value, mask gpio.GPIOValue) error {
	mask = pg.mask(mask)
	for bit, p := range pg.pins {
		if mask&(1<<bit) == 0 {
			continue
		}
		if err := p.Out(gpio.Level(value&(1<<bit) != 0)); err != nil {
			return err
		}
		pg.input &^= 1 << bit
	}
	return nil
}

// Read returns the level of the pins selected by mask. Pins not yet
// configured for input are transparently re-configured.
func (pg *pinGroup) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = pg.mask(mask)
	var result gpio.GPIOValue
	for bit, p := range pg.pins {
		if mask&(1<<bit) == 0 {
			continue
		}
		if pg.input&(1<<bit) == 0 {
			if err := p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
				return 0, err
			}
			pg.input |= 1 << bit
		}
		if p.Read() == gpio.High {
			result |= 1 << bit
		}
	}
	return result, nil
}

// WaitForEdge is not supported; the display never signals edges.
func (pg *pinGroup) WaitForEdge(timeout time.Duration) (number int, edge gpio.Edge, err error) {
	return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
}

// Halt halts every pin of the group.
func (pg *pinGroup) Halt() error {
	var errs []error
	for _, p := range pg.pins {
		errs = append(errs, p.Halt())
	}
	return errors.Join(errs...)
}

// String returns the names of the pins in group order.
func (pg *pinGroup) String() string {
	names := make([]string, len(pg.pins))
	for ix, p := range pg.pins {
		names[ix] = p.Name()
	}
	return "[" + strings.Join(names, " ") + "]"
}

func (pg *pinGroup) mask(mask gpio.GPIOValue) gpio.GPIOValue {
	if mask == 0 {
		return pg.defaultMask
	}
	return mask & pg.defaultMask
}

var _ gpio.Group = &pinGroup{}
