// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
)

// GPIOMonoBacklight switches the LED backlight of a module with a single GPIO
// pin. Implements display.DisplayBacklight.
type GPIOMonoBacklight struct {
	blPin gpio.PinOut
	// activeLow is set for modules that drive the LED through a PNP
	// transistor.
	activeLow bool
}

// NewBacklight returns a backlight that is lit when blPin is high.
func NewBacklight(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin}
}

// NewActiveLowBacklight returns a backlight that is lit when blPin is low.
func NewActiveLowBacklight(blPin gpio.PinOut) *GPIOMonoBacklight {
	return &GPIOMonoBacklight{blPin: blPin, activeLow: true}
}

// Backlight turns the backlight on for any non-zero intensity.
func (bl *GPIOMonoBacklight) Backlight(intensity display.Intensity) error {
	on := intensity > 0
	if bl.activeLow {
		on = !on
	}
	return bl.blPin.Out(gpio.Level(on))
}

var _ display.DisplayBacklight = &GPIOMonoBacklight{}
