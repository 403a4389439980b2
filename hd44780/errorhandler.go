// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/gpio"
)

// errorHandler chains port operations. Once one fails, the rest are skipped
// and err holds the first failure.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) rsOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rs.Out(l)
}

func (eh *errorHandler) rwOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rw.Out(l)
}

func (eh *errorHandler) eOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.e.Out(l)
}

func (eh *errorHandler) dataOut(value byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.data.Out(gpio.GPIOValue(value), 0xff)
}

func (eh *errorHandler) dataRead(mask gpio.GPIOValue) byte {
	if eh.err != nil {
		return 0
	}
	var v gpio.GPIOValue
	v, eh.err = eh.d.data.Read(mask)
	return byte(v)
}

// releaseData turns the data port to input, so the controller can drive it
// once read/write goes high.
func (eh *errorHandler) releaseData() {
	_ = eh.dataRead(0xff)
}

// pulse raises then lowers the enable line, holding each level for the
// configured pulse width. The controller latches writes on the falling edge.
func (eh *errorHandler) pulse() {
	eh.eOut(gpio.High)
	eh.d.delay(eh.d.timing.PulseWidth)
	eh.eOut(gpio.Low)
	eh.d.delay(eh.d.timing.PulseWidth)
}

// write puts value on the port with the register select set for mode and
// strobes it in.
func (eh *errorHandler) write(mode writeMode, value byte) {
	eh.rwOut(gpio.Low)
	eh.rsOut(gpio.Level(mode))
	eh.dataOut(value)
	eh.pulse()
}

// readStatus performs one busy flag poll: the status is sampled while enable
// is high.
func (eh *errorHandler) readStatus() byte {
	eh.eOut(gpio.High)
	eh.d.delay(eh.d.timing.PulseWidth)
	status := eh.dataRead(0xff)
	eh.eOut(gpio.Low)
	eh.d.delay(eh.d.timing.PulseWidth)
	return status
}
