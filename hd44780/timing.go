// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "time"

// Timing holds the minimum delays the controller needs. The values come from
// the HD44780U datasheet, not from a particular CPU clock, so they hold on
// any host as long as the delay primitive waits at least that long.
type Timing struct {
	// PowerOn is the wait after Vcc rises to 4.5V before the first function
	// set.
	PowerOn time.Duration
	// Reset1 is the wait after the first function set of the reset sequence.
	Reset1 time.Duration
	// Reset2 is the wait after the second function set of the reset sequence.
	Reset2 time.Duration
	// PulseWidth is held on each edge of the enable pulse. The datasheet
	// requires 450ns high and a 1000ns enable cycle.
	PulseWidth time.Duration
}

// DefaultTiming is the datasheet timing for a 5V HD44780U.
var DefaultTiming = Timing{
	PowerOn:    15 * time.Millisecond,
	Reset1:     4100 * time.Microsecond,
	Reset2:     100 * time.Microsecond,
	PulseWidth: time.Microsecond,
}

// Spin busy-waits for at least d on the monotonic clock.
//
// It never yields to the scheduler. The calling goroutine is blocked for the
// whole duration.
func Spin(d time.Duration) {
	if d <= 0 {
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}
