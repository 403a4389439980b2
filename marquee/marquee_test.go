// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package marquee

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/marquee/hd44780"
	"github.com/GermanBionicSystems/marquee/hd44780/hd44780test"
)

var defaultConfigs = []Config{
	{Row: 1, Text: "HELLO.", Gap: 2, Direction: Left},
	{Row: 2, Text: "WORLD.", Gap: 2, Direction: Right},
}

func TestNew(t *testing.T) {
	r := &recorder{}
	if _, err := New(nil, defaultConfigs...); err == nil {
		t.Error("New(nil) expected error")
	}
	if _, err := New(r); err == nil {
		t.Error("New() with no lines expected error")
	}
	three := append(append([]Config{}, defaultConfigs...), Config{Row: 1, Text: "x"})
	if _, err := New(r, three...); err == nil {
		t.Error("New() with 3 lines expected error")
	}
	if _, err := New(r, Config{Row: 1, Text: "a"}, Config{Row: 1, Text: "b"}); err == nil {
		t.Error("New() with a duplicate row expected error")
	}
	if _, err := New(r, Config{Row: 2, Text: ""}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("New() with empty text = %v", err)
	}
	m, err := New(r, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Lines()) != 2 || m.Lines()[0].Row() != 1 || m.Lines()[1].Row() != 2 {
		t.Errorf("Lines() = %v", m.Lines())
	}
}

func TestStepOrder(t *testing.T) {
	r := &recorder{}
	m, err := New(r, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	want := []frame{
		{1, "                "},
		{2, "                "},
		{1, "               H"},
		{2, ".               "},
		{1, "              HE"},
		{2, "D.              "},
	}
	if diff := cmp.Diff(r.frames, want); diff != "" {
		t.Errorf("frames difference (-got +want):\n%s", diff)
	}
}

// Lines with different cycle lengths keep their own pace.
func TestIndependentLines(t *testing.T) {
	r := &recorder{}
	m, err := New(r,
		Config{Row: 1, Text: "AB", Gap: 0, Direction: Left},
		Config{Row: 2, Text: "LONGER TEXT", Gap: 4, Direction: Right},
	)
	if err != nil {
		t.Fatal(err)
	}
	for range 10 {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	short, long := m.Lines()[0], m.Lines()[1]
	// 10 calls on a 2 shift cycle: 3 complete cycles then one shift.
	if short.Pos() != 1 || short.CycleComplete() {
		t.Errorf("short line = %s", short)
	}
	if long.Pos() != 10 || long.CycleComplete() {
		t.Errorf("long line = %s", long)
	}
}

func TestStepError(t *testing.T) {
	errBus := errors.New("bus")
	r := &recorder{err: errBus}
	m, err := New(r, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	err = m.Step()
	if !errors.Is(err, errBus) {
		t.Fatalf("Step() = %v", err)
	}
	if got, want := err.Error(), "marquee: row 1: bus"; got != want {
		t.Errorf("Step() = %q, expected %q", got, want)
	}
	// Line 2 is not touched once line 1 failed.
	if !m.Lines()[1].CycleComplete() {
		t.Error("line 2 stepped after line 1 failed")
	}
}

// failAfter fails every write after n successful ones.
type failAfter struct {
	recorder
	n int
}

func (f *failAfter) DisplayString(line int, p []byte) error {
	if len(f.frames) == f.n {
		return errors.New("gone")
	}
	return f.recorder.DisplayString(line, p)
}

func TestRunError(t *testing.T) {
	f := &failAfter{n: 7}
	m, err := New(f, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(context.Background(), 0); err == nil || err.Error() != "marquee: row 2: gone" {
		t.Fatalf("Run() = %v", err)
	}
	if len(f.frames) != 7 {
		t.Errorf("%d frames before the error, expected 7", len(f.frames))
	}
}

// cancelAfter cancels the run after n writes.
type cancelAfter struct {
	recorder
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) DisplayString(line int, p []byte) error {
	if err := c.recorder.DisplayString(line, p); err != nil {
		return err
	}
	if len(c.frames) == c.n {
		c.cancel()
	}
	return nil
}

func TestRunCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := &cancelAfter{n: 20, cancel: cancel}
	m, err := New(c, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v", err)
	}
	// Cancellation is seen between loop iterations, never inside one.
	if len(c.frames) != 20 {
		t.Errorf("%d frames, expected 20", len(c.frames))
	}
}

func TestRunInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	r := &recorder{}
	m, err := New(r, defaultConfigs[0])
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Run(ctx, 20*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v", err)
	}
	// One immediate iteration plus at most one per tick.
	if n := len(r.frames); n < 1 || n > 4 {
		t.Errorf("%d frames in 50ms at 20ms interval", n)
	}
}

func TestOnController(t *testing.T) {
	ctrl := hd44780test.New(2, 16)
	ctrl.BusyPolls = 1
	opts := hd44780.DefaultOpts
	opts.Delay = func(time.Duration) {}
	lcd, err := hd44780.New(ctrl, ctrl.RS, ctrl.RW, ctrl.E, &opts)
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(lcd, defaultConfigs...)
	if err != nil {
		t.Fatal(err)
	}
	ctrl.Reset()
	for range 7 {
		if err := m.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if got := ctrl.Row(1); got != "          HELLO." {
		t.Errorf("Row(1) = %q", got)
	}
	if got := ctrl.Row(2); got != "WORLD.          " {
		t.Errorf("Row(2) = %q", got)
	}
	// Each frame is one address command and 16 characters, each polled twice.
	if want := 7 * 2 * 17 * 2; ctrl.Polls != want {
		t.Errorf("Polls = %d, expected %d", ctrl.Polls, want)
	}
}
