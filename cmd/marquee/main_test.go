// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GermanBionicSystems/marquee/marquee"
)

func TestLineConfigs(t *testing.T) {
	got, err := lineConfigs(2, []lineFlags{{"HELLO.", "left", 2}, {"WORLD.", "right", 2}})
	if err != nil {
		t.Fatal(err)
	}
	want := []marquee.Config{
		{Row: 1, Text: "HELLO.", Gap: 2, Direction: marquee.Left},
		{Row: 2, Text: "WORLD.", Gap: 2, Direction: marquee.Right},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("lineConfigs() difference (-got +want):\n%s", diff)
	}

	got, err = lineConfigs(1, []lineFlags{{"HELLO.", "l", 0}, {"", "right", 2}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Row != 1 {
		t.Errorf("lineConfigs() with an empty line 2 = %+v", got)
	}
}

func TestLineConfigsErrors(t *testing.T) {
	tests := []struct {
		name  string
		rows  int
		lines []lineFlags
		want  string
	}{
		{"second line on a single row display", 1, []lineFlags{{"HELLO.", "left", 2}, {"WORLD.", "right", 2}}, "line 2: the display has 1 row(s)"},
		{"bad direction", 2, []lineFlags{{"HELLO.", "up", 2}}, "-dir1"},
		{"empty first line", 2, []lineFlags{{"", "left", 2}}, "line 1"},
		{"text too long", 2, []lineFlags{{"HELLO.", "left", 2}, {strings.Repeat("x", marquee.MaxTextLen+1), "right", 2}}, "line 2"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := lineConfigs(test.rows, test.lines)
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("lineConfigs() = %v, expected an error containing %q", err, test.want)
			}
		})
	}
	if _, err := lineConfigs(2, []lineFlags{{"x", "left", -1}}); !errors.Is(err, marquee.ErrGap) {
		t.Errorf("lineConfigs() with a negative gap = %v", err)
	}
}
