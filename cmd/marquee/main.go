// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// marquee scrolls two lines of text on a HD44780 character LCD wired in 8 bit
// parallel mode, or on the terminal with -console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/marquee/hd44780"
	"github.com/GermanBionicSystems/marquee/lcdconsole"
	"github.com/GermanBionicSystems/marquee/marquee"
)

// display is what the loop drives and releases on exit.
type display interface {
	marquee.LineWriter
	Halt() error
}

func pinByName(flagName, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("-%s: no pin named %q", flagName, name)
	}
	return p, nil
}

func openLCD(rows, cols, polls int, hang bool, rsName, rwName, eName, blName string, dataNames []string) (*hd44780.Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	var data []gpio.PinIO
	for ix, name := range dataNames {
		p, err := pinByName(fmt.Sprintf("d%d", ix), name)
		if err != nil {
			return nil, err
		}
		data = append(data, p)
	}
	port, err := hd44780.NewPinGroup(data...)
	if err != nil {
		return nil, err
	}
	rs, err := pinByName("rs", rsName)
	if err != nil {
		return nil, err
	}
	rw, err := pinByName("rw", rwName)
	if err != nil {
		return nil, err
	}
	e, err := pinByName("e", eName)
	if err != nil {
		return nil, err
	}
	opts := hd44780.DefaultOpts
	opts.Rows = rows
	opts.Cols = cols
	opts.BusyPolls = polls
	opts.WaitForever = hang
	if blName != "" {
		bl, err := pinByName("bl", blName)
		if err != nil {
			return nil, err
		}
		opts.Backlight = hd44780.NewBacklight(bl)
	}
	dev, err := hd44780.New(port, rs, rw, e, &opts)
	if err != nil {
		return nil, err
	}
	if opts.Backlight != nil {
		if err := dev.Backlight(0xff); err != nil {
			return nil, errors.Join(err, dev.Halt())
		}
	}
	return dev, nil
}

// lineFlags holds the command line settings of one display line.
type lineFlags struct {
	text string
	dir  string
	gap  int
}

// lineConfigs turns the per line flags into scroll configurations for a
// display of rows lines. An empty text on line 2 leaves it unused.
func lineConfigs(rows int, lines []lineFlags) ([]marquee.Config, error) {
	var cfgs []marquee.Config
	for ix, l := range lines {
		if l.text == "" && ix > 0 {
			continue
		}
		row := ix + 1
		if row > rows {
			return nil, fmt.Errorf("line %d: the display has %d row(s), clear -text%d", row, rows, row)
		}
		d, err := marquee.ParseDirection(l.dir)
		if err != nil {
			return nil, fmt.Errorf("-dir%d: %w", row, err)
		}
		cfg := marquee.Config{Row: row, Text: l.text, Gap: l.gap, Direction: d}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", row, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func mainImpl() error {
	text1 := flag.String("text1", "HELLO.", "text scrolled on line 1")
	text2 := flag.String("text2", "WORLD.", "text scrolled on line 2, empty to leave it blank")
	dir1 := flag.String("dir1", "left", "line 1 direction: left or right")
	dir2 := flag.String("dir2", "right", "line 2 direction: left or right")
	gap1 := flag.Int("gap1", 2, "blank cells between passes on line 1")
	gap2 := flag.Int("gap2", 2, "blank cells between passes on line 2")
	interval := flag.Duration("interval", 0, "time between two steps, 0 to run as fast as the display accepts")
	console := flag.Bool("console", false, "display on the terminal instead of a LCD")

	rsName := flag.String("rs", "GPIO17", "register select pin")
	rwName := flag.String("rw", "GPIO27", "read/write pin")
	eName := flag.String("e", "GPIO22", "enable pin")
	blName := flag.String("bl", "", "backlight pin, if any")
	defaultData := []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26", "GPIO16", "GPIO20", "GPIO21"}
	dataNames := make([]*string, len(defaultData))
	for ix, name := range defaultData {
		dataNames[ix] = flag.String(fmt.Sprintf("d%d", ix), name, fmt.Sprintf("data pin D%d", ix))
	}
	rows := flag.Int("rows", 2, "display rows")
	cols := flag.Int("cols", 16, "display columns")
	polls := flag.Int("polls", hd44780.DefaultBusyPolls, "busy flag reads before giving up")
	hang := flag.Bool("hang", false, "wait for the busy flag forever")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfgs, err := lineConfigs(*rows, []lineFlags{{*text1, *dir1, *gap1}, {*text2, *dir2, *gap2}})
	if err != nil {
		return err
	}

	var dev display
	if *console {
		opts := lcdconsole.Opts{Rows: *rows, Cols: *cols, Plain: !term.IsTerminal(int(os.Stdout.Fd()))}
		c, err := lcdconsole.New(nil, &opts)
		if err != nil {
			return err
		}
		if *interval == 0 {
			*interval = 250 * time.Millisecond
		}
		dev = c
	} else {
		data := make([]string, len(dataNames))
		for ix, p := range dataNames {
			data[ix] = *p
		}
		lcd, err := openLCD(*rows, *cols, *polls, *hang, *rsName, *rwName, *eName, *blName, data)
		if err != nil {
			return err
		}
		log.Printf("%s", lcd)
		dev = lcd
	}

	m, err := marquee.New(dev, cfgs...)
	if err != nil {
		return errors.Join(err, dev.Halt())
	}
	for _, l := range m.Lines() {
		log.Printf("%s", l)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()
	err = m.Run(ctx, *interval)
	log.Printf("stopped after %s: %v", time.Since(start), err)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return errors.Join(err, dev.Halt())
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "marquee: %s.\n", err)
		os.Exit(1)
	}
}
