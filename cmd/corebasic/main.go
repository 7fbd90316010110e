// Command corebasic compiles and runs a coreBasic source file from the
// terminal: -trace logs every executed instruction, -watch opens a
// tcell-driven live screen-buffer viewer, and -config loads run defaults
// (memory size, screen dimensions) from a TOML file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/gdamore/tcell/v2"

	cb "github.com/jcorbin/corebasic"
	"github.com/jcorbin/corebasic/internal/flushio"
	"github.com/jcorbin/corebasic/internal/logio"
	"github.com/jcorbin/corebasic/internal/panicerr"
)

type config struct {
	MemorySize   int `toml:"memory_size"`
	ScreenWidth  int `toml:"screen_width"`
	ScreenHeight int `toml:"screen_height"`
}

var log logio.Logger

func main() {
	var (
		trace      = flag.Bool("trace", false, "log every executed instruction")
		watch      = flag.Bool("watch", false, "open a live screen-buffer viewer")
		configPath = flag.String("config", "", "path to a TOML config file")
	)
	flag.Parse()
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	cfg := config{MemorySize: cb.DefaultMemorySize, ScreenWidth: cb.DefaultScreenWidth, ScreenHeight: cb.DefaultScreenHeight}
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			log.Errorf("loading config %v: %v", *configPath, err)
			return
		}
	}

	args := flag.Args()
	if len(args) != 1 {
		log.Errorf("usage: corebasic [flags] <source.cb>")
		return
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		log.Errorf("reading %v: %v", args[0], err)
		return
	}

	opts := []cb.Option{
		cb.WithMemorySize(cfg.MemorySize),
		cb.WithScreenSize(cfg.ScreenWidth, cfg.ScreenHeight),
		cb.WithOutput(flushio.NewWriteFlusher(os.Stdout)),
	}
	if *trace {
		opts = append(opts, cb.WithLogf(log.Leveledf("TRACE")))
	}

	vm, errs, err := cb.Compile(string(src), opts...)
	for _, e := range errs {
		log.Errorf("%v", e)
	}
	if err != nil {
		log.Errorf("link: %v", err)
		return
	}
	if len(errs) > 0 {
		return
	}

	if *watch {
		if err := runWatched(vm); err != nil {
			log.Errorf("%v", err)
		}
		return
	}

	if err := panicerr.Recover("VM", func() error { return run(vm) }); err != nil {
		log.Errorf("%v", err)
	}
}

// run drives the VM to completion, servicing Input/GetKey by reading a
// whitespace-delimited token from stdin and ignoring Pause (no live screen
// to throttle against without -watch).
func run(vm *cb.VM) error {
	stdin := bufio.NewScanner(os.Stdin)
	stdin.Split(bufio.ScanWords)
	for {
		intr, err := vm.Step()
		if err != nil {
			if rerr, ok := err.(cb.RuntimeError); ok && rerr.Kind == cb.ErrHalted {
				return nil
			}
			return err
		}
		if intr == cb.IntrNone {
			continue
		}
		var tok string
		if intr != cb.IntrPause && stdin.Scan() {
			tok = stdin.Text()
		}
		if err := vm.ReleaseInterrupt(tok); err != nil {
			return err
		}
	}
}

// runWatched drives the VM the same way run does, but renders
// vm.ScreenBuffer() into a tcell terminal screen after every Step in
// addition to printing Disp text.
func runWatched(vm *cb.VM) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}
	defer screen.Fini()

	style := tcell.StyleDefault
	draw := func() {
		buf := vm.ScreenBuffer()
		for y := 0; y < vm.ScreenHeight; y++ {
			for x := 0; x < vm.ScreenWidth; x++ {
				c := buf[y*vm.ScreenWidth+x]
				r := ' '
				if c != 0 {
					r = rune('0' + c%10)
				}
				screen.SetContent(x, y, r, nil, style)
			}
		}
		screen.Show()
	}

	for {
		intr, err := vm.Step()
		if err != nil {
			if rerr, ok := err.(cb.RuntimeError); ok && rerr.Kind == cb.ErrHalted {
				return nil
			}
			return err
		}
		draw()
		if intr == cb.IntrNone {
			continue
		}
		var tok string
		if intr == cb.IntrGetKey {
			ev := screen.PollEvent()
			if key, ok := ev.(*tcell.EventKey); ok {
				tok = string(key.Rune())
			}
		}
		if err := vm.ReleaseInterrupt(tok); err != nil {
			return err
		}
	}
}
