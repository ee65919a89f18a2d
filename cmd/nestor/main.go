// Command nestor runs the headless NES core from the command line: execute
// a ROM to a halt or step budget, print iNES header details, or batch-verify
// a directory of test ROMs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-faster/jx"

	"nestor/cartridge"
	"nestor/console"
	"nestor/ines"
	"nestor/internal/romset"
	"nestor/internal/trace"
)

func main() {
	cfg := parseArgs(os.Args[1:])

	switch cfg.mode {
	case romInfoMode:
		runRomInfo(cfg.RomInfo)
	case verifyMode:
		runVerify(cfg.Verify)
	default:
		runRun(cfg.Run)
	}
}

func runRun(args RunCmd) {
	cart, err := cartridge.Load(args.RomPath)
	checkf(err, "failed to load rom")

	sys := console.New(cart, nil, nil)

	var writers []trace.Writer
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if args.Trace != "" {
		w, err := openOut(args.Trace)
		checkf(err, "failed to open trace file")
		closers = append(closers, w)
		writers = append(writers, trace.NewTextWriter(w))
	}
	if args.TraceJSON != "" {
		w, err := openOut(args.TraceJSON)
		checkf(err, "failed to open json trace file")
		closers = append(closers, w)
		writers = append(writers, trace.NewJSONWriter(w))
	}

	for step := 0; step < args.MaxSteps; step++ {
		pc := sys.CPU.PC
		opcode := sys.Bus.Read8(pc)
		rec := trace.Record{
			PC: pc, Opcode: opcode,
			A: sys.CPU.A, X: sys.CPU.X, Y: sys.CPU.Y, S: sys.CPU.S, P: sys.CPU.P,
			Cycles:   sys.CPU.Cycles,
			Scanline: sys.PPU.Scanline(), Dot: sys.PPU.Dot(),
		}

		if _, err := sys.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "halted after %d steps: %v\n", step, err)
			os.Exit(1)
		}

		for _, w := range writers {
			w.Write(rec)
		}
	}

	fmt.Printf("ran %d instructions without halting (cycles=%d, frames=%d)\n",
		args.MaxSteps, sys.CPU.Cycles, sys.PPU.FrameCount())
}

func runRomInfo(args RomInfoCmd) {
	rom, err := ines.Open(args.RomPath)
	checkf(err, "failed to open rom")

	if args.JSON {
		e := jx.GetEncoder()
		defer jx.PutEncoder(e)
		e.ObjStart()
		e.FieldStart("mapper")
		e.UInt8(rom.Mapper())
		e.FieldStart("mirroring")
		e.Str(rom.MirrorMode().String())
		e.FieldStart("prg_banks")
		e.Int(rom.PRGBanks())
		e.FieldStart("chr_banks")
		e.Int(rom.CHRBanks())
		e.FieldStart("chr_ram")
		e.Bool(rom.HasCHRRAM())
		e.FieldStart("prg_ram_bytes")
		e.Int(rom.PRGRAMSize())
		e.FieldStart("battery")
		e.Bool(rom.HasPersistent())
		e.ObjEnd()
		os.Stdout.Write(e.Bytes())
		fmt.Println()
		return
	}

	fmt.Printf("mapper:       %d\n", rom.Mapper())
	fmt.Printf("mirroring:    %s\n", rom.MirrorMode())
	fmt.Printf("PRG banks:    %d (16KiB each)\n", rom.PRGBanks())
	fmt.Printf("CHR banks:    %d (8KiB each)\n", rom.CHRBanks())
	fmt.Printf("CHR RAM:      %v\n", rom.HasCHRRAM())
	fmt.Printf("PRG RAM:      %d bytes\n", rom.PRGRAMSize())
	fmt.Printf("battery:      %v\n", rom.HasPersistent())
}

// testStatusMagic is the marker many community test ROMs (blargg's
// instr_test/cpu_*_test suites) write to $6001-$6003 once $6000 holds a
// valid status byte, so a driver can tell a real test-in-progress apart
// from whatever garbage RAM holds before the ROM starts writing to it.
var testStatusMagic = [3]byte{0xDE, 0xB0, 0x61}

func runVerify(args VerifyCmd) {
	poll := func(sys *console.System) (done, passed bool) {
		if sys.Bus.Read8(0x6001) != testStatusMagic[0] ||
			sys.Bus.Read8(0x6002) != testStatusMagic[1] ||
			sys.Bus.Read8(0x6003) != testStatusMagic[2] {
			return false, false
		}
		status := sys.Bus.Read8(0x6000)
		if status == 0x80 || status == 0x81 {
			return false, false // still running, or asking for a reset we don't deliver
		}
		return true, status == 0x00
	}

	results, err := romset.RunDir(context.Background(), args.Dir, args.MaxSteps, poll)
	checkf(err, "batch run failed")

	failures := 0
	for _, r := range results {
		status := "FAIL"
		if r.Passed {
			status = "PASS"
		}
		if r.Err != nil {
			status = "ERROR: " + r.Err.Error()
			failures++
		} else if !r.Passed {
			failures++
		}
		fmt.Printf("%-40s %s (cycles=%d)\n", r.Path, status, r.Cycles)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d/%d ROMs failed to converge\n", failures, len(results))
		os.Exit(1)
	}
}

func openOut(name string) (io.WriteCloser, error) {
	switch name {
	case "stdout":
		return nopCloser{os.Stdout}, nil
	case "stderr":
		return nopCloser{os.Stderr}, nil
	default:
		return os.Create(name)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
