package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"nestor/internal/log"
)

type mode byte

const (
	runMode mode = iota
	romInfoMode
	verifyMode
)

type (
	CLI struct {
		Run     RunCmd     `cmd:"" help:"Run a ROM headlessly and report how it halted."`
		RomInfo RomInfoCmd `cmd:"" help:"Print iNES header details." name:"rom-info"`
		Verify  VerifyCmd  `cmd:"" help:"Batch-run a directory of ROMs looking for a convergence marker."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	RunCmd struct {
		RomPath string `arg:"" name:"rom" help:"${rompath_help}" required:"true" type:"existingfile"`

		MaxSteps  int    `name:"max-steps" help:"Stop after this many CPU instructions." default:"1000000"`
		Trace     string `name:"trace" help:"Write a human-readable execution trace to FILE|stdout|stderr."`
		TraceJSON string `name:"trace-json" help:"Write a JSON execution trace to FILE|stdout|stderr."`
	}

	RomInfoCmd struct {
		RomPath string `arg:"" name:"rom" required:"true" type:"existingfile"`
		JSON    bool   `name:"json" help:"Print as JSON instead of plain text."`
	}

	VerifyCmd struct {
		Dir      string `arg:"" name:"dir" help:"Directory of .nes ROMs to batch-run." required:"true" type:"existingdir"`
		MaxSteps int    `name:"max-steps" help:"Per-ROM instruction budget before declaring non-convergence." default:"2000000"`
	}
)

var vars = kong.Vars{
	"rompath_help": "Path to the .nes file to run.",
	"log_help":     "Enable debug logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("nestor"),
		kong.Description("Headless NES core: CPU/PPU/bus/mapper emulation."),
		kong.UsageOnError(),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "rom-info <rom>":
		cfg.mode = romInfoMode
	case "verify <dir>":
		cfg.mode = verifyMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

type logModMask log.Mask

// Decode decodes a comma-separated list of module names and enables them
// for debug logging immediately.
//
// Implements kong.MapperValue.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %q (valid: %s)", v, strings.Join(log.ModuleNames(), ", "))
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if allLogs {
		lm = logModMask(log.MaskAll)
	}
	log.EnableModules(log.Mask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+": "+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}
