// Package romset runs a directory of ROMs against independent console
// instances concurrently, the one place true concurrency appears in this
// otherwise single-threaded core — mirroring how the teacher's own ROM test
// battery exercises many independent test ROMs, but as a reusable CLI
// subcommand instead of a fixed _test.go table.
package romset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"nestor/cartridge"
	"nestor/console"
)

// Result is one ROM's outcome from a batch run.
type Result struct {
	Path    string
	Passed  bool
	Err     error
	Cycles  uint64
}

// ConvergencePoll reports whether sys has reached a terminal success
// marker. Test ROMs vary in what that marker is (a flag byte at a known
// address, a CPU halt at a known PC); callers provide the check.
type ConvergencePoll func(sys *console.System) (done bool, passed bool)

// RunDir loads every .nes file directly under dir and runs each to
// completion (or maxSteps) in its own goroutine via an errgroup, returning
// one Result per ROM in directory order.
func RunDir(ctx context.Context, dir string, maxSteps int, poll ConvergencePoll) ([]Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("romset: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".nes") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			results[i] = runOne(gctx, path, maxSteps, poll)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(ctx context.Context, path string, maxSteps int, poll ConvergencePoll) Result {
	cart, err := cartridge.Load(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("load: %w", err)}
	}

	sys := console.New(cart, nil, nil)
	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return Result{Path: path, Err: ctx.Err()}
		default:
		}

		if _, err := sys.Step(); err != nil {
			return Result{Path: path, Err: err, Cycles: sys.CPU.Cycles}
		}
		if done, passed := poll(sys); done {
			return Result{Path: path, Passed: passed, Cycles: sys.CPU.Cycles}
		}
	}
	return Result{Path: path, Err: fmt.Errorf("did not converge within %d steps", maxSteps), Cycles: sys.CPU.Cycles}
}
