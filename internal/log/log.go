// Package log is a slimmed-down module-masked logger, rebased onto
// logrus in place of the deprecated pre-rename import path it was
// originally grounded on. Each subsystem gets its own Entry, enabled or
// silenced independently of the others via a bitmask.
package log

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Module identifies one subsystem's log channel.
type Module uint

const (
	CPU Module = iota
	PPU
	Mapper
	Bus
	Console

	numModules
)

var moduleNames = [numModules]string{"cpu", "ppu", "mapper", "bus", "console"}

func (m Module) String() string {
	if int(m) >= len(moduleNames) {
		return "<unknown>"
	}
	return moduleNames[m]
}

// Mask is a bitmask of Modules, one bit per Module value.
type Mask uint64

// MaskAll enables every known module.
const MaskAll Mask = (1 << numModules) - 1

func (m Module) Mask() Mask { return 1 << Mask(m) }

var enabled Mask

// EnableModules adds modules to the set of modules that emit Debug-level
// output. Warn and Error are always emitted regardless of this mask.
func EnableModules(mask Mask) {
	enabled |= mask
	logrus.SetLevel(logrus.DebugLevel)
}

// DisableModules removes modules from the debug-enabled set.
func DisableModules(mask Mask) { enabled &^= mask }

// ModuleByName resolves a module by its lowercase name, as accepted on the
// command line.
func ModuleByName(name string) (Module, bool) {
	for i, n := range moduleNames {
		if n == strings.ToLower(name) {
			return Module(i), true
		}
	}
	return 0, false
}

// ModuleNames lists every known module name, for CLI help text.
func ModuleNames() []string {
	return append([]string(nil), moduleNames[:]...)
}

// Entry is a nullable-feeling handle on one module's logrus output. Debug
// calls are skipped entirely, overhead and all, when the module isn't in
// the enabled mask.
type Entry struct {
	mod Module
}

// For returns the Entry for the given module.
func For(mod Module) Entry { return Entry{mod: mod} }

func (e Entry) entry() *logrus.Entry {
	return logrus.WithField("mod", e.mod.String())
}

func (e Entry) debugEnabled() bool { return enabled&e.mod.Mask() != 0 }

func (e Entry) Debugf(format string, args ...any) {
	if e.debugEnabled() {
		e.entry().Debugf(format, args...)
	}
}

func (e Entry) Infof(format string, args ...any) {
	e.entry().Infof(format, args...)
}

func (e Entry) Warnf(format string, args ...any) {
	e.entry().Warnf(format, args...)
}

func (e Entry) Errorf(format string, args ...any) {
	e.entry().Errorf(format, args...)
}
