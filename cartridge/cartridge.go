// Package cartridge combines a decoded iNES image with its constructed
// mapper into the single object the rest of the emulator depends on.
package cartridge

import (
	"fmt"

	"nestor/ines"
	"nestor/mappers"
)

// Cartridge is the one object the console harness and bus hold a reference
// to for everything cartridge-shaped: ROM metadata and mapper banking.
type Cartridge struct {
	Rom    *ines.Rom
	Mapper mappers.Mapper
}

// Load opens and decodes path, then constructs the mapper its header names.
func Load(path string) (*Cartridge, error) {
	rom, err := ines.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load cartridge: %w", err)
	}
	return New(rom)
}

// New constructs a Cartridge from an already-decoded ROM.
func New(rom *ines.Rom) (*Cartridge, error) {
	m, err := mappers.New(rom.Mapper(), rom)
	if err != nil {
		return nil, fmt.Errorf("load cartridge: %w", err)
	}
	return &Cartridge{Rom: rom, Mapper: m}, nil
}

// Mirroring reports the cartridge's current nametable mirroring. Mappers
// that can change it at runtime (MMC1) are authoritative over the header's
// static declaration.
func (c *Cartridge) Mirroring() ines.Mirroring { return c.Mapper.Mirroring() }
