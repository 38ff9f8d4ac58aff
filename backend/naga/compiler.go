// Package naga implements gfxpipe.ShaderCompiler on top of the naga WGSL
// compiler. Each stage module carries WGSL source; the pipeline binary is
// the container of every stage's compiled SPIR-V.
package naga

import (
	"fmt"
	"os"
	"path/filepath"

	nagac "github.com/gogpu/naga"

	"github.com/gogpu/gfxpipe"
)

// Compiler compiles WGSL stages into a gfxpipe pipeline binary.
// The zero value is not usable; construct with New.
type Compiler struct {
	dumpDir string
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDumpDir sets the directory Dump writes shader sources to.
func WithDumpDir(dir string) Option {
	return func(c *Compiler) { c.dumpDir = dir }
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Build compiles every stage's WGSL source to SPIR-V and packs the results
// into one pipeline binary.
func (c *Compiler) Build(info *gfxpipe.BuildInfo) (gfxpipe.CompiledBinary, error) {
	stages := make([]gfxpipe.StageBinary, 0, len(info.Stages))
	for _, st := range info.Stages {
		if len(st.Code) == 0 {
			return gfxpipe.CompiledBinary{}, fmt.Errorf("naga: stage %s: empty shader source", st.Stage)
		}
		spirv, err := compileWGSL(string(st.Code))
		if err != nil {
			return gfxpipe.CompiledBinary{}, fmt.Errorf("naga: stage %s: %w", st.Stage, err)
		}
		entry := st.EntryPoint
		if entry == "" {
			entry = "main"
		}
		stages = append(stages, gfxpipe.StageBinary{
			Stage:      st.Stage,
			EntryPoint: entry,
			SPIRV:      spirv,
		})
	}
	return gfxpipe.CompiledBinary{Code: gfxpipe.EncodeStageBinaries(stages)}, nil
}

// Dump writes every stage's WGSL source to the dump directory, one file per
// stage.
func (c *Compiler) Dump(info *gfxpipe.BuildInfo) error {
	if c.dumpDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dumpDir, 0o755); err != nil {
		return fmt.Errorf("naga: create dump dir: %w", err)
	}
	for i, st := range info.Stages {
		name := fmt.Sprintf("stage%d_%s.wgsl", i, st.Stage)
		if err := os.WriteFile(filepath.Join(c.dumpDir, name), st.Code, 0o644); err != nil {
			return fmt.Errorf("naga: dump stage %s: %w", st.Stage, err)
		}
	}
	return nil
}

// compileWGSL compiles WGSL source to SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := nagac.Compile(source)
	if err != nil {
		return nil, err
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}
