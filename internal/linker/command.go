// Package linker builds and runs the external particle-linking tool, capturing
// its log verbatim for post-run inspection.
package linker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandSpec carries everything needed to build one linker command line.
type CommandSpec struct {
	JavaPath     string  // java executable
	JarPath      string  // linker jar, possibly a workspace-private copy
	MemoryMB     int     // JVM heap cap in MB
	LinkRange    int     // frames bridged across a missed detection
	Displacement float64 // max per-frame displacement in pixels
	FramesDir    string  // workspace directory of per-frame coordinate files
	OutputFile   string  // trajectory segment file the linker writes
}

// CommandBuilder constructs the linker command line for one platform. The
// backend is selected once at startup; no call site branches on the OS.
type CommandBuilder interface {
	Build(ctx context.Context, spec *CommandSpec) *exec.Cmd
}

// NewCommandBuilder returns the command builder for the given GOOS value.
func NewCommandBuilder(goos string) CommandBuilder {
	if goos == "windows" {
		return &windowsBuilder{}
	}
	return &unixBuilder{}
}

// jvmArgs returns the argument list shared by all platforms.
func jvmArgs(spec *CommandSpec) []string {
	return []string{
		fmt.Sprintf("-Xmx%dm", spec.MemoryMB),
		fmt.Sprintf("-Dparticle.linkrange=%d", spec.LinkRange),
		fmt.Sprintf("-Dparticle.displacement=%g", spec.Displacement),
		"-jar", spec.JarPath,
		spec.FramesDir,
		spec.OutputFile,
	}
}

// unixBuilder invokes the JVM directly, relying on PATH resolution.
type unixBuilder struct{}

func (b *unixBuilder) Build(ctx context.Context, spec *CommandSpec) *exec.Cmd {
	return exec.CommandContext(ctx, spec.JavaPath, jvmArgs(spec)...)
}

// windowsBuilder appends the .exe suffix to a bare executable name so
// resolution does not depend on PATHEXT being configured.
type windowsBuilder struct{}

func (b *windowsBuilder) Build(ctx context.Context, spec *CommandSpec) *exec.Cmd {
	javaPath := spec.JavaPath
	if !strings.Contains(javaPath, ".") && !strings.ContainsAny(javaPath, `\/`) {
		javaPath += ".exe"
	}
	return exec.CommandContext(ctx, javaPath, jvmArgs(spec)...)
}
