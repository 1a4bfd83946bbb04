package linker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() *CommandSpec {
	return &CommandSpec{
		JavaPath:     "java",
		JarPath:      "/opt/linker/ParticleLinker.jar",
		MemoryMB:     2000,
		LinkRange:    2,
		Displacement: 10.5,
		FramesDir:    "/tmp/ws/frames/video01",
		OutputFile:   "/tmp/out/video01.txt",
	}
}

func TestUnixBuilderArgs(t *testing.T) {
	cmd := NewCommandBuilder("linux").Build(context.Background(), sampleSpec())

	require.NotEmpty(t, cmd.Args)
	assert.Contains(t, cmd.Args[0], "java")
	assert.Equal(t, []string{
		"-Xmx2000m",
		"-Dparticle.linkrange=2",
		"-Dparticle.displacement=10.5",
		"-jar", "/opt/linker/ParticleLinker.jar",
		"/tmp/ws/frames/video01",
		"/tmp/out/video01.txt",
	}, cmd.Args[1:])
}

func TestWindowsBuilderAppendsExeSuffix(t *testing.T) {
	builder := NewCommandBuilder("windows")

	cmd := builder.Build(context.Background(), sampleSpec())
	assert.Contains(t, cmd.Args[0], "java.exe")

	// Explicit paths are left alone.
	spec := sampleSpec()
	spec.JavaPath = `C:\jdk\bin\java.exe`
	cmd = builder.Build(context.Background(), spec)
	assert.Equal(t, `C:\jdk\bin\java.exe`, cmd.Args[0])
}

func TestBuilderSelection(t *testing.T) {
	assert.IsType(t, &unixBuilder{}, NewCommandBuilder("linux"))
	assert.IsType(t, &unixBuilder{}, NewCommandBuilder("darwin"))
	assert.IsType(t, &windowsBuilder{}, NewCommandBuilder("windows"))
}

func TestMemoryCapScalesWithSpec(t *testing.T) {
	spec := sampleSpec()
	spec.MemoryMB = 400
	cmd := NewCommandBuilder("linux").Build(context.Background(), spec)
	assert.Equal(t, "-Xmx400m", cmd.Args[1])
}
