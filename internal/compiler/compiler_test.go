package compiler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecCompiler_NoCommand(t *testing.T) {
	c := &ExecCompiler{}
	err := c.Compile(context.Background(), "doc.Rmd")
	assert.ErrorIs(t, err, ErrNoCommand)
}

func TestExecCompiler_AppendsPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran.txt")

	c := &ExecCompiler{
		// Writes its last argument (the appended doc path) to a marker.
		Command: []string{"sh", "-c", `echo "$0" > ` + marker},
	}
	require.NoError(t, c.Compile(context.Background(), "analysis.Rmd"))

	out, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "analysis.Rmd\n", string(out))
}

func TestExecCompiler_Placeholder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran.txt")

	c := &ExecCompiler{
		Command: []string{"sh", "-c", `echo "$0" > ` + marker, "doc={doc}"},
	}
	require.NoError(t, c.Compile(context.Background(), "analysis.Rmd"))

	out, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "doc=analysis.Rmd\n", string(out))
}

func TestExecCompiler_FailureIncludesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on /bin/sh")
	}
	c := &ExecCompiler{
		Command: []string{"sh", "-c", "echo boom; exit 3"},
	}
	err := c.Compile(context.Background(), "analysis.Rmd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFunc(t *testing.T) {
	var got string
	c := Func(func(_ context.Context, docPath string) error {
		got = docPath
		return nil
	})
	require.NoError(t, c.Compile(context.Background(), "x.Rmd"))
	assert.Equal(t, "x.Rmd", got)
}
