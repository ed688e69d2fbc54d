// Package compiler invokes the external document compiler. Compilation is
// the out-of-band collaborator that produces a document's cache; this
// package only knows how to run it and wait.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoCommand is returned when compilation is requested but no compiler
// command is configured.
var ErrNoCommand = errors.New("no compiler command configured")

// Compiler produces the cache for a document as a side effect of compiling
// it. Implementations must be idempotent: invoking them over a partial
// cache is safe.
type Compiler interface {
	Compile(ctx context.Context, docPath string) error
}

// PathPlaceholder in a configured command argument is replaced with the
// document path. When no argument contains it, the path is appended.
const PathPlaceholder = "{doc}"

// ExecCompiler runs a configured command line synchronously, once per
// Compile call.
type ExecCompiler struct {
	// Command is the program and its arguments.
	Command []string

	// Dir is the working directory for the command; empty means the
	// calling process's working directory.
	Dir string

	// Timeout bounds one compilation; zero means no bound beyond ctx.
	Timeout time.Duration

	Log *zap.Logger
}

// Compile implements Compiler.
func (c *ExecCompiler) Compile(ctx context.Context, docPath string) error {
	if len(c.Command) == 0 {
		return ErrNoCommand
	}

	log := c.Log
	if log == nil {
		log = zap.NewNop()
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := make([]string, 0, len(c.Command)-1)
	substituted := false
	for _, arg := range c.Command[1:] {
		if strings.Contains(arg, PathPlaceholder) {
			arg = strings.ReplaceAll(arg, PathPlaceholder, docPath)
			substituted = true
		}
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, docPath)
	}

	cmd := exec.CommandContext(ctx, c.Command[0], args...)
	cmd.Dir = c.Dir

	log.Info("compiling document",
		zap.String("doc", docPath),
		zap.String("command", c.Command[0]))
	start := time.Now()

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("compile of %s failed: %w (output: %s)",
			docPath, err, strings.TrimSpace(string(out)))
	}

	log.Info("compiled document",
		zap.String("doc", docPath),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Func adapts a plain function to the Compiler interface. Used by tests and
// by embedders that compile in-process.
type Func func(ctx context.Context, docPath string) error

// Compile implements Compiler.
func (f Func) Compile(ctx context.Context, docPath string) error {
	return f(ctx, docPath)
}
