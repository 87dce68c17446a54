// Package runner starts external processes and captures their output.
package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/pingcap/errors"
	"mvdan.cc/sh/v3/syntax"
)

// Cmd describes one process invocation. Env entries are added to the
// current environment.
type Cmd struct {
	Name string
	Args []string
	Env  []string
}

// String renders the command the way a user would type it into a shell.
func (c Cmd) String() string {
	words := append([]string{c.Name}, c.Args...)
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		q, err := syntax.Quote(w, syntax.LangBash)
		if err != nil {
			q = w
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs commands. A non-zero exit is reported through Result;
// the error is reserved for commands that could not be started at all.
type Executor interface {
	Run(ctx context.Context, cmd Cmd) (*Result, error)
}

type ExecExecutor struct{}

var _ Executor = ExecExecutor{}

func (ExecExecutor) Run(ctx context.Context, c Cmd) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("running command", "cmd", c.String())

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), ExitCode: 0}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok { //nolint:errorlint
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, errors.Wrapf(err, "exec %q", c.String())
	}
	return res, nil
}

// Default is used by components that aren't given an explicit Executor.
var Default Executor = ExecExecutor{}
