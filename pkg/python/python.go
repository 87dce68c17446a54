// Package python asks an interpreter about itself.
package python

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/pingcap/errors"
)

const DefaultPath = "python3"

type Interpreter struct {
	Path string
	Exec runner.Executor

	version *Version
}

func New(path string, exec runner.Executor) *Interpreter {
	if path == "" {
		path = DefaultPath
	}
	if exec == nil {
		exec = runner.Default
	}
	return &Interpreter{Path: path, Exec: exec, version: nil}
}

// Command builds an invocation of the interpreter itself.
func (i *Interpreter) Command(args ...string) runner.Cmd {
	return runner.Cmd{Name: i.Path, Args: args, Env: nil}
}

// Module builds `python -m <module> args...`.
func (i *Interpreter) Module(module string, args ...string) runner.Cmd {
	return i.Command(append([]string{"-m", module}, args...)...)
}

func (i *Interpreter) eval(ctx context.Context, code string) ([]byte, error) {
	res, err := i.Exec.Run(ctx, i.Command("-c", code))
	if err != nil {
		return nil, errors.AddStack(err)
	}
	if !res.Success() {
		return nil, errors.Errorf("%s exited with status %d: %s",
			i.Path, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return res.Stdout, nil
}

// Version reports the interpreter's version. The result is cached.
func (i *Interpreter) Version(ctx context.Context) (Version, error) {
	if i.version != nil {
		return *i.version, nil
	}
	out, err := i.eval(ctx, `import platform; print(platform.python_version())`)
	if err != nil {
		return Version{}, errors.Wrap(err, "failed to query interpreter version")
	}
	v, err := ParseVersion(string(out))
	if err != nil {
		return Version{}, errors.AddStack(err)
	}
	i.version = &v
	return v, nil
}

// VersionNames returns Version().Names().
func (i *Interpreter) VersionNames(ctx context.Context) ([]string, error) {
	v, err := i.Version(ctx)
	if err != nil {
		return nil, err
	}
	return v.Names(), nil
}

// StdlibModuleNames returns sys.stdlib_module_names. Only interpreters from
// 3.10 onwards have it.
func (i *Interpreter) StdlibModuleNames(ctx context.Context) ([]string, error) {
	out, err := i.eval(ctx, `import json, sys; print(json.dumps(sorted(sys.stdlib_module_names)))`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query stdlib module names")
	}
	var names []string
	if err := json.Unmarshal(out, &names); err != nil {
		return nil, errors.Wrap(err, "failed to decode stdlib module names")
	}
	return names, nil
}

// SysPath returns the interpreter's module search path.
func (i *Interpreter) SysPath(ctx context.Context) ([]string, error) {
	out, err := i.eval(ctx, `import json, sys; print(json.dumps(sys.path))`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sys.path")
	}
	var paths []string
	if err := json.Unmarshal(out, &paths); err != nil {
		return nil, errors.Wrap(err, "failed to decode sys.path")
	}
	return paths, nil
}
