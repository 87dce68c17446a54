package overrides

import (
	"context"
	"log/slog"
	"strings"

	"github.com/clintharrison/go-ipydeps/pkg/runner"
)

// PackageInstaller installs operating system packages.
type PackageInstaller interface {
	Install(ctx context.Context, pkgs ...string) error
}

// Runner executes override commands. Failures are logged and never stop
// the remaining commands.
type Runner struct {
	Exec     runner.Executor
	Packages PackageInstaller
	Log      *slog.Logger
}

type Report struct {
	Ran    int
	Failed int
}

// Run executes the overrides for each package, in package name order.
func (r *Runner) Run(ctx context.Context, ov Overrides) Report {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	exec := r.Exec
	if exec == nil {
		exec = runner.Default
	}

	rep := Report{Ran: 0, Failed: 0}
	for _, name := range ov.Names() {
		log.Info("running overrides for "+name, "package", name)
		for _, cmd := range ov[name] {
			if len(cmd) == 0 {
				continue
			}
			rep.Ran++
			if !r.runOne(ctx, log, exec, cmd) {
				rep.Failed++
			}
		}
	}
	return rep
}

func (r *Runner) runOne(ctx context.Context, log *slog.Logger, exec runner.Executor, cmd Command) bool {
	if cmd.IsSystemPackage() {
		pkgs := cmd[1:]
		if len(pkgs) == 0 {
			log.Warn("override installs no system packages", "command", strings.Join(cmd, " "))
			return true
		}
		if r.Packages == nil {
			log.Error("override needs a system package manager but none is available", "packages", pkgs)
			return false
		}
		if err := r.Packages.Install(ctx, pkgs...); err != nil {
			log.Error("system package override failed", "packages", pkgs, "error", err)
			return false
		}
		return true
	}

	c := runner.Cmd{Name: cmd[0], Args: cmd[1:], Env: nil}
	log.Debug(c.String())
	res, err := exec.Run(ctx, c)
	if err != nil {
		log.Error("override command could not be started", "command", c.String(), "error", err)
		return false
	}
	if !res.Success() {
		log.Error(strings.TrimSpace(string(res.Stderr)), "command", c.String(), "exit_code", res.ExitCode)
		return false
	}
	return true
}
