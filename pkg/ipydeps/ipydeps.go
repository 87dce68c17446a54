// Package ipydeps installs packages into a running Python environment on
// request, skipping what is already there and applying site overrides.
package ipydeps

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/clintharrison/go-ipydeps/pkg/config"
	"github.com/clintharrison/go-ipydeps/pkg/installed"
	"github.com/clintharrison/go-ipydeps/pkg/modcache"
	"github.com/clintharrison/go-ipydeps/pkg/overrides"
	"github.com/clintharrison/go-ipydeps/pkg/pip"
	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/clintharrison/go-ipydeps/pkg/stdlib"
	"github.com/pingcap/errors"
)

// ErrInstallerConfigNotFound is returned when Options.ConfigName names a
// pip config file that does not exist in the config directory.
var ErrInstallerConfigNotFound = errors.New("installer config not found")

// Options control a single Installer.Pip call.
type Options struct {
	Verbose      bool
	UsePKI       bool
	UseOverrides bool
	// ConfigName names a pip config file in the config directory.
	ConfigName string
}

// DefaultOptions runs overrides, quietly and without PKI.
func DefaultOptions() Options {
	return Options{Verbose: false, UsePKI: false, UseOverrides: true, ConfigName: ""}
}

type OverrideResolver interface {
	Resolve(ctx context.Context, pkgs pkgname.Set) overrides.Overrides
}

type OverrideRunner interface {
	Run(ctx context.Context, ov overrides.Overrides) overrides.Report
}

// PackageInstaller runs pip for the packages that are still missing.
type PackageInstaller interface {
	Install(ctx context.Context, pkgs []string, opts pip.InstallOptions) (*runner.Result, error)
}

type InstalledLister interface {
	CurrentlyInstalled(ctx context.Context) (pkgname.Set, error)
}

type Installer struct {
	ConfigDir   string
	Interpreter *python.Interpreter
	Installed   InstalledLister
	Resolver    OverrideResolver
	Overrides   OverrideRunner
	PipInvoker  PackageInstaller
	Cache       modcache.Cache
	SettleDelay time.Duration
	Log         *slog.Logger

	// Stdlib lists the standard library; defaults to stdlib.Packages.
	Stdlib func(ctx context.Context) (pkgname.Set, error)
	// Sleep waits out the settle delay; defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errors.AddStack(ctx.Err())
	case <-t.C:
		return nil
	}
}

func (in *Installer) logger() *slog.Logger {
	if in.Log == nil {
		return slog.Default()
	}
	return in.Log
}

func (in *Installer) stdlibPackages(ctx context.Context) (pkgname.Set, error) {
	if in.Stdlib != nil {
		return in.Stdlib(ctx)
	}
	return stdlib.Packages(ctx, in.logger(), in.Interpreter)
}

// refreshPaths rescans the interpreter's search path. Failures only cost a
// debug line.
func (in *Installer) refreshPaths(ctx context.Context) {
	if in.Cache == nil || in.Interpreter == nil {
		return
	}
	paths, err := in.Interpreter.SysPath(ctx)
	if err != nil {
		in.logger().Debug("unable to read search path", "error", err)
		return
	}
	if err := in.Cache.Refresh(ctx, paths); err != nil {
		in.logger().Debug("unable to refresh module cache", "error", err)
	}
}

// installerConfigPath returns the named pip config path, or "" when no
// name was given.
func (in *Installer) installerConfigPath(name string) (string, error) {
	if name == "" {
		return "", nil
	}
	path := config.InstallerConfigPath(in.ConfigDir, name)
	if _, err := os.Stat(path); err != nil {
		in.logger().Error("could not find pip config named "+name+" at "+path, "config", name, "path", path)
		return "", ErrInstallerConfigNotFound
	}
	return path, nil
}

// Pip installs the packages named in requested. Names are pulled out of the
// text, so "numpy pandas" and []string{"numpy", "pandas"} are equivalent.
//
// Problems with individual packages, overrides or pip itself are logged and
// do not produce an error. An error is returned when the named pip config is
// missing, when the installed packages cannot be listed, or when ctx is
// cancelled during the settle delay.
func (in *Installer) Pip(ctx context.Context, requested []string, opts Options) error {
	log := in.logger()

	configPath, err := in.installerConfigPath(opts.ConfigName)
	if err != nil {
		return err
	}

	pkgs := pkgname.Normalize(pkgname.Extract(requested...))
	if pkgs.Len() == 0 {
		log.Info("nothing requested")
		return nil
	}

	before, err := in.Installed.CurrentlyInstalled(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list installed packages")
	}
	std, err := in.stdlibPackages(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list standard library packages")
	}

	pkgs = stdlib.Subtract(log, std, pkgs)
	for _, p := range pkgs.Intersect(before).Sorted() {
		log.Info(p+" already installed", "package", p)
	}
	pkgs = installed.Subtract(before, pkgs)
	for _, p := range pkgs.Sorted() {
		log.Info(p+" will be installed", "package", p)
	}

	if opts.UseOverrides && in.Resolver != nil && pkgs.Len() > 0 {
		ov := in.Resolver.Resolve(ctx, pkgs)
		if len(ov) > 0 && in.Overrides != nil {
			in.Overrides.Run(ctx, ov)
		}
	}

	in.refreshPaths(ctx)
	now, err := in.Installed.CurrentlyInstalled(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list installed packages")
	}
	toInstall := installed.Subtract(now, pkgs)

	if toInstall.Len() > 0 {
		log.Debug("running pip to install "+toInstall.String(), "packages", toInstall.Sorted())
		res, err := in.PipInvoker.Install(ctx, toInstall.Sorted(), pip.InstallOptions{
			Verbose:    opts.Verbose,
			UsePKI:     opts.UsePKI,
			ConfigPath: configPath,
		})
		switch {
		case err != nil:
			log.Error("unable to run pip", "error", err)
		case !res.Success():
			log.Error(strings.TrimSpace(string(res.Stderr)), "exit_code", res.ExitCode)
		}

		var importable pkgname.Set
		if in.Cache != nil {
			importable = in.Cache.Modules()
			in.Cache.Invalidate()
		}
		wait := in.Sleep
		if wait == nil {
			wait = sleep
		}
		if err := wait(ctx, in.SettleDelay); err != nil {
			return err
		}
		in.refreshPaths(ctx)
		if in.Cache != nil {
			if added := in.Cache.Modules().Minus(importable); added.Len() > 0 {
				log.Debug("newly importable modules: "+added.String(), "modules", added.Sorted())
			}
		}
	}

	after, err := in.Installed.CurrentlyInstalled(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list installed packages")
	}
	if added := after.Minus(before); added.Len() > 0 {
		log.Info("new packages installed: "+added.String(), "packages", added.Sorted())
	} else {
		log.Warn("no new packages installed")
	}
	log.Debug("done")
	return nil
}
