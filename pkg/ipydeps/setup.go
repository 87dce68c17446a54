package ipydeps

import (
	"context"
	"log/slog"
	"os"

	"github.com/clintharrison/go-ipydeps/pkg/config"
	"github.com/clintharrison/go-ipydeps/pkg/installed"
	"github.com/clintharrison/go-ipydeps/pkg/modcache"
	"github.com/clintharrison/go-ipydeps/pkg/overrides"
	"github.com/clintharrison/go-ipydeps/pkg/pip"
	"github.com/clintharrison/go-ipydeps/pkg/pki"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/clintharrison/go-ipydeps/pkg/syspkg"
	"github.com/pingcap/errors"
)

// New wires an Installer from configuration. A nil exec runs real processes.
func New(cfg *config.Config, dir string, exec runner.Executor, log *slog.Logger) *Installer {
	if log == nil {
		log = slog.Default()
	}
	if exec == nil {
		exec = runner.Default
	}
	interp := python.New(cfg.Python, exec)

	var provider pki.Provider
	if cfg.PKI.Configured() {
		provider = pki.NewFileProvider(cfg.PKI.KeyPath, cfg.PKI.CertPath, cfg.PKI.CAPath)
	}

	ovRunner := &overrides.Runner{Exec: exec, Packages: nil, Log: log}
	if mgr, err := syspkg.New(cfg.SystemPackageManager, cfg.UseSudo, exec, log); err != nil {
		log.Debug("system package overrides unavailable", "error", err)
	} else {
		ovRunner.Packages = mgr
	}

	return &Installer{
		ConfigDir:   dir,
		Interpreter: interp,
		Installed:   installed.NewTracker(interp, log),
		Resolver: &overrides.Resolver{
			Link:        cfg.DependenciesLink,
			RequiresPKI: cfg.DependenciesLinkRequiresPKI,
			PKI:         provider,
			Versions:    interp,
			Client:      nil,
			Log:         log,
		},
		Overrides: ovRunner,
		PipInvoker: &pip.Invoker{
			Interpreter:       interp,
			PKI:               provider,
			Options:           cfg.PipOptions,
			PerPackageOptions: cfg.PerPackageOptions,
			Log:               log,
		},
		Cache:       modcache.NewDirCache(log),
		SettleDelay: cfg.SettleDelay,
		Log:         log,
		Stdlib:      nil,
		Sleep:       nil,
	}
}

// Pip loads configuration from the usual directories and installs the
// requested packages with the default logger.
func Pip(ctx context.Context, requested []string, opts Options) error {
	dir := config.Dir(os.Getenv)
	cfg, err := config.Load(dir)
	if err != nil {
		slog.Error("unable to load configuration", "dir", dir, "error", err)
		return errors.Wrap(err, "failed to load configuration")
	}
	return New(cfg, dir, nil, nil).Pip(ctx, requested, opts)
}
