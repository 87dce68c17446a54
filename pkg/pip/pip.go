// Package pip runs `python -m pip install`.
package pip

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/clintharrison/go-ipydeps/pkg/pki"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/pingcap/errors"
)

// UsePKIOption may appear in configured pip options to always use PKI. It is
// consumed here and never passed to pip.
const UsePKIOption = "--use-pki"

const ConfigFileEnvVar = "PIP_CONFIG_FILE"

type Invoker struct {
	Interpreter *python.Interpreter
	PKI         pki.Provider
	// Options are passed through to every install.
	Options []string
	// PerPackageOptions are expanded to "<opt>=<package>" for each package.
	PerPackageOptions []string
	Log               *slog.Logger
}

type InstallOptions struct {
	Verbose bool
	UsePKI  bool
	// ConfigPath is exported as PIP_CONFIG_FILE when set.
	ConfigPath string
}

// Args builds the pip arguments, without any PKI flags.
func (i *Invoker) Args(pkgs []string, opts InstallOptions) []string {
	args := []string{"install"}
	if opts.Verbose {
		args = append(args, "-vvv")
	}
	for _, o := range i.Options {
		if o == UsePKIOption {
			continue
		}
		args = append(args, o)
	}
	sorted := append([]string(nil), pkgs...)
	sort.Strings(sorted)
	for _, o := range i.PerPackageOptions {
		for _, p := range sorted {
			args = append(args, o+"="+p)
		}
	}
	return args
}

func (i *Invoker) wantsPKI(opts InstallOptions) bool {
	if opts.UsePKI {
		return true
	}
	for _, o := range i.Options {
		if o == UsePKIOption {
			return true
		}
	}
	return false
}

// Install runs pip for pkgs. A non-zero pip exit is reported in the result;
// the error is for failures to prepare or start pip.
func (i *Invoker) Install(ctx context.Context, pkgs []string, opts InstallOptions) (*runner.Result, error) {
	log := i.Log
	if log == nil {
		log = slog.Default()
	}
	args := i.Args(pkgs, opts)
	var env []string
	if opts.ConfigPath != "" {
		env = append(env, ConfigFileEnvVar+"="+opts.ConfigPath)
	}

	if i.wantsPKI(opts) {
		if i.PKI == nil {
			return nil, errors.New("PKI was requested but no PKI credentials are configured")
		}
		keyPath, certPath, cleanup, err := i.PKI.KeyCert(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to obtain PKI key and certificate")
		}
		defer cleanup()

		combined, err := pki.CombineKeyAndCert(keyPath, certPath)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := os.Remove(combined); err != nil {
				log.Warn("unable to remove temporary client certificate", "path", combined, "error", err)
			}
		}()
		args = append(args, "--client-cert="+combined)
		if ca := i.PKI.CAPath(); ca != "" {
			args = append(args, "--cert="+ca)
		}
	}

	sorted := append([]string(nil), pkgs...)
	sort.Strings(sorted)
	args = append(args, sorted...)

	cmd := i.Interpreter.Module("pip", args...)
	cmd.Env = env
	log.Debug("running pip", "cmd", cmd.String())
	res, err := i.Interpreter.Exec.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to run pip")
	}
	return res, nil
}
