package clicommon

import (
	"context"
	"os"

	"github.com/clintharrison/go-ipydeps/pkg/config"
	"github.com/clintharrison/go-ipydeps/pkg/ipydeps"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagConfigDir = "config-dir"
	FlagPython    = "python"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

// AddGlobalFlags registers the flags every subcommand understands.
func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String(FlagConfigDir, "",
		"Directory containing "+config.FileName+" (default: $"+config.DirEnvVar+", ~/.config/ipydeps, /etc/ipydeps)")
	flags.String(FlagPython, "", "Python interpreter to install into (overrides the config file)")
	flags.String(FlagLogLevel, "info", "Log level: debug, info, warn or error")
	flags.String(FlagLogFormat, "auto", "Log format: auto, text or html")
}

func stringFlag(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

type executorKey struct{}

// WithExecutor makes commands run processes through exec instead of
// starting them directly.
func WithExecutor(ctx context.Context, exec runner.Executor) context.Context {
	return context.WithValue(ctx, executorKey{}, exec)
}

func Executor(ctx context.Context) runner.Executor {
	if ctx != nil {
		if exec, ok := ctx.Value(executorKey{}).(runner.Executor); ok {
			return exec
		}
	}
	return runner.Default
}

func GetConfigDir(cmd *cobra.Command) string {
	if dir := stringFlag(cmd, FlagConfigDir); dir != "" {
		return dir
	}
	return config.Dir(os.Getenv)
}

// GetConfig loads the configuration and applies command line overrides.
func GetConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir := GetConfigDir(cmd)
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to load configuration from %q", dir)
	}
	if py := stringFlag(cmd, FlagPython); py != "" {
		cfg.Python = py
	}
	return cfg, dir, nil
}

func GetInterpreter(cmd *cobra.Command) (*python.Interpreter, error) {
	cfg, _, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	return python.New(cfg.Python, Executor(cmd.Context())), nil
}

func GetInstaller(cmd *cobra.Command) (*ipydeps.Installer, error) {
	cfg, dir, err := GetConfig(cmd)
	if err != nil {
		return nil, err
	}
	return ipydeps.New(cfg, dir, Executor(cmd.Context()), nil), nil
}
