// Package syspkg installs operating system packages for overrides that ask
// for them.
package syspkg

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"strings"

	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/pingcap/errors"
)

const Auto = "auto"

type flavor struct {
	refresh []string
	install []string
}

var flavors = map[string]flavor{
	"apt-get": {refresh: []string{"update"}, install: []string{"install", "-y"}},
	"dnf":     {refresh: []string{"makecache"}, install: []string{"install", "-y"}},
	"yum":     {refresh: []string{"makecache"}, install: []string{"install", "-y"}},
	"tdnf":    {refresh: []string{"makecache"}, install: []string{"install", "-y"}},
	"apk":     {refresh: []string{"update"}, install: []string{"add", "--no-cache"}},
	"zypper":  {refresh: []string{"--non-interactive", "refresh"}, install: []string{"--non-interactive", "install"}},
}

// detectOrder is the order managers are probed in when none is configured.
var detectOrder = []string{"apt-get", "dnf", "tdnf", "yum", "zypper", "apk"}

func Supported() []string {
	names := make([]string, 0, len(flavors))
	for n := range flavors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Detect returns the first package manager lookPath can find.
func Detect(lookPath func(string) (string, error)) (string, error) {
	for _, name := range detectOrder {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", errors.Errorf("no supported system package manager found (tried %s)", strings.Join(detectOrder, ", "))
}

// Manager installs packages with one system package manager. The package
// index is refreshed before the first install and not again.
type Manager struct {
	Name string
	Sudo bool
	Exec runner.Executor
	Log  *slog.Logger

	flavor    flavor
	refreshed bool
}

// New returns a Manager for name, or the detected manager for "auto" or "".
func New(name string, sudo bool, exec runner.Executor, log *slog.Logger) (*Manager, error) {
	return newManager(name, sudo, exec, log, lookPath)
}

var lookPath = exec.LookPath

func newManager(
	name string, sudo bool, ex runner.Executor, log *slog.Logger, look func(string) (string, error),
) (*Manager, error) {
	if name == "" || name == Auto {
		detected, err := Detect(look)
		if err != nil {
			return nil, err
		}
		name = detected
	}
	f, ok := flavors[name]
	if !ok {
		return nil, errors.Errorf("unsupported system package manager %q (supported: %s)",
			name, strings.Join(Supported(), ", "))
	}
	if ex == nil {
		ex = runner.Default
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{Name: name, Sudo: sudo, Exec: ex, Log: log, flavor: f, refreshed: false}, nil
}

func (m *Manager) command(args []string) runner.Cmd {
	if m.Sudo {
		return runner.Cmd{Name: "sudo", Args: append([]string{m.Name}, args...), Env: nil}
	}
	return runner.Cmd{Name: m.Name, Args: args, Env: nil}
}

func (m *Manager) run(ctx context.Context, args []string) error {
	cmd := m.command(args)
	res, err := m.Exec.Run(ctx, cmd)
	if err != nil {
		return errors.AddStack(err)
	}
	if !res.Success() {
		return errors.Errorf("%s exited with status %d: %s",
			cmd.String(), res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return nil
}

// Refresh updates the package index unless it was already refreshed.
func (m *Manager) Refresh(ctx context.Context) error {
	if m.refreshed {
		return nil
	}
	m.Log.Info("refreshing system package index", "manager", m.Name)
	if err := m.run(ctx, m.flavor.refresh); err != nil {
		return errors.Wrap(err, "failed to refresh package index")
	}
	m.refreshed = true
	return nil
}

// Install installs each package in turn. A failed index refresh is logged
// and installation is still attempted. All failures are joined into the
// returned error.
func (m *Manager) Install(ctx context.Context, pkgs ...string) error {
	if len(pkgs) == 0 {
		return nil
	}
	if err := m.Refresh(ctx); err != nil {
		m.Log.Error("unable to refresh system package index", "manager", m.Name, "error", err)
	}
	var failed []string
	for _, p := range pkgs {
		m.Log.Info("installing system package", "package", p, "manager", m.Name)
		args := append(append([]string(nil), m.flavor.install...), p)
		if err := m.run(ctx, args); err != nil {
			m.Log.Error("system package install failed", "package", p, "error", err)
			failed = append(failed, p)
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("failed to install system packages: %s", strings.Join(failed, ", "))
	}
	return nil
}
