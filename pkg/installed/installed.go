// Package installed tracks which packages the interpreter already has.
package installed

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/package-url/packageurl-go"
	"github.com/pingcap/errors"
)

// Package is one line of `pip list --format=freeze`.
type Package struct {
	Name    string
	Version string
}

func (p Package) String() string {
	return p.Name + "==" + p.Version
}

// PURL returns the package URL, e.g. pkg:pypi/foo-bar@1.0.
func (p Package) PURL() string {
	return packageurl.NewPackageURL(
		packageurl.TypePyPi, "", pkgname.NormalizeName(p.Name), p.Version, nil, "",
	).ToString()
}

// ParseFreeze reads freeze output. Lines without "==", such as editable
// installs or direct URL references, are skipped.
func ParseFreeze(out []byte) []Package {
	var pkgs []Package
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		name, version, ok := strings.Cut(line, "==")
		if !ok {
			continue
		}
		pkgs = append(pkgs, Package{Name: strings.TrimSpace(name), Version: strings.TrimSpace(version)})
	}
	return pkgs
}

// ProcessFreezeOutput returns the package names from freeze output with
// their case preserved.
func ProcessFreezeOutput(out []byte) []string {
	pkgs := ParseFreeze(out)
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		names = append(names, p.Name)
	}
	return names
}

// Subtract returns the requested names that are not installed. Requested
// names are lowercased first; installed is expected to be normalized.
func Subtract(installed, requested pkgname.Set) pkgname.Set {
	lowered := make(pkgname.Set, len(requested))
	for n := range requested {
		lowered.Add(strings.ToLower(n))
	}
	return lowered.Minus(installed)
}

type Tracker struct {
	Interpreter *python.Interpreter
	Log         *slog.Logger
}

func NewTracker(interp *python.Interpreter, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{Interpreter: interp, Log: log}
}

// List runs the freeze listing and returns every installed package.
func (t *Tracker) List(ctx context.Context) ([]Package, error) {
	cmd := t.Interpreter.Module("pip", "list", "--format=freeze")
	res, err := t.Interpreter.Exec.Run(ctx, cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list installed packages")
	}
	if !res.Success() {
		return nil, errors.Errorf("%s exited with status %d: %s",
			cmd.String(), res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return ParseFreeze(res.Stdout), nil
}

// CurrentlyInstalled returns the normalized names of installed packages.
func (t *Tracker) CurrentlyInstalled(ctx context.Context) (pkgname.Set, error) {
	pkgs, err := t.List(ctx)
	if err != nil {
		return nil, err
	}
	s := pkgname.Set{}
	for _, p := range pkgs {
		s.Add(p.Name)
	}
	s = pkgname.Normalize(s)
	t.Log.Debug("currently installed", "count", s.Len(), "packages", s.String())
	return s, nil
}
