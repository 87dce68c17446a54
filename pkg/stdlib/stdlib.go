// Package stdlib knows which names belong to the Python standard library.
package stdlib

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"log/slog"
	"strings"
	"sync"

	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/pingcap/errors"
	"github.com/ulikunitz/xz"
)

//go:embed libs3.txt.xz
var bundledXZ []byte

var bundled = sync.OnceValues(func() (pkgname.Set, error) {
	r, err := xz.NewReader(bytes.NewReader(bundledXZ))
	if err != nil {
		return nil, errors.Wrap(err, "xz.NewReader() for bundled stdlib list")
	}
	names := []string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		names = append(names, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read bundled stdlib list")
	}
	return fromModuleNames(names), nil
})

// Bundled returns the static Python 3 standard library list shipped with
// this binary.
func Bundled() (pkgname.Set, error) {
	s, err := bundled()
	if err != nil {
		return nil, err
	}
	return pkgname.NewSet(s.Sorted()...), nil
}

// fromModuleNames keeps top-level public modules: no dotted submodules, no
// dunder or underscore-prefixed private modules.
func fromModuleNames(names []string) pkgname.Set {
	out := pkgname.Set{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || strings.Contains(n, ".") || strings.Contains(n, "__") || strings.HasPrefix(n, "_") {
			continue
		}
		out.Add(n)
	}
	return pkgname.Normalize(out)
}

// Packages asks the interpreter for its standard library when it is new
// enough to know (3.10+), and falls back to the bundled list otherwise.
func Packages(ctx context.Context, log *slog.Logger, interp *python.Interpreter) (pkgname.Set, error) {
	if log == nil {
		log = slog.Default()
	}
	if interp != nil {
		v, err := interp.Version(ctx)
		switch {
		case err != nil:
			log.Debug("unable to determine interpreter version, using bundled stdlib list", "error", err)
		case v.AtLeast(3, 10):
			names, err := interp.StdlibModuleNames(ctx)
			if err == nil {
				return fromModuleNames(names), nil
			}
			log.Debug("unable to list stdlib modules, using bundled stdlib list", "error", err)
		}
	}
	return Bundled()
}

// Subtract removes standard library names from pkgs, warning about each one.
// pkgs is not modified.
func Subtract(log *slog.Logger, stdlib, pkgs pkgname.Set) pkgname.Set {
	if log == nil {
		log = slog.Default()
	}
	for _, p := range pkgs.Intersect(stdlib).Sorted() {
		log.Warn(p+" is part of the Python standard library and will be skipped; remove it from the list to silence this warning",
			"package", p)
	}
	return pkgs.Minus(stdlib)
}
