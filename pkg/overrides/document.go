// Package overrides looks up site-specific install commands for packages and
// runs them.
//
// An overrides document maps interpreter version names to packages, and
// packages to a list of commands:
//
//	{
//	  "python-3":      {"lxml": [["package", "libxml2-dev", "libxslt1-dev"]]},
//	  "python-3.11":   {"psycopg2": [["pip", "install", "psycopg2-binary"]]}
//	}
//
// A command whose first element is "package" installs the remaining elements
// with the system package manager; any other command is run as-is.
package overrides

import (
	"encoding/json"
	"io"
	"log/slog"
	"sort"

	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/pingcap/errors"
)

const SystemPackageCommand = "package"

type Command []string

// IsSystemPackage reports whether the command installs system packages.
func (c Command) IsSystemPackage() bool {
	return len(c) > 0 && c[0] == SystemPackageCommand
}

// Overrides maps a package to the commands that replace installing it.
type Overrides map[string][]Command

func (o Overrides) Names() []string {
	names := make([]string, 0, len(o))
	for n := range o {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Document is an overrides document with normalized package names.
type Document map[string]map[string][]Command

type rawEntry struct {
	name     string
	commands []Command
}

type rawSection struct {
	version string
	entries []rawEntry
}

// rawDocument keeps the order entries appeared in, which decides which of two
// colliding package names wins.
type rawDocument []rawSection

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return errors.AddStack(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", errors.AddStack(err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func decodeRaw(r io.Reader) (rawDocument, error) {
	dec := json.NewDecoder(r)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, errors.Wrap(err, "overrides document must be a JSON object")
	}
	var doc rawDocument
	for dec.More() {
		version, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, errors.Wrapf(err, "section %q must be a JSON object", version)
		}
		sec := rawSection{version: version, entries: nil}
		for dec.More() {
			name, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			var cmds []Command
			if err := dec.Decode(&cmds); err != nil {
				return nil, errors.Wrapf(err, "commands for %q in section %q", name, version)
			}
			sec.entries = append(sec.entries, rawEntry{name: name, commands: cmds})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		doc = append(doc, sec)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF { //nolint:errorlint
		return nil, errors.New("unexpected data after overrides document")
	}
	return doc, nil
}

// caseInsensitive normalizes package names. When two names collide the later
// one wins and a warning is logged for each collision.
func caseInsensitive(log *slog.Logger, raw rawDocument) Document {
	doc := make(Document, len(raw))
	for _, sec := range raw {
		// a repeated version key replaces the whole section, like any JSON object key
		packages := map[string][]Command{}
		doc[sec.version] = packages
		for _, e := range sec.entries {
			name := pkgname.NormalizeName(e.name)
			if _, dup := packages[name]; dup {
				log.Warn("duplicate package name in overrides document; package names are case-insensitive, overwriting",
					"package", name, "section", sec.version)
			}
			packages[name] = e.commands
		}
	}
	return doc
}

// Parse decodes an overrides document and normalizes its package names.
func Parse(log *slog.Logger, r io.Reader) (Document, error) {
	if log == nil {
		log = slog.Default()
	}
	raw, err := decodeRaw(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse overrides document")
	}
	return caseInsensitive(log, raw), nil
}

// Find picks the overrides for pkgs. names are version names ordered from
// least to most specific, so a later match replaces an earlier one.
func Find(doc Document, pkgs pkgname.Set, names []string) Overrides {
	out := Overrides{}
	for _, version := range names {
		section, ok := doc[version]
		if !ok {
			continue
		}
		for p := range pkgs {
			if cmds, ok := section[p]; ok {
				out[p] = cmds
			}
		}
	}
	return out
}
