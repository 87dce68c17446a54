// Package config loads ipydeps settings from ipydeps.conf.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pingcap/errors"
	"gopkg.in/ini.v1"
	"mvdan.cc/sh/v3/shell"
)

const (
	FileName    = "ipydeps.conf"
	Section     = "ipydeps"
	PKISection  = "pki"
	DirEnvVar   = "IPYDEPS_CONFIG_DIR"
	envPrefix   = "ipydeps_"
	systemDir   = "/etc/ipydeps"
	defaultWait = 2 * time.Second
)

const (
	keyDependenciesLink     = "dependencies_link"
	keyDependenciesLinkPKI  = "dependencies_link_requires_pki"
	keyPython               = "python"
	keyPipOptions           = "pip_options"
	keyPerPackageOptions    = "per_package_options"
	keySystemPackageManager = "system_package_manager"
	keyUseSudo              = "use_sudo"
	keySettleDelay          = "settle_delay"
	keyPKIKey               = "key"
	keyPKICert              = "cert"
	keyPKICA                = "ca"
)

type PKI struct {
	KeyPath  string
	CertPath string
	CAPath   string
}

func (p PKI) Configured() bool {
	return p.KeyPath != "" && p.CertPath != ""
}

type Config struct {
	// Location of the overrides document. Empty means no overrides.
	DependenciesLink            string
	DependenciesLinkRequiresPKI bool

	Python string
	// Options passed to every pip install.
	PipOptions []string
	// Options repeated once per package as "<opt>=<package>".
	PerPackageOptions    []string
	SystemPackageManager string
	UseSudo              bool
	SettleDelay          time.Duration

	PKI PKI
}

func Default() *Config {
	return &Config{
		DependenciesLink:            "",
		DependenciesLinkRequiresPKI: false,
		Python:                      "python3",
		PipOptions:                  nil,
		PerPackageOptions:           nil,
		SystemPackageManager:        "auto",
		UseSudo:                     false,
		SettleDelay:                 defaultWait,
		PKI:                         PKI{KeyPath: "", CertPath: "", CAPath: ""},
	}
}

// UserDir is $XDG_CONFIG_HOME/ipydeps, or ~/.config/ipydeps.
func UserDir(getenv func(string) string) string {
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ipydeps")
	}
	home := getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".config", "ipydeps")
}

// SearchDirs lists candidate config directories in priority order.
func SearchDirs(getenv func(string) string) []string {
	var dirs []string
	if d := getenv(DirEnvVar); d != "" {
		dirs = append(dirs, d)
	}
	return append(dirs, UserDir(getenv), systemDir)
}

// Dir returns the first existing directory from SearchDirs, or the user
// directory when none exist.
func Dir(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, d := range SearchDirs(getenv) {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			return d
		}
	}
	return UserDir(getenv)
}

// InstallerConfigPath is where a named pip config file lives.
func InstallerConfigPath(dir, name string) string {
	return filepath.Join(dir, name)
}

// Load reads <dir>/ipydeps.conf. A missing file yields the defaults.
// IPYDEPS_<KEY> environment variables override values from the file.
func Load(dir string) (*Config, error) {
	return load(filepath.Join(dir, FileName), os.Environ())
}

func load(path string, environ []string) (*Config, error) {
	envFile, err := envVarConfig(environ)
	if err != nil {
		return nil, err
	}

	opts := ini.LoadOptions{ //nolint:exhaustruct
		Loose:              true, // ignore missing files
		KeyValueDelimiters: "=",
	}
	f, err := ini.LoadSources(opts, path, envFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %q", path)
	}
	return fromFile(f)
}

// envVarConfig turns IPYDEPS_* variables into a loadable [ipydeps] section.
func envVarConfig(environ []string) ([]byte, error) {
	f := ini.Empty()
	sec := f.Section(Section)
	for _, env := range environ {
		k, v, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		key, ok := strings.CutPrefix(strings.ToLower(k), envPrefix)
		if !ok || key == "config_dir" {
			continue
		}
		if _, err := sec.NewKey(key, v); err != nil {
			return nil, errors.AddStack(err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, errors.AddStack(err)
	}
	return buf.Bytes(), nil
}

func fromFile(f *ini.File) (*Config, error) {
	c := Default()
	sec := f.Section(Section)

	c.DependenciesLink = strings.TrimSpace(sec.Key(keyDependenciesLink).String())
	if sec.HasKey(keyDependenciesLinkPKI) {
		b, err := sec.Key(keyDependenciesLinkPKI).Bool()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", keyDependenciesLinkPKI)
		}
		c.DependenciesLinkRequiresPKI = b
	}
	c.Python = sec.Key(keyPython).MustString(c.Python)
	c.SystemPackageManager = sec.Key(keySystemPackageManager).MustString(c.SystemPackageManager)
	if sec.HasKey(keyUseSudo) {
		b, err := sec.Key(keyUseSudo).Bool()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", keyUseSudo)
		}
		c.UseSudo = b
	}
	if sec.HasKey(keySettleDelay) {
		d, err := sec.Key(keySettleDelay).Duration()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", keySettleDelay)
		}
		c.SettleDelay = d
	}

	var err error
	if c.PipOptions, err = splitWords(sec.Key(keyPipOptions).String()); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", keyPipOptions)
	}
	if c.PerPackageOptions, err = splitWords(sec.Key(keyPerPackageOptions).String()); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", keyPerPackageOptions)
	}

	pki := f.Section(PKISection)
	c.PKI = PKI{
		KeyPath:  pki.Key(keyPKIKey).String(),
		CertPath: pki.Key(keyPKICert).String(),
		CAPath:   pki.Key(keyPKICA).String(),
	}
	return c, nil
}

// splitWords splits s like a shell would, without expanding variables.
func splitWords(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	words, err := shell.Fields(s, func(string) string { return "" })
	if err != nil {
		return nil, errors.AddStack(err)
	}
	return words, nil
}

func joinWords(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if strings.ContainsAny(w, " \t'\"$\\") {
			w = "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
		}
		quoted = append(quoted, w)
	}
	return strings.Join(quoted, " ")
}

func (c *Config) toFile() (*ini.File, error) {
	f := ini.Empty()
	sec := f.Section(Section)
	values := []struct{ k, v string }{
		{keyDependenciesLink, c.DependenciesLink},
		{keyDependenciesLinkPKI, boolString(c.DependenciesLinkRequiresPKI)},
		{keyPython, c.Python},
		{keyPipOptions, joinWords(c.PipOptions)},
		{keyPerPackageOptions, joinWords(c.PerPackageOptions)},
		{keySystemPackageManager, c.SystemPackageManager},
		{keyUseSudo, boolString(c.UseSudo)},
		{keySettleDelay, c.SettleDelay.String()},
	}
	for _, kv := range values {
		if _, err := sec.NewKey(kv.k, kv.v); err != nil {
			return nil, errors.AddStack(err)
		}
	}
	pki := f.Section(PKISection)
	for _, kv := range []struct{ k, v string }{
		{keyPKIKey, c.PKI.KeyPath},
		{keyPKICert, c.PKI.CertPath},
		{keyPKICA, c.PKI.CAPath},
	} {
		if _, err := pki.NewKey(kv.k, kv.v); err != nil {
			return nil, errors.AddStack(err)
		}
	}
	return f, nil
}

// WriteTo writes c in ipydeps.conf format.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	f, err := c.toFile()
	if err != nil {
		return 0, err
	}
	n, err := f.WriteTo(w)
	return n, errors.AddStack(err)
}

// Save writes c to path, creating parent directories.
func (c *Config) Save(path string) error {
	f, err := c.toFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "os.MkdirAll(%q)", filepath.Dir(path))
	}
	if err := f.SaveTo(path); err != nil {
		return errors.Wrapf(err, "failed to write config to %q", path)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
