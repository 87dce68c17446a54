package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envFunc(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestSearchDirs(t *testing.T) {
	t.Parallel()
	dirs := SearchDirs(envFunc(map[string]string{
		DirEnvVar: "/custom",
		"HOME":    "/home/u",
	}))
	require.Equal(t, []string{"/custom", "/home/u/.config/ipydeps", "/etc/ipydeps"}, dirs)

	dirs = SearchDirs(envFunc(map[string]string{"XDG_CONFIG_HOME": "/xdg", "HOME": "/home/u"}))
	require.Equal(t, []string{"/xdg/ipydeps", "/etc/ipydeps"}, dirs)
}

func TestDir(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	custom := t.TempDir()

	// nothing exists under home, and the env dir wins when present
	require.Equal(t, custom, Dir(envFunc(map[string]string{DirEnvVar: custom, "HOME": home})))

	userDir := filepath.Join(home, ".config", "ipydeps")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.Equal(t, userDir, Dir(envFunc(map[string]string{DirEnvVar: "/does/not/exist", "HOME": home})))
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	t.Parallel()
	c, err := load(filepath.Join(t.TempDir(), FileName), nil)
	require.NoError(t, err)
	require.Equal(t, Default(), c)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	err := os.WriteFile(path, []byte(`[ipydeps]
dependencies_link = https://example.com/deps.json
dependencies_link_requires_pki = true
pip_options = --index-url https://mirror.example.com/simple --trusted-host mirror.example.com
per_package_options = --allow-unverified
system_package_manager = dnf
use_sudo = yes
settle_delay = 500ms

[pki]
key = /etc/pki/me.key
cert = /etc/pki/me.crt
ca = /etc/pki/ca.pem
`), 0o600)
	require.NoError(t, err)

	c, err := load(path, []string{"PATH=/usr/bin"})
	require.NoError(t, err)
	require.Equal(t, &Config{
		DependenciesLink:            "https://example.com/deps.json",
		DependenciesLinkRequiresPKI: true,
		Python:                      "python3",
		PipOptions: []string{
			"--index-url", "https://mirror.example.com/simple",
			"--trusted-host", "mirror.example.com",
		},
		PerPackageOptions:    []string{"--allow-unverified"},
		SystemPackageManager: "dnf",
		UseSudo:              true,
		SettleDelay:          500 * time.Millisecond,
		PKI: PKI{
			KeyPath:  "/etc/pki/me.key",
			CertPath: "/etc/pki/me.crt",
			CAPath:   "/etc/pki/ca.pem",
		},
	}, c)
	require.True(t, c.PKI.Configured())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[ipydeps]\ndependencies_link = file:///a.json\n"), 0o600))

	c, err := load(path, []string{
		"IPYDEPS_DEPENDENCIES_LINK=file:///b.json",
		"IPYDEPS_PYTHON=python3.12",
		"IPYDEPS_CONFIG_DIR=/ignored",
	})
	require.NoError(t, err)
	require.Equal(t, "file:///b.json", c.DependenciesLink)
	require.Equal(t, "python3.12", c.Python)
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("[ipydeps]\nsettle_delay = soon\n"), 0o600))
	_, err := load(path, nil)
	require.ErrorContains(t, err, "settle_delay")
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "nested")
	c := Default()
	c.DependenciesLink = "https://example.com/deps.json"
	c.PipOptions = []string{"--index-url", "https://mirror.example.com/simple"}
	c.PerPackageOptions = []string{"--allow-external"}
	c.SettleDelay = 3 * time.Second

	require.NoError(t, c.Save(filepath.Join(dir, FileName)))

	got, err := load(filepath.Join(dir, FileName), nil)
	require.NoError(t, err)
	require.Equal(t, c, got)
}

func TestInstallerConfigPath(t *testing.T) {
	t.Parallel()
	require.Equal(t, "/etc/ipydeps/pip-internal.conf", InstallerConfigPath("/etc/ipydeps", "pip-internal.conf"))
}
