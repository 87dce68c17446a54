package configcmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/config"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	clicommon.AddGlobalFlags(cmd.PersistentFlags())
	cmd.SetArgs(args)
	buf := bytes.Buffer{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInitThenShow(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "ipydeps")

	out, err := run(t, "init", "--config-dir", dir, "--dependencies-link", "https://example.com/deps.json")
	require.NoError(t, err)
	require.Contains(t, out, "Wrote "+filepath.Join(dir, config.FileName))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/deps.json", cfg.DependenciesLink)

	out, err = run(t, "show", "--config-dir", dir, "--python", "python3.12")
	require.NoError(t, err)
	require.Contains(t, out, "# config directory: "+dir)
	require.Contains(t, out, "dependencies_link")
	require.Contains(t, out, "https://example.com/deps.json")
	require.Contains(t, out, "python3.12")
}

func TestInitRefusesToOverwrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := run(t, "init", "--config-dir", dir)
	require.NoError(t, err)

	_, err = run(t, "init", "--config-dir", dir)
	require.ErrorContains(t, err, "already exists")

	_, err = run(t, "init", "--config-dir", dir, "--force", "--requires-pki")
	require.NoError(t, err)
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	require.True(t, cfg.DependenciesLinkRequiresPKI)
}
