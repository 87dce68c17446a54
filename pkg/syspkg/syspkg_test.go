package syspkg

import (
	"os/exec"
	"testing"

	"github.com/clintharrison/go-ipydeps/pkg/internal/logtest"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()
	name, err := Detect(fakeLookPath("yum", "dnf"))
	require.NoError(t, err)
	require.Equal(t, "dnf", name)

	_, err = Detect(fakeLookPath())
	require.Error(t, err)
}

func TestNewUnsupported(t *testing.T) {
	t.Parallel()
	_, err := newManager("pacman", false, nil, nil, fakeLookPath())
	require.ErrorContains(t, err, "unsupported system package manager")
}

func TestInstallRefreshesOnce(t *testing.T) {
	t.Parallel()
	ex := runner.NewMockExecutor()
	m, err := newManager(Auto, false, ex, nil, fakeLookPath("apt-get"))
	require.NoError(t, err)

	require.NoError(t, m.Install(t.Context(), "libxml2-dev", "libxslt1-dev"))
	require.NoError(t, m.Install(t.Context(), "gfortran"))

	require.Equal(t, []string{
		"apt-get update",
		"apt-get install -y libxml2-dev",
		"apt-get install -y libxslt1-dev",
		"apt-get install -y gfortran",
	}, ex.CallStrings())
}

func TestInstallWithSudo(t *testing.T) {
	t.Parallel()
	ex := runner.NewMockExecutor()
	m, err := newManager("dnf", true, ex, nil, fakeLookPath())
	require.NoError(t, err)

	require.NoError(t, m.Install(t.Context(), "gcc"))
	require.Equal(t, []string{"sudo dnf makecache", "sudo dnf install -y gcc"}, ex.CallStrings())
}

func TestInstallContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	log, rec := logtest.New()
	ex := runner.NewMockExecutor(
		runner.MockCommand{Pattern: "update", ExitCode: 100, Stderr: "no network"},
		runner.MockCommand{Pattern: "install -y bad", ExitCode: 100, Stderr: "E: Unable to locate package bad"},
	)
	m, err := newManager("apt-get", false, ex, log, fakeLookPath())
	require.NoError(t, err)

	err = m.Install(t.Context(), "bad", "good")
	require.ErrorContains(t, err, "bad")
	require.NotContains(t, err.Error(), "good")
	require.Len(t, ex.Calls(), 3)
	require.Equal(t, 1, rec.Count("unable to refresh"))
	require.Equal(t, 1, rec.Count("system package install failed"))
}
