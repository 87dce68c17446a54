package installed

import (
	"testing"

	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/stretchr/testify/require"
)

const freezeOutput = `-e git+https://github.com/example/proj.git@abc123#egg=proj
Foo_Bar==1.2.3
numpy==1.26.4
local-pkg @ file:///tmp/local_pkg
PyYAML==6.0.1
`

func TestProcessFreezeOutput(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"Foo_Bar", "numpy", "PyYAML"}, ProcessFreezeOutput([]byte(freezeOutput)))
	require.Empty(t, ProcessFreezeOutput(nil))
}

func TestParseFreeze(t *testing.T) {
	t.Parallel()
	pkgs := ParseFreeze([]byte(freezeOutput))
	require.Equal(t, []Package{
		{Name: "Foo_Bar", Version: "1.2.3"},
		{Name: "numpy", Version: "1.26.4"},
		{Name: "PyYAML", Version: "6.0.1"},
	}, pkgs)
	require.Equal(t, "numpy==1.26.4", pkgs[1].String())
}

func TestPURL(t *testing.T) {
	t.Parallel()
	require.Equal(t, "pkg:pypi/foo-bar@1.2.3", Package{Name: "Foo_Bar", Version: "1.2.3"}.PURL())
}

func TestSubtract(t *testing.T) {
	t.Parallel()
	got := Subtract(pkgname.NewSet("pip"), pkgname.NewSet("pip", "foofizz"))
	require.Equal(t, pkgname.NewSet("foofizz"), got)

	got = Subtract(pkgname.NewSet("numpy"), pkgname.NewSet("NumPy", "Pandas"))
	require.Equal(t, pkgname.NewSet("pandas"), got)
}

func TestCurrentlyInstalled(t *testing.T) {
	t.Parallel()
	exec := runner.NewMockExecutor(runner.MockCommand{Pattern: "pip list", Stdout: freezeOutput})
	tracker := NewTracker(python.New("python3", exec), nil)

	s, err := tracker.CurrentlyInstalled(t.Context())
	require.NoError(t, err)
	require.Equal(t, pkgname.NewSet("foo-bar", "numpy", "pyyaml"), s)
	require.Equal(t, []string{"python3 -m pip list '--format=freeze'"}, exec.CallStrings())
}

func TestCurrentlyInstalledFailure(t *testing.T) {
	t.Parallel()
	exec := runner.NewMockExecutor(runner.MockCommand{Pattern: "pip list", ExitCode: 1, Stderr: "No module named pip"})
	_, err := NewTracker(python.New("python3", exec), nil).CurrentlyInstalled(t.Context())
	require.ErrorContains(t, err, "No module named pip")
}
