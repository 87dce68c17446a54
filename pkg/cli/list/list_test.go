package list

import (
	"bytes"
	"testing"

	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, exec runner.Executor, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	clicommon.AddGlobalFlags(cmd.PersistentFlags())
	cmd.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	buf := bytes.Buffer{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.ExecuteContext(clicommon.WithExecutor(t.Context(), exec))
	return buf.String(), err
}

const freeze = "requests==2.31.0\nNumPy==1.26.4\nbeautifulsoup4==4.12.3\n"

func TestList(t *testing.T) {
	t.Parallel()
	exec := runner.NewMockExecutor(runner.MockCommand{Pattern: "pip list", Stdout: freeze})
	out, err := run(t, exec)
	require.NoError(t, err)
	require.Equal(t, "beautifulsoup4==4.12.3\nNumPy==1.26.4\nrequests==2.31.0\n", out)
}

func TestListPURL(t *testing.T) {
	t.Parallel()
	exec := runner.NewMockExecutor(runner.MockCommand{Pattern: "pip list", Stdout: "Typing_Extensions==4.9.0\n"})
	out, err := run(t, exec, "--purl")
	require.NoError(t, err)
	require.Equal(t, "pkg:pypi/typing-extensions@4.9.0\n", out)
}

func TestListFailure(t *testing.T) {
	t.Parallel()
	exec := runner.NewMockExecutor(runner.MockCommand{Pattern: "pip list", Stderr: "No module named pip", ExitCode: 1})
	_, err := run(t, exec)
	require.ErrorContains(t, err, "No module named pip")
}
