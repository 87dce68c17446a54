package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"config", "install", "list", "resolve"})
}

func TestRootRejectsBadLogFlags(t *testing.T) {
	for _, args := range [][]string{
		{"--log-level", "loud", "config", "show"},
		{"--log-format", "xml", "config", "show"},
	} {
		cmd := NewRootCmd()
		cmd.SetArgs(append(args, "--config-dir", t.TempDir()))
		buf := bytes.Buffer{}
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		require.Error(t, cmd.Execute(), args)
	}
}

func TestRootConfigShow(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--log-format", "text", "config", "show", "--config-dir", t.TempDir()})
	buf := bytes.Buffer{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "[ipydeps]")
}
