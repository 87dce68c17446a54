package configcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/config"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the ipydeps configuration",
	}
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newShowCommand())
	return cmd
}

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [flags]",
		Short: "Write a default " + config.FileName + " to the config directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := clicommon.GetConfigDir(cmd)
			path := filepath.Join(dir, config.FileName)

			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return errors.AddStack(err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if cfg.DependenciesLink, err = cmd.Flags().GetString("dependencies-link"); err != nil {
				return errors.AddStack(err)
			}
			if cfg.DependenciesLinkRequiresPKI, err = cmd.Flags().GetBool("requires-pki"); err != nil {
				return errors.AddStack(err)
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file")
	cmd.Flags().String("dependencies-link", "", "URL of the overrides document")
	cmd.Flags().Bool("requires-pki", false, "Fetch the overrides document with PKI client credentials")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, dir, err := clicommon.GetConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# config directory: %s\n", dir) //nolint:errcheck
			_, err = cfg.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}
