package install

import (
	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/ipydeps"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [flags] package...",
		Short: "Install packages that aren't already installed",
		Long: `Install packages into the configured Python interpreter.

Standard library modules and packages that are already installed are skipped.
Site overrides from the configured dependencies link run before pip.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			installer, err := clicommon.GetInstaller(cmd)
			if err != nil {
				return err
			}

			opts := ipydeps.DefaultOptions()
			flags := cmd.Flags()
			if opts.Verbose, err = flags.GetBool("verbose"); err != nil {
				return errors.AddStack(err)
			}
			if opts.UsePKI, err = flags.GetBool("pki"); err != nil {
				return errors.AddStack(err)
			}
			noOverrides, err := flags.GetBool("no-overrides")
			if err != nil {
				return errors.AddStack(err)
			}
			opts.UseOverrides = !noOverrides
			if opts.ConfigName, err = flags.GetString("pip-config"); err != nil {
				return errors.AddStack(err)
			}

			return installer.Pip(cmd.Context(), args, opts)
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Run pip with -vvv")
	cmd.Flags().Bool("pki", false, "Authenticate to the package index with the configured PKI credentials")
	cmd.Flags().Bool("no-overrides", false, "Skip site overrides")
	cmd.Flags().String("pip-config", "", "Name of a pip config file in the config directory")
	return cmd
}
