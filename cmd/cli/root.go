package main

import (
	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/cli/configcmd"
	"github.com/clintharrison/go-ipydeps/pkg/cli/install"
	"github.com/clintharrison/go-ipydeps/pkg/cli/list"
	"github.com/clintharrison/go-ipydeps/pkg/cli/resolve"
	"github.com/clintharrison/go-ipydeps/pkg/logging"
	"github.com/clintharrison/go-ipydeps/pkg/version"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     version.CLIName,
		Short:   "Install Python packages for notebooks, applying site overrides first",
		Version: version.FullVersion,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			lvlStr, err := flags.GetString(clicommon.FlagLogLevel)
			if err != nil {
				return errors.AddStack(err)
			}
			level, err := logging.ParseLevel(lvlStr)
			if err != nil {
				return err
			}
			fmtStr, err := flags.GetString(clicommon.FlagLogFormat)
			if err != nil {
				return errors.AddStack(err)
			}
			format, err := logging.ParseFormat(fmtStr)
			if err != nil {
				return err
			}
			logging.Init(cmd.ErrOrStderr(), format, level)
			return nil
		},
	}

	clicommon.AddGlobalFlags(cmd.PersistentFlags())

	cmd.AddCommand(configcmd.NewCommand())
	cmd.AddCommand(install.NewCommand())
	cmd.AddCommand(list.NewCommand())
	cmd.AddCommand(resolve.NewCommand())

	return cmd
}
