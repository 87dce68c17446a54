package list

import (
	"fmt"
	"sort"

	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/installed"
	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [flags]",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interp, err := clicommon.GetInterpreter(cmd)
			if err != nil {
				return err
			}
			purls, err := cmd.Flags().GetBool("purl")
			if err != nil {
				return errors.Wrap(err, "failed to get purl flag")
			}

			pkgs, err := installed.NewTracker(interp, nil).List(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to get installed packages")
			}
			sort.Slice(pkgs, func(i, j int) bool {
				return pkgname.NormalizeName(pkgs[i].Name) < pkgname.NormalizeName(pkgs[j].Name)
			})

			for _, p := range pkgs {
				if purls {
					fmt.Fprintln(cmd.OutOrStdout(), p.PURL()) //nolint:errcheck
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), p.String()) //nolint:errcheck
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("purl", false, "Print package URLs (pkg:pypi/...) instead of name==version")
	return cmd
}
