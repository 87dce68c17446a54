package resolve

import (
	"context"
	"fmt"

	"github.com/clintharrison/go-ipydeps/pkg/cli/clicommon"
	"github.com/clintharrison/go-ipydeps/pkg/overrides"
	"github.com/clintharrison/go-ipydeps/pkg/pki"
	"github.com/clintharrison/go-ipydeps/pkg/pkgname"
	"github.com/clintharrison/go-ipydeps/pkg/python"
	"github.com/clintharrison/go-ipydeps/pkg/runner"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
)

type fixedVersion python.Version

func (v fixedVersion) VersionNames(context.Context) ([]string, error) {
	return python.Version(v).Names(), nil
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [flags] lxml psycopg2",
		Short: "Show which site overrides apply to packages, without running them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := clicommon.GetConfig(cmd)
			if err != nil {
				return err
			}
			if link, _ := cmd.Flags().GetString("link"); link != "" {
				cfg.DependenciesLink = link
			}
			if cfg.DependenciesLink == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No dependencies link configured.") //nolint:errcheck
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Using overrides from %s\n", cfg.DependenciesLink) //nolint:errcheck

			var versions overrides.VersionNamer = python.New(cfg.Python, clicommon.Executor(cmd.Context()))
			if vstr, _ := cmd.Flags().GetString("python-version"); vstr != "" {
				v, err := python.ParseVersion(vstr)
				if err != nil {
					return errors.Wrap(err, "failed to parse --python-version")
				}
				versions = fixedVersion(v)
			}

			r := &overrides.Resolver{
				Link:        cfg.DependenciesLink,
				RequiresPKI: cfg.DependenciesLinkRequiresPKI,
				PKI:         nil,
				Versions:    versions,
				Client:      nil,
				Log:         nil,
			}
			if cfg.PKI.Configured() {
				r.PKI = pki.NewFileProvider(cfg.PKI.KeyPath, cfg.PKI.CertPath, cfg.PKI.CAPath)
			}

			doc, err := r.Document(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStderr(), "ERROR: Unable to load overrides:\n%v\n", err) //nolint:errcheck
				return errors.Wrap(err, "failed to load overrides document")
			}
			names, err := versions.VersionNames(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to determine interpreter version")
			}

			found := overrides.Find(doc, pkgname.Normalize(pkgname.Extract(args...)), names)
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No overrides apply.") //nolint:errcheck
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resolved overrides:") //nolint:errcheck
			for _, name := range found.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s:\n", name) //nolint:errcheck
				for _, c := range found[name] {
					if len(c) == 0 {
						continue
					}
					rendered := runner.Cmd{Name: c[0], Args: c[1:], Env: nil}.String()
					fmt.Fprintf(cmd.OutOrStdout(), "    - %s\n", rendered) //nolint:errcheck
				}
			}
			return nil
		},
	}
	cmd.Flags().String("link", "", "Overrides document URL (default: dependencies_link from the config file)")
	cmd.Flags().String("python-version", "", "Resolve for this interpreter version instead of asking the interpreter")
	return cmd
}
