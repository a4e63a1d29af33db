package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported OAuth2 providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := a.registry

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tAUTH URL\tTOKEN URL\tSCOPE")
			for _, kind := range registry.Kinds() {
				cfg, err := registry.Lookup(string(kind))
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", kind, cfg.AuthURLTemplate, cfg.TokenURLTemplate, cfg.Scope)
			}
			return w.Flush()
		},
	}
}
