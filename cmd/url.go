package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newURLCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the permission URL the mailbox owner opens in a browser",
		Long: `Print the consent page URL for the selected provider.

After granting access the provider shows (google) or redirects with (microsoft)
an authorization code; pass it to "mailauth exchange --code".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireClientID(); err != nil {
				return err
			}

			u, err := a.newHelper().PermissionURL(a.cfg.ClientID, a.cfg.Provider, a.cfg.Tenant)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}
