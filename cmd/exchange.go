package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailauth/internal/auth"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/refresh"
	"github.com/teemow/mailauth/internal/secrets"
)

func newExchangeCmd(a *app) *cobra.Command {
	var code, secretName string

	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Exchange an authorization code for a token record",
		Long: `Exchange the authorization code from the consent page for tokens and print
the token record as JSON.

With --secret-name the record is also stored under the "token" key of that
secret, which is created when missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireClientID(); err != nil {
				return err
			}
			if code == "" {
				return errors.New("authorization code is required (--code)")
			}

			// Authorization codes are single use, so the store is opened
			// before the code is spent.
			var store secrets.Store
			if secretName != "" {
				var err error
				if store, err = a.openPersistentStore(); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			token, err := a.newHelper().ExchangeCode(ctx, auth.ExchangeRequest{
				ClientID:     a.cfg.ClientID,
				ClientSecret: a.cfg.ClientSecret,
				Code:         code,
				Provider:     a.cfg.Provider,
				Tenant:       a.cfg.Tenant,
			})
			if err != nil {
				return err
			}

			if store != nil {
				if _, err := secrets.GetOrCreate(ctx, store, secretName); err != nil {
					return err
				}
				bridge := refresh.NewBridge(store, secretName, refresh.WithLogger(a.logger))
				if err := bridge.OnTokenRefresh(ctx, token); err != nil {
					return err
				}
				a.logger.Info("token record stored",
					logging.Provider(a.cfg.Provider),
					logging.Backend(a.cfg.Secrets.Backend))
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(token); err != nil {
				return fmt.Errorf("failed to encode token record: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code from the consent page")
	cmd.Flags().StringVar(&secretName, "secret-name", "", "Store the token record in this secret")

	return cmd
}
