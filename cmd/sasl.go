package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mailauth/internal/auth"
	"github.com/teemow/mailauth/internal/provider"
	"github.com/teemow/mailauth/internal/refresh"
	"github.com/teemow/mailauth/internal/secrets"
)

func newSASLCmd(a *app) *cobra.Command {
	var username, refreshToken, secretName string
	var persist bool

	cmd := &cobra.Command{
		Use:   "sasl",
		Short: "Print the base64 XOAUTH2 string for a Google mailbox",
		Long: `Trade a Google refresh token for an access token and print the base64
encoded XOAUTH2 initial response for IMAP AUTHENTICATE or SMTP AUTH.

The refresh token comes from --refresh-token or from the "token" record of
--secret-name. With --persist the refreshed token is written back into that
secret.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Provider != string(provider.KindGoogle) {
				return fmt.Errorf("sasl strings are only built for %s, got provider %q", provider.KindGoogle, a.cfg.Provider)
			}
			if err := a.requireClientID(); err != nil {
				return err
			}
			if username == "" {
				return errors.New("username is required (--username)")
			}
			if (refreshToken == "") == (secretName == "") {
				return errors.New("exactly one of --refresh-token or --secret-name is required")
			}
			if persist && secretName == "" {
				return errors.New("--persist requires --secret-name")
			}

			ctx := cmd.Context()
			token := auth.Token{auth.FieldRefreshToken: refreshToken}
			var opts []auth.Option

			if secretName != "" {
				open := a.openStore
				if persist {
					open = a.openPersistentStore
				}
				store, err := open()
				if err != nil {
					return err
				}
				token, err = loadToken(ctx, store, secretName)
				if err != nil {
					return err
				}
				if persist {
					opts = append(opts, auth.WithTokenRefreshHandler(
						persistingHandler(store, secretName, token, a)))
				}
			}

			s, err := a.newHelper(opts...).OAuth2String(ctx, auth.SASLRequest{
				ClientID:     a.cfg.ClientID,
				ClientSecret: a.cfg.ClientSecret,
				Token:        token,
				Username:     username,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Mailbox address")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Google refresh token")
	cmd.Flags().StringVar(&secretName, "secret-name", "", "Read the token record from this secret")
	cmd.Flags().BoolVar(&persist, "persist", false, "Write the refreshed token back into --secret-name")

	return cmd
}

// loadToken reads the token record stored under the "token" key of a secret.
func loadToken(ctx context.Context, store secrets.Store, name string) (auth.Token, error) {
	secret, err := store.GetSecret(ctx, name)
	if err != nil {
		return nil, err
	}
	record, ok := secret.Values[refresh.TokenKey].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret %q has no %q record", name, refresh.TokenKey)
	}
	return auth.Token(record), nil
}

// persistingHandler stores refreshed tokens through the bridge. Google
// refresh responses omit the refresh token, so the stored one is carried
// over to keep the record usable.
func persistingHandler(store secrets.Store, name string, previous auth.Token, a *app) auth.TokenRefreshHandler {
	bridge := refresh.NewBridge(store, name, refresh.WithLogger(a.logger))
	return auth.TokenRefreshFunc(func(ctx context.Context, token auth.Token) error {
		if _, ok := token.RefreshToken(); !ok {
			if rt, ok := previous.RefreshToken(); ok {
				token[auth.FieldRefreshToken] = rt
			}
		}
		return bridge.OnTokenRefresh(ctx, token)
	})
}
