package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mailauth/internal/auth"
	"github.com/teemow/mailauth/internal/config"
	"github.com/teemow/mailauth/internal/instrumentation"
	"github.com/teemow/mailauth/internal/logging"
	"github.com/teemow/mailauth/internal/provider"
	"github.com/teemow/mailauth/internal/secrets"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// app holds the state shared by all commands of one invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	instr    *instrumentation.Provider
	registry *provider.Registry

	closers []io.Closer
}

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	var flags config.Config

	rootCmd := &cobra.Command{
		Use:   "mailauth",
		Short: "OAuth2 helper for IMAP/SMTP mailboxes on Google and Microsoft",
		Long: `mailauth walks a mailbox owner through the OAuth2 authorization code flow
and produces the credentials mail clients need:

  1. "mailauth url" prints the consent page URL.
  2. "mailauth exchange --code ..." trades the code for a token record.
  3. "mailauth sasl ..." turns a Google refresh token into an XOAUTH2 string.

Token records can be persisted into a secret store (file, redis or memory)
so refreshed tokens survive between runs.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, flags)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "mailauth version %s\n" .Version}}`)

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging. Can also use MAILAUTH_DEBUG env var.")
	pf.StringVar(&flags.ClientID, "client-id", "", "OAuth client ID. Can also use MAILAUTH_CLIENT_ID env var.")
	pf.StringVar(&flags.ClientSecret, "client-secret", "", "OAuth client secret. Can also use MAILAUTH_CLIENT_SECRET env var.")
	pf.StringVar(&flags.Provider, "provider", "google", "Provider kind: google or microsoft. Can also use MAILAUTH_PROVIDER env var.")
	pf.StringVar(&flags.Tenant, "tenant", "common", "Microsoft tenant (ignored for google). Can also use MAILAUTH_TENANT env var.")
	pf.DurationVar(&flags.HTTPTimeout, "http-timeout", instrumentation.DefaultHTTPTimeout, "Timeout for token endpoint calls. Can also use MAILAUTH_HTTP_TIMEOUT env var.")
	pf.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit (node-exporter textfile format). Can also use MAILAUTH_METRICS_FILE env var.")

	pf.StringVar(&flags.Secrets.Backend, "secrets-backend", secrets.BackendFile, "Secret store backend: file, redis or memory. memory only lives for one run and cannot store tokens. Can also use MAILAUTH_SECRETS_BACKEND env var.")
	pf.StringVar(&flags.Secrets.Dir, "secrets-dir", "", "Directory of the file secret store (default: <user cache dir>/mailauth/secrets). Can also use MAILAUTH_SECRETS_DIR env var.")
	pf.StringVar(&flags.Secrets.Key, "secrets-key", "", "AES-256 key (base64) to encrypt stored secrets. Generate with: mailauth keygen. Can also use MAILAUTH_SECRETS_KEY env var.")
	pf.StringVar(&flags.Secrets.RedisAddr, "redis-addr", "localhost:6379", "Redis server address. Can also use MAILAUTH_SECRETS_REDIS_ADDR env var.")
	pf.StringVar(&flags.Secrets.RedisPassword, "redis-password", "", "Redis password. Can also use MAILAUTH_SECRETS_REDIS_PASSWORD env var.")
	pf.IntVar(&flags.Secrets.RedisDB, "redis-db", 0, "Redis database number. Can also use MAILAUTH_SECRETS_REDIS_DB env var.")
	pf.StringVar(&flags.Secrets.RedisKeyPrefix, "redis-key-prefix", secrets.DefaultRedisKeyPrefix, "Prefix for secret keys in Redis. Can also use MAILAUTH_SECRETS_REDIS_KEY_PREFIX env var.")

	rootCmd.AddCommand(newProvidersCmd(a))
	rootCmd.AddCommand(newURLCmd(a))
	rootCmd.AddCommand(newExchangeCmd(a))
	rootCmd.AddCommand(newSASLCmd(a))
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads the environment, applies explicitly set flags on top, and
// starts logging and instrumentation.
func (a *app) setup(cmd *cobra.Command, flags config.Config) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg, flags)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Debug)
	if a.registry == nil {
		a.registry = provider.NewRegistry()
	}

	instrConfig, err := instrumentation.LoadConfig()
	if err != nil {
		return err
	}
	instrConfig.ServiceVersion = version
	if cfg.MetricsFile != "" {
		instrConfig.Enabled = true
		instrConfig.MetricsExporter = instrumentation.ExporterPrometheus
	}

	a.instr, err = instrumentation.NewProvider(cmd.Context(), instrConfig,
		instrumentation.WithConsoleWriter(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return nil
}

// applyFlags copies the flags the user set explicitly into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags config.Config) {
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("debug") {
		cfg.Debug = flags.Debug
	}
	if changed("client-id") {
		cfg.ClientID = flags.ClientID
	}
	if changed("client-secret") {
		cfg.ClientSecret = flags.ClientSecret
	}
	if changed("provider") {
		cfg.Provider = flags.Provider
	}
	if changed("tenant") {
		cfg.Tenant = flags.Tenant
	}
	if changed("http-timeout") {
		cfg.HTTPTimeout = flags.HTTPTimeout
	}
	if changed("metrics-file") {
		cfg.MetricsFile = flags.MetricsFile
	}
	if changed("secrets-backend") {
		cfg.Secrets.Backend = flags.Secrets.Backend
	}
	if changed("secrets-dir") {
		cfg.Secrets.Dir = flags.Secrets.Dir
	}
	if changed("secrets-key") {
		cfg.Secrets.Key = flags.Secrets.Key
	}
	if changed("redis-addr") {
		cfg.Secrets.RedisAddr = flags.Secrets.RedisAddr
	}
	if changed("redis-password") {
		cfg.Secrets.RedisPassword = flags.Secrets.RedisPassword
	}
	if changed("redis-db") {
		cfg.Secrets.RedisDB = flags.Secrets.RedisDB
	}
	if changed("redis-key-prefix") {
		cfg.Secrets.RedisKeyPrefix = flags.Secrets.RedisKeyPrefix
	}
}

// newHelper creates an auth.Helper wired to the app's logger, metrics and HTTP timeout.
func (a *app) newHelper(opts ...auth.Option) *auth.Helper {
	base := []auth.Option{
		auth.WithRegistry(a.registry),
		auth.WithLogger(a.logger),
		auth.WithMetrics(a.instr.Metrics()),
		auth.WithHTTPClient(instrumentation.NewHTTPClient(a.cfg.HTTPTimeout)),
	}
	return auth.New(append(base, opts...)...)
}

// openStore opens the configured secret store. It is closed by finish.
func (a *app) openStore() (secrets.Store, error) {
	store, closer, err := a.cfg.Secrets.OpenStore(a.instr.Metrics(), a.logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)
	return store, nil
}

// openPersistentStore opens the configured secret store for commands that
// write tokens. The memory backend is rejected since it is gone at exit.
func (a *app) openPersistentStore() (secrets.Store, error) {
	if a.cfg.Secrets.Backend == secrets.BackendMemory {
		return nil, fmt.Errorf("secret store backend %q does not outlive the command, use %s or %s to store tokens",
			secrets.BackendMemory, secrets.BackendFile, secrets.BackendRedis)
	}
	return a.openStore()
}

func (a *app) requireClientID() error {
	if a.cfg.ClientID == "" {
		return errors.New("client ID is required (--client-id or MAILAUTH_CLIENT_ID)")
	}
	return nil
}

// finish writes the metrics textfile and releases resources. It runs
// whether or not the command succeeded.
func (a *app) finish(ctx context.Context) error {
	var errs []error

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	if a.instr == nil {
		return errors.Join(errs...)
	}

	if a.cfg.MetricsFile != "" {
		if err := a.instr.WriteMetricsTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := a.instr.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// execute runs the command tree with args and returns the first error.
func (a *app) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if finishErr := a.finish(ctx); finishErr != nil {
		if a.logger != nil {
			a.logger.Error("cleanup failed", logging.Err(finishErr))
		}
		if err == nil {
			err = finishErr
		}
	}
	return err
}

// Execute is the main entry point for the CLI application
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := (&app{}).execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		cancel()
		os.Exit(1)
	}
}
