package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/chinmay1088/prism/api"
	"github.com/chinmay1088/prism/auth"
	"github.com/chinmay1088/prism/config"
	"github.com/chinmay1088/prism/events"
	"github.com/chinmay1088/prism/session"
	"github.com/chinmay1088/prism/wallet"
)

// extraDialOptions is appended to every client; tests point it at bufconn
var extraDialOptions []grpc.DialOption

// app is what every command needs, loaded once per invocation
type app struct {
	dir      string
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
}

func loadApp(cmd *cobra.Command) (*app, error) {
	config.LoadDotenv()

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &app{
		dir:      dir,
		cfg:      cfg,
		logger:   newLogger(cmd, cfg),
		registry: prometheus.NewRegistry(),
	}, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := cfg.LogLevel()
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = slog.LevelError
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) manager() *wallet.Manager {
	return wallet.NewManager(a.dir, a.cfg.Network)
}

// unlockedManager fails with the usual hint when the wallet is locked
func (a *app) unlockedManager() (*wallet.Manager, error) {
	manager := a.manager()
	if !manager.VaultExists() {
		return nil, fmt.Errorf("no wallet found. Run 'prism init' to create a new wallet")
	}
	if !manager.IsUnlocked() {
		return nil, fmt.Errorf("wallet is locked. Run 'prism unlock' first")
	}
	return manager, nil
}

func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, a.cfg.Timeout)
}

func (a *app) client() (*api.Client, error) {
	return api.NewClient(api.Options{
		Target:           a.cfg.Target,
		TLS:              a.cfg.TLS,
		KeepaliveTime:    a.cfg.Keepalive.Time,
		KeepaliveTimeout: a.cfg.Keepalive.Timeout,
	},
		api.WithLogger(a.logger),
		api.WithDialOptions(extraDialOptions...),
	)
}

func (a *app) store(ctx context.Context) (session.Store, error) {
	store, err := session.Open(ctx, a.cfg.TokenStore, a.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return store, nil
}

// flow wires the login flow. The returned func releases the store and the
// event publisher.
func (a *app) flow(ctx context.Context, client *api.Client) (*auth.Flow, session.Store, func(), error) {
	store, err := a.store(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []auth.Option{
		auth.WithLogger(a.logger),
		auth.WithMetrics(auth.NewMetrics(a.registry)),
	}

	var publisher *events.WatermillPublisher
	if rs, ok := store.(*session.RedisStore); ok && a.cfg.Events {
		// the redisstream publisher closes its client, so it gets its own
		clientOpts := *rs.Client().Options()
		pub, err := events.NewRedisPublisher(redis.NewClient(&clientOpts), a.logger)
		if err != nil {
			a.logger.Warn("auth events disabled", "error", err)
		} else {
			publisher = events.NewWatermillPublisher(pub)
			opts = append(opts, auth.WithEventPublisher(publisher))
		}
	}

	release := func() {
		a.logMetrics()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				a.logger.Warn("failed to close event publisher", "error", err)
			}
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				a.logger.Warn("failed to close token store", "error", err)
			}
		}
	}
	return auth.NewFlow(client.Auth, store, opts...), store, release, nil
}

// account resolves the signer for the --chain flag
func (a *app) account(chainFlag string) (auth.Account, error) {
	chain, err := wallet.ParseChain(chainFlag)
	if err != nil {
		return auth.Account{}, err
	}
	manager, err := a.unlockedManager()
	if err != nil {
		// a locked wallet is a disconnected signer, not a hard error
		a.logger.Debug("no signer available", "error", err)
		return auth.Account{Network: a.cfg.Network}, nil
	}
	return manager.Account(chain)
}

// logMetrics dumps the flow counters at debug level
func (a *app) logMetrics() {
	if !a.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			a.logger.Debug("metric", attrs...)
		}
	}
}

// explain prints a hint for the flow errors a user can fix
func explain(err error) error {
	switch {
	case errors.Is(err, auth.ErrNoSigner):
		fmt.Println(color.RedString("No wallet connected"))
		fmt.Println("💡 Run 'prism unlock' first")
	case errors.Is(err, auth.ErrNoChallenge):
		fmt.Println("💡 Is the auth service reachable? Try 'prism health'")
	}
	return err
}
