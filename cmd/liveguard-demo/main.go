package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	liveguard "github.com/vango-dev/liveguard"
	"github.com/vango-dev/liveguard/pkg/audit"
	"github.com/vango-dev/liveguard/pkg/callback"
	"github.com/vango-dev/liveguard/pkg/livehost"
	"github.com/vango-dev/liveguard/pkg/tokenapi"
)

var version = "dev"

type serveOptions struct {
	addr       string
	backend    string
	redisAddr  string
	sqlitePath string
	tokenTTL   time.Duration
	verbose    bool
}

func main() {
	var opts serveOptions

	rootCmd := &cobra.Command{
		Use:   "liveguard-demo",
		Short: "A token-protected checklist app",
		Long: `liveguard-demo serves a small interactive checklist behind a
token login. Sign in with one of the built-in accounts:

  alice   / alice-password
  bob     / bob-password
  charlie / charlie-password

Tokens can be held in memory, Redis, or SQLite; pick with --backend.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	rootCmd.Flags().StringVarP(&opts.addr, "addr", "a", ":8080", "Address to listen on")
	rootCmd.Flags().StringVarP(&opts.backend, "backend", "b", "memory", "Token backend: memory, redis, or sqlite")
	rootCmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis address (with --backend=redis)")
	rootCmd.Flags().StringVar(&opts.sqlitePath, "sqlite-path", "liveguard-demo.db", "SQLite database path (with --backend=sqlite)")
	rootCmd.Flags().DurationVar(&opts.tokenTTL, "token-ttl", 30*time.Minute, "Token lifetime")
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, opts serveOptions) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	api, cleanup, err := newBackend(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	host := livehost.New(livehost.WithLogger(logger))
	seedProps(host)

	guard, err := liveguard.New(host, api,
		liveguard.ViewBuilderFunc(loginView),
		liveguard.ViewBuilderFunc(contentView),
		liveguard.WithLogger(logger),
		liveguard.WithAuditSink(audit.NewSlogSink(logger)),
	)
	if err != nil {
		return err
	}

	// Resetting the checklist is only meaningful while signed in, so it runs
	// as a protected callback and rechecks the token on every click.
	err = guard.Callback(
		[]callback.Dep{
			callback.Output("tasks", liveguard.ContentProp),
			callback.Input("reset", liveguard.ClicksProp),
		},
		func(ctx context.Context, args []any) ([]any, error) {
			return []any{taskList()}, nil
		},
	)
	if err != nil {
		return err
	}

	if err := host.Start(ctx); err != nil {
		return err
	}

	srv := livehost.NewServer(host, buildPage(),
		livehost.WithTitle("Liveguard demo"),
		livehost.WithServerLogger(logger),
	)

	httpSrv := &http.Server{
		Addr:    opts.addr,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", opts.addr, "backend", opts.backend)
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newBackend builds the token API selected by --backend, along with a
// cleanup func that releases whatever the backend holds open.
func newBackend(ctx context.Context, opts serveOptions, logger *slog.Logger) (tokenapi.API, func(), error) {
	creds, err := demoCredentials()
	if err != nil {
		return nil, nil, err
	}

	switch opts.backend {
	case "memory":
		api := tokenapi.NewMemoryAPI(creds, tokenapi.WithTokenTTL(opts.tokenTTL))
		return tokenapi.WithMetrics(api), func() { api.Close() }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis at %s: %w", opts.redisAddr, err)
		}
		api := tokenapi.NewRedisAPI(creds, client, tokenapi.WithRedisTokenTTL(opts.tokenTTL))
		return tokenapi.WithMetrics(api), func() { client.Close() }, nil

	case "sqlite":
		db, err := sql.Open("sqlite", opts.sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", opts.sqlitePath, err)
		}
		db.SetMaxOpenConns(1)
		api := tokenapi.NewSQLAPI(creds, db,
			tokenapi.WithSQLDialect(tokenapi.DialectSQLite),
			tokenapi.WithSQLTokenTTL(opts.tokenTTL),
		)
		if err := api.CreateTable(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return tokenapi.WithMetrics(api), func() {
			api.Close()
			db.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want memory, redis, or sqlite)", opts.backend)
	}
}

func demoCredentials() (*tokenapi.StaticCredentials, error) {
	creds := tokenapi.NewStaticCredentials()
	accounts := map[string]string{
		"alice":   "alice-password",
		"bob":     "bob-password",
		"charlie": "charlie-password",
	}
	for user, pass := range accounts {
		if err := creds.Register(user, pass); err != nil {
			return nil, err
		}
	}
	return creds, nil
}

// seedProps initializes every property the callbacks read or write. The
// token stores start at the null sentinel so the first render shows the
// login view.
func seedProps(host *livehost.Host) {
	host.Seed("main", liveguard.ContentProp, loginView())
	host.Seed("current_api_token", liveguard.TokenProp, liveguard.NullToken)
	host.Seed("last_api_token", liveguard.TokenProp, liveguard.NullToken)
	host.Seed("loginout", liveguard.ClicksProp, 0)
	host.Seed("username", liveguard.FieldProp, "")
	host.Seed("password", liveguard.FieldProp, "")
	host.Seed("reset", liveguard.ClicksProp, 0)
	host.Seed("tasks", liveguard.ContentProp, taskList())
}
