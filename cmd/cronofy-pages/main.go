// Command cronofy-pages reads paged Cronofy API results and prints every item
// as one JSON document per line.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Sternrassler/cronofy-client/internal/config"
	"github.com/Sternrassler/cronofy-client/pkg/client"
	"github.com/Sternrassler/cronofy-client/pkg/logging"
	"github.com/Sternrassler/cronofy-client/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdout, os.Stderr, os.LookupEnv)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the state shared by all subcommands.
type app struct {
	out       io.Writer
	errOut    io.Writer
	lookupEnv func(string) (string, bool)

	configPath string
	flags      struct {
		baseURL     string
		userAgent   string
		headers     []string
		redis       string
		logLevel    string
		metricsAddr string
	}

	cfg           config.Config
	logger        zerolog.Logger
	client        *client.Client
	redis         *redis.Client
	metricsServer *http.Server
}

func newApp(out, errOut io.Writer, lookupEnv func(string) (string, bool)) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		lookupEnv: lookupEnv,
		logger:    zerolog.Nop(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "cronofy-pages",
		Short:             "Page through Cronofy API results",
		Long:              "Reads paged Cronofy API endpoints, following next_page links, and prints each item as a JSON line",
		PersistentPreRunE: a.setup,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "API base URL (default "+client.DefaultBaseURL+")")
	pf.StringVar(&a.flags.userAgent, "user-agent", "", "User-Agent header sent with every request")
	pf.StringArrayVarP(&a.flags.headers, "header", "H", nil, `extra request header as "Name: value" (repeatable)`)
	pf.StringVar(&a.flags.redis, "redis", "", "Redis address or redis:// URL enabling response caching")
	pf.StringVar(&a.flags.logLevel, "log-level", "", `log level ("debug", "info", "warn", "error", "disabled")`)
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on while running")

	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))
	rootCmd.AddCommand(newFreeBusyCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

// setup resolves the configuration (defaults, file, environment, flags in that
// order) and builds the logger, client and optional metrics server.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(a.lookupEnv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.flags.baseURL
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = a.flags.userAgent
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = a.flags.redis
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = a.flags.metricsAddr
	}
	for _, h := range a.flags.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("invalid header %q, want \"Name: value\"", h)
		}
		cfg.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: a.errOut,
	})
	a.logger = logging.NewLogger("cli")

	clientCfg := cfg.ClientConfig()
	if cfg.RedisAddr != "" {
		opts, err := cfg.RedisOptions()
		if err != nil {
			return err
		}
		a.redis = redis.NewClient(opts)
		if err := a.redis.Ping(cmd.Context()).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		a.logger.Info().Str("addr", opts.Addr).Msg("Response cache enabled")
		clientCfg.Redis = a.redis
	}

	a.client, err = client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if cfg.MetricsAddr != "" {
		a.startMetrics(cfg.MetricsAddr)
	}

	return nil
}

func (a *app) startMetrics(addr string) {
	a.metricsServer = metrics.NewServer(addr)
	go func(srv *http.Server) {
		a.logger.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}(a.metricsServer)
}

// Close stops the metrics server and releases connections.
func (a *app) Close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("Metrics server shutdown")
		}
		cancel()
		a.metricsServer = nil
	}
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	if a.redis != nil {
		a.redis.Close()
		a.redis = nil
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// No configuration needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(a.out, "cronofy-pages %s\n", version)
			return err
		},
	}
}
