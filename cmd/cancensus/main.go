// Command cancensus queries the CensusMapper API, serves a local caching
// proxy of it and exports census tables into Postgres.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ougirez/cancensus/internal/pkg/config"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/pkg/metrics"
	"github.com/ougirez/cancensus/internal/pkg/store"
	"github.com/ougirez/cancensus/internal/pkg/store/xpgx"
	"github.com/ougirez/cancensus/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app is shared by all subcommands of one invocation.
type app struct {
	out      io.Writer
	v        *viper.Viper
	keyStore string
	output   string

	settings *config.Settings
	metrics  *metrics.Collector
	svc      *service.Service
	db       *xpgx.DB
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: viper.New()}

	cmd := &cobra.Command{
		Use:           "cancensus",
		Short:         "Canadian census data from CensusMapper",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.String("api-key", "", "CensusMapper API key (env CANCENSUS_API_KEY)")
	flags.String("cache-path", "", "directory for cached responses (env CANCENSUS_CACHE_PATH)")
	flags.String("base-url", constants.DefaultBaseURL, "CensusMapper API base URL")
	flags.Duration("timeout", constants.DefaultTimeout, "timeout of one upstream request")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("database-dsn", "", "Postgres DSN of the warehouse (env CANCENSUS_DATABASE_DSN)")
	flags.String("admin-secret", "", "secret that signs admin tokens of the proxy (env CANCENSUS_ADMIN_SECRET)")
	flags.StringVar(&a.keyStore, "key-store", "", "path of the persisted API key store")
	flags.StringVarP(&a.output, "output", "o", "table", "output format: table, json or csv")

	for key, flag := range map[string]string{
		constants.ViperAPIKey:      "api-key",
		constants.ViperCachePath:   "cache-path",
		constants.ViperBaseURL:     "base-url",
		constants.ViperTimeout:     "timeout",
		constants.ViperLogLevel:    "log-level",
		constants.ViperDatabaseDSN: "database-dsn",
		constants.ViperSecretKey:   "admin-secret",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	cmd.AddCommand(
		a.censusCmd(),
		a.geometryCmd(),
		a.datasetsCmd(),
		a.attributionCmd(),
		a.regionsCmd(),
		a.intersectingCmd(),
		a.vectorsCmd(),
		a.hierarchyCmd("parent", "Show the parent of a vector"),
		a.hierarchyCmd("children", "List the direct children of a vector"),
		a.hierarchyCmd("ancestors", "List all parents of a vector up to its root"),
		a.descendantsCmd(),
		a.keyCmd(),
		a.cachePathCmd(),
		a.cacheCmd(),
		a.serveCmd(),
		a.adminTokenCmd(),
		a.exportCmd(),
		a.warehouseCmd(),
	)

	return cmd
}

func (a *app) init() error {
	var opts []config.Option
	opts = append(opts, config.WithViper(a.v))
	if a.keyStore != "" {
		opts = append(opts, config.WithKeyStore(a.keyStore))
	}

	settings, err := config.New(opts...)
	if err != nil {
		return err
	}
	if err := logger.Init(settings.LogLevel()); err != nil {
		return err
	}

	switch a.output {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("%w: output must be table, json or csv, got %q", constants.ErrInvalidParameter, a.output)
	}

	a.settings = settings
	a.metrics = metrics.NewCollector()
	return nil
}

// service builds the service graph on first use. With a warehouse DSN set
// the export service is backed by Postgres.
func (a *app) service(ctx context.Context, warehouse bool) (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	deps := service.Deps{Settings: a.settings, Metrics: a.metrics}
	if warehouse && a.settings.DatabaseDSN() != "" {
		db, err := xpgx.NewPool(ctx, a.settings.DatabaseDSN())
		if err != nil {
			return nil, err
		}
		a.db = db
		deps.Store = store.NewStore(db)
	}

	a.svc = service.NewService(deps)
	return a.svc, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	_ = logger.L().Sync()
}
