package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/servicex-id/netops/config"
	"github.com/servicex-id/netops/orchestrator"
	"github.com/servicex-id/netops/poller"
	"github.com/servicex-id/netops/store"
	"github.com/servicex-id/netops/webhook"
)

var (
	// Version is set via ldflags during build
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netopsd",
	Short: "netopsd - ISP device orchestration engine",
	Long: `netopsd keeps RouterOS access routers and GPON OLTs converged with
the billing database: automatic suspension of overdue subscribers,
plan bandwidth sync, zero-touch ONU provisioning and payment-driven
restoration.`,
	Version: Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(isolirCmd)
	rootCmd.AddCommand(qosCmd)
	rootCmd.AddCommand(seedCmd)

	qosCmd.Flags().String("plan", "", "service plan id to resync")
	qosCmd.Flags().String("bandwidth", "", "new rate limit, e.g. 20M/20M")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the optical poller",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		st, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		if err := st.Migrate(); err != nil {
			return fmt.Errorf("migrating schema: %w", err)
		}

		engine := orchestrator.New(st, cfg, log)
		srv := webhook.New(engine, cfg, log)
		opt := poller.New(st, cfg, log)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go opt.Run(ctx)

		log.Info().Str("version", Version).Msg("netopsd starting")
		return srv.Serve(ctx)
	},
}

var isolirCmd = &cobra.Command{
	Use:   "isolir",
	Short: "Run one suspension sweep over overdue invoices and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		st, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		engine := orchestrator.New(st, cfg, log)
		res, err := engine.RunSuspension(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var qosCmd = &cobra.Command{
	Use:   "qos",
	Short: "Push a plan's new bandwidth to every active subscriber",
	RunE: func(cmd *cobra.Command, args []string) error {
		planFlag, _ := cmd.Flags().GetString("plan")
		bandwidth, _ := cmd.Flags().GetString("bandwidth")
		planID, err := uuid.Parse(planFlag)
		if err != nil {
			return fmt.Errorf("--plan must be a plan id: %w", err)
		}
		if bandwidth == "" {
			return fmt.Errorf("--bandwidth is required")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		st, err := store.Open(cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		engine := orchestrator.New(st, cfg, log)
		res, err := engine.RunBandwidthSync(cmd.Context(), planID, bandwidth)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogJSON {
		log = zerolog.New(os.Stdout)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return log.Level(level).With().Timestamp().Logger()
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
