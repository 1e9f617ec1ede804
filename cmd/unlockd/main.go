// Command unlockd serves the handshake issue and redeem endpoints.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/config"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/httpapi"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/logging"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/platform/ratelimiter"
	"github.com/Hussein-Mazeh/cybervision-unlock/internal/service"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		EnvVars: []string{"UNLOCKD_CONFIG"},
		Usage:   "path to a YAML config file",
	},
	&cli.StringFlag{
		Name:  "listen-addr",
		Usage: "address to listen on for API (overrides config)",
	},
	&cli.StringFlag{
		Name:  "database",
		Usage: "SQLite database path (overrides config)",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Usage: "generate a uuid and add to all log messages",
	},
}

func main() {
	app := &cli.App{
		Name:  "unlockd",
		Usage: "Serve single-use handshake tokens",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			cfg, err := config.Load(cCtx.String("config"))
			if err != nil {
				return err
			}
			if v := cCtx.String("listen-addr"); v != "" {
				cfg.ListenAddr = v
			}
			if v := cCtx.String("database"); v != "" {
				cfg.Database = v
			}
			if cCtx.Bool("log-json") {
				cfg.Log.JSON = true
			}
			if cCtx.Bool("log-debug") {
				cfg.Log.Debug = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := logging.Setup(logging.Opts{
				JSON:    cfg.Log.JSON,
				Debug:   cfg.Log.Debug,
				UID:     cCtx.Bool("log-uid"),
				Service: cfg.Log.Service,
			})

			secret, err := cfg.LoadSecret()
			if err != nil {
				logger.Error("Failed to load signing secret", "err", err)
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := service.New(ctx, service.Options{
				DatabasePath: cfg.Database,
				Secret:       secret,
				TokenTTL:     cfg.TokenTTL,
				Log:          logger,
			})
			if err != nil {
				logger.Error("Failed to open service", "err", err)
				return err
			}
			defer svc.Close()
			if err := svc.Ping(ctx); err != nil {
				logger.Error("Database not usable", "err", err)
				return err
			}

			metrics := httpapi.NewMetrics()
			handler := httpapi.NewHandler(svc, httpapi.HandlerOpts{
				UserHeader: cfg.UserHeader,
				Limiter:    ratelimiter.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute),
				Metrics:    metrics,
				Log:        logger,
			})
			server := httpapi.New(&httpapi.HTTPServerConfig{
				ListenAddr:               cfg.ListenAddr,
				Log:                      logger,
				DrainDuration:            cfg.DrainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              15 * time.Second,
				WriteTimeout:             15 * time.Second,
			}, handler, metrics)

			sweeperDone := make(chan struct{})
			go func() {
				defer close(sweeperDone)
				svc.Sweeper(cfg.SweepInterval, metrics.ObserveSweep).Run(ctx)
			}()

			server.RunInBackground()
			logger.Info("Server is running, press Ctrl+C to stop")
			<-ctx.Done()
			logger.Info("Shutdown signal received")

			server.Shutdown()
			<-sweeperDone
			logger.Info("Server shutdown complete")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
