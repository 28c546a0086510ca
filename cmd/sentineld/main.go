package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/haven-social/sentinel/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "sentineld",
		Usage:   "moderation detection and enforcement daemon",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "gateway-host",
			Usage:   "hostname and port of the platform event gateway to subscribe to",
			Value:   "wss://gateway.haven.example",
			EnvVars: []string{"SENTINEL_GATEWAY_HOST"},
		},
		&cli.StringFlag{
			Name:    "platform-host",
			Usage:   "method, hostname, and port of the platform admin API",
			Value:   "https://api.haven.example",
			EnvVars: []string{"SENTINEL_PLATFORM_HOST"},
		},
		&cli.StringFlag{
			Name:    "platform-token",
			Usage:   "bearer token for the platform admin API",
			EnvVars: []string{"SENTINEL_PLATFORM_TOKEN"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
			Value:   40,
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/sentinel/sentinel.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; enables shared window counters, policy cache, and cursor state",
			EnvVars: []string{"SENTINEL_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for the admin HTTP API",
			Value:   ":3989",
			EnvVars: []string{"SENTINEL_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3988",
			EnvVars: []string{"SENTINEL_METRICS_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "slack-webhook-url",
			Usage:   "webhook URL to mirror enforcement records to an ops channel",
			EnvVars: []string{"SLACK_WEBHOOK_URL"},
		},
		&cli.IntFlag{
			Name:    "restrict-minutes",
			Usage:   "duration of temporary restrictions, in minutes",
			Value:   10,
			EnvVars: []string{"SENTINEL_RESTRICT_MINUTES"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("sentineld"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		db, err := cliutil.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(
			db,
			Config{
				GatewayHost:      cctx.String("gateway-host"),
				PlatformHost:     cctx.String("platform-host"),
				PlatformToken:    cctx.String("platform-token"),
				RedisURL:         cctx.String("redis-url"),
				SlackWebhookURL:  cctx.String("slack-webhook-url"),
				RestrictDuration: time.Duration(cctx.Int("restrict-minutes")) * time.Minute,
				Logger:           logger,
			},
		)
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(fmt.Errorf("failed to start metrics endpoint: %w", err))
			}
		}()
		go func() {
			if err := srv.RunAPI(cctx.String("bind")); err != nil {
				slog.Error("failed to start admin API", "error", err)
				panic(fmt.Errorf("failed to start admin API: %w", err))
			}
		}()
		go srv.RunPersistCursor(ctx)
		go srv.RunSweeper(ctx)

		if err := srv.RunConsumer(ctx); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}
