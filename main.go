package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"regadera/adapters"
	"regadera/application"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var Flags = []cli.Flag{
	FlagLogLevel,
	FlagLogWriter,
	FlagTelemetryURL,
	FlagActivateURL,
	FlagDeactivateURL,
	FlagPollIntervalMs,
	FlagRequestTimeout,
	FlagAssumeOnline,
	FlagInteractive,
	FlagMetricsAddr,
	FlagMQTTUrl,
	FlagMQTTClientID,
	FlagMQTTUsername,
	FlagMQTTPassword,
	FlagMQTTTopic,
}

func main() {
	var logger zerolog.Logger

	// flags read their EnvVars at parse time, so .env has to be loaded first
	envErr := godotenv.Load()

	app := cli.App{
		Name:    "regadera",
		Usage:   "soil humidity monitor and pump switch for a thingspeak channel",
		Version: "v0.1.0",
		Flags:   Flags,
		Before: func(ctx *cli.Context) error {
			var logWriter io.Writer
			switch ctx.String(FlagLogWriter.Name) {
			case "console":
				logWriter = zerolog.ConsoleWriter{
					Out:        os.Stderr,
					TimeFormat: time.RFC3339Nano,
				}
			case "json":
				logWriter = os.Stderr
			default:
				return fmt.Errorf("invalid log writer: %s", ctx.String(FlagLogWriter.Name))
			}

			logger = zerolog.New(logWriter).With().Timestamp().
				Str("service", "regadera").
				Str("module", "main").
				Logger()

			level, err := zerolog.ParseLevel(ctx.String(FlagLogLevel.Name))
			if err != nil {
				return err
			}

			zerolog.SetGlobalLevel(level)

			if envErr != nil && !os.IsNotExist(envErr) {
				logger.Warn().Err(envErr).Msg("could not load .env file")
			}

			return nil
		},
		Action: func(ctx *cli.Context) error {
			logger.Info().Msg("service starting...")

			appCtx, cancel := context.WithCancel(logger.WithContext(context.Background()))
			defer cancel()
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

				<-c

				logger.Warn().Msg("interrupt signal received")
				cancel()
			}()

			httpClient := adapters.NewHTTPClient(ctx.Duration(FlagRequestTimeout.Name))
			httpLog := logger.With().Str("module", "http-client").Logger()

			telemetryClient, err := adapters.NewThingSpeakClient(adapters.ThingSpeakClientParams{
				FeedURL:    ctx.String(FlagTelemetryURL.Name),
				HTTPClient: httpClient,
				Log:        httpLog,
			})
			if err != nil {
				return err
			}

			pumpClient := adapters.NewHTTPPumpClient(adapters.HTTPPumpClientParams{
				HTTPClient: httpClient,
				Log:        httpLog,
			})

			var connectivity application.ConnectivityChecker
			if ctx.Bool(FlagAssumeOnline.Name) {
				connectivity = adapters.StaticConnectivity(true)
			} else {
				connectivity = adapters.NewInterfaceConnectivity(adapters.InterfaceConnectivityParams{
					Log: logger.With().Str("module", "connectivity").Logger(),
				})
			}

			var metrics application.Metrics = application.NopMetrics{}
			var promMetrics *adapters.PrometheusMetrics
			if ctx.String(FlagMetricsAddr.Name) != "" {
				promMetrics = adapters.NewPrometheusMetrics()
				metrics = promMetrics
			}

			var mqttClient application.MQTTClient
			if url := ctx.String(FlagMQTTUrl.Name); url != "" {
				mqttClient = adapters.NewMQTTClient(adapters.MQTTClientParams{
					ClientID: ctx.String(FlagMQTTClientID.Name),
					Username: ctx.String(FlagMQTTUsername.Name),
					Password: ctx.String(FlagMQTTPassword.Name),
					MQTTUrl:  url,
					Log:      logger.With().Str("module", "mqtt-client").Logger(),
				})
			}

			var commandSources []application.CommandSource
			if ctx.Bool(FlagInteractive.Name) {
				console, err := adapters.NewConsoleCommands(adapters.ConsoleCommandsParams{
					Input: os.Stdin,
					Log:   logger.With().Str("module", "console").Logger(),
				})
				if err != nil {
					return err
				}
				commandSources = append(commandSources, console)
			}

			service, err := application.NewPumpControlService(application.PumpControlServiceParams{
				TelemetryClient:  telemetryClient,
				PumpClient:       pumpClient,
				Connectivity:     connectivity,
				Metrics:          metrics,
				MQTTClient:       mqttClient,
				MQTTTopic:        ctx.String(FlagMQTTTopic.Name),
				CommandSources:   commandSources,
				DisplayObservers: []application.DisplayObserver{adapters.NewLogDisplay(logger.With().Str("module", "display").Logger())},
				ActivateURL:      ctx.String(FlagActivateURL.Name),
				DeactivateURL:    ctx.String(FlagDeactivateURL.Name),
				PollInterval:     time.Duration(ctx.Int(FlagPollIntervalMs.Name)) * time.Millisecond,
				Log:              logger,
			})
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(appCtx)

			if promMetrics != nil {
				g.Go(func() error {
					return promMetrics.Serve(gctx, ctx.String(FlagMetricsAddr.Name), logger.With().Str("module", "metrics").Logger())
				})
			}

			logger.Info().Msg("service started")
			g.Go(func() error {
				return service.Run(gctx)
			})

			if err := g.Wait(); err != nil {
				return err
			}

			logger.Info().Msg("service terminating...")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Err(err).Msg("service terminated")
		os.Exit(1)
	}
}
