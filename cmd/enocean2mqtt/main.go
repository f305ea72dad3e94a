package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dduransseau/enocean2mqtt/internal/config"
	"github.com/dduransseau/enocean2mqtt/internal/controller"
	"github.com/dduransseau/enocean2mqtt/internal/eep"
	"github.com/dduransseau/enocean2mqtt/internal/gateway"
	"github.com/dduransseau/enocean2mqtt/internal/logging"
	"github.com/dduransseau/enocean2mqtt/internal/metrics"
	"github.com/dduransseau/enocean2mqtt/internal/retry"
	"github.com/dduransseau/enocean2mqtt/internal/transport/radio"
)

func main() {
	app := &cli.App{
		Name:  "enocean2mqtt",
		Usage: "Bridge an EnOcean radio gateway to MQTT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "device",
				Usage: "Override the configured transport device/address",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Override the configured log format (console, json)",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if device := c.String("device"); device != "" {
		cfg.Transport.Device = device
	}
	if level := c.String("log-level"); level != "" {
		cfg.Controller.LogLevel = level
	}
	if format := c.String("log-format"); format != "" {
		cfg.Controller.LogFormat = format
	}

	logging.SetDefault(logging.New(logging.Config{
		Level:  cfg.Controller.LogLevel,
		Format: cfg.Controller.LogFormat,
	}))
	defer logging.Sync()

	logging.Info("enocean2mqtt: starting", "transport", cfg.Transport.Type, "device", cfg.Transport.Device)

	catalogue, err := eep.LoadXML(cfg.Controller.EEPPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var transport controller.Transport
	err = retry.Do(ctx, func(ctx context.Context) error {
		t, openErr := openTransport(cfg.Transport)
		if openErr != nil {
			logging.Warn("enocean2mqtt: transport open failed, retrying", "err", openErr)
			return openErr
		}
		transport = t
		return nil
	}, retry.DefaultConfig())
	if err != nil {
		return err
	}
	defer transport.Close()

	m := metrics.New()
	if cfg.Controller.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.Controller.MetricsAddr)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				logging.Error("enocean2mqtt: metrics server failed", "err", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = metricsSrv.Stop(shutdownCtx)
		}()
	}
	ctrlCfg := controller.DefaultConfig()
	ctrlCfg.TeachIn = cfg.Controller.TeachIn
	ctrl := controller.New(transport, ctrlCfg, m)

	mqttClient := gateway.NewPahoClient(cfg.MQTT)
	gw := gateway.New(ctrl, catalogue, mqttClient, cfg, m)
	if err := gw.LoadEquipments(); err != nil {
		return err
	}

	ctrl.Start(ctx)
	defer ctrl.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logging.Info("enocean2mqtt: shutting down")
		mqttClient.Disconnect()
		<-errCh
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	return nil
}

// openTransport opens the serial or TCP link named by cfg, sharing one
// controller.Transport so the rest of the program never branches on which
// one is in use.
func openTransport(cfg config.TransportConfig) (controller.Transport, error) {
	switch cfg.Type {
	case "tcp":
		return radio.DialTCP(cfg.Device)
	case "serial", "":
		baud := cfg.Baud
		if baud == 0 {
			baud = 57600
		}
		return radio.OpenSerial(cfg.Device, baud)
	default:
		return nil, fmt.Errorf("unknown transport type %q", cfg.Type)
	}
}
