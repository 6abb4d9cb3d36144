package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/connect"
	"github.com/questhmd/hmdctl/pkg/devicekey"
	"github.com/questhmd/hmdctl/pkg/metrics"
)

func runDemo(verbose bool, obsAddr, logLevel, logFormat, tracing string, claimed bool) {
	collector, observer, logger, err := setupObservability(logLevel, logFormat, tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      hmdctl companion-server demo                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if verbose {
		fmt.Println("Handshake:")
		fmt.Println("  1. Hello -> ephemeral X25519 public key, app id/version")
		fmt.Println("  2. HelloResponse <- HMD public key, optional auth challenge")
		fmt.Println("  3. claim (OculusSetUserSecret) or authenticate (HMAC-SHA-256)")
		fmt.Println()
	}

	if obsAddr != "" {
		server := metrics.NewServer(metrics.ServerConfig{
			Collector:        collector,
			Version:          version,
			Namespace:        "hmdctl",
			EnablePrometheus: true,
			EnableHealth:     true,
		})
		go func() {
			if err := server.ListenAndServe(obsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("observability server error", metrics.Fields{"error": err.Error()})
			}
		}()
		fmt.Printf("Observability server on %s (metrics: /metrics, health: /health)\n\n", obsAddr)
	}

	clientChannel, deviceChannel := ble.NewLoopbackPair(simulatedMTU)
	hmd, err := newSimulatedHMD(deviceChannel, claimed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	go hmd.run(ctx)

	dev := &simulatedDevice{name: "Quest (simulated)", addr: "AA:BB:CC:DD:EE:01", channel: clientChannel}
	store, err := devicekey.NewStoreAt(os.TempDir() + "/hmdctl-demo")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if claimed {
		if err := store.Save(dev.Address(), hmd.claimedSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Connecting to %s (%s)...\n", dev.Name(), dev.Address())
	start := time.Now()

	result, err := connect.Connect(ctx, dev, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: handshake failed: %v\n", err)
		os.Exit(1)
	}
	defer result.Close()

	if observer != nil {
		result.Session.SetObserver(observer)
	}

	fmt.Printf("Connected in %v (state: %s)\n\n", time.Since(start), result.Session.State())

	status, err := result.Dispatcher.HmdStatus(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "HmdStatus error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("HmdStatus: %q\n", status.Raw)

	if err := result.Dispatcher.DevModeSet(ctx, true); err != nil {
		fmt.Fprintf(os.Stderr, "DevModeSet error: %v\n", err)
		os.Exit(1)
	}
	enabled, err := result.Dispatcher.DevModeStatus(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DevModeStatus error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Developer mode enabled: %v\n", enabled)

	if verbose {
		stats := result.Session.Stats()
		fmt.Println()
		fmt.Println("Session Statistics:")
		fmt.Printf("  Bytes sent: %d\n", stats.BytesSent)
		fmt.Printf("  Bytes received: %d\n", stats.BytesReceived)
		fmt.Printf("  Packets sent: %d\n", stats.PacketsSent)
		fmt.Printf("  Packets received: %d\n", stats.PacketsRecv)
	}
}

func setupObservability(logLevel, logFormat, tracing string) (*metrics.Collector, *metrics.SessionObserver, *metrics.Logger, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	format, err := parseLogFormat(logFormat)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := metrics.NewLogger(
		metrics.WithOutput(os.Stderr),
		metrics.WithLevel(level),
		metrics.WithFormat(format),
		metrics.WithFields(metrics.Fields{"app": "hmdctl"}),
	)
	metrics.SetLogger(logger)

	switch strings.ToLower(tracing) {
	case "none":
		metrics.SetTracer(metrics.NoOpTracer{})
	case "simple":
		metrics.SetTracer(metrics.NewSimpleTracer())
	case "otel":
		if !metrics.OTelEnabled() {
			return nil, nil, nil, fmt.Errorf("otel tracing not enabled (build with -tags otel)")
		}
		metrics.SetTracer(metrics.NewOTelTracer("hmdctl"))
	default:
		return nil, nil, nil, fmt.Errorf("invalid tracing mode: %s (use none, simple, or otel)", tracing)
	}

	collector := metrics.NewCollector(metrics.Labels{"service": "hmdctl"})
	metrics.SetGlobal(collector)

	observer := metrics.NewSessionObserver(metrics.SessionObserverConfig{
		Collector: collector,
		Logger:    logger,
	})

	return collector, observer, logger, nil
}

func parseLogLevel(level string) (metrics.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return metrics.LevelDebug, nil
	case "info":
		return metrics.LevelInfo, nil
	case "warn", "warning":
		return metrics.LevelWarn, nil
	case "error":
		return metrics.LevelError, nil
	case "silent", "off", "none":
		return metrics.LevelSilent, nil
	default:
		return metrics.LevelInfo, fmt.Errorf("invalid log level: %s (use debug, info, warn, error, silent)", level)
	}
}

func parseLogFormat(format string) (metrics.Format, error) {
	switch strings.ToLower(format) {
	case "text":
		return metrics.FormatText, nil
	case "json":
		return metrics.FormatJSON, nil
	default:
		return metrics.FormatText, fmt.Errorf("invalid log format: %s (use text or json)", format)
	}
}
