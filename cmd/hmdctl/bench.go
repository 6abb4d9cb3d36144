package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/connect"
	"github.com/questhmd/hmdctl/pkg/devicekey"
)

func runBench(handshakes, calls int) {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      hmdctl benchmark                                    ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	if handshakes == 0 && calls == 0 {
		fmt.Println("No benchmarks specified. Use --handshakes or --calls")
		os.Exit(1)
	}

	if handshakes > 0 {
		benchHandshakes(handshakes)
		fmt.Println()
	}

	if calls > 0 {
		benchCalls(calls)
	}
}

func benchHandshakes(count int) {
	fmt.Printf("Benchmarking Handshakes (%d iterations)\n", count)
	fmt.Println(strings.Repeat("─", 60))

	store, err := devicekey.NewStoreAt(os.TempDir() + "/hmdctl-bench-handshakes")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	durations := make([]time.Duration, count)
	errorsSeen := 0

	for i := 0; i < count; i++ {
		clientChannel, deviceChannel := ble.NewLoopbackPair(simulatedMTU)
		hmd, err := newSimulatedHMD(deviceChannel, false)
		if err != nil {
			errorsSeen++
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		go hmd.run(ctx)

		dev := &simulatedDevice{name: "Quest (simulated)", addr: fmt.Sprintf("AA:BB:CC:DD:%02X:%02X", i/256, i%256), channel: clientChannel}

		start := time.Now()
		result, err := connect.Connect(ctx, dev, store)
		durations[i] = time.Since(start)
		if err != nil {
			errorsSeen++
			cancel()
			continue
		}
		result.Close()
		cancel()
	}

	successCount := count - errorsSeen
	printHandshakeResults(count, successCount, errorsSeen, durations)
}

func printHandshakeResults(total, successful, failed int, durations []time.Duration) {
	if failed == total {
		fmt.Fprintf(os.Stderr, "All handshakes failed\n")
		os.Exit(1)
	}

	var sum, min, max time.Duration
	min = time.Hour

	for _, d := range durations {
		if d == 0 {
			continue
		}
		sum += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	avg := sum / time.Duration(successful)

	fmt.Println("\nResults:")
	fmt.Printf("  Total handshakes: %d\n", total)
	fmt.Printf("  Successful: %d\n", successful)
	fmt.Printf("  Failed: %d\n", failed)
	fmt.Println()
	fmt.Println("Handshake Performance:")
	fmt.Printf("  Average: %v\n", avg)
	fmt.Printf("  Minimum: %v\n", min)
	fmt.Printf("  Maximum: %v\n", max)
}

func benchCalls(count int) {
	fmt.Printf("Benchmarking HmdStatus calls (%d iterations)\n", count)
	fmt.Println(strings.Repeat("─", 60))

	clientChannel, deviceChannel := ble.NewLoopbackPair(simulatedMTU)
	hmd, err := newSimulatedHMD(deviceChannel, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	go hmd.run(ctx)

	dev := &simulatedDevice{name: "Quest (simulated)", addr: "AA:BB:CC:DD:EE:FF", channel: clientChannel}
	store, err := devicekey.NewStoreAt(os.TempDir() + "/hmdctl-bench-calls")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result, err := connect.Connect(ctx, dev, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer result.Close()

	start := time.Now()
	errorsSeen := 0
	for i := 0; i < count; i++ {
		if _, err := result.Dispatcher.HmdStatus(ctx); err != nil {
			errorsSeen++
		}
	}
	elapsed := time.Since(start)

	fmt.Println("\nResults:")
	fmt.Printf("  Total calls: %d\n", count)
	fmt.Printf("  Failed: %d\n", errorsSeen)
	fmt.Printf("  Total time: %v\n", elapsed)
	fmt.Printf("  Average per call: %v\n", elapsed/time.Duration(count))
	fmt.Printf("  Throughput: %.2f calls/sec\n", float64(count)/elapsed.Seconds())
}
