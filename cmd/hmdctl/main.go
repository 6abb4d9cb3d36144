package main

import (
	"flag"
	"fmt"
	"os"

	pkgversion "github.com/questhmd/hmdctl/pkg/version"
)

// Build-time variables (set via -ldflags)
var (
	version   = ""        // Set via -ldflags "-X main.version=x.y.z"
	buildTime = "unknown" // Set via -ldflags "-X main.buildTime=..."
	gitCommit = "unknown" // Set via -ldflags "-X main.gitCommit=..."
)

func getVersion() string {
	if version != "" {
		return version
	}
	return pkgversion.String()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "demo":
		demoCommand()
	case "bench":
		benchCommand()
	case "example":
		exampleCommand()
	case "version":
		fmt.Printf("hmdctl version %s\n", getVersion())
		if buildTime != "unknown" {
			fmt.Printf("Built: %s\n", buildTime)
		}
		if gitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", gitCommit)
		}
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hmdctl - Quest HMD companion-server client demo & benchmark tool

USAGE:
    hmdctl <command> [options]

COMMANDS:
    demo      Run an interactive session against a simulated HMD
    bench     Run handshake/call performance benchmarks
    example   Show example usage with explanations
    version   Print version information
    help      Show this help message

Run 'hmdctl <command> --help' for more information on a command.

NOTE:
    This tool talks to an in-memory simulated companion server, not a real
    BLE adapter. pkg/ble.Scanner and pkg/ble.Device are the seams a real
    Bluetooth stack plugs into.

EXAMPLES:
    # Run the interactive demo against a simulated HMD
    hmdctl demo --verbose

    # Run a handshake benchmark
    hmdctl bench --handshakes 100

    # Show interactive examples
    hmdctl example`)
}

func demoCommand() {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Verbose output")
	obsAddr := fs.String("obs-addr", ":9090", "Observability server address. Empty disables")
	logLevel := fs.String("log-level", "warn", "Log level: debug, info, warn, error, silent")
	logFormat := fs.String("log-format", "text", "Log format: text or json")
	tracing := fs.String("tracing", "none", "Tracing mode: none, simple, otel (requires -tags otel)")
	claimed := fs.Bool("claimed", false, "Simulate a device that has already been claimed")

	fs.Usage = func() {
		fmt.Println(`USAGE: hmdctl demo [options]

Run an interactive session against a simulated HMD companion server.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # First-time claim flow
    hmdctl demo --verbose

    # Simulate a device that already holds a secret
    hmdctl demo --claimed --verbose`)
	}

	_ = fs.Parse(os.Args[2:])

	runDemo(*verbose, *obsAddr, *logLevel, *logFormat, *tracing, *claimed)
}

func benchCommand() {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	handshakes := fs.Int("handshakes", 100, "Number of handshakes to benchmark")
	calls := fs.Int("calls", 0, "Number of HmdStatus calls to benchmark (0 = skip)")

	fs.Usage = func() {
		fmt.Println(`USAGE: hmdctl bench [options]

Run performance benchmarks for the handshake and dispatcher calls, both
driven over an in-memory simulated HMD.

OPTIONS:`)
		fs.PrintDefaults()
		fmt.Println(`
EXAMPLES:
    # Benchmark 100 handshakes
    hmdctl bench --handshakes 100

    # Benchmark 1000 HmdStatus round-trips
    hmdctl bench --calls 1000`)
	}

	_ = fs.Parse(os.Args[2:])

	runBench(*handshakes, *calls)
}

func exampleCommand() {
	if len(os.Args) > 2 && (os.Args[2] == "--help" || os.Args[2] == "-h") {
		fmt.Println(`USAGE: hmdctl example

Display interactive examples with code snippets showing how to use the
library.`)
		return
	}

	showExamples()
}
