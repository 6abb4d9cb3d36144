package main

import "fmt"

// showExamples prints a gallery of annotated code snippets demonstrating
// the library's main entry points. The snippets are illustrative; they are
// not compiled or executed by this command.
func showExamples() {
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║      hmdctl usage examples                               ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	printExample("1. Discover and connect to a Quest HMD",
		`scanner := ble.NewAdapterScanner() // real adapter, not provided here
store, err := devicekey.NewStore()
if err != nil {
    log.Fatal(err)
}

ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
defer cancel()

result, err := connect.DiscoverAndConnect(ctx, scanner, store)
if err != nil {
    log.Fatal(err)
}
defer result.Close()

fmt.Println("connected, session state:", result.Session.State())`)

	printExample("2. Connect to an already-discovered device",
		`dev, err := connect.Discover(ctx, scanner)
if err != nil {
    log.Fatal(err)
}

result, err := connect.Connect(ctx, dev, store)
if err != nil {
    log.Fatal(err)
}
defer result.Close()`)

	printExample("3. Issue calls through the dispatcher",
		`status, err := result.Dispatcher.HmdStatus(ctx)
if err != nil {
    log.Fatal(err)
}
fmt.Println("status:", status.Raw)

if err := result.Dispatcher.DevModeSet(ctx, true); err != nil {
    log.Fatal(err)
}

enabled, err := result.Dispatcher.DevModeStatus(ctx)
if err != nil {
    log.Fatal(err)
}
fmt.Println("dev mode enabled:", enabled)`)

	printExample("4. Observe session lifecycle events",
		`collector := metrics.NewCollector(metrics.Labels{"service": "hmdctl"})
observer := metrics.NewSessionObserver(metrics.SessionObserverConfig{
    Collector: collector,
})
result.Session.SetObserver(observer)

snap := collector.Snapshot()
fmt.Println("bytes sent:", snap.BytesSent)`)

	printExample("5. Run an observability HTTP server",
		`server := metrics.NewServer(metrics.ServerConfig{
    Collector:        collector,
    Namespace:        "hmdctl",
    EnablePrometheus: true,
    EnableHealth:     true,
})
go server.ListenAndServe(":9090")
// curl http://localhost:9090/metrics
// curl http://localhost:9090/health`)

	printExample("6. Handle the claim-vs-authenticate branch manually",
		`resp, err := dispatcher.Hello(ctx)
if err != nil {
    log.Fatal(err)
}

if resp.SignedData.RequiresAuthentication() {
    if err := dispatcher.Authenticate(ctx, resp.SignedData.AuthenticationChallenge); err != nil {
        log.Fatal(err)
    }
} else {
    secret, err := devicekey.GenerateSecret()
    if err != nil {
        log.Fatal(err)
    }
    if err := dispatcher.OculusSetUserSecret(ctx, secret); err != nil {
        log.Fatal(err)
    }
    if err := store.Save(dev.Address(), secret); err != nil {
        log.Fatal(err)
    }
}`)

	fmt.Println("Run 'hmdctl demo --verbose' to see this flow executed against a simulated HMD.")
}

func printExample(title, code string) {
	fmt.Println(title)
	fmt.Println("────────────────────────────────────────────────────────────")
	fmt.Println(code)
	fmt.Println()
}
