package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
)

// runHealth checks a running instance's /healthz endpoint, mirroring the
// kernel binary's own standalone health-check subcommand.
func runHealth(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("health", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	addr := cmd.String("addr", "http://localhost:8090/healthz", "health endpoint to probe")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	resp, err := http.Get(*addr)
	if err != nil {
		fmt.Fprintf(stderr, "health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "health check failed: status %d\n", resp.StatusCode)
		return 1
	}
	fmt.Fprintln(stdout, "OK")
	return 0
}
