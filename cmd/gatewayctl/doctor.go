package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/mapping"
	"github.com/vorgateway/gateway/pkg/verification"
)

// runDoctor validates that configuration loads and every file/backend it
// names is actually reachable, without starting any long-running loop.
func runDoctor(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("doctor", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	overlay := cmd.String("config", "", "path to a JSON configuration overlay")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*overlay)
	if err != nil {
		fmt.Fprintf(stderr, "config: FAIL: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "config: OK")

	ctx := context.Background()
	ok := true

	check(stdout, stderr, &ok, "credentials db", func() error {
		store, err := credentials.NewStore(ctx, cfg.CredentialsDBPath, cfg.CredentialPoolSize)
		if err != nil {
			return err
		}
		return store.Close()
	})

	check(stdout, stderr, &ok, "rbac policy", func() error {
		_, err := authz.LoadPolicy(cfg.RBACPolicyPath)
		return err
	})

	check(stdout, stderr, &ok, "verification rule set", func() error {
		_, err := verification.LoadRuleSet(cfg.VerificationRuleSetPath)
		return err
	})

	check(stdout, stderr, &ok, "mapping rule sets", func() error {
		_, err := mapping.LoadRuleSets(cfg.MappingRuleSetPath)
		return err
	})

	check(stdout, stderr, &ok, "acceptance document", func() error {
		_, err := os.Stat(cfg.AcceptanceRuleSetPath)
		return err
	})

	if !ok {
		return 1
	}
	fmt.Fprintln(stdout, "doctor: all checks passed")
	return 0
}

func check(stdout, stderr io.Writer, ok *bool, name string, fn func() error) {
	if err := fn(); err != nil {
		fmt.Fprintf(stderr, "%s: FAIL: %v\n", name, err)
		*ok = false
		return
	}
	fmt.Fprintf(stdout, "%s: OK\n", name)
}
