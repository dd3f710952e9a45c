//go:build property
// +build property

package credentials_test

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/vorgateway/gateway/pkg/credentials"
)

func buildPassword(upperCount, lowerCount, digitCount, paddingCount int) string {
	return strings.Repeat("A", upperCount) + strings.Repeat("a", lowerCount) +
		strings.Repeat("1", digitCount) + strings.Repeat("x", paddingCount)
}

func meetsPolicy(password string) bool {
	if len(password) < 21 {
		return false
	}
	return strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
		strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") &&
		strings.ContainsAny(password, "0123456789")
}

// TestPasswordPolicy_CreateSucceedsIffPolicyMet is property 1: create(u, p)
// succeeds iff len(p) >= 21 and p has an upper, lower, and digit character
// and u does not already exist.
func TestPasswordPolicy_CreateSucceedsIffPolicyMet(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("create succeeds iff password meets policy", prop.ForAll(
		func(username string, upperCount, lowerCount, digitCount, paddingCount int) bool {
			if username == "" {
				return true // empty username is rejected unconditionally; not the policy under test
			}
			password := buildPassword(upperCount%12, lowerCount%12, digitCount%12, paddingCount%12)

			ctx := context.Background()
			store, err := credentials.NewStore(ctx, ":memory:", 1)
			if err != nil {
				return false
			}
			defer store.Close()

			_, createErr := store.Create(ctx, "id-1", username, password)
			return (createErr == nil) == meetsPolicy(password)
		},
		gen.AlphaString(),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

// TestCredentialRoundtrip is property 2: after create(u, p), verify(u, p)
// is true, and verify(u, q) is false for any q != p.
func TestCredentialRoundtrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	const strongPassword = "Correct1Horse2Battery3Staple99"

	properties.Property("verify agrees with the password used at create time", prop.ForAll(
		func(username, suffix string) bool {
			wrongPassword := strongPassword + suffix + "!"
			if username == "" {
				return true
			}
			ctx := context.Background()
			store, err := credentials.NewStore(ctx, ":memory:", 1)
			if err != nil {
				return false
			}
			defer store.Close()

			if _, err := store.Create(ctx, "id-1", username, strongPassword); err != nil {
				return false
			}

			ok, err := store.Verify(ctx, username, strongPassword)
			if err != nil || !ok {
				return false
			}

			ok, err = store.Verify(ctx, username, wrongPassword)
			if err != nil {
				return false
			}
			return !ok
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
