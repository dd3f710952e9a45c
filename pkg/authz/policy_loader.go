package authz

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPolicy reads path as a JSON-encoded Policy document.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("authz: read %s: %w", path, err)
	}
	var policy Policy
	if err := json.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("authz: parse %s: %w", path, err)
	}
	return policy, nil
}
