package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const startupConfigSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": [
		"partition_role", "log_level", "poll_interval_ms",
		"credentials_db_path", "mapped_store_db_path",
		"snapshot_slot_name", "request_queue_name",
		"rbac_policy_path", "verification_rule_set_path",
		"mapping_rule_set_path", "acceptance_rule_set_path"
	],
	"properties": {
		"partition_role": {"enum": ["cpc", "interface", "vor"]},
		"log_level": {"enum": ["DEBUG", "INFO", "WARN", "ERROR"]},
		"poll_interval_ms": {"type": "integer", "minimum": 1},
		"credential_pool_size": {"type": "integer", "minimum": 1},
		"credentials_db_path": {"type": "string", "minLength": 1},
		"mapped_store_db_path": {"type": "string", "minLength": 1},
		"snapshot_slot_name": {"type": "string", "minLength": 1},
		"request_queue_name": {"type": "string", "minLength": 1},
		"rbac_policy_path": {"type": "string", "minLength": 1},
		"verification_rule_set_path": {"type": "string", "minLength": 1},
		"mapping_rule_set_path": {"type": "string", "minLength": 1},
		"acceptance_rule_set_path": {"type": "string", "minLength": 1}
	}
}`

var compiledSchema *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	const schemaURL = "https://vorgateway.local/schema/startup-config.json"
	if err := c.AddResource(schemaURL, strings.NewReader(startupConfigSchema)); err != nil {
		panic(fmt.Sprintf("config: embedded schema invalid: %v", err))
	}
	compiledSchema = c.MustCompile(schemaURL)
}

// validate checks cfg against the startup config JSON Schema, collecting
// every violation (not just the first) so an operator sees the whole set of
// problems in one pass.
func validate(cfg *Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal for validation: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal for validation: %w", err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			return fmt.Errorf("%s", formatViolations(verr))
		}
		return err
	}
	return nil
}

func formatViolations(verr *jsonschema.ValidationError) string {
	var sb strings.Builder
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			if sb.Len() > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(fmt.Sprintf("%s: %s", e.InstanceLocation, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return sb.String()
}
