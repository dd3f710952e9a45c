// Package config loads and validates process-wide startup configuration for
// every gateway partition (CPC field acquisition, Interface, Intermediate
// VoR): defaults overlaid by an optional JSON file, with environment
// variables taking precedence over both, validated against a JSON Schema
// before any constructor sees it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// PartitionRole names which of the three gateway partitions a process runs
// as.
type PartitionRole string

const (
	RolePartitionCPC       PartitionRole = "cpc"
	RolePartitionInterface PartitionRole = "interface"
	RolePartitionVoR       PartitionRole = "vor"
)

// Config is the fully-resolved, validated startup configuration passed
// explicitly to every constructor in the gateway — there are no
// process-wide configuration singletons.
type Config struct {
	PartitionRole PartitionRole `json:"partition_role"`
	LogLevel      string        `json:"log_level"`
	PollInterval  time.Duration `json:"-"`
	PollIntervalMS int64        `json:"poll_interval_ms"`

	CredentialsDBPath  string `json:"credentials_db_path"`
	MappedStoreDBPath  string `json:"mapped_store_db_path"`
	CredentialPoolSize int    `json:"credential_pool_size"`

	RedisAddr        string `json:"redis_addr,omitempty"`
	SnapshotSlotName string `json:"snapshot_slot_name"`
	RequestQueueName string `json:"request_queue_name"`

	RBACPolicyPath          string `json:"rbac_policy_path"`
	VerificationRuleSetPath string `json:"verification_rule_set_path"`
	MappingRuleSetPath      string `json:"mapping_rule_set_path"`
	AcceptanceRuleSetPath   string `json:"acceptance_rule_set_path"`

	ControlPlaneBridgeURL string `json:"control_plane_bridge_url,omitempty"`
	AdminAPIAddr          string `json:"admin_api_addr,omitempty"`
	SubmissionAPIAddr     string `json:"submission_api_addr,omitempty"`

	// Feedback archive legs (pkg/feedback.ArchiveSink). Each leg is only
	// wired up when its bucket is set — a deployment opts in per leg
	// rather than either entrypoint requiring cloud credentials to start.
	ArchiveS3Bucket   string `json:"archive_s3_bucket,omitempty"`
	ArchiveS3Region   string `json:"archive_s3_region,omitempty"`
	ArchiveS3Endpoint string `json:"archive_s3_endpoint,omitempty"`
	ArchiveS3Prefix   string `json:"archive_s3_prefix,omitempty"`
	ArchiveGCSBucket  string `json:"archive_gcs_bucket,omitempty"`
	ArchiveGCSPrefix  string `json:"archive_gcs_prefix,omitempty"`

	// AdminAPIJWTSecret is sourced from the environment only; it never
	// appears in the JSON overlay file or the schema-validated document.
	AdminAPIJWTSecret string `json:"-"`
}

func defaults() Config {
	return Config{
		PartitionRole:      RolePartitionVoR,
		LogLevel:           "INFO",
		PollIntervalMS:     500,
		CredentialsDBPath:  "credentials.db",
		MappedStoreDBPath:  "mapped_requests.db",
		CredentialPoolSize: 4,
		SnapshotSlotName:   "vorgw:snapshot",
		RequestQueueName:   "vorgw:requests",
		SubmissionAPIAddr:  ":8091",
		RBACPolicyPath:     "config/rbac_policy.json",
		VerificationRuleSetPath: "config/verification_rules.xml",
		MappingRuleSetPath:      "config/mapping_rules.xml",
		AcceptanceRuleSetPath:   "config/acceptance_rules.xml",
	}
}

// Load resolves configuration from defaults, an optional JSON overlay file
// at overlayPath (ignored if empty or absent), and environment variable
// overrides (highest precedence), then validates the result against the
// startup config JSON Schema.
func Load(overlayPath string) (*Config, error) {
	cfg := defaults()

	if overlayPath != "" {
		data, err := os.ReadFile(overlayPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read overlay %s: %w", overlayPath, err)
		}
		if err == nil {
			if jsonErr := json.Unmarshal(data, &cfg); jsonErr != nil {
				return nil, fmt.Errorf("config: parse overlay %s: %w", overlayPath, jsonErr)
			}
		}
	}

	applyEnvOverrides(&cfg)
	cfg.PollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", contracts.ErrConfigInvalid, err.Error())
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VORGW_PARTITION_ROLE"); v != "" {
		cfg.PartitionRole = PartitionRole(v)
	}
	if v := os.Getenv("VORGW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("VORGW_POLL_INTERVAL_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.PollIntervalMS = n
		}
	}
	if v := os.Getenv("VORGW_CREDENTIALS_DB_PATH"); v != "" {
		cfg.CredentialsDBPath = v
	}
	if v := os.Getenv("VORGW_MAPPED_STORE_DB_PATH"); v != "" {
		cfg.MappedStoreDBPath = v
	}
	if v := os.Getenv("VORGW_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("VORGW_SNAPSHOT_SLOT_NAME"); v != "" {
		cfg.SnapshotSlotName = v
	}
	if v := os.Getenv("VORGW_REQUEST_QUEUE_NAME"); v != "" {
		cfg.RequestQueueName = v
	}
	if v := os.Getenv("VORGW_RBAC_POLICY_PATH"); v != "" {
		cfg.RBACPolicyPath = v
	}
	if v := os.Getenv("VORGW_VERIFICATION_RULE_SET_PATH"); v != "" {
		cfg.VerificationRuleSetPath = v
	}
	if v := os.Getenv("VORGW_MAPPING_RULE_SET_PATH"); v != "" {
		cfg.MappingRuleSetPath = v
	}
	if v := os.Getenv("VORGW_ACCEPTANCE_RULE_SET_PATH"); v != "" {
		cfg.AcceptanceRuleSetPath = v
	}
	if v := os.Getenv("VORGW_CONTROL_PLANE_BRIDGE_URL"); v != "" {
		cfg.ControlPlaneBridgeURL = v
	}
	if v := os.Getenv("VORGW_ADMIN_API_ADDR"); v != "" {
		cfg.AdminAPIAddr = v
	}
	if v := os.Getenv("VORGW_SUBMISSION_API_ADDR"); v != "" {
		cfg.SubmissionAPIAddr = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_S3_BUCKET"); v != "" {
		cfg.ArchiveS3Bucket = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_S3_REGION"); v != "" {
		cfg.ArchiveS3Region = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_S3_ENDPOINT"); v != "" {
		cfg.ArchiveS3Endpoint = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_S3_PREFIX"); v != "" {
		cfg.ArchiveS3Prefix = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_GCS_BUCKET"); v != "" {
		cfg.ArchiveGCSBucket = v
	}
	if v := os.Getenv("VORGW_ARCHIVE_GCS_PREFIX"); v != "" {
		cfg.ArchiveGCSPrefix = v
	}
	cfg.AdminAPIJWTSecret = os.Getenv("VORGW_ADMIN_API_JWT_SECRET")
}
