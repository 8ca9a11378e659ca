package models

import "time"

// Sink kinds selectable in shipper settings.
const (
	SinkRedis = "redis"
	SinkKafka = "kafka"
	SinkNone  = "none"
)

// RedisConfig holds connection settings for the Valkey/Redis stream sink.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"` // empty = derived from instance name
	MaxLen   int64  `yaml:"max_len"`
}

// KafkaConfig holds connection settings for the Kafka sink.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// ShipperConfig holds log-forwarding settings.
type ShipperConfig struct {
	Sink          string      `yaml:"sink"` // "redis" | "kafka" | "none"
	Redis         RedisConfig `yaml:"redis"`
	Kafka         KafkaConfig `yaml:"kafka"`
	BatchSize     int         `yaml:"batch_size"`
	MaxAttempts   int         `yaml:"max_attempts"`
	BaseDelayMS   int         `yaml:"base_delay_ms"`
	SweepInterval int         `yaml:"sweep_interval_seconds"`
}

// GuardConfig holds guardrail settings layered on top of the built-in rules.
type GuardConfig struct {
	DangerousPatterns []string `yaml:"dangerous_patterns,omitempty"`
	ProtectedPaths    []string `yaml:"protected_paths,omitempty"`
	AllowPatterns     []string `yaml:"allow_patterns,omitempty"`
}

// ContextConfig controls what the session-start and pre-compact hooks
// inject back into the assistant.
type ContextConfig struct {
	InjectOnSessionStart bool `yaml:"inject_on_session_start"`
	InjectOnCompact      bool `yaml:"inject_on_compact"`
	RecentEventCount     int  `yaml:"recent_event_count"`
}

// UpdatesConfig controls the daemon's background update check.
type UpdatesConfig struct {
	CheckOnStartup bool       `yaml:"check_on_startup"`
	CheckFrequency string     `yaml:"check_frequency"` // "daily" | "weekly" | "every_launch"
	LastChecked    *time.Time `yaml:"last_checked,omitempty"`
}

// Settings represents global application settings.
// This corresponds to ~/.gatehouse/settings.yaml.
type Settings struct {
	Version  int           `yaml:"version"`
	Instance string        `yaml:"instance"`
	LogRoot  string        `yaml:"log_root,omitempty"` // empty = ~/.gatehouse/logs
	Shipper  ShipperConfig `yaml:"shipper"`
	Guard    GuardConfig   `yaml:"guard"`
	Context  ContextConfig `yaml:"context"`
	Updates  UpdatesConfig `yaml:"updates"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:  1,
		Instance: "default",
		Shipper: ShipperConfig{
			Sink: SinkRedis,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				MaxLen: 100000,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "gatehouse-audit",
			},
			BatchSize:     256,
			MaxAttempts:   5,
			BaseDelayMS:   200,
			SweepInterval: 5,
		},
		Guard: GuardConfig{},
		Context: ContextConfig{
			InjectOnSessionStart: true,
			InjectOnCompact:      true,
			RecentEventCount:     20,
		},
		Updates: UpdatesConfig{
			CheckOnStartup: true,
			CheckFrequency: "daily",
		},
	}
}

// StreamName returns the namespaced Valkey stream the shipper writes to.
// Keys follow the pattern gatehouse:{instance}:audit so multiple instances
// can share one server without interference.
func (s *Settings) StreamName() string {
	if s.Shipper.Redis.Stream != "" {
		return s.Shipper.Redis.Stream
	}
	instance := s.Instance
	if instance == "" {
		instance = "default"
	}
	return "gatehouse:" + instance + ":audit"
}
