package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/models"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect and modify global settings",
	Long:  `Inspect and modify ~/.gatehouse/settings.yaml.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runSettingsShow,
}

var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default settings file",
	RunE:  runSettingsInit,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a settings value",
	Long: `Set a settings value by key. Supported keys:

  instance                  instance name used in stream namespacing
  log_root                  audit log root (empty = ~/.gatehouse/logs)
  shipper.sink              redis | kafka | none
  shipper.redis.addr        Valkey/Redis address
  shipper.redis.stream      stream key override
  shipper.kafka.brokers     comma-separated broker list
  shipper.kafka.topic       Kafka topic
  shipper.batch_size        lines per ship batch
  shipper.max_attempts      retry attempts per batch`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsInitCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	logRoot, err := config.ResolveLogRoot(settings)
	if err != nil {
		return err
	}

	fmt.Println(styleBrand.Render("Gatehouse settings"))
	fmt.Printf("  %s %s\n", styleLabel.Render("Instance:"), styleValue.Render(settings.Instance))
	fmt.Printf("  %s %s\n", styleLabel.Render("Log root:"), styleValue.Render(logRoot))

	fmt.Println("\nShipper:")
	fmt.Printf("  %s %s\n", styleLabel.Render("Sink:"), styleValue.Render(settings.Shipper.Sink))
	switch settings.Shipper.Sink {
	case models.SinkRedis:
		fmt.Printf("  %s %s\n", styleLabel.Render("Address:"), styleValue.Render(settings.Shipper.Redis.Addr))
		fmt.Printf("  %s %s\n", styleLabel.Render("Stream:"), styleValue.Render(settings.StreamName()))
	case models.SinkKafka:
		fmt.Printf("  %s %s\n", styleLabel.Render("Brokers:"), styleValue.Render(strings.Join(settings.Shipper.Kafka.Brokers, ", ")))
		fmt.Printf("  %s %s\n", styleLabel.Render("Topic:"), styleValue.Render(settings.Shipper.Kafka.Topic))
	}
	fmt.Printf("  %s %d\n", styleLabel.Render("Batch size:"), settings.Shipper.BatchSize)
	fmt.Printf("  %s %d\n", styleLabel.Render("Max attempts:"), settings.Shipper.MaxAttempts)

	fmt.Println("\nGuard:")
	fmt.Printf("  %s %d\n", styleLabel.Render("Extra dangerous patterns:"), len(settings.Guard.DangerousPatterns))
	fmt.Printf("  %s %d\n", styleLabel.Render("Extra protected paths:"), len(settings.Guard.ProtectedPaths))
	fmt.Printf("  %s %d\n", styleLabel.Render("Allow patterns:"), len(settings.Guard.AllowPatterns))
	return nil
}

func runSettingsInit(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalSettingsFile()
	if err != nil {
		return err
	}
	if config.FileExists(path) {
		fmt.Printf("Settings file already exists at %s.\n", path)
		return nil
	}
	if err := config.SaveSettings(models.NewSettings()); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	fmt.Printf("%s Wrote default settings to %s.\n", styleSuccess.Render("✓"), path)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	switch key {
	case "instance":
		settings.Instance = value
	case "log_root":
		settings.LogRoot = value
	case "shipper.sink":
		if value != models.SinkRedis && value != models.SinkKafka && value != models.SinkNone {
			return fmt.Errorf("invalid sink %q (expected redis, kafka, or none)", value)
		}
		settings.Shipper.Sink = value
	case "shipper.redis.addr":
		settings.Shipper.Redis.Addr = value
	case "shipper.redis.stream":
		settings.Shipper.Redis.Stream = value
	case "shipper.kafka.brokers":
		settings.Shipper.Kafka.Brokers = strings.Split(value, ",")
	case "shipper.kafka.topic":
		settings.Shipper.Kafka.Topic = value
	case "shipper.batch_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid batch size %q", value)
		}
		settings.Shipper.BatchSize = n
	case "shipper.max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max attempts %q", value)
		}
		settings.Shipper.MaxAttempts = n
	default:
		return fmt.Errorf("unknown settings key %q", key)
	}

	if err := config.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	fmt.Printf("%s %s = %s\n", styleSuccess.Render("✓"), key, value)
	fmt.Println(styleHint.Render("Restart the daemon for shipper changes to take effect."))
	return nil
}
