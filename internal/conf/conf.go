package conf

import (
	"os"
	"path/filepath"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Guard configuration
	Guard GuardConfig

	// Storage configuration
	Storage StorageConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string
	AppSecret string
}

// GuardConfig contains moderation configuration
type GuardConfig struct {
	// GroupID is the one group chat the bot moderates
	GroupID string
	// RulesPath points at the YAML rule document (admins, banned words,
	// ignored words/users, FAQ rules, welcome text)
	RulesPath string
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	DBPath string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	dbPath := os.Getenv("GUARDIAN_DB_PATH")
	if dbPath == "" {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".feishu-guardian", "guardian.db")
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:     os.Getenv("FEISHU_APP_ID"),
			AppSecret: os.Getenv("FEISHU_APP_SECRET"),
		},
		Guard: GuardConfig{
			GroupID:   os.Getenv("GUARD_GROUP_ID"),
			RulesPath: os.Getenv("RULES_CONFIG_PATH"),
		},
		Storage: StorageConfig{
			DBPath: dbPath,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	if c.Guard.GroupID == "" {
		return &ConfigError{Field: "GUARD_GROUP_ID", Message: "required"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
