package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // database.location без системной tzdata

	"depremkit/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Backup        BackupConfig        `yaml:"backup"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
	API           APIConfig           `yaml:"api"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Recommender   RecommenderConfig   `yaml:"recommender"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// Location задает часовой пояс, в котором вычисляется "сегодня"
	Location string `yaml:"location"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIGRPCConfig struct {
	Enabled    bool `yaml:"enabled"`
	Port       int  `yaml:"port"`
	Reflection bool `yaml:"reflection"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type NotificationsConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Sender           string        `yaml:"sender"`
	ReminderTime     string        `yaml:"reminder_time"`
	LeadDays         int           `yaml:"lead_days"`
	WarningDays      int           `yaml:"warning_days"`
	KitCheckInterval time.Duration `yaml:"kit_check_interval"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
	Debug    bool   `yaml:"debug"`
}

type RecommenderConfig struct {
	APIKey string        `yaml:"api_key"`
	Model  string        `yaml:"model"`
	Delay  time.Duration `yaml:"delay"`
}

const (
	SenderLog      = "log"
	SenderTelegram = "telegram"
)

func Load(configPath string) (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if _, err := c.Database.TimeLocation(); err != nil {
		return fmt.Errorf("database location: %w", err)
	}

	if _, _, err := c.Notifications.ReminderClock(); err != nil {
		return err
	}

	if c.Notifications.Enabled && c.Notifications.Sender == SenderTelegram {
		if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
			return errors.New("telegram bot token is required for telegram sender")
		}
		if c.Telegram.ChatID == 0 {
			return errors.New("telegram chat id is required for telegram sender")
		}
	}

	switch c.Notifications.Sender {
	case SenderLog, SenderTelegram:
	default:
		return fmt.Errorf("unknown notifications.sender %q", c.Notifications.Sender)
	}

	return ValidateAPIKeys(c.API.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

// TimeLocation resolves the configured location; empty means time.Local.
func (d DatabaseConfig) TimeLocation() (*time.Location, error) {
	if d.Location == "" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Location)
}

// ReminderClock parses ReminderTime ("HH:MM").
func (n NotificationsConfig) ReminderClock() (hour, minute int, err error) {
	if n.ReminderTime == "" {
		return models.ReminderHour, 0, nil
	}
	if _, err := fmt.Sscanf(n.ReminderTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid reminder_time %q: %w", n.ReminderTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reminder_time %q", n.ReminderTime)
	}
	return hour, minute, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "depremkit"
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 8081
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.RateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitBurst
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Notifications.Sender == "" {
		c.Notifications.Sender = SenderLog
	}
	if c.Notifications.ReminderTime == "" {
		c.Notifications.ReminderTime = fmt.Sprintf("%02d:00", models.ReminderHour)
	}
	if c.Notifications.LeadDays == 0 {
		c.Notifications.LeadDays = models.DefaultReminderLeadDays
	}
	if c.Notifications.WarningDays == 0 {
		c.Notifications.WarningDays = models.DefaultWarningDays
	}
	if c.Notifications.KitCheckInterval == 0 {
		c.Notifications.KitCheckInterval = models.DefaultKitCheckIntervalDays * 24 * time.Hour
	}

	if c.Recommender.Model == "" {
		c.Recommender.Model = "gemini-2.5-flash"
	}
}
