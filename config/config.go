package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shelfscan/backend/internal/domain"
	"github.com/shelfscan/backend/internal/infrastructure/camera"
	"github.com/shelfscan/backend/internal/infrastructure/decoder"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "SHELFSCAN"

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Books   BooksConfig   `mapstructure:"books"`
	Camera  CameraConfig  `mapstructure:"camera"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Debug   bool          `mapstructure:"debug"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// BooksConfig holds Google Books API configuration
type BooksConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// DeviceConfig describes one frame directory exposed as a camera
type DeviceConfig struct {
	ID    string `mapstructure:"id"`
	Label string `mapstructure:"label"`
	Path  string `mapstructure:"path"`
}

// CameraConfig holds frame source configuration
type CameraConfig struct {
	Devices       []DeviceConfig `mapstructure:"devices"`
	LabelKeywords []string       `mapstructure:"label_keywords"`
	Mode          string         `mapstructure:"mode"` // "replay" or "watch"
	FrameInterval time.Duration  `mapstructure:"frame_interval"`
	Loop          bool           `mapstructure:"loop"`
}

// DecoderConfig holds barcode decoder configuration
type DecoderConfig struct {
	Formats   []string `mapstructure:"formats"`
	TryHarder bool     `mapstructure:"try_harder"`
}

// Load loads configuration from .env files, environment variables and the
// default config file locations.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an extra directory searched for config.yaml first
func LoadFrom(dir string) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelfscan/")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*", "http://127.0.0.1:*"})

	v.SetDefault("books.base_url", "https://www.googleapis.com/books/v1")
	v.SetDefault("books.api_key", "")
	v.SetDefault("books.user_agent", "ShelfScan/1.0")
	v.SetDefault("books.timeout", "15s")
	v.SetDefault("books.requests_per_minute", 60)

	v.SetDefault("camera.devices", []map[string]interface{}{
		{"id": "camera0", "label": "Back camera", "path": "./frames"},
	})
	v.SetDefault("camera.label_keywords", camera.DefaultLabelKeywords)
	v.SetDefault("camera.mode", string(camera.ModeReplay))
	v.SetDefault("camera.frame_interval", "200ms")
	v.SetDefault("camera.loop", false)

	v.SetDefault("decoder.formats", []string{"EAN_13", "EAN_8"})
	v.SetDefault("decoder.try_harder", true)

	v.SetDefault("debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Books.BaseURL == "" {
		return fmt.Errorf("books base URL is required (set %s_BOOKS_BASE_URL)", EnvPrefix)
	}

	if config.Books.RequestsPerMinute < 0 {
		return fmt.Errorf("books requests per minute must not be negative, got: %d", config.Books.RequestsPerMinute)
	}

	mode := camera.Mode(config.Camera.Mode)
	if mode != camera.ModeReplay && mode != camera.ModeWatch {
		return fmt.Errorf("camera mode must be 'replay' or 'watch', got: %s", config.Camera.Mode)
	}

	if config.Camera.FrameInterval <= 0 {
		return fmt.Errorf("camera frame interval must be positive, got: %s", config.Camera.FrameInterval)
	}

	if len(config.Camera.Devices) == 0 {
		return fmt.Errorf("at least one camera device is required")
	}

	seen := make(map[string]bool, len(config.Camera.Devices))
	for i, d := range config.Camera.Devices {
		if d.ID == "" || d.Path == "" {
			return fmt.Errorf("camera device %d needs both id and path", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate camera device id: %s", d.ID)
		}
		seen[d.ID] = true
	}

	if _, err := decoder.ParseFormats(config.Decoder.Formats); err != nil {
		return err
	}

	return nil
}

// DomainDevices converts the configured devices for the camera layer
func (c CameraConfig) DomainDevices() []domain.Device {
	devices := make([]domain.Device, 0, len(c.Devices))
	for _, d := range c.Devices {
		label := d.Label
		if label == "" {
			label = d.ID
		}
		devices = append(devices, domain.Device{ID: d.ID, Label: label, Path: d.Path})
	}
	return devices
}

// Options converts the frame source settings for the camera layer
func (c CameraConfig) Options() camera.Options {
	return camera.Options{
		Mode:          camera.Mode(c.Mode),
		FrameInterval: c.FrameInterval,
		Loop:          c.Loop,
	}
}
