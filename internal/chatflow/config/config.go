package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the resolved tool configuration.
type Config struct {
	BaseURL     string  `toml:"base_url" mapstructure:"base_url"`
	Token       string  `toml:"token" mapstructure:"token"`
	Model       string  `toml:"model" mapstructure:"model"`
	Temperature float64 `toml:"temperature" mapstructure:"temperature"`
	ImageModel  string  `toml:"image_model" mapstructure:"image_model"`
	ImageSize   string  `toml:"image_size" mapstructure:"image_size"`
	// Storage selects the persistence backend: "file" or "sqlite".
	Storage   string `toml:"storage" mapstructure:"storage"`
	StateDir  string `toml:"state_dir" mapstructure:"state_dir"`
	PromptDir string `toml:"prompt_dir" mapstructure:"prompt_dir"`
}

// NewDefaultConfig returns a Config with default values rooted at the given
// config directory.
func NewDefaultConfig(configDir string) *Config {
	return &Config{
		BaseURL:     "https://api.openai.com/v1",
		Token:       "$OPENAI_API_KEY",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		ImageModel:  "dall-e-3",
		ImageSize:   "1024x1024",
		Storage:     "file",
		StateDir:    filepath.Join(configDir, "state"),
		PromptDir:   filepath.Join(configDir, "prompts"),
	}
}

// LoadConfig loads configuration from viper.
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	for _, dir := range []*string{&config.StateDir, &config.PromptDir} {
		resolved, err := ResolvePath(*dir)
		if err != nil {
			return nil, fmt.Errorf("error resolving path '%s': %v", *dir, err)
		}
		*dir = resolved
	}
	return config, nil
}

// ResolvePath expands env vars and a leading ~ and makes the path absolute.
func ResolvePath(path string) (string, error) {
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %v", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}
	return path, nil
}
