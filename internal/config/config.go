// Package config handles configuration loading for the news site.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all site configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Database  DatabaseConfig `yaml:"database"`
	Feed      FeedConfig     `yaml:"feed"`
	Templates string         `yaml:"templates"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig configures the backing store. Host, User, Password and
// Name are the recognized options inherited from the MySQL deployment;
// the sqlite engine only uses Path, which defaults to "<name>.db".
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
}

// FeedConfig holds the four listing limits.
type FeedConfig struct {
	NewsDefault      int `yaml:"news_default"`       // posts on the front page
	RandomDefault    int `yaml:"random_default"`     // random sample size
	UserPostsDefault int `yaml:"user_posts_default"` // posts per author page
	TagCountDefault  int `yaml:"tag_count_default"`  // popular tags on the search page
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host: "localhost",
			User: "user",
			Name: "newsfeed",
			Path: "newsfeed.db",
		},
		Feed: FeedConfig{
			NewsDefault:      10,
			RandomDefault:    5,
			UserPostsDefault: 30,
			TagCountDefault:  50,
		},
		Templates: "web/templates",
		Logging:   LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("TEMPLATE_DIR"); v != "" {
		c.Templates = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("NEWS_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Feed.NewsDefault = n
		}
	}
	if v := os.Getenv("RANDOM_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Feed.RandomDefault = n
		}
	}
}

func (c *Config) validate() error {
	if c.Feed.NewsDefault <= 0 || c.Feed.RandomDefault <= 0 ||
		c.Feed.UserPostsDefault <= 0 || c.Feed.TagCountDefault <= 0 {
		return fmt.Errorf("feed limits must be positive")
	}
	if c.Database.Path == "" {
		c.Database.Path = c.Database.Name + ".db"
	}
	return nil
}
