package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	AI struct {
		Provider string `yaml:"provider"` // openai | gemini
		APIKey   string `yaml:"apiKey"`
		Model    string `yaml:"model"`
	} `yaml:"ai"`

	Crawler struct {
		TimeoutSeconds  int `yaml:"timeoutSeconds"`
		MaxContentChars int `yaml:"maxContentChars"`
	} `yaml:"crawler"`

	Cache struct {
		FreshnessDays int `yaml:"freshnessDays"`
	} `yaml:"cache"`

	Batch struct {
		MaxConcurrent int `yaml:"maxConcurrent"`
	} `yaml:"batch"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8001
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.AI.Provider == "" {
		c.AI.Provider = "openai"
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		c.Crawler.TimeoutSeconds = 10
	}
	if c.Crawler.MaxContentChars <= 0 {
		c.Crawler.MaxContentChars = 10000
	}
	if c.Cache.FreshnessDays <= 0 {
		c.Cache.FreshnessDays = 7
	}
	if c.Batch.MaxConcurrent <= 0 {
		c.Batch.MaxConcurrent = 8
	}
}

// CacheWindow is the freshness window as a duration.
func (c *Config) CacheWindow() time.Duration {
	return time.Duration(c.Cache.FreshnessDays) * 24 * time.Hour
}

// CrawlTimeout as a duration.
func (c *Config) CrawlTimeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
