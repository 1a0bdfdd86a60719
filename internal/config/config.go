package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
	} `yaml:"server"`

	Tools ToolsConfig `yaml:"tools"`

	AI struct {
		Provider string        `yaml:"provider"` // gemini | openai
		Model    string        `yaml:"model"`    // "" picks the provider default
		BaseURL  string        `yaml:"baseURL"`
		Timeout  time.Duration `yaml:"timeout"`
		APIKey   string        `yaml:"-"`
	} `yaml:"ai"`

	Artifacts struct {
		Driver string `yaml:"driver"` // local | minio
		Dir    string `yaml:"dir"`
		Minio  struct {
			Endpoint   string `yaml:"endpoint"`
			BucketName string `yaml:"bucketName"`
			Region     string `yaml:"region"`
			UseSSL     bool   `yaml:"useSSL"`
			AccessKey  string `yaml:"-"`
			SecretKey  string `yaml:"-"`
		} `yaml:"minio"`
	} `yaml:"artifacts"`

	Database struct {
		Driver   string `yaml:"driver"` // "" | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		Password string `yaml:"-"`
	} `yaml:"database"`
}

// ToolsConfig holds executable locations and execution limits. Argument
// shapes are fixed in code.
type ToolsConfig struct {
	Git     string `yaml:"git"`
	Pylint  string `yaml:"pylint"`
	Bandit  string `yaml:"bandit"`
	Semgrep string `yaml:"semgrep"`
	NPM     string `yaml:"npm"`
	ESLint  string `yaml:"eslint"`
	TSC     string `yaml:"tsc"`

	Timeout      time.Duration `yaml:"timeout"`
	CloneTimeout time.Duration `yaml:"cloneTimeout"`
	Concurrency  int           `yaml:"concurrency"`
	WorkspaceDir string        `yaml:"workspaceDir"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var c Config
	c.Server.Port = 8000
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Minute
	c.Server.CORSOrigins = []string{"*"}

	c.Tools = ToolsConfig{
		Git:          "git",
		Pylint:       "pylint",
		Bandit:       "bandit",
		Semgrep:      "semgrep",
		NPM:          "npm",
		ESLint:       "eslint",
		TSC:          "tsc",
		Timeout:      5 * time.Minute,
		CloneTimeout: 10 * time.Minute,
		Concurrency:  4,
	}

	c.AI.Provider = "gemini"
	c.AI.Timeout = 2 * time.Minute

	c.Artifacts.Driver = "local"
	c.Artifacts.Dir = "artifacts"
	c.Artifacts.Minio.BucketName = "repo-audit"
	c.Artifacts.Minio.Region = "us-east-1"

	c.Database.Port = 3306
	c.Database.SSLMode = "disable"
	return &c
}

// Load baca file config.yaml on top of the defaults, then applies secrets
// and overrides from the environment (a .env file is honored). A missing
// file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(strings.TrimPrefix(v, ":")); err == nil {
			c.Server.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("AI_PROVIDER")); v != "" {
		c.AI.Provider = v
	}
	switch strings.ToLower(c.AI.Provider) {
	case "openai":
		c.AI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	default:
		c.AI.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	c.Artifacts.Minio.AccessKey = strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	c.Artifacts.Minio.SecretKey = strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	c.Database.Password = os.Getenv("DB_PASSWORD")
}

// Validate checks the config once at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch strings.ToLower(c.AI.Provider) {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be gemini or openai, got %q", c.AI.Provider))
	}
	switch c.Artifacts.Driver {
	case "local":
		if c.Artifacts.Dir == "" {
			errs = append(errs, errors.New("artifacts.dir is required for the local driver"))
		}
	case "minio":
		if c.Artifacts.Minio.Endpoint == "" || c.Artifacts.Minio.BucketName == "" {
			errs = append(errs, errors.New("artifacts.minio.endpoint and bucketName are required for the minio driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("artifacts.driver must be local or minio, got %q", c.Artifacts.Driver))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be empty, mysql or postgres, got %q", c.Database.Driver))
	}
	if c.Tools.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("tools.concurrency must be positive, got %d", c.Tools.Concurrency))
	}
	if c.Tools.Timeout <= 0 || c.Tools.CloneTimeout <= 0 {
		errs = append(errs, errors.New("tools.timeout and tools.cloneTimeout must be positive"))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("ai.timeout must be positive"))
	}
	if worst := c.WorstCaseRequest(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < worst {
		errs = append(errs, fmt.Errorf("server.writeTimeout %s is shorter than the worst-case analysis %s", c.Server.WriteTimeout, worst))
	}
	for name, path := range map[string]string{
		"git": c.Tools.Git, "pylint": c.Tools.Pylint, "bandit": c.Tools.Bandit,
		"semgrep": c.Tools.Semgrep, "npm": c.Tools.NPM, "eslint": c.Tools.ESLint, "tsc": c.Tools.TSC,
	} {
		if strings.TrimSpace(path) == "" {
			errs = append(errs, fmt.Errorf("tools.%s must not be empty", name))
		}
	}
	return errors.Join(errs...)
}

// WorstCaseRequest is the longest a single analysis can take with every
// step hitting its deadline: clone, then the tool stages, then the summary.
// With at least three workers the tools form three stages (root scans,
// npm install, linters); with fewer, all six calls may run back to back.
func (c *Config) WorstCaseRequest() time.Duration {
	stages := 6
	if c.Tools.Concurrency >= 3 {
		stages = 3
	}
	return c.Tools.CloneTimeout + time.Duration(stages)*c.Tools.Timeout + c.AI.Timeout
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

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
