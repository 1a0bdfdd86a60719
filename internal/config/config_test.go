package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "git", cfg.Tools.Git)
	assert.Equal(t, 4, cfg.Tools.Concurrency)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "g-key", cfg.AI.APIKey)
	assert.Equal(t, "local", cfg.Artifacts.Driver)
	assert.Empty(t, cfg.Database.Driver)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	p := writeConfig(t, `
server:
  port: 9090
tools:
  pylint: /opt/py/bin/pylint
  timeout: 90s
  concurrency: 2
ai:
  provider: openai
  model: gpt-4o-mini
database:
  driver: postgres
  host: db
  port: 5432
  user: audit
  name: audit
`)
	t.Setenv("OPENAI_API_KEY", "o-key")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/opt/py/bin/pylint", cfg.Tools.Pylint)
	assert.Equal(t, "bandit", cfg.Tools.Bandit)
	assert.Equal(t, 90*time.Second, cfg.Tools.Timeout)
	assert.Equal(t, 2, cfg.Tools.Concurrency)
	assert.Equal(t, "o-key", cfg.AI.APIKey)
	assert.Equal(t, "host=db port=5432 user=audit password=s3cret dbname=audit sslmode=disable", cfg.PostgresDSN())
}

func TestLoad_SecretsAreNotReadFromYAML(t *testing.T) {
	p := writeConfig(t, `
ai:
  apiKey: from-file
  APIKey: from-file
`)
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Empty(t, cfg.AI.APIKey)
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", ":7000")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad provider":      func(c *Config) { c.AI.Provider = "llama" },
		"bad artifacts":     func(c *Config) { c.Artifacts.Driver = "s3" },
		"minio no endpoint": func(c *Config) { c.Artifacts.Driver = "minio" },
		"bad db":            func(c *Config) { c.Database.Driver = "sqlite" },
		"zero concurrency":  func(c *Config) { c.Tools.Concurrency = 0 },
		"zero timeout":      func(c *Config) { c.Tools.Timeout = 0 },
		"zero ai timeout":   func(c *Config) { c.AI.Timeout = 0 },
		"empty tool":        func(c *Config) { c.Tools.ESLint = " " },
		"bad port":          func(c *Config) { c.Server.Port = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestMySQLDSN(t *testing.T) {
	c := Default()
	c.Database.User, c.Database.Password, c.Database.Host, c.Database.Name = "u", "p", "h", "n"
	assert.Equal(t, "u:p@tcp(h:3306)/n?parseTime=true&charset=utf8mb4&loc=UTC", c.MySQLDSN())
}

func TestValidate_WriteTimeoutCoversWorstCase(t *testing.T) {
	c := Default()
	assert.Equal(t, 27*time.Minute, c.WorstCaseRequest())

	c.Server.WriteTimeout = 15 * time.Minute
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writeTimeout")

	c.Tools.Concurrency = 1
	assert.Equal(t, 42*time.Minute, c.WorstCaseRequest())

	c.Server.WriteTimeout = 0 // no deadline
	assert.NoError(t, c.Validate())
}

func TestLoad_ServerAndAISections(t *testing.T) {
	p := writeConfig(t, `
server:
  corsOrigins: ["https://audit.example.com"]
ai:
  timeout: 45s
`)
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://audit.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
}
