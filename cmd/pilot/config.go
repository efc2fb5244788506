package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hairizuan-noorazman/helpdesk-pilot/agent"
	"github.com/hairizuan-noorazman/helpdesk-pilot/credential"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
)

var (
	// ErrMissingSourceFile is returned when the file source has no path.
	ErrMissingSourceFile = errors.New("run.cases_file is required for the file source")

	// ErrIncompleteRemoteSource is returned when the remote source lacks
	// its URL, API key, project or tag.
	ErrIncompleteRemoteSource = errors.New("source.url, source.api_key, source.project and source.tag are required for the remote source")
)

// HelpdeskConfig holds the target tenant and its credentials.
type HelpdeskConfig struct {
	Domain      string
	Host        string
	PrivateHost string
	APIKey      string
	Email       string
	Password    string
	Timeout     time.Duration
	EmailDomain string
}

// AgentConfig holds execution agent configuration.
type AgentConfig struct {
	Region           string
	Model            string
	MaxIterations    int
	MaxTokens        int
	TimeLimit        time.Duration
	Keys             []string
	SystemPromptFile string
}

// RunConfig holds orchestration settings.
type RunConfig struct {
	Pacing    time.Duration
	Sort      string // "key" or "none"
	Source    string // "file" or "remote"
	CasesFile string
}

// SourceConfig holds the remote test management source.
type SourceConfig struct {
	URL     string
	APIKey  string
	Project string
	Tag     string
}

// StorageConfig holds transcript storage configuration.
type StorageConfig struct {
	Type            string // "local" or "s3"
	BaseDir         string // For local: "./logs"
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PresignExpiry time.Duration
}

// DatabaseConfig holds result store configuration.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig holds the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string
}

// Config holds all application configuration.
type Config struct {
	Helpdesk HelpdeskConfig
	Agent    AgentConfig
	Run      RunConfig
	Source   SourceConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// legacyEnv maps config keys onto the environment variables used by
// existing deployments.
var legacyEnv = map[string]string{
	"helpdesk.domain":   "FS_DOMAIN",
	"helpdesk.api_key":  "FS_API_KEY",
	"helpdesk.email":    "EMAIL",
	"helpdesk.password": "PASSWORD",
	"source.api_key":    "FR_API_KEY",
	"agent.keys":        "AGENT_API_KEYS",
}

// LoadConfig loads configuration from an optional .env file, an optional
// config file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	// Set defaults
	v.SetDefault("helpdesk.domain", "")
	v.SetDefault("helpdesk.host", "freshservice.com")
	v.SetDefault("helpdesk.private_host", "freshcmdb.com")
	v.SetDefault("helpdesk.api_key", "")
	v.SetDefault("helpdesk.email", "")
	v.SetDefault("helpdesk.password", "")
	v.SetDefault("helpdesk.timeout", gateway.DefaultTimeout.String())
	v.SetDefault("helpdesk.email_domain", "yopmail.com")

	v.SetDefault("agent.region", "us-east-1")
	v.SetDefault("agent.model", agent.DefaultModel)
	v.SetDefault("agent.max_iterations", 25)
	v.SetDefault("agent.max_tokens", 4096)
	v.SetDefault("agent.time_limit", "10m")
	v.SetDefault("agent.keys", "")
	v.SetDefault("agent.system_prompt_file", "")

	v.SetDefault("run.pacing", "5s")
	v.SetDefault("run.sort", "key")
	v.SetDefault("run.source", "file")
	v.SetDefault("run.cases_file", "testcases.yaml")

	v.SetDefault("source.url", "")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.project", "")
	v.SetDefault("source.tag", "")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_dir", "./logs")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.s3_presign_expiry", "15m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "pilot.db")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.addr", "")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults
	}

	// Parse configuration
	var config Config

	config.Helpdesk.Domain = v.GetString("helpdesk.domain")
	config.Helpdesk.Host = v.GetString("helpdesk.host")
	config.Helpdesk.PrivateHost = v.GetString("helpdesk.private_host")
	config.Helpdesk.APIKey = v.GetString("helpdesk.api_key")
	config.Helpdesk.Email = v.GetString("helpdesk.email")
	config.Helpdesk.Password = v.GetString("helpdesk.password")
	config.Helpdesk.Timeout = v.GetDuration("helpdesk.timeout")
	config.Helpdesk.EmailDomain = v.GetString("helpdesk.email_domain")

	config.Agent.Region = v.GetString("agent.region")
	config.Agent.Model = v.GetString("agent.model")
	config.Agent.MaxIterations = v.GetInt("agent.max_iterations")
	config.Agent.MaxTokens = v.GetInt("agent.max_tokens")
	config.Agent.TimeLimit = v.GetDuration("agent.time_limit")
	config.Agent.Keys = agentKeys(v.Get("agent.keys"))
	config.Agent.SystemPromptFile = v.GetString("agent.system_prompt_file")

	config.Run.Pacing = v.GetDuration("run.pacing")
	config.Run.Sort = v.GetString("run.sort")
	config.Run.Source = v.GetString("run.source")
	config.Run.CasesFile = v.GetString("run.cases_file")

	config.Source.URL = v.GetString("source.url")
	config.Source.APIKey = v.GetString("source.api_key")
	config.Source.Project = v.GetString("source.project")
	config.Source.Tag = v.GetString("source.tag")

	config.Storage.Type = v.GetString("storage.type")
	config.Storage.BaseDir = v.GetString("storage.base_dir")
	config.Storage.S3Bucket = v.GetString("storage.s3_bucket")
	config.Storage.S3Region = v.GetString("storage.s3_region")
	config.Storage.S3Prefix = v.GetString("storage.s3_prefix")
	config.Storage.S3PresignExpiry = v.GetDuration("storage.s3_presign_expiry")

	config.Database.Driver = v.GetString("database.driver")
	config.Database.DSN = v.GetString("database.dsn")
	config.Database.MaxOpenConns = v.GetInt("database.max_open_conns")
	config.Database.MaxIdleConns = v.GetInt("database.max_idle_conns")

	config.Log.Level = v.GetString("log.level")
	config.Log.Format = v.GetString("log.format")

	config.Metrics.Addr = v.GetString("metrics.addr")

	return &config, nil
}

// agentKeys merges the configured key list with the numbered
// AGENT_API_KEY_1..N variables. Numbering stops at the first gap.
func agentKeys(raw interface{}) []string {
	var keys []string
	switch val := raw.(type) {
	case string:
		keys = append(keys, strings.Split(val, ",")...)
	case []interface{}:
		for _, k := range val {
			keys = append(keys, fmt.Sprint(k))
		}
	case []string:
		keys = append(keys, val...)
	}
	for i := 1; ; i++ {
		k, ok := os.LookupEnv("AGENT_API_KEY_" + strconv.Itoa(i))
		if !ok {
			break
		}
		keys = append(keys, k)
	}

	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// UsesSession reports whether session credentials are configured.
func (c *Config) UsesSession() bool {
	return c.Helpdesk.Email != "" || c.Helpdesk.Password != ""
}

// ValidateHelpdesk checks the target tenant settings needed by any command
// that talks to the helpdesk.
func (c *Config) ValidateHelpdesk() error {
	if strings.TrimSpace(c.Helpdesk.Domain) == "" {
		return gateway.ErrMissingDomain
	}
	if strings.TrimSpace(c.Helpdesk.APIKey) == "" {
		return gateway.ErrMissingAPIKey
	}
	if c.UsesSession() && (strings.TrimSpace(c.Helpdesk.Email) == "" || c.Helpdesk.Password == "") {
		return gateway.ErrMissingSessionCredentials
	}
	return nil
}

// ValidateRun checks everything the run command needs before the
// orchestration loop starts.
func (c *Config) ValidateRun() error {
	if err := c.ValidateHelpdesk(); err != nil {
		return err
	}
	switch c.Run.Source {
	case "file":
		if strings.TrimSpace(c.Run.CasesFile) == "" {
			return ErrMissingSourceFile
		}
	case "remote":
		s := c.Source
		if s.URL == "" || s.APIKey == "" || s.Project == "" || s.Tag == "" {
			return ErrIncompleteRemoteSource
		}
	default:
		return fmt.Errorf("unsupported run.source: %s", c.Run.Source)
	}
	return nil
}

// Masked returns a printable copy with every secret masked.
func (c Config) Masked() Config {
	c.Helpdesk.APIKey = maskIfSet(c.Helpdesk.APIKey)
	c.Helpdesk.Password = maskIfSet(c.Helpdesk.Password)
	c.Source.APIKey = maskIfSet(c.Source.APIKey)
	keys := make([]string, len(c.Agent.Keys))
	for i, k := range c.Agent.Keys {
		keys[i] = credential.Mask(k)
	}
	c.Agent.Keys = keys
	return c
}

func maskIfSet(s string) string {
	if s == "" {
		return ""
	}
	return credential.Mask(s)
}
