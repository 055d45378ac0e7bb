package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Credentials are the optional site login. They are loaded once at startup
// and passed read-only into every chapter fetch. Login is attempted only
// when both fields are set.
type Credentials struct {
	EmailAddress string `yaml:"email_address"`
	Password     string `yaml:"password"`
}

func (c Credentials) Present() bool {
	return c.EmailAddress != "" && c.Password != ""
}

type Config struct {
	Token        string `yaml:"token"`
	EmailAddress string `yaml:"email_address"`
	Password     string `yaml:"password"`

	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	Debug    bool `yaml:"debug"`
	Progress bool `yaml:"progress"`
}

type Options struct {
	File  string
	Debug bool
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://pocket.shonenmagazine.com",
		TimeoutSeconds: 30,
	}
}

// Load resolves the config in layers: defaults, then the YAML file if
// one exists, then the environment (a .env file counts as environment).
// Environment always wins.
func Load(opts Options) (*Config, string, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path, explicit := resolvePath(opts.File)
	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, "", fmt.Errorf("failed to load config %s: %w", path, err)
			}
			path = ""
		}
	}

	applyEnv(cfg)

	if opts.Debug {
		cfg.Debug = true
	}
	normalizeDefaults(cfg)

	return cfg, path, nil
}

func (c *Config) Credentials() Credentials {
	return Credentials{EmailAddress: c.EmailAddress, Password: c.Password}
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath is where `config init` writes and where serve looks when no
// --config flag is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "pocketbot.yaml"
	}
	return filepath.Join(home, ".config", "pocketbot", "config.yaml")
}

func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func resolvePath(flag string) (path string, explicit bool) {
	if flag != "" {
		return flag, true
	}
	return DefaultPath(), false
}

func loadYAML(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(b, cfg)
}

func applyEnv(c *Config) {
	if v := os.Getenv("TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("EMAIL_ADDRESS"); v != "" {
		c.EmailAddress = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("POCKETBOT_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if os.Getenv("POCKETBOT_DEBUG") != "" {
		c.Debug = true
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = "https://pocket.shonenmagazine.com"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
}

// Print writes the resolved config for the operator, secrets redacted.
func (c *Config) Print() {
	fmt.Printf(" -token: %s\n", redact(c.Token))
	if c.EmailAddress != "" {
		fmt.Printf(" -email_address: %s\n", c.EmailAddress)
	}
	if c.Password != "" {
		fmt.Printf(" -password: %s\n", redact(c.Password))
	}
	fmt.Printf(" -base_url: %s\n", c.BaseURL)
	if c.UserAgent != "" {
		fmt.Printf(" -user_agent: %s\n", c.UserAgent)
	}
	fmt.Printf(" -timeout_seconds: %d\n", c.TimeoutSeconds)
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	if c.Progress {
		fmt.Printf(" -progress: %t\n", c.Progress)
	}
}

func redact(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
