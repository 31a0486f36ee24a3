package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultAPIBase is the API origin used when none is configured.
const DefaultAPIBase = "http://localhost:4000/api"

// Client holds settings shared by every front end.
type Client struct {
	APIBase          string        `env:"REVIEWHUB_API_BASE" envDefault:"http://localhost:4000/api"`
	PageSize         int           `env:"REVIEWHUB_PAGE_SIZE" envDefault:"10"`
	HTTPTimeout      time.Duration `env:"REVIEWHUB_HTTP_TIMEOUT" envDefault:"15s"`
	AnonymousReviews bool          `env:"REVIEWHUB_ANONYMOUS_REVIEWS" envDefault:"false"`
	Debug            bool          `env:"REVIEWHUB_DEBUG" envDefault:"false"`
}

// CLI configures cmd/reviewhub.
type CLI struct {
	Client
	StateDB string `env:"REVIEWHUB_STATE_DB"`
}

// Server configures the page shell.
type Server struct {
	Client
	Port           string   `env:"PORT" envDefault:"8080"`
	SessionKey     string   `env:"REVIEWHUB_SESSION_KEY"`
	SecureCookies  bool     `env:"REVIEWHUB_SECURE_COOKIES" envDefault:"false"`
	AllowedOrigins []string `env:"REVIEWHUB_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:*"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadCLI parses the CLI configuration and fills derived defaults.
func LoadCLI() (CLI, error) {
	var cfg CLI
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.StateDB == "" {
		path, err := DefaultStatePath()
		if err != nil {
			return cfg, err
		}
		cfg.StateDB = path
	}
	cfg.Client.normalize()
	return cfg, nil
}

// LoadServer parses the page shell configuration.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.Client.normalize()
	return cfg, nil
}

func (c *Client) normalize() {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = DefaultAPIBase
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
}

// DefaultStatePath returns ~/.reviewhub/state.db.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".reviewhub", "state.db"), nil
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
