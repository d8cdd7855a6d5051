package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const configDir = ".portfolio-chat"
const configFile = "config.json"

const (
	DefaultEndpoint = "https://lahari-portfolio-chatbot.onrender.com"
	DefaultPath     = "/chat/stream"
	DefaultFraming  = "lines"
	DefaultTimeout  = 2 * time.Minute

	DefaultTitle       = "Portfolio AI Assistant"
	DefaultPopup       = "🚀 Explore my work with me!"
	DefaultPlaceholder = "Ask about projects, skills, experience…"
)

var framings = []string{"lines", "chunks", "sse"}

type Config struct {
	Endpoint      string        `json:"endpoint" env:"PORTFOLIO_CHAT_ENDPOINT"`
	Path          string        `json:"path,omitempty" env:"PORTFOLIO_CHAT_PATH"`
	Framing       string        `json:"framing,omitempty" env:"PORTFOLIO_CHAT_FRAMING"`
	Timeout       time.Duration `json:"timeout,omitempty" env:"PORTFOLIO_CHAT_TIMEOUT"`
	CancelOnClose bool          `json:"cancel_on_close,omitempty" env:"PORTFOLIO_CHAT_CANCEL_ON_CLOSE"`
	Markdown      bool          `json:"markdown,omitempty" env:"PORTFOLIO_CHAT_MARKDOWN"`

	Title       string `json:"title,omitempty" env:"PORTFOLIO_CHAT_TITLE"`
	Greeting    string `json:"greeting,omitempty" env:"PORTFOLIO_CHAT_GREETING"`
	Popup       string `json:"popup,omitempty" env:"PORTFOLIO_CHAT_POPUP"`
	Placeholder string `json:"placeholder,omitempty" env:"PORTFOLIO_CHAT_PLACEHOLDER"`
	IconPath    string `json:"icon_path,omitempty" env:"PORTFOLIO_CHAT_ICON_PATH"`

	LogFile  string `json:"log_file,omitempty" env:"PORTFOLIO_CHAT_LOG_FILE"`
	LogLevel string `json:"log_level,omitempty" env:"PORTFOLIO_CHAT_LOG_LEVEL"`

	Profile string `json:"-"`
}

// Default returns a config pointing at the hosted assistant.
func Default() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		Path:        DefaultPath,
		Framing:     DefaultFraming,
		Timeout:     DefaultTimeout,
		Title:       DefaultTitle,
		Popup:       DefaultPopup,
		Placeholder: DefaultPlaceholder,
		LogLevel:    "info",
	}
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

// Load reads the profile's config file over the defaults and then applies
// PORTFOLIO_CHAT_* environment overrides. A missing file is not an error.
func Load(profile string) (*Config, error) {
	cfg, err := LoadFile(profile)
	if err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// LoadFile is Load without environment overrides. Use it before Save so
// that overrides are not persisted.
func LoadFile(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.Profile = profile
	return cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

func (c *Config) Validate() error {
	pf := c.profileFlag()
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint not set. Run: portfolio-chat%s set endpoint <url>", pf)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: want an http(s) URL", c.Endpoint)
	}
	if c.Path != "" && !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("invalid path %q: must start with /", c.Path)
	}
	if c.Framing != "" && !isFraming(c.Framing) {
		return fmt.Errorf("invalid framing %q: want one of %s", c.Framing, strings.Join(framings, ", "))
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", c.Timeout)
	}
	return nil
}

// Set assigns a config key by its JSON name, as used by `set <key> <value>`.
func (c *Config) Set(key, value string) error {
	switch key {
	case "endpoint":
		c.Endpoint = strings.TrimRight(value, "/")
	case "path":
		c.Path = value
	case "framing":
		if !isFraming(value) {
			return fmt.Errorf("invalid framing %q: want one of %s", value, strings.Join(framings, ", "))
		}
		c.Framing = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		c.Timeout = d
	case "cancel_on_close":
		c.CancelOnClose = isTrue(value)
	case "markdown":
		c.Markdown = isTrue(value)
	case "title":
		c.Title = value
	case "greeting":
		c.Greeting = value
	case "popup":
		c.Popup = value
	case "placeholder":
		c.Placeholder = value
	case "icon_path":
		c.IconPath = value
	case "log_file":
		c.LogFile = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

// StreamURL is the full URL of the chat stream endpoint.
func (c *Config) StreamURL() string {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return strings.TrimRight(c.Endpoint, "/") + path
}

func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

func isFraming(s string) bool {
	for _, f := range framings {
		if f == s {
			return true
		}
	}
	return false
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
