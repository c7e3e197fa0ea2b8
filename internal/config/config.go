package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"SketchBoard/internal/shape"
)

type Config struct {
	// ServerURL is the room server's WebSocket endpoint. Empty means find
	// a relay on the LAN.
	ServerURL string
	// HTTPURL is the base of the history API; derived from ServerURL when empty.
	HTTPURL string
	RoomID  string
	Token   string

	RelayPort int

	Discovery        bool
	DiscoveryTimeout time.Duration

	Style shape.Style
}

// File is the optional YAML config named by SKETCHBOARD_CONFIG.
type File struct {
	Server           string       `yaml:"server"`
	HTTP             string       `yaml:"http"`
	Room             string       `yaml:"room"`
	Token            string       `yaml:"token"`
	RelayPort        int          `yaml:"relayPort"`
	Discovery        *bool        `yaml:"discovery"`
	DiscoveryTimeout int          `yaml:"discoveryTimeout"`
	Style            *shape.Style `yaml:"style"`
}

func Default() *Config {
	return &Config{
		RoomID:           "lobby",
		RelayPort:        8787,
		Discovery:        true,
		DiscoveryTimeout: 3 * time.Second,
		Style:            shape.DefaultStyle(),
	}
}

// Load builds the config from defaults, then the YAML file, then the
// environment (a .env file is read first if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := getEnv("SKETCHBOARD_CONFIG", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ServerURL = getEnv("SKETCHBOARD_SERVER", cfg.ServerURL)
	cfg.HTTPURL = getEnv("SKETCHBOARD_HTTP", cfg.HTTPURL)
	cfg.RoomID = getEnv("SKETCHBOARD_ROOM", cfg.RoomID)
	cfg.Token = getEnv("SKETCHBOARD_TOKEN", cfg.Token)
	cfg.RelayPort = getEnvInt("SKETCHBOARD_RELAY_PORT", cfg.RelayPort)
	cfg.Discovery = getEnvBool("SKETCHBOARD_DISCOVERY", cfg.Discovery)
	cfg.DiscoveryTimeout = time.Duration(getEnvInt("SKETCHBOARD_DISCOVERY_TIMEOUT", int(cfg.DiscoveryTimeout/time.Second))) * time.Second

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if f.Server != "" {
		c.ServerURL = f.Server
	}
	if f.HTTP != "" {
		c.HTTPURL = f.HTTP
	}
	if f.Room != "" {
		c.RoomID = f.Room
	}
	if f.Token != "" {
		c.Token = f.Token
	}
	if f.RelayPort != 0 {
		c.RelayPort = f.RelayPort
	}
	if f.Discovery != nil {
		c.Discovery = *f.Discovery
	}
	if f.DiscoveryTimeout > 0 {
		c.DiscoveryTimeout = time.Duration(f.DiscoveryTimeout) * time.Second
	}
	if f.Style != nil {
		c.Style = f.Style.WithDefaults()
	}
	return nil
}

func (c *Config) Validate() error {
	if c.RoomID == "" {
		return fmt.Errorf("room id is required")
	}
	if c.RelayPort <= 0 || c.RelayPort > 65535 {
		return fmt.Errorf("relay port %d out of range", c.RelayPort)
	}
	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		if err != nil {
			return fmt.Errorf("server url: %w", err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("server url must be ws:// or wss://, got %q", c.ServerURL)
		}
	}
	return nil
}

// HistoryBase is the base URL for GET /chats/{roomId}.
func (c *Config) HistoryBase() string {
	if c.HTTPURL != "" {
		return strings.TrimRight(c.HTTPURL, "/")
	}
	return HTTPFromWS(c.ServerURL)
}

// HTTPFromWS maps ws://host/path to http://host (wss to https).
func HTTPFromWS(ws string) string {
	u, err := url.Parse(ws)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
