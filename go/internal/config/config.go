package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/recognizer/go/internal/animation"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	TransportNATS   = "nats"
	TransportMemory = "memory"

	// EnvConfigFile names an optional YAML file read before the environment
	EnvConfigFile = "RECOGNIZER_CONFIG"

	DefaultNamespace = "geekcoil.recognizer"
)

// Config holds everything a recognizer process needs. Values are layered:
// defaults, then the YAML file, then RECOGNIZER_* variables, then flags.
type Config struct {
	Transport     string        `yaml:"transport"`
	NATSURL       string        `yaml:"nats_url"`
	Namespace     string        `yaml:"namespace"`
	ListenAddr    string        `yaml:"listen_addr"`
	PublicURL     string        `yaml:"public_url"`
	CatalogSource string        `yaml:"catalog"`
	AssetRoot     string        `yaml:"asset_root"`
	ImageDir      string        `yaml:"image_dir"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	Edge          int           `yaml:"edge"`
	FrameDelay    time.Duration `yaml:"frame_delay"`
	Seed          int           `yaml:"seed"`
	Step          int           `yaml:"step"`
	ConnectDelay  time.Duration `yaml:"connect_delay"`
	LogLevel      string        `yaml:"log_level"`

	// pairing inputs, normally given per invocation
	Manage string `yaml:"manage"`
	Force  string `yaml:"force"`
	Link   string `yaml:"link"`
}

func Default() Config {
	anim := animation.DefaultConfig()
	return Config{
		Transport:     TransportNATS,
		NATSURL:       nats.DefaultURL,
		Namespace:     DefaultNamespace,
		ListenAddr:    ":8080",
		PublicURL:     "http://localhost:8080/",
		CatalogSource: "patterns.json",
		AssetRoot:     ".",
		ImageDir:      "images",
		FetchTimeout:  30 * time.Second,
		Edge:          anim.Edge,
		FrameDelay:    anim.Delay,
		Seed:          anim.Seed,
		Step:          anim.Step,
		ConnectDelay:  4 * time.Millisecond,
		LogLevel:      "info",
	}
}

// Load builds the configuration for a process invoked with args (without the
// program name).
func Load(args []string) (*Config, error) {
	path, err := configPath(args)
	if err != nil {
		return nil, err
	}

	c := Default()
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.loadEnv()

	fs := c.flagSet()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse command line arguments: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

// configPath finds --config among args, falling back to RECOGNIZER_CONFIG
func configPath(args []string) (string, error) {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(nopWriter{})
	path := fs.String("config", os.Getenv(EnvConfigFile), "")
	if err := fs.Parse(args); err != nil && !errors.Is(err, pflag.ErrHelp) {
		return "", fmt.Errorf("failed to parse command line arguments: %w", err)
	}
	return *path, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() {
	c.Transport = getEnv("RECOGNIZER_TRANSPORT", c.Transport)
	c.NATSURL = getEnv("RECOGNIZER_NATS_URL", getEnv("NATS_URL", c.NATSURL))
	c.Namespace = getEnv("RECOGNIZER_NAMESPACE", c.Namespace)
	c.ListenAddr = getEnv("RECOGNIZER_LISTEN_ADDR", c.ListenAddr)
	c.PublicURL = getEnv("RECOGNIZER_PUBLIC_URL", c.PublicURL)
	c.CatalogSource = getEnv("RECOGNIZER_CATALOG", c.CatalogSource)
	c.AssetRoot = getEnv("RECOGNIZER_ASSET_ROOT", c.AssetRoot)
	c.ImageDir = getEnv("RECOGNIZER_IMAGE_DIR", c.ImageDir)
	c.FetchTimeout = getEnvAsDuration("RECOGNIZER_FETCH_TIMEOUT", c.FetchTimeout)
	c.Edge = getEnvAsInt("RECOGNIZER_EDGE", c.Edge)
	c.FrameDelay = getEnvAsDuration("RECOGNIZER_FRAME_DELAY", c.FrameDelay)
	c.Seed = getEnvAsInt("RECOGNIZER_SEED", c.Seed)
	c.Step = getEnvAsInt("RECOGNIZER_STEP", c.Step)
	c.ConnectDelay = getEnvAsDuration("RECOGNIZER_CONNECT_DELAY", c.ConnectDelay)
	c.LogLevel = getEnv("RECOGNIZER_LOG_LEVEL", c.LogLevel)
	c.Manage = getEnv("RECOGNIZER_MANAGE", c.Manage)
	c.Force = getEnv("RECOGNIZER_FORCE", c.Force)
}

func (c *Config) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("recognizer", pflag.ContinueOnError)
	fs.String("config", "", "YAML config file")
	fs.StringVarP(&c.Transport, "transport", "t", c.Transport, "relay transport: nats or memory")
	fs.StringVar(&c.NATSURL, "nats-url", c.NATSURL, "NATS server URL")
	fs.StringVar(&c.Namespace, "namespace", c.Namespace, "channel namespace prefix")
	fs.StringVarP(&c.ListenAddr, "listen-addr", "a", c.ListenAddr, "http listen address")
	fs.StringVar(&c.PublicURL, "public-url", c.PublicURL, "base URL put into the pairing link")
	fs.StringVar(&c.CatalogSource, "catalog", c.CatalogSource, "pattern catalog file or URL")
	fs.StringVar(&c.AssetRoot, "asset-root", c.AssetRoot, "directory or URL pattern images are loaded from")
	fs.StringVar(&c.ImageDir, "image-dir", c.ImageDir, "image directory inside the asset root")
	fs.DurationVar(&c.FetchTimeout, "fetch-timeout", c.FetchTimeout, "timeout for fetching the catalog and pattern images")
	fs.IntVar(&c.Edge, "edge", c.Edge, "canvas edge length in pixels")
	fs.DurationVar(&c.FrameDelay, "frame-delay", c.FrameDelay, "delay between frames")
	fs.IntVar(&c.Seed, "seed", c.Seed, "reveal size of the first frame")
	fs.IntVar(&c.Step, "step", c.Step, "reveal growth per frame")
	fs.DurationVar(&c.ConnectDelay, "connect-delay", c.ConnectDelay, "controller delay before announcing itself")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "log level")
	fs.StringVar(&c.Manage, "manage", c.Manage, "session code to control (runs as controller)")
	fs.StringVar(&c.Force, "force", c.Force, "session code to pin this display to")
	fs.StringVar(&c.Link, "link", c.Link, "pairing link or query string carrying manage/force")
	return fs
}

func (c *Config) Validate() error {
	switch c.Transport {
	case TransportNATS, TransportMemory:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Transport == TransportNATS && c.NATSURL == "" {
		return errors.New("nats url is required")
	}
	if strings.Trim(c.Namespace, ".") == "" {
		return errors.New("namespace is required")
	}
	if c.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if c.ConnectDelay < 0 {
		return errors.New("connect delay cannot be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return c.Animation().Validate()
}

// Animation returns the reveal parameters
func (c *Config) Animation() animation.Config {
	return animation.Config{
		Edge:  c.Edge,
		Seed:  c.Seed,
		Step:  c.Step,
		Delay: c.FrameDelay,
	}
}

// Level returns the parsed log level, info if it cannot be parsed
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}
