package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"ozzus/nsca-agent/internal/domain"
	"ozzus/nsca-agent/internal/nsca"
	"ozzus/nsca-agent/internal/nsca/crypt"
)

type Config struct {
	Env      string       `mapstructure:"env"`
	LogLevel string       `mapstructure:"log_level"`
	Agent    AgentConfig  `mapstructure:"agent"`
	NSCA     NSCAConfig   `mapstructure:"nsca"`
	Kafka    KafkaConfig  `mapstructure:"kafka"`
	Server   ServerConfig `mapstructure:"server"`
	Checks   ChecksConfig `mapstructure:"checks"`
}

type AgentConfig struct {
	Name string `mapstructure:"name"`
}

// NSCAConfig is the daemon the agent reports to.
type NSCAConfig struct {
	Address        string        `mapstructure:"address"`
	Encryption     string        `mapstructure:"encryption"`
	Password       string        `mapstructure:"password"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StreamTimeout  time.Duration `mapstructure:"stream_timeout"`
}

type KafkaConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Brokers []string    `mapstructure:"brokers"`
	Topics  KafkaTopics `mapstructure:"topics"`
}

type KafkaTopics struct {
	Tasks string `mapstructure:"tasks"`
	Logs  string `mapstructure:"logs"`
}

type ServerConfig struct {
	HealthPort string `mapstructure:"health_port"`
}

type ChecksConfig struct {
	HTTPTimeout  int           `mapstructure:"http_timeout"`
	PingTimeout  int           `mapstructure:"ping_timeout"`
	TCPTimeout   int           `mapstructure:"tcp_timeout"`
	DNSTimeout   int           `mapstructure:"dns_timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Concurrency  int           `mapstructure:"concurrency"`
	Definitions  []domain.Task `mapstructure:"definitions"`
}

// Loader reads the agent configuration from a config file, the environment
// and built-in defaults, in decreasing priority.
type Loader struct {
	v  *viper.Viper
	mu sync.Mutex
}

// NewLoader searches paths on fs for a config file called name
// (local.yaml, local.json, ...).
func NewLoader(fs afero.Fs, name string, paths ...string) *Loader {
	v := viper.New()
	v.SetFs(fs)

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(name)
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	return &Loader{v: v}
}

// Load reads ./config/local.yaml or ./local.yaml from disk.
func Load() (*Config, *Loader, error) {
	l := NewLoader(afero.NewOsFs(), "local", "./config", ".")
	cfg, err := l.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, l, nil
}

// Load reads and validates the configuration. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFile returns the file the configuration was read from, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the config file whenever it changes and hands the new
// configuration to onChange. Invalid revisions are logged and skipped.
func (l *Loader) Watch(log *slog.Logger, onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		l.mu.Lock()
		cfg, err := l.unmarshal()
		l.mu.Unlock()
		if err != nil {
			log.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}

		log.Info("config reloaded", "file", e.Name)
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	// Agent defaults
	v.SetDefault("env", "local")
	v.SetDefault("log_level", "")
	v.SetDefault("agent.name", "monitoring-agent-01")

	// NSCA defaults
	v.SetDefault("nsca.address", "localhost:5667")
	v.SetDefault("nsca.encryption", "none")
	v.SetDefault("nsca.password", "")
	v.SetDefault("nsca.connect_timeout", nsca.DefaultConnectTimeout)
	v.SetDefault("nsca.stream_timeout", nsca.DefaultStreamTimeout)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topics.tasks", "agent-tasks")
	v.SetDefault("kafka.topics.logs", "agent-logs")

	// Server defaults
	v.SetDefault("server.health_port", "8081")

	// Checks defaults
	v.SetDefault("checks.http_timeout", 10)
	v.SetDefault("checks.ping_timeout", 5)
	v.SetDefault("checks.tcp_timeout", 5)
	v.SetDefault("checks.dns_timeout", 5)
	v.SetDefault("checks.poll_interval", 30*time.Second)
	v.SetDefault("checks.concurrency", 8)
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	if _, err := c.NSCA.ClientConfig(); err != nil {
		return err
	}
	if c.Checks.PollInterval <= 0 {
		return fmt.Errorf("checks.poll_interval must be positive, got %s", c.Checks.PollInterval)
	}
	if c.Checks.Concurrency <= 0 {
		return fmt.Errorf("checks.concurrency must be positive, got %d", c.Checks.Concurrency)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is empty")
	}
	for i, t := range c.Checks.Definitions {
		if t.Type == "" || t.Target == "" || t.Host == "" {
			return fmt.Errorf("checks.definitions[%d]: type, target and host are required", i)
		}
	}
	return nil
}

// ClientConfig converts the section into an nsca client configuration.
func (c NSCAConfig) ClientConfig() (nsca.Config, error) {
	if _, err := nsca.ParseAddress(c.Address); err != nil {
		return nsca.Config{}, fmt.Errorf("nsca.address: %w", err)
	}

	cipher, err := crypt.ParseCipher(c.Encryption)
	if err != nil {
		return nsca.Config{}, fmt.Errorf("nsca.encryption: %w", err)
	}

	return nsca.Config{
		Address:        c.Address,
		Encryption:     cipher,
		Password:       c.Password,
		ConnectTimeout: c.ConnectTimeout,
		StreamTimeout:  c.StreamTimeout,
	}, nil
}

func (c *Config) GetHTTPTimeout() time.Duration {
	return time.Duration(c.Checks.HTTPTimeout) * time.Second
}

func (c *Config) GetPingTimeout() time.Duration {
	return time.Duration(c.Checks.PingTimeout) * time.Second
}

func (c *Config) GetTCPTimeout() time.Duration {
	return time.Duration(c.Checks.TCPTimeout) * time.Second
}

func (c *Config) GetDNSTimeout() time.Duration {
	return time.Duration(c.Checks.DNSTimeout) * time.Second
}
