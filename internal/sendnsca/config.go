package sendnsca

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"ozzus/nsca-agent/internal/nsca"
	"ozzus/nsca-agent/internal/nsca/crypt"
)

// Config is the client side of send_nsca.cfg. Environment variables
// override the file; flags override both.
type Config struct {
	Address        string        `yaml:"address" json:"address" toml:"address" env:"NSCA_ADDRESS" env-default:"localhost"`
	Password       string        `yaml:"password" json:"password" toml:"password" env:"NSCA_PASSWORD"`
	Encryption     string        `yaml:"encryption_method" json:"encryption_method" toml:"encryption_method" env:"NSCA_ENCRYPTION" env-default:"none"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout" toml:"connect_timeout" env:"NSCA_CONNECT_TIMEOUT" env-default:"15s"`
	StreamTimeout  time.Duration `yaml:"stream_timeout" json:"stream_timeout" toml:"stream_timeout" env:"NSCA_STREAM_TIMEOUT" env-default:"10s"`
}

// LoadConfig reads path, if set, then applies the environment. YAML, JSON
// and TOML files are recognised by extension; anything else is read as a
// key=value file in the send_nsca.cfg format.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("read environment: %w", err)
		}
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}

	if err := readKeyValueFile(path, &cfg); err != nil {
		return cfg, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}

	return cfg, nil
}

func readKeyValueFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	for key, value := range values {
		switch strings.ToLower(key) {
		case "password":
			cfg.Password = value
		case "encryption_method", "encryption":
			cfg.Encryption = value
		case "address", "server":
			cfg.Address = value
		case "connect_timeout":
			if cfg.ConnectTimeout, err = parseSeconds(value); err != nil {
				return fmt.Errorf("%s: connect_timeout: %w", path, err)
			}
		case "stream_timeout":
			if cfg.StreamTimeout, err = parseSeconds(value); err != nil {
				return fmt.Errorf("%s: stream_timeout: %w", path, err)
			}
		default:
			return fmt.Errorf("%s: unknown option %q", path, key)
		}
	}

	return nil
}

// parseSeconds accepts "10" (seconds) or a Go duration.
func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(n) * time.Second, nil
}

// ClientConfig converts cfg into an nsca client configuration.
func (c Config) ClientConfig() (nsca.Config, error) {
	cipher, err := crypt.ParseCipher(c.Encryption)
	if err != nil {
		return nsca.Config{}, err
	}
	return nsca.Config{
		Address:        c.Address,
		Encryption:     cipher,
		Password:       c.Password,
		ConnectTimeout: c.ConnectTimeout,
		StreamTimeout:  c.StreamTimeout,
	}, nil
}
