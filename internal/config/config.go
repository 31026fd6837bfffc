package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config holds the client configuration.
type Config struct {
	// Connection settings
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration

	// Cluster settings
	Gateways []string // extra gateway addresses, host:port
	SlotHash string   // "crc16", "arc" or "xxhash"
	Slots    int      // overrides the slot count of SlotHash when positive
	KeyIndex int      // overrides the registry key position when positive

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:      "localhost",
		Port:      6379,
		Timeout:   5 * time.Second,
		SlotHash:  "crc16",
		LogLevel:  "warn",
		LogFormat: "console", // or "json"
	}
}

// Addr returns the primary server address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Addrs returns the primary address followed by every extra gateway, without
// duplicates.
func (c *Config) Addrs() []string {
	addrs := []string{c.Addr()}
	seen := map[string]bool{addrs[0]: true}
	for _, gw := range c.Gateways {
		if !seen[gw] {
			seen[gw] = true
			addrs = append(addrs, gw)
		}
	}
	return addrs
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	for _, gw := range c.Gateways {
		if _, _, err := net.SplitHostPort(gw); err != nil {
			errs = append(errs, fmt.Errorf("invalid gateway %q: %w", gw, err))
		}
	}
	switch strings.ToLower(c.SlotHash) {
	case "crc16", "arc", "xxhash":
	default:
		errs = append(errs, fmt.Errorf("unknown slot hash %q", c.SlotHash))
	}
	if c.Slots < 0 {
		errs = append(errs, fmt.Errorf("slots must not be negative, got %d", c.Slots))
	}
	if c.KeyIndex < 0 {
		errs = append(errs, fmt.Errorf("key index must not be negative, got %d", c.KeyIndex))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err))
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Addr:%s, Gateways:%v, SlotHash:%s, Timeout:%s, LogLevel:%s}",
		c.Addr(), c.Gateways, c.SlotHash, c.Timeout, c.LogLevel,
	)
}
