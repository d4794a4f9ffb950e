// Package config loads the gateway's static configuration: one YAML
// file read over the built-in defaults, with APP_MODE selecting only the
// operational mode; the file is not layered per mode (config parsing itself is the one ambient
// concern spec.md §1 explicitly treats as an external collaborator —
// this package is the thin contract toward it) plus the per-operation
// timeout table and the handful of numeric knobs the core components
// need (queue bounds, heartbeat intervals, worker pool size).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/psychoney/quant-qmt-proxy/pkg/mode"
)

// Timeouts holds the per-operation-family deadline budgets from spec.md §4.9.
type Timeouts struct {
	Default        time.Duration `yaml:"default"`
	MarketData     time.Duration `yaml:"market_data"`
	FinancialData  time.Duration `yaml:"financial_data"`
	Download       time.Duration `yaml:"download"`
	Trading        time.Duration `yaml:"trading"`
	Subscription   time.Duration `yaml:"subscription"`
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default:       30 * time.Second,
		MarketData:    60 * time.Second,
		FinancialData: 60 * time.Second,
		Download:      300 * time.Second,
		Trading:       30 * time.Second,
		Subscription:  60 * time.Second,
	}
}

// Executor configures the blocking-call executor (C1).
type Executor struct {
	Workers int `yaml:"workers"`
}

// Subscriptions configures the quote subscription manager (C6).
type Subscriptions struct {
	MaxQueue          int           `yaml:"max_queue"`
	MaxStreamsPerSub  int           `yaml:"max_streams_per_sub"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout"`
	WholeMarketEnabled bool         `yaml:"whole_market_enabled"`
}

// Callbacks configures the trading-callback dispatcher (C7).
type Callbacks struct {
	History int `yaml:"history"`
}

// Auth configures the bearer-key allow-list. An empty AllowedKeys
// disables authentication per spec.md §6.
type Auth struct {
	AllowedKeys []string `yaml:"allowed_keys"`
}

// Server holds transport bind addresses.
type Server struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// VendorCore holds the QMT user-data path and related vendor knobs.
type VendorCore struct {
	QMTUserDataPath string `yaml:"qmt_userdata_path"`
}

// Config is the fully assembled, immutable configuration for one process run.
type Config struct {
	Mode          mode.Mode     `yaml:"-"`
	Server        Server        `yaml:"server"`
	Timeouts      Timeouts      `yaml:"timeouts"`
	Executor      Executor      `yaml:"executor"`
	Subscriptions Subscriptions `yaml:"subscriptions"`
	Callbacks     Callbacks     `yaml:"callbacks"`
	Auth          Auth          `yaml:"auth"`
	VendorCore    VendorCore    `yaml:"vendor_core"`
}

// Default returns a Config with the defaults documented across spec.md
// (50 workers, MAX_QUEUE 1000, CALLBACK_HISTORY 100, 30s heartbeat
// interval, 90s heartbeat timeout).
func Default() Config {
	return Config{
		Server: Server{
			HTTPAddr: ":8000",
			GRPCAddr: ":9000",
		},
		Timeouts: DefaultTimeouts(),
		Executor: Executor{Workers: 50},
		Subscriptions: Subscriptions{
			MaxQueue:           1000,
			MaxStreamsPerSub:   100,
			HeartbeatInterval:  30 * time.Second,
			HeartbeatTimeout:   90 * time.Second,
			WholeMarketEnabled: false,
		},
		Callbacks: Callbacks{History: 100},
	}
}

// Load reads a YAML file (if path is non-empty and exists) over the
// defaults, then resolves the operational mode from the APP_MODE
// environment variable.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	rawMode := os.Getenv("APP_MODE")
	if rawMode == "" {
		rawMode = string(mode.Sim)
	}
	m, err := mode.Parse(rawMode)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Mode = m

	return cfg, nil
}
