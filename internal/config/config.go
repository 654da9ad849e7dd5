package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// SuiteConfig is the roster of peers one host drives.
type SuiteConfig struct {
	Host      HostConfig       `toml:"host"`
	Terminals []TerminalConfig `toml:"terminals"`
	Printers  []PrinterConfig  `toml:"printers"`
	Status    StatusConfig     `toml:"status"`
}

type HostConfig struct {
	Name        string   `toml:"name"`
	RunDir      string   `toml:"run_dir"`
	AdminAddr   string   `toml:"admin_addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type TerminalConfig struct {
	ID      string `toml:"id"`
	Network string `toml:"network"`
	Address string `toml:"address"`
}

type PrinterConfig struct {
	ID       string `toml:"id"`
	Instance int    `toml:"instance"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Model    string `toml:"model"`
	Daemon   string `toml:"daemon"`
}

// StatusConfig enables the optional status publishers. Empty values leave
// them off.
type StatusConfig struct {
	NATSURL     string `toml:"nats_url"`
	RedisAddr   string `toml:"redis_addr"`
	RedisTTLSec int    `toml:"redis_ttl_sec"`
}

func LoadSuiteConfig(path string) (SuiteConfig, error) {
	var cfg SuiteConfig
	if err := loadToml(path, &cfg); err != nil {
		return SuiteConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateSuiteConfig(cfg); err != nil {
		return SuiteConfig{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *SuiteConfig) {
	if cfg.Host.Name == "" {
		cfg.Host.Name = "poshost"
	}
	if cfg.Host.RunDir == "" {
		cfg.Host.RunDir = os.TempDir()
	}
	if cfg.Host.AdminAddr == "" {
		cfg.Host.AdminAddr = "127.0.0.1:9180"
	}
	for i := range cfg.Terminals {
		if cfg.Terminals[i].Network == "" {
			cfg.Terminals[i].Network = "unix"
		}
	}
	for i := range cfg.Printers {
		if cfg.Printers[i].Port == 0 {
			cfg.Printers[i].Port = 9100
		}
		if cfg.Printers[i].Model == "" {
			cfg.Printers[i].Model = "epson"
		}
		if cfg.Printers[i].Daemon == "" {
			cfg.Printers[i].Daemon = "posprintd"
		}
	}
	if cfg.Status.RedisTTLSec <= 0 {
		cfg.Status.RedisTTLSec = 60
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateSuiteConfig(cfg SuiteConfig) error {
	if strings.TrimSpace(cfg.Host.Name) == "" {
		return fmt.Errorf("host config missing name")
	}
	if len(cfg.Terminals)+len(cfg.Printers) == 0 {
		return fmt.Errorf("suite config has no terminals or printers")
	}
	seen := make(map[string]string)
	claim := func(id, what string) error {
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("duplicate id %q (%s and %s)", id, prev, what)
		}
		seen[id] = what
		return nil
	}
	for i, term := range cfg.Terminals {
		if err := ValidateTerminal(term); err != nil {
			return fmt.Errorf("terminals[%d] invalid: %w", i, err)
		}
		if err := claim(term.ID, fmt.Sprintf("terminals[%d]", i)); err != nil {
			return err
		}
	}
	instances := make(map[int]bool)
	for i, p := range cfg.Printers {
		if err := ValidatePrinter(p); err != nil {
			return fmt.Errorf("printers[%d] invalid: %w", i, err)
		}
		if err := claim(p.ID, fmt.Sprintf("printers[%d]", i)); err != nil {
			return err
		}
		if instances[p.Instance] {
			return fmt.Errorf("printers[%d] reuses instance %d", i, p.Instance)
		}
		instances[p.Instance] = true
	}
	return nil
}

func ValidateTerminal(cfg TerminalConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(cfg.Address) == "" {
		return fmt.Errorf("address is required")
	}
	switch cfg.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("network must be unix or tcp, got %q", cfg.Network)
	}
	return nil
}

func ValidatePrinter(cfg PrinterConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if cfg.Instance < 0 {
		return fmt.Errorf("instance must not be negative")
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 0xffff {
		return fmt.Errorf("port out of range: %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.Daemon) == "" {
		return fmt.Errorf("daemon is required")
	}
	return nil
}
