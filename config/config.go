package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete kiosk configuration
type Config struct {
	Portal      PortalConfig      `yaml:"portal"`
	Display     DisplayConfig     `yaml:"display"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Performance PerformanceConfig `yaml:"performance"`
	Network     NetworkConfig     `yaml:"network"`
	BurnIn      BurnInConfig      `yaml:"burn_in"`
	Store       StoreConfig       `yaml:"store"`
	Logging     LoggingConfig     `yaml:"logging"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// PortalConfig locates the facility portal the display renders.
type PortalConfig struct {
	BaseURL          string `yaml:"base_url"`
	PagePath         string `yaml:"page_path"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms"`
}

// DisplayConfig contains rotation and clock settings.
type DisplayConfig struct {
	RotationIntervalMs int      `yaml:"rotation_interval_ms"`
	Timezone           string   `yaml:"timezone"`
	Slides             []string `yaml:"slides"`
}

// RefreshConfig contains resilience refresh settings.
type RefreshConfig struct {
	PeriodMs        int `yaml:"period_ms"`
	PreloadLeadMs   int `yaml:"preload_lead_ms"`
	CacheDurationMs int `yaml:"cache_duration_ms"`
	MaxRetries      int `yaml:"max_retries"`
}

// PerformanceConfig contains the governor thresholds.
type PerformanceConfig struct {
	FPSFloor             float64 `yaml:"fps_floor"`
	WarningCeiling       int     `yaml:"warning_ceiling"`
	MemoryThresholdBytes uint64  `yaml:"memory_threshold_bytes"`
	EscalationMultiplier float64 `yaml:"escalation_multiplier"`
	CheckPeriodMs        int     `yaml:"check_period_ms"`
}

// NetworkConfig contains connectivity monitoring settings.
type NetworkConfig struct {
	ProbeURL      string `yaml:"probe_url"`
	PollPeriodMs  int    `yaml:"poll_period_ms"`
	BannerHideMs  int    `yaml:"banner_hide_ms"`
	ReloadGraceMs int    `yaml:"reload_grace_ms"`
}

// BurnInConfig contains pixel-shift settings.
type BurnInConfig struct {
	PeriodMs    int `yaml:"period_ms"`
	IdleGateMs  int `yaml:"idle_gate_ms"`
	RevertMs    int `yaml:"revert_ms"`
	AmplitudePx int `yaml:"amplitude_px"`
}

// StoreConfig locates the local key-value store.
type StoreConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// DiagnosticsConfig controls the periodic diagnostics dump.
type DiagnosticsConfig struct {
	DumpIntervalMs int `yaml:"dump_interval_ms"`
}

// Load loads configuration from a YAML file and applies defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Normalize replaces zero or out-of-range fields with safe defaults.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Portal.BaseURL) == "" {
		c.Portal.BaseURL = "http://localhost:8080"
	}
	if strings.TrimSpace(c.Portal.PagePath) == "" {
		c.Portal.PagePath = "/"
	}
	if c.Portal.RequestTimeoutMs <= 0 {
		c.Portal.RequestTimeoutMs = 10000
	}

	if c.Display.RotationIntervalMs <= 0 {
		c.Display.RotationIntervalMs = 8000
	}
	if strings.TrimSpace(c.Display.Timezone) == "" {
		c.Display.Timezone = "Europe/Berlin"
	}
	if len(c.Display.Slides) == 0 {
		c.Display.Slides = []string{"NOW", "TODAY", "WEEK", "SERVICES"}
	}

	if c.Refresh.PeriodMs <= 0 {
		c.Refresh.PeriodMs = 300000
	}
	if c.Refresh.PreloadLeadMs <= 0 || c.Refresh.PreloadLeadMs >= c.Refresh.PeriodMs {
		c.Refresh.PreloadLeadMs = 15000
	}
	if c.Refresh.CacheDurationMs <= 0 {
		c.Refresh.CacheDurationMs = 60000
	}
	if c.Refresh.MaxRetries <= 0 {
		c.Refresh.MaxRetries = 3
	}

	if c.Performance.FPSFloor <= 0 {
		c.Performance.FPSFloor = 30
	}
	if c.Performance.WarningCeiling <= 0 {
		c.Performance.WarningCeiling = 10
	}
	if c.Performance.MemoryThresholdBytes == 0 {
		c.Performance.MemoryThresholdBytes = 100 << 20
	}
	if c.Performance.EscalationMultiplier <= 1 {
		c.Performance.EscalationMultiplier = 1.5
	}
	if c.Performance.CheckPeriodMs <= 0 {
		c.Performance.CheckPeriodMs = 30000
	}

	if strings.TrimSpace(c.Network.ProbeURL) == "" {
		c.Network.ProbeURL = c.Portal.BaseURL
	}
	if c.Network.PollPeriodMs <= 0 {
		c.Network.PollPeriodMs = 5000
	}
	if c.Network.BannerHideMs <= 0 {
		c.Network.BannerHideMs = 10000
	}
	if c.Network.ReloadGraceMs <= 0 {
		c.Network.ReloadGraceMs = 2000
	}

	if c.BurnIn.PeriodMs <= 0 {
		c.BurnIn.PeriodMs = 300000
	}
	if c.BurnIn.IdleGateMs <= 0 {
		c.BurnIn.IdleGateMs = 60000
	}
	if c.BurnIn.RevertMs <= 0 {
		c.BurnIn.RevertMs = 5000
	}
	if c.BurnIn.AmplitudePx <= 0 {
		c.BurnIn.AmplitudePx = 2
	}

	if strings.TrimSpace(c.Store.Dir) == "" {
		c.Store.Dir = "data/kiosk-store"
	}

	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = "data/logs"
	}

	if c.Diagnostics.DumpIntervalMs <= 0 {
		c.Diagnostics.DumpIntervalMs = 600000
	}
}

// Print displays the effective configuration at startup.
func (c *Config) Print() {
	fmt.Printf("Portal: %s%s (timeout %dms)\n", c.Portal.BaseURL, c.Portal.PagePath, c.Portal.RequestTimeoutMs)
	fmt.Printf("Display: rotate every %dms, tz %s, slides: %s\n",
		c.Display.RotationIntervalMs, c.Display.Timezone, strings.Join(c.Display.Slides, ", "))
	fmt.Printf("Refresh: every %dms (preload lead %dms, cache %dms, max retries %d)\n",
		c.Refresh.PeriodMs, c.Refresh.PreloadLeadMs, c.Refresh.CacheDurationMs, c.Refresh.MaxRetries)
	fmt.Printf("Performance: fps floor %.0f, warning ceiling %d, memory %dMB x%.1f\n",
		c.Performance.FPSFloor, c.Performance.WarningCeiling,
		c.Performance.MemoryThresholdBytes>>20, c.Performance.EscalationMultiplier)
	fmt.Printf("Store: %s\n", c.Store.Dir)
	if c.Logging.Enabled {
		fmt.Printf("Logging: %s (keep %d days)\n", c.Logging.Dir, c.Logging.RetentionDays)
	}
}
