// Package config defines the runtime configuration. Values come from
// the config file, environment and flags via viper; this package owns
// the struct, the defaults and the validation.
package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	// URL is the base address of the target application.
	URL string `mapstructure:"url"`
	// Username and Password are only used when the target asks for a
	// login; a restored session skips them entirely.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// SessionFile stores browser cookies between runs.
	SessionFile string `mapstructure:"session_file"`

	// OutFile is the JSON export path.
	OutFile string `mapstructure:"out_file"`
	// SQLiteFile, when set, mirrors the harvested records into a
	// SQLite database in addition to the JSON export.
	SQLiteFile string `mapstructure:"sqlite_file"`

	Headless bool `mapstructure:"headless"`
	// Stealth injects anti-automation-detection JS into every page.
	Stealth bool `mapstructure:"stealth"`
	// Debug enables verbose logging and screenshot capture.
	Debug         bool   `mapstructure:"debug"`
	ScreenshotDir string `mapstructure:"screenshot_dir"`

	// MaxRecords caps the harvest. 0 means unbounded.
	MaxRecords int `mapstructure:"max_records"`
	// StabilityThreshold is the number of consecutive unchanged
	// row-count reads that ends the harvest.
	StabilityThreshold int           `mapstructure:"stability_threshold"`
	SettleTimeout      time.Duration `mapstructure:"settle_timeout"`
	// NavTimeout bounds each navigation step (login probe, menu click).
	NavTimeout time.Duration `mapstructure:"nav_timeout"`
	// HarvestTimeout is the wall-clock bound on the whole harvest loop.
	HarvestTimeout time.Duration `mapstructure:"harvest_timeout"`
}

func Default() Config {
	return Config{
		URL:                "https://hiring.idenhq.com/",
		SessionFile:        "session.json",
		OutFile:            "product_data.json",
		Headless:           true,
		Stealth:            false,
		ScreenshotDir:      "screenshots",
		MaxRecords:         0,
		StabilityThreshold: 3,
		SettleTimeout:      2 * time.Second,
		NavTimeout:         10 * time.Second,
		HarvestTimeout:     15 * time.Minute,
	}
}

func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.OutFile == "" {
		return errors.New("out_file is required")
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("max_records must be >= 0, got %d", c.MaxRecords)
	}
	if c.StabilityThreshold < 2 {
		return fmt.Errorf("stability_threshold must be at least 2, got %d", c.StabilityThreshold)
	}
	if c.SettleTimeout <= 0 {
		return errors.New("settle_timeout must be positive")
	}
	if c.NavTimeout <= 0 {
		return errors.New("nav_timeout must be positive")
	}
	if c.HarvestTimeout <= 0 {
		return errors.New("harvest_timeout must be positive")
	}
	return nil
}
