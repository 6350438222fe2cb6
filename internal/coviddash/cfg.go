package coviddash

import (
	"fmt"
	"time"

	"github.com/ilyalavrinov/coviddash/pkg/covidstats"
	"github.com/ilyalavrinov/coviddash/pkg/dashboard"
	"github.com/ilyalavrinov/coviddash/pkg/diseasesh"
	"github.com/ilyalavrinov/coviddash/pkg/tgbotbase"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gcfg.v1"
)

type Config struct {
	tgbotbase.Config
	Redis tgbotbase.RedisConfig

	Dashboard struct {
		APIBase           string
		Country           string
		SortBy            string
		Locale            string
		HistoryWindowDays int
		DisplayDays       int
		FetchCountryLimit int
		ChartCountryLimit int
		RequestTimeout    string
		RefreshInterval   string
		SnapshotTTL       string
	}

	HTTP struct {
		Listen string
	}

	WebDAV struct {
		Server string
		User   string
		Pass   string
		Dir    string
	}

	Log struct {
		Level string
	}

	requestTimeout  time.Duration
	refreshInterval time.Duration
	snapshotTTL     time.Duration
}

func NewConfig(filename string) (Config, error) {
	log.WithField("filename", filename).Info("Reading configuration")

	var cfg Config
	if err := gcfg.ReadFileInto(&cfg, filename); err != nil {
		log.WithFields(log.Fields{"filename": filename, "err": err}).Error("Could not correctly parse configuration file")
		return cfg, err
	}
	if err := cfg.setDefaults(); err != nil {
		return cfg, err
	}

	log.WithField("filename", filename).Info("Configuration has been successfully read")
	return cfg, nil
}

func (cfg *Config) setDefaults() error {
	d := &cfg.Dashboard
	if d.APIBase == "" {
		d.APIBase = diseasesh.DefaultBaseURL
	}
	if d.Locale == "" {
		d.Locale = covidstats.DefaultLocale
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.WebDAV.Dir == "" {
		cfg.WebDAV.Dir = "/coviddash"
	}

	var err error
	if cfg.requestTimeout, err = parseDuration(d.RequestTimeout, 0); err != nil {
		return fmt.Errorf("dashboard.requesttimeout: %w", err)
	}
	if cfg.refreshInterval, err = parseDuration(d.RefreshInterval, 0); err != nil {
		return fmt.Errorf("dashboard.refreshinterval: %w", err)
	}
	if cfg.snapshotTTL, err = parseDuration(d.SnapshotTTL, 7*24*time.Hour); err != nil {
		return fmt.Errorf("dashboard.snapshotttl: %w", err)
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// DashboardConfig fills zero values with the dashboard defaults.
func (cfg Config) DashboardConfig() dashboard.Config {
	return dashboard.Config{
		HistoryWindowDays: cfg.Dashboard.HistoryWindowDays,
		DisplayDays:       cfg.Dashboard.DisplayDays,
		FetchCountryLimit: cfg.Dashboard.FetchCountryLimit,
		ChartCountryLimit: cfg.Dashboard.ChartCountryLimit,
		Country:           cfg.Dashboard.Country,
		SortBy:            cfg.Dashboard.SortBy,
	}
}

// RequestTimeout is 0 when requests are not bounded.
func (cfg Config) RequestTimeout() time.Duration {
	return cfg.requestTimeout
}

// RefreshInterval is 0 when periodic refresh is disabled.
func (cfg Config) RefreshInterval() time.Duration {
	return cfg.refreshInterval
}

func (cfg Config) SnapshotTTL() time.Duration {
	return cfg.snapshotTTL
}

func (cfg Config) botEnabled() bool {
	return cfg.TGBot.Token != "" || cfg.TGBot.SkipConnect
}
