package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Persisted store configuration
	StoreURL string `long:"store-url" env:"STORE_URL" description:"Base URL of the hosted store (e.g., https://xxxxx.supabase.co)" required:"true"`
	StoreKey string `long:"store-key" env:"STORE_SERVICE_ROLE" description:"Service role key for the hosted store (required)" required:"true"`

	// Application configuration
	Port     string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	RunToken string `long:"run-token" env:"RUN_TOKEN" description:"Shared secret for the manual /run trigger (optional; trigger disabled when empty)"`

	MaxFeedSources  int `long:"max-feed-sources" env:"MAX_FEED_SOURCES" default:"25" description:"Feed sources fetched per ingestion run"`
	MaxSiteSources  int `long:"max-site-sources" env:"MAX_SITE_SOURCES" default:"10" description:"Site sources fetched per listing run"`
	MaxResolveBatch int `long:"max-resolve-batch" env:"MAX_RESOLVE_BATCH" default:"50" description:"Unprocessed events handled per resolution run"`

	FeedInterval    int `long:"feed-interval" env:"FEED_INTERVAL" default:"3600" description:"Feed ingestion interval in seconds"`
	SiteInterval    int `long:"site-interval" env:"SITE_INTERVAL" default:"3600" description:"Site listing ingestion interval in seconds"`
	ResolveInterval int `long:"resolve-interval" env:"RESOLVE_INTERVAL" default:"3600" description:"Entity resolution interval in seconds"`
	ZooInterval     int `long:"zoo-interval" env:"ZOO_INTERVAL" default:"86400" description:"Zoo list refresh interval in seconds"`

	WorkerCount int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for job processing"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"BabyWatch/1.0 (+https://github.com/sobako/babywatch)" description:"User agent string for outbound HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Tokyo" description:"Timezone used for date-only arithmetic (e.g., Asia/Tokyo)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StoreURL:        raw.StoreURL,
		StoreKey:        raw.StoreKey,
		Port:            raw.Port,
		RunToken:        raw.RunToken,
		MaxFeedSources:  raw.MaxFeedSources,
		MaxSiteSources:  raw.MaxSiteSources,
		MaxResolveBatch: raw.MaxResolveBatch,
		FeedInterval:    raw.FeedInterval,
		SiteInterval:    raw.SiteInterval,
		ResolveInterval: raw.ResolveInterval,
		ZooInterval:     raw.ZooInterval,
		WorkerCount:     raw.WorkerCount,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Location returns the configured timezone, falling back to UTC when the
// configuration is not loaded or the name cannot be resolved.
func Location() *time.Location {
	if globalCfg == nil {
		return time.UTC
	}
	if loc, err := time.LoadLocation(globalCfg.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
