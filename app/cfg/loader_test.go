package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		StoreURL:        "https://project.supabase.co",
		StoreKey:        "service-role-key",
		Port:            "8080",
		RunToken:        "trigger-secret",
		MaxFeedSources:  25,
		MaxSiteSources:  10,
		MaxResolveBatch: 50,
		FeedInterval:    3600,
		SiteInterval:    3600,
		ResolveInterval: 3600,
		ZooInterval:     86400,
		WorkerCount:     2,
		UserAgent:       "Test Agent",
		Timezone:        "Asia/Tokyo",
		Debug:           true,
		Version:         "test-version",
	}

	if cfg.StoreURL != "https://project.supabase.co" {
		t.Errorf("Expected store URL 'https://project.supabase.co', got '%s'", cfg.StoreURL)
	}
	if cfg.StoreKey != "service-role-key" {
		t.Errorf("Expected store key 'service-role-key', got '%s'", cfg.StoreKey)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.RunToken != "trigger-secret" {
		t.Errorf("Expected run token 'trigger-secret', got '%s'", cfg.RunToken)
	}
	if cfg.MaxFeedSources != 25 {
		t.Errorf("Expected max feed sources 25, got %d", cfg.MaxFeedSources)
	}
	if cfg.MaxSiteSources != 10 {
		t.Errorf("Expected max site sources 10, got %d", cfg.MaxSiteSources)
	}
	if cfg.MaxResolveBatch != 50 {
		t.Errorf("Expected max resolve batch 50, got %d", cfg.MaxResolveBatch)
	}
	if cfg.FeedInterval != 3600 {
		t.Errorf("Expected feed interval 3600, got %d", cfg.FeedInterval)
	}
	if cfg.ZooInterval != 86400 {
		t.Errorf("Expected zoo interval 86400, got %d", cfg.ZooInterval)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Errorf("Expected timezone 'Asia/Tokyo', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestLocationDefaultsToUTC(t *testing.T) {
	// Without a loaded configuration the pipeline still needs a timezone.
	if loc := Location(); loc != time.UTC {
		t.Errorf("Expected UTC fallback, got %v", loc)
	}
}
