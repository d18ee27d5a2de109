package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if !cfg.Browser.Headless {
		t.Error("Headless default = false, want true")
	}
	if !cfg.Browser.Stealth {
		t.Error("Stealth default = false, want true")
	}
	if cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v", cfg.Browser.NavigationTimeout)
	}
	if cfg.Collector.MaxStimuli != 30 || cfg.Collector.MaxStall != 3 || cfg.Collector.StallWindow != 2 {
		t.Errorf("collector defaults = %d/%d/%d",
			cfg.Collector.MaxStimuli, cfg.Collector.MaxStall, cfg.Collector.StallWindow)
	}
	if cfg.Collector.StimulusInterval != 2*time.Second {
		t.Errorf("StimulusInterval = %v", cfg.Collector.StimulusInterval)
	}
	if cfg.Export.OutputDir != "out" {
		t.Errorf("OutputDir = %q", cfg.Export.OutputDir)
	}
	if cfg.API.Port != 8080 || cfg.API.Mode != "release" {
		t.Errorf("api defaults = %d/%q", cfg.API.Port, cfg.API.Mode)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %q/%q", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PRICEPIVOT_HEADLESS", "false")
	t.Setenv("PRICEPIVOT_MAX_STIMULI", "50")
	t.Setenv("PRICEPIVOT_STIMULUS_INTERVAL", "500ms")
	t.Setenv("PRICEPIVOT_OUTPUT_DIR", "/tmp/exports")
	t.Setenv("PRICEPIVOT_PORT", "9090")
	t.Setenv("PRICEPIVOT_WEBHOOK_URL", "https://hooks.example.com/run")
	t.Setenv("PRICEPIVOT_LOG_FORMAT", "json")

	cfg := Load()

	if cfg.Browser.Headless {
		t.Error("Headless override not applied")
	}
	if cfg.Collector.MaxStimuli != 50 {
		t.Errorf("MaxStimuli = %d", cfg.Collector.MaxStimuli)
	}
	if cfg.Collector.StimulusInterval != 500*time.Millisecond {
		t.Errorf("StimulusInterval = %v", cfg.Collector.StimulusInterval)
	}
	if cfg.Export.OutputDir != "/tmp/exports" {
		t.Errorf("OutputDir = %q", cfg.Export.OutputDir)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("Port = %d", cfg.API.Port)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/run" {
		t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("PRICEPIVOT_MAX_STIMULI", "lots")
	t.Setenv("PRICEPIVOT_HEADLESS", "sometimes")
	t.Setenv("PRICEPIVOT_NAV_TIMEOUT", "soon")

	cfg := Load()

	if cfg.Collector.MaxStimuli != 30 {
		t.Errorf("MaxStimuli = %d, want default 30", cfg.Collector.MaxStimuli)
	}
	if !cfg.Browser.Headless {
		t.Error("Headless must fall back to true")
	}
	if cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v, want default", cfg.Browser.NavigationTimeout)
	}
}
