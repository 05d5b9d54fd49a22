package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_BaseURL(t *testing.T) {
	for _, base := range []string{"localhost:8000", "ftp://example.com", "http://"} {
		t.Run(base, func(t *testing.T) {
			cfg := validConfig()
			cfg.API.BaseURL = base
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected error for base url %q", base)
			}
		})
	}
}

func TestValidate_CacheDriver(t *testing.T) {
	tests := []struct {
		driver  string
		addrs   []string
		wantErr bool
	}{
		{DriverMemory, nil, false},
		{DriverValkey, []string{"localhost:6379"}, false},
		{DriverRedis, []string{"localhost:6379"}, false},
		{DriverValkey, nil, true},
		{"memcached", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.driver, func(t *testing.T) {
			cfg := validConfig()
			cfg.Cache.Driver = tc.driver
			cfg.Cache.Addrs = tc.addrs
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown log level")
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("expected default base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout() != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.API.Timeout())
	}
	if cfg.Search.Debounce() != 300*time.Millisecond {
		t.Errorf("expected debounce 300ms, got %v", cfg.Search.Debounce())
	}
	if cfg.Cache.Driver != DriverMemory {
		t.Errorf("expected driver memory, got %q", cfg.Cache.Driver)
	}
	if cfg.Cache.KeyPrefix != "grants:cache:" {
		t.Errorf("expected KeyPrefix='grants:cache:', got %q", cfg.Cache.KeyPrefix)
	}
	if cfg.HTTP.Port != 8090 {
		t.Errorf("expected Port=8090, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Logging.File != "grants.log" {
		t.Errorf("expected log file grants.log, got %q", cfg.Logging.File)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		API:    APIConfig{BaseURL: "https://grants.example.com", TimeoutSec: 3},
		Search: SearchConfig{DebounceMS: 150},
		Cache:  CacheConfig{Driver: DriverRedis, KeyPrefix: "custom:"},
		HTTP:   HTTPConfig{Port: 9000, ReadTimeoutSec: 30},
	}
	cfg.ApplyDefaults()

	if cfg.API.TimeoutSec != 3 {
		t.Errorf("expected TimeoutSec=3, got %d", cfg.API.TimeoutSec)
	}
	if cfg.Search.DebounceMS != 150 {
		t.Errorf("expected DebounceMS=150, got %d", cfg.Search.DebounceMS)
	}
	if cfg.Cache.Driver != DriverRedis || cfg.Cache.KeyPrefix != "custom:" {
		t.Errorf("cache settings overridden: %+v", cfg.Cache)
	}
	if cfg.HTTP.Port != 9000 || cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("http settings overridden: %+v", cfg.HTTP)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_GRANTS_URL", "https://api.example.com")

	cfg, err := Parse([]byte(`
api:
  base_url: ${TEST_GRANTS_URL}
cache:
  driver: ${TEST_GRANTS_DRIVER_UNSET:-memory}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Cache.Driver != DriverMemory {
		t.Errorf("driver = %q, want default from expression", cfg.Cache.Driver)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("api: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("cache:\n  driver: valkey\n")); err == nil {
		t.Error("expected validation error for valkey without addrs")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 9191\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("port = %d, want 9191", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("GRANTS_API_URL", "")
	t.Setenv("GRANTS_CACHE_DRIVER", "")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Cache.Driver != DriverMemory {
		t.Errorf("driver = %q", cfg.Cache.Driver)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q, want local", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q, want prod", got)
	}
}
