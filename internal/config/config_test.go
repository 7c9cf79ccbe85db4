/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataPath != "hsqlcore.data" {
		t.Errorf("Expected default data_path 'hsqlcore.data', got '%s'", cfg.DataPath)
	}
	if cfg.CacheRows != 50000 {
		t.Errorf("Expected default cache_rows 50000, got %d", cfg.CacheRows)
	}
	if cfg.DefragLimit != 20 {
		t.Errorf("Expected default defrag_limit 20, got %d", cfg.DefragLimit)
	}
	if cfg.WriteDelay != 20 {
		t.Errorf("Expected default write_delay 20, got %d", cfg.WriteDelay)
	}
	if cfg.EnforceNames != false {
		t.Errorf("Expected default enforce_names false, got %v", cfg.EnforceNames)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log_level 'info', got '%s'", cfg.LogLevel)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "valid default config", cfg: func() *Config { c := DefaultConfig(); return &c }(), wantErr: false},
		{
			name: "empty data_path",
			cfg: &Config{
				DataPath: "", CacheRows: 100, CacheSize: 1024, DefragLimit: 10, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "negative nio_max_size",
			cfg: &Config{
				DataPath: "x.data", NioMaxSize: -1, CacheRows: 100, CacheSize: 1024, DefragLimit: 10, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "zero cache_rows",
			cfg: &Config{
				DataPath: "x.data", CacheRows: 0, CacheSize: 1024, DefragLimit: 10, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "defrag_limit out of range",
			cfg: &Config{
				DataPath: "x.data", CacheRows: 100, CacheSize: 1024, DefragLimit: 101, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "negative write_delay",
			cfg: &Config{
				DataPath: "x.data", CacheRows: 100, CacheSize: 1024, DefragLimit: 10, WriteDelay: -5, LogLevel: "info",
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: &Config{
				DataPath: "x.data", CacheRows: 100, CacheSize: 1024, DefragLimit: 10, LogLevel: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hsqlcore_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `# Test configuration
data_path = "/tmp/test.data"
nio_max_size = 1048576
cache_rows = 1000
cache_size = 2097152
defrag_limit = 30
max_free_blocks = 64
write_delay = 50
enforce_names = true
log_level = "debug"
log_json = true
`

	configPath := filepath.Join(tmpDir, "hsqlcore.conf")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := mgr.Get()

	if cfg.DataPath != "/tmp/test.data" {
		t.Errorf("Expected data_path '/tmp/test.data', got '%s'", cfg.DataPath)
	}
	if cfg.NioMaxSize != 1048576 {
		t.Errorf("Expected nio_max_size 1048576, got %d", cfg.NioMaxSize)
	}
	if cfg.CacheRows != 1000 {
		t.Errorf("Expected cache_rows 1000, got %d", cfg.CacheRows)
	}
	if cfg.DefragLimit != 30 {
		t.Errorf("Expected defrag_limit 30, got %d", cfg.DefragLimit)
	}
	if cfg.MaxFreeBlocks != 64 {
		t.Errorf("Expected max_free_blocks 64, got %d", cfg.MaxFreeBlocks)
	}
	if cfg.WriteDelay != 50 {
		t.Errorf("Expected write_delay 50, got %d", cfg.WriteDelay)
	}
	if !cfg.EnforceNames {
		t.Errorf("Expected enforce_names true, got %v", cfg.EnforceNames)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON != true {
		t.Errorf("Expected log_json true, got %v", cfg.LogJSON)
	}
	if cfg.ConfigFile != configPath {
		t.Errorf("Expected ConfigFile '%s', got '%s'", configPath, cfg.ConfigFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	origCacheRows := os.Getenv(EnvCacheRows)
	origLogLevel := os.Getenv(EnvLogLevel)
	origLogJSON := os.Getenv(EnvLogJSON)
	origEnforceNames := os.Getenv(EnvEnforceNames)

	defer func() {
		os.Setenv(EnvCacheRows, origCacheRows)
		os.Setenv(EnvLogLevel, origLogLevel)
		os.Setenv(EnvLogJSON, origLogJSON)
		os.Setenv(EnvEnforceNames, origEnforceNames)
	}()

	os.Setenv(EnvCacheRows, "7777")
	os.Setenv(EnvLogLevel, "debug")
	os.Setenv(EnvLogJSON, "true")
	os.Setenv(EnvEnforceNames, "true")

	mgr := NewManager()
	mgr.LoadFromEnv()

	cfg := mgr.Get()

	if cfg.CacheRows != 7777 {
		t.Errorf("Expected cache_rows 7777 from env, got %d", cfg.CacheRows)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug' from env, got '%s'", cfg.LogLevel)
	}
	if cfg.LogJSON != true {
		t.Errorf("Expected log_json true from env, got %v", cfg.LogJSON)
	}
	if !cfg.EnforceNames {
		t.Errorf("Expected enforce_names true from env, got %v", cfg.EnforceNames)
	}
}

func TestConfigPrecedence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hsqlcore_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `cache_rows = 9000
data_path = "test.data"
log_level = "info"
`
	configPath := filepath.Join(tmpDir, "hsqlcore.conf")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	origCacheRows := os.Getenv(EnvCacheRows)
	defer os.Setenv(EnvCacheRows, origCacheRows)
	os.Setenv(EnvCacheRows, "1234")

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	mgr.LoadFromEnv()

	cfg := mgr.Get()

	if cfg.CacheRows != 1234 {
		t.Errorf("Expected cache_rows 1234 (env override), got %d", cfg.CacheRows)
	}
}

func TestToTOML(t *testing.T) {
	cfg := &Config{
		DataPath:    "/var/lib/hsqlcore/data",
		CacheRows:   1000,
		CacheSize:   2048,
		DefragLimit: 25,
		LogLevel:    "info",
	}

	out := cfg.ToTOML()

	if !strings.Contains(out, `data_path = "/var/lib/hsqlcore/data"`) {
		t.Error("TOML output missing data_path")
	}
	if !strings.Contains(out, "cache_rows = 1000") {
		t.Error("TOML output missing cache_rows")
	}
	if !strings.Contains(out, "defrag_limit = 25") {
		t.Error("TOML output missing defrag_limit")
	}
}

func TestSaveToFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hsqlcore_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	cfg := DefaultConfig()
	cfg.CacheRows = 7777
	cfg.LogLevel = "debug"

	configPath := filepath.Join(tmpDir, "subdir", "hsqlcore.conf")
	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	loaded := mgr.Get()
	if loaded.CacheRows != 7777 {
		t.Errorf("Expected cache_rows 7777, got %d", loaded.CacheRows)
	}
	if loaded.LogLevel != "debug" {
		t.Errorf("Expected log_level 'debug', got '%s'", loaded.LogLevel)
	}
}

func TestReload(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "hsqlcore_config_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configContent := `cache_rows = 9000
data_path = "test.data"
log_level = "info"
`
	configPath := filepath.Join(tmpDir, "hsqlcore.conf")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	mgr := NewManager()
	if err := mgr.LoadFromFile(configPath); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	cfg := mgr.Get()
	if cfg.CacheRows != 9000 {
		t.Errorf("Expected initial cache_rows 9000, got %d", cfg.CacheRows)
	}

	reloadCalled := false
	mgr.OnReload(func(c *Config) {
		reloadCalled = true
	})

	newContent := `cache_rows = 8000
data_path = "test.data"
log_level = "debug"
`
	if err := os.WriteFile(configPath, []byte(newContent), 0644); err != nil {
		t.Fatalf("Failed to update config file: %v", err)
	}

	if err := mgr.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	cfg = mgr.Get()
	if cfg.CacheRows != 8000 {
		t.Errorf("Expected reloaded cache_rows 8000, got %d", cfg.CacheRows)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected reloaded log_level 'debug', got '%s'", cfg.LogLevel)
	}
	if !reloadCalled {
		t.Error("Reload callback was not called")
	}
}

func TestGlobalManager(t *testing.T) {
	mgr := Global()
	if mgr == nil {
		t.Error("Global() returned nil")
	}

	mgr2 := Global()
	if mgr != mgr2 {
		t.Error("Global() returned different instances")
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	str := cfg.String()

	if !strings.Contains(str, "DataPath:") {
		t.Error("String() missing DataPath")
	}
	if !strings.Contains(str, "CacheRows:") {
		t.Error("String() missing CacheRows")
	}
	if !strings.Contains(str, "hsqlcore.data") {
		t.Error("String() missing data path value")
	}
}
