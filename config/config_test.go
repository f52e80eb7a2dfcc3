package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("FOLIO_SESSION_KEY", "")
	t.Setenv("FOLIO_ADMIN_USER", "")
	t.Setenv("FOLIO_ADMIN_PASSWORD", "")
	t.Setenv("FOLIO_DEV_MODE", "")

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("LoadConfig failed for missing file: %v", err)
	}

	if AppConfig.AdminUsername != "admin" {
		t.Errorf("Expected default admin username, got %q", AppConfig.AdminUsername)
	}
	if AppConfig.ListenPort != 8080 {
		t.Errorf("Expected default port 8080, got %d", AppConfig.ListenPort)
	}
	if AppConfig.SessionKey == "" {
		t.Error("Expected a generated session key, got empty string")
	}
	if AppConfig.DevMode {
		t.Error("DevMode should default to false")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FOLIO_SESSION_KEY", "env-secret-key")
	t.Setenv("FOLIO_ADMIN_USER", "root")
	t.Setenv("FOLIO_ADMIN_PASSWORD", "bootstrap-password")
	t.Setenv("FOLIO_LISTEN_PORT", "9999")
	t.Setenv("FOLIO_ALLOWED_ORIGIN", "https://example.com")

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.SessionKey != "env-secret-key" {
		t.Errorf("Session key not overridden, got %q", AppConfig.SessionKey)
	}
	if AppConfig.AdminUsername != "root" {
		t.Errorf("Admin username not overridden, got %q", AppConfig.AdminUsername)
	}
	if AppConfig.AdminPassword != "bootstrap-password" {
		t.Errorf("Admin password not read from environment, got %q", AppConfig.AdminPassword)
	}
	if AppConfig.ListenPort != 9999 {
		t.Errorf("Listen port not overridden, got %d", AppConfig.ListenPort)
	}
	if AppConfig.AllowedOrigin != "https://example.com" {
		t.Errorf("Allowed origin not overridden, got %q", AppConfig.AllowedOrigin)
	}
}

func TestLoadConfigFileAndPlaceholderKey(t *testing.T) {
	t.Setenv("FOLIO_SESSION_KEY", "")
	t.Setenv("FOLIO_ADMIN_PASSWORD", "")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"app_name":"TestFolio","listen_port":3000,"session_key":"CHANGE_ME_IN_PRODUCTION"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.AppName != "TestFolio" {
		t.Errorf("Expected app name from file, got %q", AppConfig.AppName)
	}
	if AppConfig.ListenPort != 3000 {
		t.Errorf("Expected port from file, got %d", AppConfig.ListenPort)
	}
	if AppConfig.SessionKey == "" || AppConfig.SessionKey == "CHANGE_ME_IN_PRODUCTION" {
		t.Errorf("Placeholder key should have been replaced, got %q", AppConfig.SessionKey)
	}
}

func TestLoadConfigBadPortEnv(t *testing.T) {
	t.Setenv("FOLIO_LISTEN_PORT", "not-a-number")

	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for non-numeric FOLIO_LISTEN_PORT")
	}
}

func TestLoadConfigDevModeEnv(t *testing.T) {
	t.Setenv("FOLIO_DEV_MODE", "true")
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !AppConfig.DevMode {
		t.Error("FOLIO_DEV_MODE=true not applied")
	}

	t.Setenv("FOLIO_DEV_MODE", "maybe")
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for non-boolean FOLIO_DEV_MODE")
	}
}
