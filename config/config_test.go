package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadGeneratesDeviceIDAndPersists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fxtnode-config-test")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.Setenv("FXTNODE_CONFIG_DIR", tmpDir)
	defer os.Unsetenv("FXTNODE_CONFIG_DIR")

	if err := loadLocked(); err != nil {
		t.Fatalf("loadLocked: %v", err)
	}

	if Get().DeviceID == "" {
		t.Error("expected a generated DeviceID")
	}

	p := filepath.Join(tmpDir, configFileName)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		t.Error("settings file was not created")
	}

	curMu.Lock()
	cur.DeviceID = "fixed-id"
	curMu.Unlock()
	if err := saveLocked(p); err != nil {
		t.Fatalf("saveLocked: %v", err)
	}

	curMu.Lock()
	cur = Settings{}
	curMu.Unlock()

	if err := loadLocked(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if Get().DeviceID != "fixed-id" {
		t.Errorf("DeviceID after reload = %q, want fixed-id", Get().DeviceID)
	}
}

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "fxtnode-config-test-defaults")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.Setenv("FXTNODE_CONFIG_DIR", tmpDir)
	defer os.Unsetenv("FXTNODE_CONFIG_DIR")

	if err := os.WriteFile(filepath.Join(tmpDir, configFileName), []byte("device_id: abc\n"), 0644); err != nil {
		t.Fatalf("seed settings file: %v", err)
	}

	if err := loadLocked(); err != nil {
		t.Fatalf("loadLocked: %v", err)
	}

	s := Get()
	if s.DeviceID != "abc" {
		t.Errorf("DeviceID = %q, want abc", s.DeviceID)
	}
	if s.StatusAddr != ":8080" || s.MetricsAddr != ":9090" || s.LogLevel != "info" {
		t.Errorf("defaults not applied for omitted fields: %+v", s)
	}
}
