// Package config loads the device/runtime settings file: a small YAML
// document distinct from the JSON node descriptor node.CreateFromJSON
// consumes. Where the node descriptor answers "what function-block program
// to run", this file answers "how this device behaves" — its device ID,
// log level/format, and the listen addresses for the status and metrics
// HTTP surfaces. Grounded on the teacher's src/server/config/config.go:
// same env-var directory override, same atomic write-via-temp-file-rename
// save path, same generate-on-first-run bootstrap, now using
// github.com/google/uuid instead of hand-rolled crypto/rand bit-twiddling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	prodConfigDir  = "/var/lib/fxtnode"
	configFileName = "settings.yaml"
)

// Settings is the device/runtime settings document.
type Settings struct {
	DeviceID          string `yaml:"device_id"`
	LogLevel          string `yaml:"log_level,omitempty"`
	LogFormat         string `yaml:"log_format,omitempty"`
	StatusAddr        string `yaml:"status_addr,omitempty"`
	MetricsAddr       string `yaml:"metrics_addr,omitempty"`
	NodeDescriptorDir string `yaml:"node_descriptor_dir,omitempty"`
}

func defaults() Settings {
	return Settings{
		LogLevel:    "info",
		LogFormat:   "text",
		StatusAddr:  ":8080",
		MetricsAddr: ":9090",
	}
}

var (
	cur     Settings
	curOnce sync.Once
	curMu   sync.RWMutex
)

// Load reads the settings file, generating and persisting a default one
// (with a fresh device ID) the first time it is run on a given device. It
// is safe to call more than once; only the first call actually reads disk.
func Load() (Settings, error) {
	var err error
	curOnce.Do(func() {
		err = loadLocked()
	})
	return Get(), err
}

// Get returns the most recently loaded Settings. Returns the zero Settings
// value (not defaults()) if Load has not been called yet.
func Get() Settings {
	curMu.RLock()
	defer curMu.RUnlock()
	return cur
}

func path() string {
	if dir := os.Getenv("FXTNODE_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, configFileName)
	}
	if info, err := os.Stat(prodConfigDir); err == nil && info.IsDir() {
		probe := filepath.Join(prodConfigDir, ".write_test")
		if f, err := os.Create(probe); err == nil {
			f.Close()
			os.Remove(probe)
			return filepath.Join(prodConfigDir, configFileName)
		}
	}
	return filepath.Join("tmp", configFileName)
}

func loadLocked() error {
	curMu.Lock()
	defer curMu.Unlock()

	cur = defaults()
	p := path()
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			cur.DeviceID = uuid.NewString()
			return saveLocked(p)
		}
		return err
	}

	loaded := defaults()
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("config: parse %s: %w", p, err)
	}
	cur = loaded

	if cur.DeviceID == "" {
		cur.DeviceID = uuid.NewString()
		return saveLocked(p)
	}
	return nil
}

func saveLocked(p string) error {
	data, err := yaml.Marshal(&cur)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
