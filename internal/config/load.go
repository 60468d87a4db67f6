// internal/config/load.go
package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load reads, validates and normalizes the configuration file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Watch re-reads the file on change and hands the fresh, validated
// config to onChange. Editors fire bursts of events per save, so
// changes are debounced. A file that fails to load is reported and
// skipped; the running config stays in force.
func Watch(path string, onChange func(*Config)) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}

	var mu sync.Mutex
	var pending *time.Timer

	v.OnConfigChange(func(_ fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()
		if pending != nil {
			pending.Stop()
		}
		pending = time.AfterFunc(500*time.Millisecond, func() {
			cfg, err := Load(path)
			if err != nil {
				log.Printf("config: reload rejected: %v", err)
				return
			}
			onChange(cfg)
		})
	})
	v.WatchConfig()
	return nil
}
