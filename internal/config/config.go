// Package config loads the logvault configuration document.
// Package config 加载 logvault 配置文件。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/livp123/logvault/internal/utils/logger"
)

// DefaultConfigPath is the standard location of the configuration file.
// DefaultConfigPath 是配置文件的标准位置。
const DefaultConfigPath = "/etc/logvault/config.yaml"

// ErrNoStorageRoot is returned by Validate when no event store root is
// configured. This is fatal for every storage-touching command.
var ErrNoStorageRoot = errors.New("storage.root is not configured")

// Config is the full configuration document.
// Config 是完整的配置文档。
type Config struct {
	Storage StorageConfig        `yaml:"storage"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Filters []FilterRule         `yaml:"filters"`
}

// StorageConfig locates the event store and the parser state directory.
type StorageConfig struct {
	// Root is the event store directory holding date partitions, the
	// event registry, and the fallback file.
	Root string `yaml:"root"`
	// StateDir holds parser cursors. Defaults to <root>/parser_state.
	StateDir string `yaml:"state_dir"`
}

// FilterRule declares one filter applied to structured events before
// they are written. Action "drop" suppresses the event; action
// "severity" overrides its severity with the rule's Severity field.
type FilterRule struct {
	ID         string `yaml:"id"`
	Expression string `yaml:"expression"`
	Action     string `yaml:"action"`
	Severity   string `yaml:"severity,omitempty"`
}

// Load reads the configuration from path. A missing file yields a zero
// config so commands that do not touch storage still run; commands that
// do must call Validate first.
// Load 从指定路径读取配置；文件缺失时返回零值配置。
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 // operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts every storage-touching command requires.
func (c *Config) Validate() error {
	if c.Storage.Root == "" {
		return ErrNoStorageRoot
	}
	return nil
}

// ParserStateDir returns the directory for cursor documents.
func (c *Config) ParserStateDir() string {
	if c.Storage.StateDir != "" {
		return c.Storage.StateDir
	}
	return filepath.Join(c.Storage.Root, "parser_state")
}
