// Package config loads registry configuration from defaults, a
// config file, GTS_ environment variables and CLI flags, in that
// order of precedence (lowest to highest).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/gts-labs/gts/pkg/entity"
)

// Config file names probed in the working directory.
const (
	ConfigFileName    = "gts.yaml"
	ConfigFileNameAlt = "gts.yml"
)

// Server defaults.
const (
	DefaultHost  = "127.0.0.1"
	DefaultPort  = 8000
	DefaultLimit = 100
)

// Config is the resolved registry configuration.
type Config struct {
	// Paths are files or directories scanned for entities.
	Paths []string `koanf:"paths"`

	// EntityIDFields and SchemaIDFields override the content fields
	// probed for identifiers.
	EntityIDFields []string `koanf:"entity_id_fields"`
	SchemaIDFields []string `koanf:"schema_id_fields"`

	Host    string `koanf:"host"`
	Port    int    `koanf:"port"`
	Verbose int    `koanf:"verbose"`

	// ConfigFileUsed records which file was loaded, if any.
	ConfigFileUsed string `koanf:"-"`
}

// EntityConfig converts the field overrides into an entity.Config,
// falling back to the defaults for unset lists.
func (c *Config) EntityConfig() *entity.Config {
	cfg := entity.DefaultConfig()
	if len(c.EntityIDFields) > 0 {
		cfg.EntityIDFields = c.EntityIDFields
	}
	if len(c.SchemaIDFields) > 0 {
		cfg.SchemaIDFields = c.SchemaIDFields
	}
	return cfg
}

// Load resolves configuration. cfgFile forces a specific file; flags
// may be nil. Only flags the user actually set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"host":    DefaultHost,
		"port":    DefaultPort,
		"verbose": 0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFile := findConfigFile(cfgFile)
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// GTS_ENTITY_ID_FIELDS -> entity_id_fields
	if err := k.Load(env.Provider("GTS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "GTS_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI flag is --path, the config key is paths.
			if key == "path" {
				return "paths", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFileUsed = configFile

	for i, p := range cfg.Paths {
		cfg.Paths[i] = strings.TrimSpace(p)
	}

	return &cfg, nil
}

// findConfigFile picks the config file to use. An explicit path wins;
// otherwise gts.yaml then gts.yml in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// FindProjectRoot walks upward from startDir looking for a gts config
// file. Returns empty when none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
