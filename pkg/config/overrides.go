package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix         = "DLSHELF_"
	configFileENV     = "CONFIG_FILE"
	defaultConfigFile = "/config/dlshelf.yml"
)

// applyOverrides layers an optional YAML config file and DLSHELF_-prefixed
// environment variables on top of the per-environment defaults. The file is
// skipped when it doesn't exist; env vars win over the file.
func applyOverrides(cfg *Config) error {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return errors.WithStack(err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	if v := k.String("database_file_path"); v != "" {
		cfg.DatabaseFilePath = v
	}
	if k.Exists("database_debug") {
		cfg.DatabaseDebug = k.Bool("database_debug")
	}
	if v := k.String("server_host"); v != "" {
		cfg.ServerHost = v
	}
	if v := k.Int("server_port"); v != 0 {
		cfg.ServerPort = v
	}
	if v := k.String("trash_dir"); v != "" {
		cfg.TrashDir = v
	}
	if v := k.Duration("enrichment_timeout"); v != 0 {
		cfg.EnrichmentTimeout = v
	}
	if v := k.Int("prefetch_workers"); v != 0 {
		cfg.PrefetchWorkers = v
	}
	if v := k.Int("prefetch_queue_size"); v != 0 {
		cfg.PrefetchQueueSize = v
	}

	return nil
}
