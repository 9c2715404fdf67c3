package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/skiptow/dispatch/core/metrics"
	"github.com/skiptow/dispatch/jobs/sweeps"
)

type Config struct {
	Firebase FirebaseConfig `json:"firebase"`
	Metrics  metrics.Config `json:"metrics"`
	Sweeps   sweeps.Config  `json:"sweeps"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("SKIPTOW_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "skiptow_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Sweeps.SetDefaults()
	if err := cfg.Firebase.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Sweeps.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
