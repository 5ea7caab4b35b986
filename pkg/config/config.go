package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"

	"github.com/dosecurve/dosecurve/pkg/api"
	"github.com/dosecurve/dosecurve/pkg/lib"
	"github.com/dosecurve/dosecurve/pkg/lib/log"
)

type Config struct {
	API api.Config `env:""`
	Log log.Config `env:""`
}

func Load() (*Config, error) {
	var cfg Config

	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := lib.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
