package app

import (
	"errors"

	"github.com/vk/modelkit/internal/modelpath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestPath string // hcl manifests
	RealizePath  string // optional model path to force

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.RealizePath != "" {
		if _, err := modelpath.Parse(cfg.RealizePath); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
