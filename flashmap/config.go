package flashmap

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-stm32iap/hal"
)

// Config is a board description file.
type Config struct {
	Flash Region `yaml:"flash"`
}

// LoadConfig reads and validates a board description from path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseConfig(f)
}

// ParseConfig decodes and validates a board description.
func ParseConfig(r io.Reader) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	normalize(&cfg)

	if err := cfg.Flash.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flash layout: %w", err)
	}

	return &cfg, nil
}

// normalize fills defaults for omitted fields. It MUST NOT override values
// present in the file.
func normalize(cfg *Config) {
	if cfg.Flash.ProgramUnit == 0 {
		cfg.Flash.ProgramUnit = STM32G0x1.ProgramUnit
	}
	if cfg.Flash.Bank == 0 {
		cfg.Flash.Bank = hal.Bank1
	}
	if cfg.Flash.AppStart == 0 {
		cfg.Flash.AppStart = cfg.Flash.FlashBase
	}
}
