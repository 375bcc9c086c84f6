package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	MODE_RIGID  = "rigid"
	MODE_SMOOTH = "smooth"
)

const MAX_TICK_RATE = 1000

type Config struct {
	Addr     string `yaml:"addr"`
	Skeleton string `yaml:"skeleton"`
	Mesh     string `yaml:"mesh"`
	Weights  string `yaml:"weights"`
	Mode     string `yaml:"mode"`
	// bind pose root position, the root joint offset when unset
	BaseOffset *[3]float64 `yaml:"base_offset,omitempty"`
	// frames per second pushed by the web ticker, 0 disables it
	TickRate int    `yaml:"tick_rate"`
	Encoding string `yaml:"encoding"`
	Paused   bool   `yaml:"paused"`
}

func Default() *Config {
	return &Config{
		Addr:     ":8000",
		Mode:     MODE_SMOOTH,
		TickRate: 60,
	}
}

// Load reads a yaml config on top of Default.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read config %q", path)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Unmarshaling error")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch cfg.Mode {
	case MODE_RIGID, MODE_SMOOTH:
	default:
		return errors.Errorf("Unknown skinning mode %q", cfg.Mode)
	}
	if cfg.TickRate < 0 || cfg.TickRate > MAX_TICK_RATE {
		return errors.Errorf("Tick rate %d out of range [0, %d]", cfg.TickRate, MAX_TICK_RATE)
	}
	if cfg.Encoding != "" {
		found := false
		for _, name := range ListEncodings() {
			if name == cfg.Encoding {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("Failed to find encoding %q", cfg.Encoding)
		}
	}
	return nil
}

// Apply pushes process wide settings (text encoding) from the config.
func (cfg *Config) Apply() error {
	return SetEncoding(cfg.Encoding)
}

func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}
