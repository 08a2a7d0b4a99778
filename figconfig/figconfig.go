// Package figconfig loads optional YAML overrides of the search engine's
// tuning constants and the bench harness's run parameters, using the same
// viper-reads-file-then-yaml.Unmarshal-the-inner-blob two stage that
// TrainingConfig.FromYaml uses elsewhere in this codebase's lineage.
package figconfig

import (
	"path/filepath"

	"figurer/search"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// outerConfig mirrors the OuterConfig shape used elsewhere for YAML configs:
// a "kind" discriminator plus an opaque "def" blob, re-marshaled and decoded
// into the concrete type below.
type outerConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TuningConfig overrides the search package's gate constants and the bench
// harness's run parameters. Every field defaults to the engine's own literal
// constant when omitted from the YAML file or when no file is loaded at all —
// Load never silently picks a different default than the engine's own.
type TuningConfig struct {
	MinFanout           int     `yaml:"minFanout"`
	AimDistanceRatio    float64 `yaml:"aimDistanceRatio"`
	AimCompetitiveRatio float64 `yaml:"aimCompetitiveRatio"`
	ReuseDensityRatio   float64 `yaml:"reuseDensityRatio"`
	SparsityEWMARate    float64 `yaml:"sparsityEwmaRate"`

	Workers    int   `yaml:"workers"`
	Iterations int   `yaml:"iterations"`
	Depth      int   `yaml:"depth"`
	Seed       int64 `yaml:"seed"`
}

// Defaults returns the engine's literal tuning constants and a modest bench
// configuration, used whenever Load finds no override for a given field.
func Defaults() *TuningConfig {
	return &TuningConfig{
		MinFanout:           3,
		AimDistanceRatio:    0.04,
		AimCompetitiveRatio: 0.2,
		ReuseDensityRatio:   0.1,
		SparsityEWMARate:    0.05,
		Workers:             4,
		Iterations:          100,
		Depth:               5,
		Seed:                1,
	}
}

// Tunables projects the engine-facing fields of cfg into search.Tunables, for
// passing to figurer.Context.SetTunables.
func (cfg *TuningConfig) Tunables() search.Tunables {
	return search.Tunables{
		MinFanout:           cfg.MinFanout,
		AimDistanceRatio:    cfg.AimDistanceRatio,
		AimCompetitiveRatio: cfg.AimCompetitiveRatio,
		ReuseDensityRatio:   cfg.ReuseDensityRatio,
		SparsityEWMARate:    cfg.SparsityEWMARate,
	}
}

// Load reads a YAML file at path and overlays it onto Defaults(). A missing
// file is an error — callers that want "no file" behavior should call
// Defaults directly rather than Load with a path they know doesn't exist.
func Load(path string) (*TuningConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outer := &outerConfig{}
	if err := vp.Unmarshal(outer); err != nil {
		return nil, err
	}

	spec, err := yaml.Marshal(outer.Def)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(spec, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
