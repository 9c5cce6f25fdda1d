package fsmio

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/desctl/desctl/errs"
)

// RunConfig is the YAML-facing shape of synth.Config (spec.md §9,
// "Global mutable flags" — lifted here rather than read from process-wide
// state). ReadConfig validates its string fields; nothing maps it onto
// synth.Config, and cmd/desctl does not read it. fsmio has no dependency
// on synth, so this stays a plain data record.
type RunConfig struct {
	Mode      string `yaml:"mode"`      // bscopnbmax | mpo
	Condition string `yaml:"condition"` // min | max, only meaningful for mpo
	Verbose   bool   `yaml:"verbose"`
	WriteOut  bool   `yaml:"write_out"`
}

// ReadConfig parses a run configuration YAML file (bureau-foundation-
// bureau's lib/config pattern, SPEC_FULL.md §A.2: one path, no
// environment-variable discovery).
func ReadConfig(r io.Reader) (RunConfig, error) {
	var cfg RunConfig
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		return RunConfig{}, errs.New(errs.InputParse, "fsmio.ReadConfig", err)
	}
	switch cfg.Mode {
	case "bscopnbmax", "mpo":
	default:
		return RunConfig{}, errs.New(errs.InputParse, "fsmio.ReadConfig",
			fmt.Errorf("mode must be bscopnbmax or mpo, got %q", cfg.Mode))
	}
	if cfg.Mode == "mpo" {
		switch cfg.Condition {
		case "min", "max":
		default:
			return RunConfig{}, errs.New(errs.InputParse, "fsmio.ReadConfig",
				fmt.Errorf("condition must be min or max, got %q", cfg.Condition))
		}
	}
	return cfg, nil
}
