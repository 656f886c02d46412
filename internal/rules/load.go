package rules

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/config"
)

// LoadFile reads a YAML, JSON or TOML rules file and layers it over the
// defaults. Every key present in the file replaces the default value
// entirely; absent keys keep their defaults.
func LoadFile(path string) (RuleSet, error) {
	rs := Default()
	if path == "" {
		return rs, nil
	}

	v := viper.New()
	v.SetConfigFile(config.ExpandPath(path))
	if err := v.ReadInConfig(); err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	replaceSlices := func(c *mapstructure.DecoderConfig) {
		c.ZeroFields = true
		c.ErrorUnused = true
	}
	if err := v.Unmarshal(&rs, replaceSlices); err != nil {
		return RuleSet{}, fmt.Errorf("%w: %s: %w", common.ErrInvalidRuleSet, path, err)
	}

	if err := rs.Validate(); err != nil {
		return RuleSet{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rs, nil
}
